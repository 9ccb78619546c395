// varcomp: a tool for comparing, reconciling, and filtering variant call
// sets produced by multiple callers, technologies, or pipeline runs.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License along with this program. If not, see
// <https://github.com/varcomp/varcomp/blob/master/LICENSE.txt>.

// varcomp compares the variant calls of one sample produced by
// multiple callers, technologies, or pipeline runs, reconciles them
// into trusted and suspect subsets, and filters them against caller
// policies or named rules.
//
// Please see https://github.com/varcomp/varcomp for a documentation of
// the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/varcomp/varcomp/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: compare, classify, finalize, sites-index")
	fmt.Fprint(os.Stderr, "\n", cmd.CompareHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ClassifyHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.FinalizeHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.SitesIndexHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage)
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "compare":
		err = cmd.Compare()
	case "classify":
		err = cmd.Classify()
	case "finalize":
		err = cmd.Finalize()
	case "sites-index":
		err = cmd.SitesIndex()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command:", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
