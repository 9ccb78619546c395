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

package cmd

import (
	"flag"
	"log"
	"os"

	"github.com/varcomp/varcomp/sites"
)

// SitesIndexHelp is the help string for this command.
const SitesIndexHelp = "sites-index parameters:\n" +
	"varcomp sites-index sites-file indexed-sites-file\n" +
	"[--log-path path]\n"

// SitesIndex implements the varcomp sites-index command: it parses a
// positional annotation file and writes it back in canonical sorted
// form, validating it in the process.
func SitesIndex() error {
	var logPath string

	var flags flag.FlagSet
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	parseFlags(flags, 4, SitesIndexHelp)

	input := getFilename(os.Args[2], SitesIndexHelp)
	output := getFilename(os.Args[3], SitesIndexHelp)

	setLogOutput(logPath)

	if !checkExist("", input) || !checkCreate("", output) {
		os.Exit(1)
	}

	index, err := sites.FromFile(input)
	if err != nil {
		return err
	}
	if err := index.ToFile(output); err != nil {
		return err
	}
	log.Println("Wrote the indexed sites to", output)
	return nil
}
