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

	"github.com/varcomp/varcomp/compare"
	"github.com/varcomp/varcomp/config"
)

// CompareHelp is the help string for this command.
const CompareHelp = "compare parameters:\n" +
	"varcomp compare experiment.yaml\n" +
	"[--output-dir dir]\n" +
	"[--log-path path]\n" +
	"[--timed]\n"

// Compare implements the varcomp compare command: all pairwise
// comparisons of the experiment's call sets plus the merged union
// file.
func Compare() error {
	var (
		outputDir, logPath string
		timed              bool
	)

	var flags flag.FlagSet
	flags.StringVar(&outputDir, "output-dir", ".", "directory for the comparison output files")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	parseFlags(flags, 3, CompareHelp)

	configFile := getFilename(os.Args[2], CompareHelp)

	setLogOutput(logPath)

	if !checkExist("", configFile) {
		os.Exit(1)
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	x, err := cfg.Experiment()
	if err != nil {
		return err
	}
	for _, cs := range x.CallSets {
		if !checkExist("", cs.File()) {
			os.Exit(1)
		}
	}

	return timedRun(timed, "Comparing call sets.", func() error {
		cmps, err := compare.RunComparisons(x, outputDir)
		if err != nil {
			return err
		}
		for _, pair := range cmps.Pairwise {
			log.Println("Compared", pair.A, "with", pair.B, ":", pair.Stats)
		}
		log.Println("Wrote the merged union to", cmps.Union)
		return nil
	})
}
