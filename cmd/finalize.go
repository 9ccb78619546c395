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

// FinalizeHelp is the help string for this command.
const FinalizeHelp = "finalize parameters:\n" +
	"varcomp finalize experiment.yaml\n" +
	"[--output-dir dir]\n" +
	"[--log-path path]\n" +
	"[--timed]\n"

// Finalize implements the varcomp finalize command: it runs the
// comparisons of the experiment and then every configured finalizer,
// producing the final and to-validate call files.
func Finalize() error {
	var (
		outputDir, logPath string
		timed              bool
	)

	var flags flag.FlagSet
	flags.StringVar(&outputDir, "output-dir", ".", "directory for the comparison output files")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	parseFlags(flags, 3, FinalizeHelp)

	configFile := getFilename(os.Args[2], FinalizeHelp)

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

	return timedRun(timed, "Finalizing call sets.", func() error {
		cmps, err := compare.RunComparisons(x, outputDir)
		if err != nil {
			return err
		}
		retr := &compare.Retriever{Annotations: x.Annotations}
		for _, fin := range cfg.Finalizers() {
			outputs, err := compare.RunFinalizer(cmps, fin, x, retr, nil)
			if err != nil {
				return err
			}
			if outputs.Filtered != "" {
				log.Println("Finalizer", fin.Target, "wrote", outputs.Filtered)
			} else {
				log.Println("Finalizer", fin.Target, "wrote", outputs.Final, "and", outputs.Validate)
			}
		}
		return nil
	})
}
