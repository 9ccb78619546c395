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
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/varcomp/varcomp/compare"
	"github.com/varcomp/varcomp/config"
)

// ClassifyHelp is the help string for this command.
const ClassifyHelp = "classify parameters:\n" +
	"varcomp classify experiment.yaml callset-name\n" +
	"[--yes rule,...]\n" +
	"[--no rule,...]\n" +
	"[--filter-name name]\n" +
	"[--description text]\n" +
	"[--log-path path]\n" +
	"[--timed]\n"

func splitRuleNames(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Classify implements the varcomp classify command: it applies either
// the named rules or the call set's caller policy to one call set and
// writes a copy with failing calls tagged.
func Classify() error {
	var (
		yes, no                 string
		filterName, description string
		logPath                 string
		timed                   bool
	)

	var flags flag.FlagSet
	flags.StringVar(&yes, "yes", "", "comma-separated rules that must hold for a call to be kept")
	flags.StringVar(&no, "no", "", "comma-separated rules that must not hold for a call to be kept")
	flags.StringVar(&filterName, "filter-name", "varcompFilter", "name of the filter tag written to failing calls")
	flags.StringVar(&description, "description", "failed the varcomp classification", "description of the filter tag")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	parseFlags(flags, 4, ClassifyHelp)

	configFile := getFilename(os.Args[2], ClassifyHelp)
	name := os.Args[3]

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
	cs := x.CallSet(name)
	if cs == nil {
		return fmt.Errorf("call set %v does not exist in %v", name, configFile)
	}
	if !checkExist("", cs.File()) {
		os.Exit(1)
	}

	retr := &compare.Retriever{Annotations: x.Annotations}
	var pred compare.Predicate
	if yes != "" || no != "" {
		checker, err := compare.BuildChecker(retr, cs, x, compare.RuleSpec{
			Yes: splitRuleNames(yes),
			No:  splitRuleNames(no),
		})
		if err != nil {
			return err
		}
		pred = compare.RulePredicate(checker)
	} else if cs.Caller == "freebayes" {
		pred = compare.FreebayesPredicate(retr)
	} else {
		return fmt.Errorf("no rules given, and no caller policy exists for call set %v", name)
	}

	return timedRun(timed, "Classifying calls.", func() error {
		out, err := compare.FilterVariants(cs.File(), filterName, description, pred)
		if err != nil {
			return err
		}
		log.Println("Wrote the classified calls to", out)
		return nil
	})
}
