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

package compare

import (
	"testing"

	"github.com/varcomp/varcomp/vcf"
)

func testVariant(t *testing.T, line string) *vcf.Variant {
	t.Helper()
	var sc vcf.StringScanner
	sc.Reset(line)
	variant := sc.ParseVariant(1)
	if variant == nil {
		t.Fatal("parsing a test variant failed: ", sc.Err())
	}
	return variant
}

func testExperiment(names ...string) *Experiment {
	x := &Experiment{Sample: "NA12878"}
	for _, name := range names {
		x.CallSets = append(x.CallSets, &CallSet{Name: name})
	}
	return x
}
