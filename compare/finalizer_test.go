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
	"errors"
	"testing"
)

func TestRunFinalizerMultiple(t *testing.T) {
	x, cmps := testComparisons(t)
	fin := &Finalizer{
		Target: "C",
		Params: FinalizerParams{
			KeepFilter:     "QUAL > 40",
			ValidateFilter: "QUAL > 0",
			Validate:       ValidateSpec{Approach: TopApproach, Count: 1, TopMetrics: []MetricSpec{{Name: AttrQuality}}},
		},
	}
	outputs, err := RunFinalizer(cmps, fin, x, &Retriever{}, nil)
	if err != nil {
		t.Fatal("RunFinalizer failed: ", err)
	}
	if outputs.Final == "" || outputs.Validate == "" || outputs.Filtered != "" {
		t.Error("default method dispatch failed: ", outputs)
	}
	if positions := variantPositions(t, outputs.Final); len(positions) != 2 || positions[0] != 100 || positions[1] != 200 {
		t.Error("default method partition failed: ", positions)
	}
}

func TestRunFinalizerRecalFilter(t *testing.T) {
	x, cmps := testComparisons(t)
	fin := &Finalizer{
		Method: RecalFilterMethod,
		Target: "C",
		Params: FinalizerParams{
			Annotations: []string{AttrQuality},
			Classifiers: []string{AttrDepth},
		},
	}
	outputs, err := RunFinalizer(cmps, fin, x, &Retriever{}, nil)
	if err != nil {
		t.Fatal("RunFinalizer failed: ", err)
	}
	if outputs.Filtered == "" || outputs.Final != "" || outputs.Validate != "" {
		t.Error("recal-filter dispatch failed: ", outputs)
	}
	set, err := readVariantSet(outputs.Filtered)
	if err != nil {
		t.Fatal("reading the recalibrated output failed: ", err)
	}
	if len(set.Variants) != 1 {
		t.Fatal("recalibrated output record count failed")
	}
	// The trusted calls pin both feature ranges at the target's own
	// values, so both features rescale to 0 and the mean confidence
	// falls below the default minimum.
	if set.Variants[0].Pass() {
		t.Error("low-confidence tagging failed")
	}
	var filterName string
	for _, sym := range set.Variants[0].Filter {
		filterName = *sym
	}
	if filterName != RecalFilterName {
		t.Error("recal filter name failed: ", filterName)
	}
	found := false
	for _, meta := range set.Header.Meta {
		if meta == `##FILTER=<ID=lowConfidence,Description="classifier confidence below 0.5">` {
			found = true
		}
	}
	if !found {
		t.Error("recal filter header line failed")
	}
}

func TestRunFinalizerConfigErrors(t *testing.T) {
	x, cmps := testComparisons(t)
	var cerr *ConfigError
	fin := &Finalizer{Method: "svm", Target: "C"}
	if _, err := RunFinalizer(cmps, fin, x, &Retriever{}, nil); !errors.As(err, &cerr) {
		t.Error("unknown method detection failed")
	}
	fin = &Finalizer{Method: RecalFilterMethod, Target: "C"}
	if _, err := RunFinalizer(cmps, fin, x, &Retriever{}, nil); !errors.As(err, &cerr) {
		t.Error("missing feature detection failed")
	}
	fin = &Finalizer{Method: RecalFilterMethod, Params: FinalizerParams{Annotations: []string{AttrQuality}}}
	if _, err := RunFinalizer(cmps, fin, x, &Retriever{}, nil); !errors.As(err, &cerr) {
		t.Error("missing target detection failed")
	}
}

func TestMeanScore(t *testing.T) {
	score := MeanScore(map[string]interface{}{"a": 0.25, "b": 0.75, "c": nil})
	if score != 0.5 {
		t.Error("MeanScore failed: ", score)
	}
	if MeanScore(map[string]interface{}{"a": nil}) != 0 {
		t.Error("MeanScore for missing features failed")
	}
}
