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

func line(pos, qual, filter string) string {
	return "chr1\t" + pos + "\t.\tA\tG\t" + qual + "\t" + filter + "\t.\tGT:DP\t0/1:20"
}

// testComparisons builds a three-set experiment over temp files:
// locus 100 is called by every set, locus 200 by A and B, locus 300 by
// A alone, and locus 400 by A and by B with a source filter applied.
func testComparisons(t *testing.T) (*Experiment, *Comparisons) {
	t.Helper()
	dir := t.TempDir()
	x := testExperiment("A", "B", "C")
	x.CallSet("A").Files = []string{writeTestVCF(t, dir, "a.vcf", []string{
		line("100", "50", "PASS"),
		line("200", "50", "PASS"),
		line("300", "50", "PASS"),
		line("400", "50", "PASS"),
	})}
	x.CallSet("B").Files = []string{writeTestVCF(t, dir, "b.vcf", []string{
		line("100", "50", "PASS"),
		line("200", "50", "PASS"),
		line("400", "50", "lowQual"),
	})}
	x.CallSet("C").Files = []string{writeTestVCF(t, dir, "c.vcf", []string{
		line("100", "50", "PASS"),
	})}
	cmps, err := RunComparisons(x, dir)
	if err != nil {
		t.Fatal("RunComparisons failed: ", err)
	}
	return x, cmps
}

func variantPositions(t *testing.T, filename string) (positions []int32) {
	t.Helper()
	set, err := readVariantSet(filename)
	if err != nil {
		t.Fatal("reading ", filename, " failed: ", err)
	}
	for _, v := range set.Variants {
		positions = append(positions, v.Pos)
	}
	return positions
}

func TestComparePair(t *testing.T) {
	x, cmps := testComparisons(t)
	pair := cmps.FindPair("A", "B")
	if pair == nil {
		t.Fatal("FindPair failed")
	}
	if positions := variantPositions(t, pair.Concordant); len(positions) != 3 {
		t.Error("concordant calls failed: ", positions)
	}
	if positions := variantPositions(t, pair.Only("A")); len(positions) != 1 || positions[0] != 300 {
		t.Error("unique-to-A calls failed: ", positions)
	}
	if positions := variantPositions(t, pair.Only("B")); len(positions) != 0 {
		t.Error("unique-to-B calls failed: ", positions)
	}
	if pair.Stats["concordant"] != 3 {
		t.Error("comparison stats failed")
	}
	if len(cmps.Pairwise) != 3 {
		t.Error("pairwise comparison count failed")
	}
	if _, ok := cmps.SinglePair(x); ok {
		t.Error("single-pair detection failed")
	}
}

func TestBuildUnionAnnotations(t *testing.T) {
	x, cmps := testComparisons(t)
	set, err := readVariantSet(cmps.Union)
	if err != nil {
		t.Fatal("reading the union failed: ", err)
	}
	if len(set.Variants) != 4 {
		t.Fatal("union record count failed")
	}
	annotations := make(map[int32]string)
	for _, v := range set.Variants {
		annotation, ok := Provenance(v)
		if !ok {
			t.Fatal("union record without provenance at ", v.Locus())
		}
		annotations[v.Pos] = annotation
	}
	if annotations[100] != IntersectionTag {
		t.Error("intersection annotation failed: ", annotations[100])
	}
	if annotations[200] != "A-AND-B" {
		t.Error("subset annotation failed: ", annotations[200])
	}
	if annotations[300] != "A" {
		t.Error("single-set annotation failed: ", annotations[300])
	}
	if annotations[400] != "A-AND-filteredInB" {
		t.Error("filtered contributor annotation failed: ", annotations[400])
	}
	for _, annotation := range annotations {
		v := testVariant(t, "chr1	100	.	A	G	50	PASS	set="+annotation)
		names, err := MembershipNames(v, x)
		if err != nil {
			t.Fatal("round-trip decoding failed: ", err)
		}
		if len(names) == 0 {
			t.Error("round-trip membership empty for ", annotation)
		}
	}
}

func TestMultiwayOverlap(t *testing.T) {
	x, cmps := testComparisons(t)
	files, err := MultiwayOverlap(cmps, x, "C")
	if err != nil {
		t.Fatal("MultiwayOverlap failed: ", err)
	}
	if positions := variantPositions(t, files.TruePositives); len(positions) != 1 || positions[0] != 100 {
		t.Error("true positive split failed: ", positions)
	}
	if positions := variantPositions(t, files.TargetOverlaps); len(positions) != 1 || positions[0] != 200 {
		t.Error("target overlap split failed: ", positions)
	}
	if positions := variantPositions(t, files.FalsePositives); len(positions) != 2 {
		t.Error("false positive split failed: ", positions)
	}
	if _, err := MultiwayOverlap(cmps, x, "unknown"); err == nil {
		t.Error("unknown target detection failed")
	}
}

func TestSelectTrusted(t *testing.T) {
	x, cmps := testComparisons(t)
	pair := cmps.FindPair("A", "B")
	files, err := SelectTrusted(cmps, []string{"A", "B"}, "", x)
	if err != nil {
		t.Fatal("SelectTrusted failed: ", err)
	}
	if files.TruePositives != pair.Only("A") || files.FalsePositives != pair.Only("B") {
		t.Error("pair support routing failed")
	}
	var uerr *UnresolvedSupportError
	if _, err := SelectTrusted(cmps, []string{"A", "unknown"}, "", x); !errors.As(err, &uerr) {
		t.Error("unresolved support detection failed")
	}
	files, err = SelectTrusted(cmps, nil, "C", x)
	if err != nil {
		t.Fatal("multi-way support routing failed: ", err)
	}
	if files.TargetOverlaps == "" {
		t.Error("multi-way target overlap resolution failed")
	}
}

func TestPartition(t *testing.T) {
	x, cmps := testComparisons(t)
	fin := &Finalizer{
		Method: "multiple",
		Target: "C",
		Params: FinalizerParams{
			KeepFilter:     "QUAL > 40",
			ValidateFilter: "QUAL > 0",
			Validate:       ValidateSpec{Approach: TopApproach, Count: 1, TopMetrics: []MetricSpec{{Name: AttrQuality}}},
		},
	}
	final, validate, err := Partition(cmps, fin, x, &Retriever{})
	if err != nil {
		t.Fatal("Partition failed: ", err)
	}
	if positions := variantPositions(t, final); len(positions) != 2 || positions[0] != 100 || positions[1] != 200 {
		t.Error("final partition failed: ", positions)
	}
	if positions := variantPositions(t, validate); len(positions) != 1 || positions[0] != 200 {
		t.Error("validate partition failed: ", positions)
	}
}

func TestPartitionConfigErrors(t *testing.T) {
	x, cmps := testComparisons(t)
	fin := &Finalizer{
		Method: "multiple",
		Target: "C",
		Params: FinalizerParams{
			Validate: ValidateSpec{Approach: TopApproach, Count: 1},
		},
	}
	var cerr *ConfigError
	if _, _, err := Partition(cmps, fin, x, &Retriever{}); !errors.As(err, &cerr) {
		t.Error("partition config validation failed")
	}
	fin.Params.Validate.TopMetrics = []MetricSpec{{Name: AttrQuality}}
	fin.Params.KeepFilter = "QUAL >"
	if _, _, err := Partition(cmps, fin, x, &Retriever{}); !errors.As(err, &cerr) {
		t.Error("partition filter parse validation failed")
	}
	fin.Params.KeepFilter = ""
	fin.Target = ""
	if _, _, err := Partition(cmps, fin, x, &Retriever{}); !errors.As(err, &cerr) {
		t.Error("partition missing target validation failed")
	}
}
