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

package vcf

import (
	"bufio"
	"strings"
	"testing"

	"github.com/varcomp/varcomp/utils"
)

const testHeader = `##fileformat=VCFv4.3
##INFO=<ID=DP,Number=1,Type=Integer,Description="Total read depth">
##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	sample1
`

const testLine = "chr1	12345	rs123	A	G	29.5	PASS	DP=14;set=gatk-AND-freebayes	GT:DP:AD	0/1:14:8,6"

func parseTestVariant(t *testing.T, line string, nSamples int) *Variant {
	var sc StringScanner
	sc.Reset(line)
	variant := sc.ParseVariant(nSamples)
	if variant == nil {
		t.Fatal("ParseVariant failed: ", sc.Err())
	}
	return variant
}

func TestParseHeader(t *testing.T) {
	hdr, lines, err := ParseHeader(bufio.NewReader(strings.NewReader(testHeader)))
	if err != nil {
		t.Fatal("ParseHeader failed: ", err)
	}
	if lines != 4 {
		t.Error("ParseHeader line count failed")
	}
	if hdr.NSamples() != 1 {
		t.Error("Header.NSamples failed")
	}
	if len(hdr.Meta) != 2 {
		t.Error("ParseHeader meta lines failed")
	}
}

func TestParseVariant(t *testing.T) {
	variant := parseTestVariant(t, testLine, 1)
	if variant.Chrom != "chr1" || variant.Pos != 12345 || variant.Ref != "A" {
		t.Error("ParseVariant fixed columns failed")
	}
	if len(variant.Alt) != 1 || variant.Alt[0] != "G" {
		t.Error("ParseVariant alt alleles failed")
	}
	if q, ok := variant.QualScore(); !ok || q != 29.5 {
		t.Error("ParseVariant qual failed")
	}
	if !variant.Pass() {
		t.Error("Variant.Pass failed")
	}
	if variant.Novel() {
		t.Error("Variant.Novel failed")
	}
	if dp, ok := variant.Info.Get(utils.Intern("DP")); !ok || dp != 14 {
		t.Error("ParseVariant info failed")
	}
	if set, ok := variant.Info.Get(utils.Intern("set")); !ok || set != "gatk-AND-freebayes" {
		t.Error("ParseVariant set annotation failed")
	}
	gt, err := variant.SingleGenotype()
	if err != nil {
		t.Fatal("SingleGenotype failed: ", err)
	}
	if gt.Zygosity() != Het {
		t.Error("Genotype.Zygosity failed")
	}
	ad, ok := gt.Data.Get(utils.Intern("AD"))
	if !ok {
		t.Fatal("genotype AD lookup failed")
	}
	if list := ad.([]interface{}); len(list) != 2 || list[0] != 8 || list[1] != 6 {
		t.Error("ParseVariant genotype list value failed")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	variant := parseTestVariant(t, testLine, 1)
	formatted := string(variant.Format(nil))
	if formatted != testLine+"\n" {
		t.Error("Variant.Format round trip failed: ", formatted)
	}
}

func TestVariantKind(t *testing.T) {
	if parseTestVariant(t, "chr1	1	.	A	G	.	.	.", 0).Kind() != SNP {
		t.Error("Kind SNP failed")
	}
	if parseTestVariant(t, "chr1	1	.	A	AT	.	.	.", 0).Kind() != Indel {
		t.Error("Kind Indel failed")
	}
	if parseTestVariant(t, "chr1	1	.	AC	GT	.	.	.", 0).Kind() != MNP {
		t.Error("Kind MNP failed")
	}
	if parseTestVariant(t, "chr1	1	.	A	G,AT	.	.	.", 0).Kind() != Mixed {
		t.Error("Kind Mixed failed")
	}
}

func TestZygosity(t *testing.T) {
	cases := []struct {
		gt   string
		want Zygosity
	}{
		{"0/0", HomRef},
		{"0/1", Het},
		{"1/0", Het},
		{"1/2", HetNonRef},
		{"1/1", HomVar},
		{"./1", NoCall},
		{".", NoCall},
	}
	for _, c := range cases {
		gt, phased := parseGT(c.gt)
		genotype := Genotype{GT: gt, Phased: phased}
		if genotype.Zygosity() != c.want {
			t.Error("Zygosity failed for ", c.gt)
		}
	}
	if !Het.IsHet() || !HetNonRef.IsHet() || HomVar.IsHet() {
		t.Error("Zygosity.IsHet failed")
	}
}

func TestWithFilter(t *testing.T) {
	variant := parseTestVariant(t, testLine, 1)
	lowQual := utils.Intern("lowQual")
	filtered := variant.WithFilter(lowQual)
	if !variant.Pass() {
		t.Error("WithFilter mutated the original record")
	}
	if filtered.Pass() || len(filtered.Filter) != 1 || filtered.Filter[0] != lowQual {
		t.Error("WithFilter PASS replacement failed")
	}
	twice := filtered.WithFilter(utils.Intern("lowDepth"))
	if len(twice.Filter) != 2 {
		t.Error("WithFilter append failed")
	}
}

func TestWithInfo(t *testing.T) {
	variant := parseTestVariant(t, testLine, 1)
	key := utils.Intern("set")
	modified := variant.WithInfo(key, "Intersection")
	if v, _ := variant.Info.Get(key); v != "gatk-AND-freebayes" {
		t.Error("WithInfo mutated the original record")
	}
	if v, _ := modified.Info.Get(key); v != "Intersection" {
		t.Error("WithInfo replacement failed")
	}
}

func TestComposeFilters(t *testing.T) {
	hdr := NewHeader()
	removeFailing := func(_ *Header) VariantFilter {
		return func(v *Variant) *Variant {
			if v.Pass() {
				return v
			}
			return nil
		}
	}
	markLowQual := func(hdr *Header) VariantFilter {
		lowQual := utils.Intern("lowQual")
		hdr.AddFilterLine("lowQual", "call quality below 30")
		return func(v *Variant) *Variant {
			if q, ok := v.QualScore(); ok && q < 30 {
				return v.WithFilter(lowQual)
			}
			return v
		}
	}
	receiver := ComposeFilters(hdr, []Filter{removeFailing, markLowQual})
	if receiver == nil {
		t.Fatal("ComposeFilters returned no receiver")
	}
	if len(hdr.Meta) != 1 {
		t.Error("ComposeFilters header modification failed")
	}
	variants := []*Variant{
		parseTestVariant(t, "chr1	1	.	A	G	50	PASS	.", 0),
		parseTestVariant(t, "chr1	2	.	A	G	10	lowDepth	.", 0),
		parseTestVariant(t, "chr1	3	.	A	G	10	PASS	.", 0),
	}
	result := receiver(0, variants).([]*Variant)
	if len(result) != 2 {
		t.Fatal("ComposeFilters removal failed")
	}
	if !result[0].Pass() {
		t.Error("ComposeFilters pass-through failed")
	}
	if result[1].Pass() {
		t.Error("ComposeFilters filter annotation failed")
	}
}
