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
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/varcomp/varcomp/internal"
	"github.com/varcomp/varcomp/utils"
	"github.com/varcomp/varcomp/vcf"
)

// variantKey identifies a call across files: locus plus alleles.
func variantKey(v *vcf.Variant) string {
	return v.Chrom + "\t" + strconv.FormatInt(int64(v.Pos), 10) + "\t" + v.Ref + "\t" + strings.Join(v.Alt, ",")
}

func readVariantSet(filename string) (set *vcf.Set, err error) {
	reader, err := vcf.OpenVariantReader(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := reader.Close(); nerr != nil && err == nil {
			set, err = nil, nerr
		}
	}()
	set = new(vcf.Set)
	if err := reader.RunPipeline(set, nil); err != nil {
		return nil, err
	}
	return set, nil
}

func writeVariantFile(filename string, header *vcf.Header, variants []*vcf.Variant) error {
	return internal.SafeWrite(filename, func(staging string) (err error) {
		writer, err := vcf.CreateVariantWriter(staging, header)
		if err != nil {
			return err
		}
		defer func() {
			if nerr := writer.Close(); nerr != nil && err == nil {
				err = nerr
			}
		}()
		for _, variant := range variants {
			if err := writer.Write(variant); err != nil {
				return err
			}
		}
		return nil
	})
}

// ComparePair compares the calls of two call sets and writes the
// concordant calls and the calls unique to either side. Existing
// non-empty outputs are reused without recomputation.
func ComparePair(x *Experiment, a, b *CallSet, outDir string) (*ComparisonResult, error) {
	prefix := filepath.Join(outDir, fmt.Sprintf("%v-%v-%v", x.Sample, a.Name, b.Name))
	result := &ComparisonResult{
		A:          a.Name,
		B:          b.Name,
		Concordant: prefix + "-concordant.vcf",
		OnlyA:      prefix + "-" + a.Name + "-unique.vcf",
		OnlyB:      prefix + "-" + b.Name + "-unique.vcf",
	}
	if !internal.NeedsRun(result.Concordant, result.OnlyA, result.OnlyB) {
		return result, nil
	}
	setA, err := readVariantSet(a.File())
	if err != nil {
		return nil, err
	}
	setB, err := readVariantSet(b.File())
	if err != nil {
		return nil, err
	}
	inB := make(map[string]bool, len(setB.Variants))
	for _, v := range setB.Variants {
		inB[variantKey(v)] = true
	}
	inA := make(map[string]bool, len(setA.Variants))
	var concordant, onlyA, onlyB []*vcf.Variant
	for _, v := range setA.Variants {
		key := variantKey(v)
		inA[key] = true
		if inB[key] {
			concordant = append(concordant, v)
		} else {
			onlyA = append(onlyA, v)
		}
	}
	for _, v := range setB.Variants {
		if !inA[variantKey(v)] {
			onlyB = append(onlyB, v)
		}
	}
	if err := writeVariantFile(result.Concordant, setA.Header, concordant); err != nil {
		return nil, err
	}
	if err := writeVariantFile(result.OnlyA, setA.Header, onlyA); err != nil {
		return nil, err
	}
	if err := writeVariantFile(result.OnlyB, setB.Header, onlyB); err != nil {
		return nil, err
	}
	result.Stats = map[string]int{
		"concordant":       len(concordant),
		a.Name + "-unique": len(onlyA),
		b.Name + "-unique": len(onlyB),
	}
	return result, nil
}

type unionEntry struct {
	variant  *vcf.Variant
	members  *bitset.BitSet
	filtered []string
}

// BuildUnion merges the calls of all the experiment's call sets into
// one file whose variants carry the merge-provenance annotation:
// the Intersection sentinel for calls every set agrees on, otherwise
// the contributing set names joined by the conjunction, with filtered
// contributors recorded as excluded tokens. Loci where no contributor
// passes its source filters are dropped. The representative record of
// each locus comes from its first passing contributor in experiment
// order.
func BuildUnion(x *Experiment, out string) (err error) {
	if !internal.NeedsRun(out) {
		return nil
	}
	entries := make(map[string]*unionEntry)
	var chromOrder []string
	perChrom := make(map[string][]*unionEntry)
	var header *vcf.Header
	for i, cs := range x.CallSets {
		set, err := readVariantSet(cs.File())
		if err != nil {
			return err
		}
		if header == nil {
			header = set.Header
		}
		for _, v := range set.Variants {
			key := variantKey(v)
			entry := entries[key]
			if entry == nil {
				entry = &unionEntry{members: bitset.New(uint(len(x.CallSets)))}
				entries[key] = entry
				if len(perChrom[v.Chrom]) == 0 {
					chromOrder = append(chromOrder, v.Chrom)
				}
				perChrom[v.Chrom] = append(perChrom[v.Chrom], entry)
			}
			if v.Pass() {
				entry.members.Set(uint(i))
				if entry.variant == nil {
					entry.variant = v
				}
			} else {
				entry.filtered = append(entry.filtered, "filteredIn"+cs.Name)
			}
		}
	}
	if header == nil {
		return fmt.Errorf("no call sets to merge for sample %v", x.Sample)
	}
	header.AddInfoLine(ProvenanceKey, "1", "String", "Source call sets of the merged record")
	setKey := utils.Intern(ProvenanceKey)
	var variants []*vcf.Variant
	for _, chrom := range chromOrder {
		chromEntries := perChrom[chrom]
		sort.SliceStable(chromEntries, func(i, j int) bool {
			a, b := chromEntries[i], chromEntries[j]
			return unionPos(a) < unionPos(b)
		})
		for _, entry := range chromEntries {
			if entry.variant == nil {
				continue
			}
			annotation := ProvenanceAnnotation(entry.members, x)
			if annotation != IntersectionTag && len(entry.filtered) > 0 {
				annotation = strings.Join(append([]string{annotation}, entry.filtered...), conjunction)
			}
			variants = append(variants, entry.variant.WithInfo(setKey, annotation))
		}
	}
	return writeVariantFile(out, header, variants)
}

func unionPos(entry *unionEntry) int32 {
	if entry.variant == nil {
		return -1
	}
	return entry.variant.Pos
}

// RunComparisons performs every pairwise comparison of the
// experiment's call sets and builds the merged union file.
func RunComparisons(x *Experiment, outDir string) (*Comparisons, error) {
	cmps := &Comparisons{
		Union: filepath.Join(outDir, x.Sample+"-union.vcf"),
	}
	for i, a := range x.CallSets {
		for _, b := range x.CallSets[i+1:] {
			result, err := ComparePair(x, a, b, outDir)
			if err != nil {
				return nil, err
			}
			cmps.Pairwise = append(cmps.Pairwise, result)
		}
	}
	if err := BuildUnion(x, cmps.Union); err != nil {
		return nil, err
	}
	return cmps, nil
}
