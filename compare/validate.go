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
	"math"
	"sort"
	"strings"

	"github.com/varcomp/varcomp/internal"
	"github.com/varcomp/varcomp/vcf"
)

// The validation subset selection approaches.
const (
	RandomApproach = "random"
	TopApproach    = "top"
)

// DefaultValidationSeed seeds the random validation selection when no
// seed is configured, keeping repeated runs reproducible.
const DefaultValidationSeed = 42

type (
	// A MetricSpec names a ranking metric for top-N selection, with an
	// optional sign modifier: a negative modifier inverts the ranking.
	MetricSpec struct {
		Name string
		Mod  float64
	}

	// A ValidateSpec configures how the to-validate subset is selected
	// from the validation candidates.
	ValidateSpec struct {
		Approach   string
		Count      int
		TopMetrics []MetricSpec
		Seed       int64
	}

	// FinalizerParams carry the configured filters and classifier
	// settings of a finalizer.
	FinalizerParams struct {
		KeepFilter     string
		ValidateFilter string
		Annotations    []string
		Classifiers    []string
		MinCScore      float64
		Support        []string
		Validate       ValidateSpec
	}

	// A Finalizer is a post-comparison step applied to the comparison
	// results of one experiment to produce deliverable call sets.
	Finalizer struct {
		Method string
		Target string
		Params FinalizerParams
	}
)

// MinScore returns the configured minimum classifier confidence, or
// the default.
func (p *FinalizerParams) MinScore() float64 {
	if p.MinCScore > 0 {
		return p.MinCScore
	}
	return DefaultMinCScore
}

func (spec *ValidateSpec) seed() int64 {
	if spec.Seed != 0 {
		return spec.Seed
	}
	return DefaultValidationSeed
}

// A ConfigError reports an invalid finalizer configuration. It is
// raised before any file I/O.
type ConfigError struct {
	Finalizer string
	Reason    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration of finalizer %v: %v", e.Finalizer, e.Reason)
}

func (spec *ValidateSpec) check(finalizer string) error {
	switch spec.Approach {
	case RandomApproach, TopApproach:
		if spec.Count <= 0 {
			return &ConfigError{Finalizer: finalizer, Reason: "validation approach " + spec.Approach + " requires a count"}
		}
	default:
		return &ConfigError{Finalizer: finalizer, Reason: "unknown validation approach " + spec.Approach}
	}
	if spec.Approach == TopApproach && len(spec.TopMetrics) != 1 {
		return &ConfigError{Finalizer: finalizer, Reason: "validation approach top requires exactly one ranking metric"}
	}
	return nil
}

// contigRank maps chromosome names to their order in the header's
// contig meta-information lines.
func contigRank(header *vcf.Header) map[string]int {
	rank := make(map[string]int)
	for _, meta := range header.Meta {
		if !strings.HasPrefix(meta, "##contig=<") {
			continue
		}
		fields := strings.TrimSuffix(strings.TrimPrefix(meta, "##contig=<"), ">")
		for _, field := range strings.Split(fields, ",") {
			if strings.HasPrefix(field, "ID=") {
				name := strings.TrimPrefix(field, "ID=")
				if _, ok := rank[name]; !ok {
					rank[name] = len(rank)
				}
			}
		}
	}
	return rank
}

// mergeSorted merges variant slices into genomic order: chromosomes
// ordered by the header's contig declarations, then by appearance,
// and positions ascending within a chromosome.
func mergeSorted(header *vcf.Header, sets ...[]*vcf.Variant) []*vcf.Variant {
	rank := contigRank(header)
	var merged []*vcf.Variant
	for _, set := range sets {
		for _, v := range set {
			if _, ok := rank[v.Chrom]; !ok {
				rank[v.Chrom] = len(rank)
			}
			merged = append(merged, v)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if rank[a.Chrom] != rank[b.Chrom] {
			return rank[a.Chrom] < rank[b.Chrom]
		}
		return a.Pos < b.Pos
	})
	return merged
}

func filterByExpr(variants []*vcf.Variant, expr *Expr, retr Getter) []*vcf.Variant {
	var result []*vcf.Variant
	for _, v := range variants {
		if expr.Eval(v, retr) {
			result = append(result, v)
		}
	}
	return result
}

// SelectRandom selects count variants uniformly at random, seeded for
// reproducibility. The selection keeps the input order. All variants
// are selected when count exceeds their number.
func SelectRandom(variants []*vcf.Variant, count int, seed int64) []*vcf.Variant {
	n := len(variants)
	if count >= n {
		return variants
	}
	r := internal.NewRand(seed)
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	for i := 0; i < count; i++ {
		j := i + int(r.Int31n(int32(n-i)))
		indexes[i], indexes[j] = indexes[j], indexes[i]
	}
	selected := indexes[:count]
	sort.Ints(selected)
	result := make([]*vcf.Variant, 0, count)
	for _, i := range selected {
		result = append(result, variants[i])
	}
	return result
}

// SelectTop ranks variants by the named metric, scaled by the sign
// modifier, in descending order and selects the first count. Variants
// lacking the metric rank last. The selection keeps the input order.
func SelectTop(variants []*vcf.Variant, retr Getter, metric MetricSpec, count int) []*vcf.Variant {
	n := len(variants)
	if count >= n {
		return variants
	}
	mod := metric.Mod
	if mod == 0 {
		mod = 1
	}
	scores := make([]float64, n)
	for i, v := range variants {
		if value, ok := asFloat(retr.Get(v, metric.Name)); ok {
			scores[i] = mod * value
		} else {
			scores[i] = math.Inf(-1)
		}
	}
	indexes := make([]int, n)
	for i := range indexes {
		indexes[i] = i
	}
	sort.SliceStable(indexes, func(i, j int) bool {
		return scores[indexes[i]] > scores[indexes[j]]
	})
	selected := indexes[:count]
	sort.Ints(selected)
	result := make([]*vcf.Variant, 0, count)
	for _, i := range selected {
		result = append(result, variants[i])
	}
	return result
}

// Partition resolves the multi-way overlap for the finalizer's target
// call set and splits the result into a final deliverable file and a
// to-validate file: the final file merges the true positives with the
// target-overlap calls matching the keep filter; the to-validate file
// holds the selected subset of the target-overlap calls matching the
// validate filter. Configuration is checked before any file I/O.
func Partition(cmps *Comparisons, fin *Finalizer, x *Experiment, retr Getter) (final, validate string, err error) {
	if fin.Target == "" {
		return "", "", &ConfigError{Finalizer: fin.Target, Reason: "partitioning requires a target call set"}
	}
	if err := fin.Params.Validate.check(fin.Target); err != nil {
		return "", "", err
	}
	keepExpr, err := ParseExpr(fin.Params.KeepFilter)
	if err != nil {
		return "", "", &ConfigError{Finalizer: fin.Target, Reason: err.Error()}
	}
	validateExpr, err := ParseExpr(fin.Params.ValidateFilter)
	if err != nil {
		return "", "", &ConfigError{Finalizer: fin.Target, Reason: err.Error()}
	}
	files, err := MultiwayOverlap(cmps, x, fin.Target)
	if err != nil {
		return "", "", err
	}
	final = DerivedName(cmps.Union, "-"+fin.Target+"-final")
	validate = DerivedName(cmps.Union, "-"+fin.Target+"-validate")
	if !internal.NeedsRun(final, validate) {
		return final, validate, nil
	}
	tps, err := readVariantSet(files.TruePositives)
	if err != nil {
		return "", "", err
	}
	overlaps, err := readVariantSet(files.TargetOverlaps)
	if err != nil {
		return "", "", err
	}
	kept := filterByExpr(overlaps.Variants, keepExpr, retr)
	if err := writeVariantFile(final, tps.Header, mergeSorted(tps.Header, tps.Variants, kept)); err != nil {
		return "", "", err
	}
	candidates := filterByExpr(overlaps.Variants, validateExpr, retr)
	var selected []*vcf.Variant
	switch spec := &fin.Params.Validate; spec.Approach {
	case RandomApproach:
		selected = SelectRandom(candidates, spec.Count, spec.seed())
	default:
		selected = SelectTop(candidates, retr, spec.TopMetrics[0], spec.Count)
	}
	if err := writeVariantFile(validate, overlaps.Header, selected); err != nil {
		return "", "", err
	}
	return final, validate, nil
}
