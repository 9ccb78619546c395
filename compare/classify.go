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
	"path/filepath"
	"strings"

	"github.com/varcomp/varcomp/internal"
	"github.com/varcomp/varcomp/utils"
	"github.com/varcomp/varcomp/vcf"
)

// A Predicate names the failure condition of a classification filter:
// it returns true for variants that should be filtered.
type Predicate func(v *vcf.Variant) bool

// DefaultMinCScore is the minimum classifier confidence below which a
// variant is filtered, unless configured otherwise.
const DefaultMinCScore = 0.5

// FilterSuffix is the token appended to an input file's base name to
// form the name of its filtered output.
const FilterSuffix = "-ffilter"

// DerivedName forms an output file name by appending a suffix token
// to the input file's base name, keeping the extension. A trailing
// compression extension stays outermost.
func DerivedName(filename, suffix string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	if ext == vcf.GzExt {
		inner := filepath.Ext(base)
		base = strings.TrimSuffix(base, inner)
		ext = inner + ext
	}
	return base + suffix + ext
}

// FilterVariants writes a copy of the variant file in which every
// variant matching the predicate gains the given filter name. The
// output is skipped when already present and non-empty, and staged so
// that a partial output is never visible under its final name.
func FilterVariants(filename, filterName, description string, pred Predicate) (string, error) {
	out := DerivedName(filename, FilterSuffix)
	if !internal.NeedsRun(out) {
		return out, nil
	}
	filterSym := utils.Intern(filterName)
	markFailing := func(hdr *vcf.Header) vcf.VariantFilter {
		hdr.AddFilterLine(filterName, description)
		return func(v *vcf.Variant) *vcf.Variant {
			if pred(v) {
				return v.WithFilter(filterSym)
			}
			return v
		}
	}
	err := internal.SafeWrite(out, func(staging string) (err error) {
		reader, err := vcf.OpenVariantReader(filename)
		if err != nil {
			return err
		}
		defer func() {
			if nerr := reader.Close(); nerr != nil && err == nil {
				err = nerr
			}
		}()
		writer, err := vcf.NewVariantWriter(staging)
		if err != nil {
			return err
		}
		defer func() {
			if nerr := writer.Close(); nerr != nil && err == nil {
				err = nerr
			}
		}()
		return reader.RunPipeline(writer, []vcf.Filter{markFailing})
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

// FreebayesPredicate reproduces the tuned filter policy for freebayes
// calls. A heterozygous call fails when depth < 4, or when depth < 13
// with quality < 20 and allelic deviation > 0.1. A homozygous-variant
// call fails when depth < 4 with quality < 50, or when depth < 13
// with allelic deviation > 0.1. All other zygosities pass.
func FreebayesPredicate(retr *Retriever) Predicate {
	return func(v *vcf.Variant) bool {
		gt, err := v.SingleGenotype()
		if err != nil {
			return false
		}
		zygosity := gt.Zygosity()
		if !zygosity.IsHet() && zygosity != vcf.HomVar {
			return false
		}
		depth, dok := asFloat(retr.Get(v, AttrDepth))
		if !dok {
			return false
		}
		qual, qok := v.QualScore()
		deviation, aok := asFloat(retr.Get(v, AttrAllelicDeviation))
		if zygosity.IsHet() {
			return depth < 4 ||
				(depth < 13 && qok && qual < 20 && aok && deviation > 0.1)
		}
		return (depth < 4 && qok && qual < 50) ||
			(depth < 13 && aok && deviation > 0.1)
	}
}

// A ScoreFunc maps a feature vector, keyed by attribute name, to a
// confidence in [0, 1]. Trained classifiers are injected in this
// form; construction and training are outside this package.
type ScoreFunc func(features map[string]interface{}) float64

// ScorePredicate fails variants whose classifier confidence over the
// named, typically normalized, attributes falls below minScore.
func ScorePredicate(retr Getter, names []string, score ScoreFunc, minScore float64) Predicate {
	return func(v *vcf.Variant) bool {
		return score(retr.GetAll(v, names)) < minScore
	}
}

// RulePredicate fails variants that do not match the rule checker.
func RulePredicate(checker Checker) Predicate {
	return func(v *vcf.Variant) bool {
		return !checker(v)
	}
}
