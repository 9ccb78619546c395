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
	"log"

	"github.com/varcomp/varcomp/sites"
	"github.com/varcomp/varcomp/utils"
	"github.com/varcomp/varcomp/vcf"
)

// The attribute names with bespoke derivations. All other names
// resolve against the annotation index or the variant's INFO field.
const (
	AttrAllelicDeviation = "AD"
	AttrLikelihoodMargin = "PL"
	AttrLikelihoodRatio  = "PLratio"
	AttrQuality          = "QUAL"
	AttrDepth            = "DP"
)

// attrKind is the closed set of attribute derivations the retriever
// dispatches over.
type attrKind int

const (
	attrGeneric attrKind = iota
	attrAnnotationIndex
	attrAllelicDeviation
	attrLikelihoodMargin
	attrLikelihoodRatio
	attrQuality
	attrDepth
)

var (
	adKey = utils.Intern("AD")
	dpKey = utils.Intern("DP")
	plKey = utils.Intern("PL")
	aoKey = utils.Intern("AO")
	roKey = utils.Intern("RO")
)

// A Getter resolves named attributes for a variant. Missing
// attributes are nil, never an error.
type Getter interface {
	Get(v *vcf.Variant, name string) interface{}
	GetAll(v *vcf.Variant, names []string) map[string]interface{}
}

// A Retriever resolves named attributes for a variant from whichever
// source defines them: the positional annotation index, a bespoke
// derivation over genotype fields, or the variant's INFO field. For a
// fixed variant and attribute name, repeated calls within one run
// return the same value.
type Retriever struct {
	Annotations *sites.Index
}

func (r *Retriever) kindOf(name string) attrKind {
	if r.Annotations.Has(name) {
		return attrAnnotationIndex
	}
	switch name {
	case AttrAllelicDeviation:
		return attrAllelicDeviation
	case AttrLikelihoodMargin:
		return attrLikelihoodMargin
	case AttrLikelihoodRatio:
		return attrLikelihoodRatio
	case AttrQuality:
		return attrQuality
	case AttrDepth:
		return attrDepth
	default:
		return attrGeneric
	}
}

// Get resolves the named attribute for the variant, or nil if no
// source defines it.
func (r *Retriever) Get(v *vcf.Variant, name string) interface{} {
	switch r.kindOf(name) {
	case attrAnnotationIndex:
		value, _ := r.Annotations.Lookup(name, v.Chrom, v.Pos)
		return value
	case attrAllelicDeviation:
		return allelicDeviation(v)
	case attrLikelihoodMargin:
		margin, _ := likelihoods(v)
		return margin
	case attrLikelihoodRatio:
		_, ratio := likelihoods(v)
		return ratio
	case attrQuality:
		if q, ok := v.QualScore(); ok {
			return q
		}
		return nil
	case attrDepth:
		return depth(v)
	default:
		value, ok := v.Info.Get(utils.Intern(name))
		if !ok {
			return nil
		}
		return value
	}
}

// GetAll resolves a batch of attributes. No attribute computation
// depends on another attribute's result, so the order of names is
// irrelevant.
func (r *Retriever) GetAll(v *vcf.Variant, names []string) map[string]interface{} {
	result := make(map[string]interface{}, len(names))
	for _, name := range names {
		result[name] = r.Get(v, name)
	}
	return result
}

// asFloat widens int attribute values to float64 for numeric
// comparisons. Lists and strings are not numbers.
func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

func floatList(value interface{}) (result []float64, ok bool) {
	switch v := value.(type) {
	case []interface{}:
		for _, entry := range v {
			f, ok := asFloat(entry)
			if !ok {
				return nil, false
			}
			result = append(result, f)
		}
		return result, len(result) > 0
	default:
		if f, ok := asFloat(value); ok {
			return []float64{f}, true
		}
		return nil, false
	}
}

// singleDiploidGenotype enforces the single-sample, at-most-diploid
// precondition of the genotype-level derivations.
func singleDiploidGenotype(v *vcf.Variant) *vcf.Genotype {
	gt, err := v.SingleGenotype()
	if err != nil {
		log.Panic(err)
	}
	if gt.Ploidy() > 2 {
		log.Panicf("expected an at most diploid genotype at %v, got ploidy %v", v.Locus(), gt.Ploidy())
	}
	return gt
}

// allelicDeviation computes the absolute difference between the
// observed alternate-allele fraction and the fraction expected for
// the called zygosity: 0 for HOM_REF, 0.5 for HET, 1 for HOM_VAR.
// Allele support comes from the allelic depths, falling back to the
// alternate observation count over the total depth.
func allelicDeviation(v *vcf.Variant) interface{} {
	gt := singleDiploidGenotype(v)
	var expected float64
	switch z := gt.Zygosity(); {
	case z == vcf.NoCall:
		return nil
	case z.IsHet():
		expected = 0.5
	case z == vcf.HomVar:
		expected = 1.0
	}
	var altc, total float64
	if ad, ok := formatFloatList(gt, adKey); ok && len(ad) > 1 {
		for _, count := range ad {
			total += count
		}
		for _, count := range ad[1:] {
			altc += count
		}
	} else if ao, ok := formatFloatList(gt, aoKey); ok {
		dp, dpok := gt.Data.GetFloat(dpKey)
		if !dpok {
			return nil
		}
		for _, count := range ao {
			altc += count
		}
		total = dp
	} else {
		return nil
	}
	if total == 0 {
		return nil
	}
	return abs(expected - altc/total)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func formatFloatList(gt *vcf.Genotype, key utils.Symbol) ([]float64, bool) {
	raw, ok := gt.Data.Get(key)
	if !ok {
		return nil, false
	}
	return floatList(raw)
}

// likelihoods derives the likelihood margin and likelihood ratio from
// the genotype's per-class likelihoods. The phred-scaled values are
// converted to log10 likelihoods, with the called class at 0. The
// margin is the largest of the non-called class likelihoods (across
// all alternates for multi-allelic calls); the ratio compares the
// best non-called class against the worst, so that a ratio near 0
// marks a close call between the called class and one alternative.
// Either result is nil when the likelihoods are absent.
func likelihoods(v *vcf.Variant) (margin, ratio interface{}) {
	gt := singleDiploidGenotype(v)
	pls, ok := formatFloatList(gt, plKey)
	if !ok || len(pls) < 2 {
		return nil, nil
	}
	called := 0
	for i, pl := range pls {
		if pl < pls[called] {
			called = i
		}
	}
	first := true
	var best, worst float64
	for i, pl := range pls {
		if i == called {
			continue
		}
		likelihood := -pl / 10.0
		if first {
			best, worst = likelihood, likelihood
			first = false
			continue
		}
		if likelihood > best {
			best = likelihood
		}
		if likelihood < worst {
			worst = likelihood
		}
	}
	margin = best
	if worst == 0 {
		return margin, nil
	}
	return margin, best / worst
}

// depth prefers the explicit depth field, then the sum of the allelic
// depths, then the reference plus alternate observation counts used
// by some callers.
func depth(v *vcf.Variant) interface{} {
	gt := singleDiploidGenotype(v)
	if dp, ok := gt.Data.GetFloat(dpKey); ok {
		return dp
	}
	if ad, ok := formatFloatList(gt, adKey); ok {
		var total float64
		for _, count := range ad {
			total += count
		}
		return total
	}
	ro, rok := gt.Data.GetFloat(roKey)
	ao, aok := formatFloatList(gt, aoKey)
	if rok && aok {
		total := ro
		for _, count := range ao {
			total += count
		}
		return total
	}
	return nil
}
