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

	"github.com/varcomp/varcomp/vcf"
)

// A Rule is a named boolean predicate over a variant in its
// comparison context. The decided result is false when the rule
// cannot be applied to the variant, for example because an attribute
// it tests is absent; composition treats undecided as "does not
// hold", but the distinction stays observable for diagnostics. Rules
// never return errors: the only failures they may raise are the
// documented single-sample and ploidy preconditions of the attribute
// derivations.
type Rule func(v *vcf.Variant, retr *Retriever, cs *CallSet, x *Experiment) (holds, decided bool)

// The decision thresholds of the canonical rules. They encode
// empirically tuned decision boundaries and must not drift.
const (
	lowConfidenceMargin     = -7.5
	lowConfidenceRatio      = 0.25
	goodLikelihoodRatio     = 0.4
	flexLowConfidenceMargin = -20.0
	lowDepthLimit           = 25.0
	highMapQualityLimit     = 50.0
	problemAlleleBalance    = 0.35
)

func decided(holds bool) (bool, bool) {
	return holds, true
}

func undecided() (bool, bool) {
	return false, false
}

// belowCallSupport holds when the number of other call sets sharing
// this variant is at most ceil(fpFreq * (n - 1)), with n the total
// call-set count and fpFreq the current set's false positive
// tolerance.
func belowCallSupport(v *vcf.Variant, _ *Retriever, cs *CallSet, x *Experiment) (bool, bool) {
	members, err := Membership(v, x)
	if err != nil {
		return undecided()
	}
	others := int(members.Count())
	if i := x.Index(cs.Name); i >= 0 && members.Test(uint(i)) {
		others--
	}
	limit := math.Ceil(cs.FalsePositiveFrequency() * float64(len(x.CallSets)-1))
	return decided(float64(others) <= limit)
}

func allCallers(v *vcf.Variant, _ *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	return decided(IsIntersection(v))
}

func novel(v *vcf.Variant, _ *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	return decided(v.Novel())
}

func hetKind(v *vcf.Variant, kind vcf.Kind) (bool, bool) {
	gt, err := v.SingleGenotype()
	if err != nil {
		return undecided()
	}
	return decided(v.Kind() == kind && gt.Zygosity().IsHet())
}

func hetSNP(v *vcf.Variant, _ *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	return hetKind(v, vcf.SNP)
}

func hetIndel(v *vcf.Variant, _ *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	return hetKind(v, vcf.Indel)
}

func lowConfidence(v *vcf.Variant, retr *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	margin, mok := asFloat(retr.Get(v, AttrLikelihoodMargin))
	ratio, rok := asFloat(retr.Get(v, AttrLikelihoodRatio))
	if !mok && !rok {
		return undecided()
	}
	return decided((mok && margin > lowConfidenceMargin) || (rok && ratio < lowConfidenceRatio))
}

func flexLowConfidence(v *vcf.Variant, retr *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	margin, ok := asFloat(retr.Get(v, AttrLikelihoodMargin))
	if !ok {
		return undecided()
	}
	return decided(margin > flexLowConfidenceMargin)
}

func goodPL(v *vcf.Variant, retr *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	ratio, ok := asFloat(retr.Get(v, AttrLikelihoodRatio))
	if !ok {
		return undecided()
	}
	return decided(ratio > goodLikelihoodRatio)
}

func novelHetIndel(v *vcf.Variant, retr *Retriever, cs *CallSet, x *Experiment) (bool, bool) {
	if holds, ok := hetIndel(v, retr, cs, x); !ok || !holds {
		return holds, ok
	}
	return decided(v.Novel())
}

func lowConfidenceNovelHetSNP(v *vcf.Variant, retr *Retriever, cs *CallSet, x *Experiment) (bool, bool) {
	if holds, ok := hetSNP(v, retr, cs, x); !ok || !holds {
		return holds, ok
	}
	if !v.Novel() {
		return decided(false)
	}
	return lowConfidence(v, retr, cs, x)
}

// lowDepth applies to novel heterozygous indels only.
func lowDepth(v *vcf.Variant, retr *Retriever, cs *CallSet, x *Experiment) (bool, bool) {
	if holds, ok := novelHetIndel(v, retr, cs, x); !ok || !holds {
		return holds, ok
	}
	depth, ok := asFloat(retr.Get(v, AttrDepth))
	if !ok {
		return undecided()
	}
	return decided(depth < lowDepthLimit)
}

func highMapQuality(v *vcf.Variant, retr *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	mq, ok := asFloat(retr.Get(v, "MQ"))
	if !ok {
		return undecided()
	}
	return decided(mq > highMapQualityLimit)
}

func problemAlleleBalanceRule(v *vcf.Variant, retr *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	deviation, ok := asFloat(retr.Get(v, AttrAllelicDeviation))
	if !ok {
		return undecided()
	}
	return decided(deviation > problemAlleleBalance)
}

func passesFilter(v *vcf.Variant, _ *Retriever, _ *CallSet, _ *Experiment) (bool, bool) {
	return decided(v.Pass())
}

var ruleTable = map[string]Rule{
	"below-call-support":           belowCallSupport,
	"all-callers":                  allCallers,
	"novel":                        novel,
	"het-snp":                      hetSNP,
	"het-indel":                    hetIndel,
	"novel-het-indel":              novelHetIndel,
	"low-confidence":               lowConfidence,
	"low-confidence-novel-het-snp": lowConfidenceNovelHetSNP,
	"good-pl":                      goodPL,
	"flex-low-confidence":          flexLowConfidence,
	"low-depth":                    lowDepth,
	"high-map-quality":             highMapQuality,
	"problem-allele-balance":       problemAlleleBalanceRule,
	"passes-filter":                passesFilter,
}

// LookupRule returns the named rule from the canonical rule table.
func LookupRule(name string) (Rule, error) {
	rule, ok := ruleTable[name]
	if !ok {
		return nil, fmt.Errorf("unknown rule %v", name)
	}
	return rule, nil
}

// A RuleSpec is a logical combination of rule names: every yes rule
// must hold and no no rule may hold.
type RuleSpec struct {
	Yes []string
	No  []string
}

// A Checker decides whether a variant matches a rule combination.
type Checker func(v *vcf.Variant) bool

// BuildChecker resolves the rule names of the spec and returns a
// checker bound to the given retriever, call set, and experiment.
// Unknown rule names are configuration errors.
func BuildChecker(retr *Retriever, cs *CallSet, x *Experiment, spec RuleSpec) (Checker, error) {
	resolve := func(names []string) ([]Rule, error) {
		rules := make([]Rule, 0, len(names))
		for _, name := range names {
			rule, err := LookupRule(name)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
		return rules, nil
	}
	yes, err := resolve(spec.Yes)
	if err != nil {
		return nil, err
	}
	no, err := resolve(spec.No)
	if err != nil {
		return nil, err
	}
	return func(v *vcf.Variant) bool {
		for _, rule := range yes {
			if holds, ok := rule(v, retr, cs, x); !ok || !holds {
				return false
			}
		}
		for _, rule := range no {
			if holds, ok := rule(v, retr, cs, x); ok && holds {
				return false
			}
		}
		return true
	}, nil
}
