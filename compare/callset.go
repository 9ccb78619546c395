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

// Package compare implements the multi-way variant call-set comparison
// core: attribute retrieval and normalization, overlap membership
// decoding, rule-based and score-based classification, trusted-set
// selection, and final/to-validate partitioning.
package compare

import (
	"strings"

	"github.com/varcomp/varcomp/sites"
)

// DefaultFPFreq is the per-set false positive tolerance used when a
// call set does not configure its own.
const DefaultFPFreq = 0.25

type (
	// A CallSet is one named source of variant calls for a sample: a
	// caller, a sequencing technology, or a pipeline configuration
	// being compared.
	CallSet struct {
		Name             string
		Files            []string
		Technology       string
		Caller           string
		FPFreq           float64
		GradingReference bool
	}

	// An Experiment is the comparison context for one run: the sample,
	// the ordered call sets under comparison, and the optional
	// positional annotation index.
	Experiment struct {
		Sample      string
		CallSets    []*CallSet
		Annotations *sites.Index
	}
)

// File returns the primary backing file of the call set.
func (cs *CallSet) File() string {
	if len(cs.Files) == 0 {
		return ""
	}
	return cs.Files[0]
}

// FalsePositiveFrequency returns the configured false positive
// tolerance, or the default.
func (cs *CallSet) FalsePositiveFrequency() float64 {
	if cs.FPFreq > 0 {
		return cs.FPFreq
	}
	return DefaultFPFreq
}

// Names returns the call-set names in experiment order.
func (x *Experiment) Names() []string {
	names := make([]string, len(x.CallSets))
	for i, cs := range x.CallSets {
		names[i] = cs.Name
	}
	return names
}

// Index returns the position of the named call set in the experiment
// order, or -1 if the experiment has no call set with that name.
func (x *Experiment) Index(name string) int {
	for i, cs := range x.CallSets {
		if cs.Name == name {
			return i
		}
	}
	return -1
}

// CallSet returns the named call set, or nil.
func (x *Experiment) CallSet(name string) *CallSet {
	if i := x.Index(name); i >= 0 {
		return x.CallSets[i]
	}
	return nil
}

// BaseName strips a trailing caller or technology suffix from a
// call-set name, so that derived comparison keys such as
// "NA12878-freebayes" reduce to the underlying set they were built
// from.
func (x *Experiment) BaseName(name string) string {
	for _, cs := range x.CallSets {
		if cs.Caller != "" {
			name = strings.TrimSuffix(name, "-"+cs.Caller)
		}
		if cs.Technology != "" {
			name = strings.TrimSuffix(name, "-"+cs.Technology)
		}
	}
	return name
}

type (
	// A ComparisonResult holds the output files of one pairwise
	// comparison between call sets A and B: the concordant calls, the
	// calls unique to A, and the calls unique to B, plus free-form
	// summary statistics.
	ComparisonResult struct {
		A, B       string
		Concordant string
		OnlyA      string
		OnlyB      string
		Stats      map[string]int
	}

	// Comparisons is the collection of comparison outputs for one
	// experiment: all pairwise results, plus the merged union file that
	// carries overlap membership annotations.
	Comparisons struct {
		Pairwise []*ComparisonResult
		Union    string
	}
)

// Matches reports whether the comparison is keyed by the unordered
// pair {a, b}.
func (r *ComparisonResult) Matches(a, b string) bool {
	return (r.A == a && r.B == b) || (r.A == b && r.B == a)
}

// Only returns the file of calls unique to the given side, or "" if
// the name keys neither side.
func (r *ComparisonResult) Only(name string) string {
	switch name {
	case r.A:
		return r.OnlyA
	case r.B:
		return r.OnlyB
	}
	return ""
}

// Other returns the name of the side opposite to the given one, or ""
// if the name keys neither side.
func (r *ComparisonResult) Other(name string) string {
	switch name {
	case r.A:
		return r.B
	case r.B:
		return r.A
	}
	return ""
}

// FindPair returns the pairwise comparison keyed by the unordered
// pair {a, b}, or nil.
func (c *Comparisons) FindPair(a, b string) *ComparisonResult {
	for _, r := range c.Pairwise {
		if r.Matches(a, b) {
			return r
		}
	}
	return nil
}

// FindWith returns the pairwise comparisons that involve the given
// call set.
func (c *Comparisons) FindWith(name string) (result []*ComparisonResult) {
	for _, r := range c.Pairwise {
		if r.A == name || r.B == name {
			result = append(result, r)
		}
	}
	return result
}

// SinglePair reports whether every pairwise comparison reduces to the
// same underlying pair of call sets once caller and technology
// suffixes are stripped, and returns that one comparison if so.
func (c *Comparisons) SinglePair(x *Experiment) (*ComparisonResult, bool) {
	if len(c.Pairwise) == 0 {
		return nil, false
	}
	first := c.Pairwise[0]
	a, b := x.BaseName(first.A), x.BaseName(first.B)
	for _, r := range c.Pairwise[1:] {
		ra, rb := x.BaseName(r.A), x.BaseName(r.B)
		if !((ra == a && rb == b) || (ra == b && rb == a)) {
			return nil, false
		}
	}
	return first, true
}
