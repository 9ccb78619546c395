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

import "strconv"

// The finalizer methods.
const (
	// MultipleMethod partitions the multi-way overlap for the target
	// call set into a final and a to-validate file. This is the
	// default.
	MultipleMethod = "multiple"
	// RecalFilterMethod classifies the target call set against its
	// trusted support and tags low-confidence calls.
	RecalFilterMethod = "recal-filter"
)

// RecalFilterName is the filter tag written to calls whose classifier
// confidence falls below the configured minimum.
const RecalFilterName = "lowConfidence"

// FinalizerOutputs names the files written by one finalizer run. Final
// and Validate are set by the multiple method, Filtered by the
// recal-filter method.
type FinalizerOutputs struct {
	Final    string
	Validate string
	Filtered string
}

// MeanScore averages the feature values of a variant, ignoring missing
// ones. Over features rescaled into [0, 1] it serves as the classifier
// confidence when no trained classifier is injected.
func MeanScore(features map[string]interface{}) float64 {
	var sum float64
	n := 0
	for _, value := range features {
		if f, ok := asFloat(value); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// featureNames collects the classifier feature attributes: the
// configured annotations followed by the configured classifiers.
func (p *FinalizerParams) featureNames() []string {
	return append(append([]string(nil), p.Annotations...), p.Classifiers...)
}

// RecalFilter resolves the finalizer's support specification, rescales
// the configured feature attributes over the resulting trusted calls,
// and writes a copy of the target call set in which calls whose
// classifier confidence falls below the minimum are tagged. A nil
// score falls back to MeanScore. Configuration is checked before any
// file I/O.
func RecalFilter(cmps *Comparisons, fin *Finalizer, x *Experiment, retr Getter, score ScoreFunc) (string, error) {
	cs := x.CallSet(fin.Target)
	if cs == nil {
		return "", &ConfigError{Finalizer: fin.Target, Reason: "the recal-filter method requires a target call set"}
	}
	features := fin.Params.featureNames()
	if len(features) == 0 {
		return "", &ConfigError{Finalizer: fin.Target, Reason: "the recal-filter method requires annotations or classifiers"}
	}
	if score == nil {
		score = MeanScore
	}
	files, err := SelectTrusted(cmps, fin.Params.Support, fin.Target, x)
	if err != nil {
		return "", err
	}
	nretr, err := NewNormalizedRetriever(retr, files.TruePositives, features, PercentileRange)
	if err != nil {
		return "", err
	}
	minScore := fin.Params.MinScore()
	description := "classifier confidence below " + strconv.FormatFloat(minScore, 'g', -1, 64)
	return FilterVariants(cs.File(), RecalFilterName, description, ScorePredicate(nretr, features, score, minScore))
}

// RunFinalizer dispatches one finalizer on its configured method. An
// empty method defaults to multiple; an unknown method is a
// configuration error.
func RunFinalizer(cmps *Comparisons, fin *Finalizer, x *Experiment, retr Getter, score ScoreFunc) (*FinalizerOutputs, error) {
	switch fin.Method {
	case "", MultipleMethod:
		final, validate, err := Partition(cmps, fin, x, retr)
		if err != nil {
			return nil, err
		}
		return &FinalizerOutputs{Final: final, Validate: validate}, nil
	case RecalFilterMethod:
		filtered, err := RecalFilter(cmps, fin, x, retr, score)
		if err != nil {
			return nil, err
		}
		return &FinalizerOutputs{Filtered: filtered}, nil
	default:
		return nil, &ConfigError{Finalizer: fin.Target, Reason: "unknown finalizer method " + fin.Method}
	}
}
