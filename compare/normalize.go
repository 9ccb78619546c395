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
	"io"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/varcomp/varcomp/vcf"
)

// A Range is the population-level value range of one attribute,
// estimated over a reference variant file.
type Range struct {
	Low, High float64
}

// RangeMethod selects how attribute ranges are estimated.
type RangeMethod int

// The supported range estimation methods.
const (
	// PercentileRange estimates the 5th/95th percentile range. This is
	// the default.
	PercentileRange RangeMethod = iota
	// QuartileRange estimates the 25th/75th percentile range.
	QuartileRange
	// FixedRange uses the fixed range [0, 1].
	FixedRange
)

func (method RangeMethod) quantiles() (low, high float64) {
	switch method {
	case QuartileRange:
		return 0.25, 0.75
	default:
		return 0.05, 0.95
	}
}

// BuildRanges estimates the value range of each named attribute over
// every variant in the reference file.
func BuildRanges(filename string, names []string, retr Getter, method RangeMethod) (map[string]Range, error) {
	ranges := make(map[string]Range, len(names))
	if method == FixedRange {
		for _, name := range names {
			ranges[name] = Range{Low: 0, High: 1}
		}
		return ranges, nil
	}
	reader, err := vcf.OpenVariantReader(filename)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	values := make(map[string][]float64, len(names))
	for {
		variant, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if value, ok := asFloat(retr.Get(variant, name)); ok {
				values[name] = append(values[name], value)
			}
		}
	}
	lowq, highq := method.quantiles()
	for _, name := range names {
		vs := values[name]
		if len(vs) == 0 {
			return nil, fmt.Errorf("no values of attribute %v in %v to estimate a normalization range", name, filename)
		}
		sort.Float64s(vs)
		ranges[name] = Range{
			Low:  stat.Quantile(lowq, stat.Empirical, vs, nil),
			High: stat.Quantile(highq, stat.Empirical, vs, nil),
		}
	}
	return ranges, nil
}

// Normalize rescales a raw attribute value into [0, 1] using the
// given range, clamping values that fall outside it. A degenerate
// range with low == high is widened by one to avoid dividing by zero.
func Normalize(value float64, rng Range) float64 {
	high := rng.High
	if rng.Low == high {
		high++
	}
	switch {
	case value < rng.Low:
		value = rng.Low
	case value > high:
		value = high
	}
	return (value - rng.Low) / (high - rng.Low)
}

// A NormalizedRetriever composes an attribute retriever with
// per-attribute ranges, rescaling numeric values into [0, 1]. An
// attribute that is absent from a variant stays nil, and an attribute
// without an estimated range passes through unchanged.
type NormalizedRetriever struct {
	Raw    Getter
	Ranges map[string]Range
}

// NewNormalizedRetriever builds the ranges of the named attributes
// over the reference file and returns a retriever that rescales them.
func NewNormalizedRetriever(raw Getter, filename string, names []string, method RangeMethod) (*NormalizedRetriever, error) {
	ranges, err := BuildRanges(filename, names, raw, method)
	if err != nil {
		return nil, err
	}
	return &NormalizedRetriever{Raw: raw, Ranges: ranges}, nil
}

// Get resolves the named attribute and rescales it into [0, 1].
func (r *NormalizedRetriever) Get(v *vcf.Variant, name string) interface{} {
	value := r.Raw.Get(v, name)
	if value == nil {
		return nil
	}
	rng, ok := r.Ranges[name]
	if !ok {
		return value
	}
	f, ok := asFloat(value)
	if !ok {
		return value
	}
	return Normalize(f, rng)
}

// GetAll resolves and rescales a batch of attributes.
func (r *NormalizedRetriever) GetAll(v *vcf.Variant, names []string) map[string]interface{} {
	result := make(map[string]interface{}, len(names))
	for _, name := range names {
		result[name] = r.Get(v, name)
	}
	return result
}

type rangeCacheKey struct {
	filename string
	method   RangeMethod
}

// A RangeCache memoizes attribute ranges per reference file, so that
// repeated classifier constructions over the same file reuse one
// estimation pass. The cache is keyed by file identity and safe for
// concurrent use with different files.
type RangeCache struct {
	mutex  sync.Mutex
	ranges map[rangeCacheKey]map[string]Range
}

// Ranges returns the cached ranges for the file and method, building
// them on first use.
func (c *RangeCache) Ranges(filename string, names []string, retr Getter, method RangeMethod) (map[string]Range, error) {
	key := rangeCacheKey{filename: filename, method: method}
	c.mutex.Lock()
	cached, ok := c.ranges[key]
	c.mutex.Unlock()
	if ok {
		complete := true
		for _, name := range names {
			if _, ok := cached[name]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return cached, nil
		}
	}
	ranges, err := BuildRanges(filename, names, retr, method)
	if err != nil {
		return nil, err
	}
	c.mutex.Lock()
	if c.ranges == nil {
		c.ranges = make(map[rangeCacheKey]map[string]Range)
	}
	c.ranges[key] = ranges
	c.mutex.Unlock()
	return ranges, nil
}
