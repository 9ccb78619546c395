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
	"fmt"

	"github.com/exascience/pargo/pipeline"
)

type (
	// A VariantFilter receives a Variant which it can replace by
	// returning a rebuilt record. It returns nil if the variant should
	// be removed from the stream.
	VariantFilter func(*Variant) *Variant

	// A Filter receives a Header and returns a VariantFilter or nil.
	// The header can be modified, for example to declare a new FILTER
	// name that the VariantFilter applies.
	Filter func(*Header) VariantFilter

	// A PipelineOutput can add nodes to the given pargo pipeline.
	// AddNodes also receives the header that should be added to the
	// output. Any error should be reported to the pipeline by calling
	// p.SetErr(err) with a non-nil error value.
	PipelineOutput interface {
		AddNodes(p *pipeline.Pipeline, header *Header)
	}

	// A PipelineInput arranges for a pargo pipeline to be properly
	// initialized, arranges for the pipeline to run the given filters,
	// calls output.AddNodes(...), and eventually runs the pipeline.
	PipelineInput interface {
		RunPipeline(output PipelineOutput, filters []Filter) error
	}

	// A Set represents the contents of a VCF file in memory.
	Set struct {
		Header   *Header
		Variants []*Variant
	}
)

const (
	minBatchSize = 512
	maxBatchSize = 16384
)

// LinesToVariants returns a pargo pipeline.Filter that parses batches
// of VCF data lines into slices of freshly allocated Variant values.
func LinesToVariants(reader *VariantReader) pipeline.Filter {
	return func(p *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			lines := data.([]string)
			variants := make([]*Variant, 0, len(lines))
			var sc StringScanner
			for _, line := range lines {
				sc.Reset(line)
				variant := sc.ParseVariant(reader.NSamples)
				if variant == nil {
					p.SetErr(fmt.Errorf("%v, while parsing a variant line of %v", sc.Err(), reader.Filename))
					return variants
				}
				variants = append(variants, variant)
			}
			return variants
		}
		return
	}
}

// VariantsToLines returns a pargo pipeline.Filter that formats slices
// of Variant pointers into slices of bytes representing these
// variants according to the VCF file format.
func VariantsToLines() pipeline.Filter {
	return func(_ *pipeline.Pipeline, _ pipeline.NodeKind, _ *int) (receiver pipeline.Receiver, _ pipeline.Finalizer) {
		receiver = func(_ int, data interface{}) interface{} {
			variants := data.([]*Variant)
			records := make([][]byte, 0, len(variants))
			var buf []byte
			for _, variant := range variants {
				buf = variant.Format(buf[:0])
				records = append(records, append([]byte(nil), buf...))
			}
			return records
		}
		return
	}
}

// ComposeFilters takes a Header and a slice of Filter functions, and
// successively calls these functions to generate the corresponding
// VariantFilter predicates. It then returns a pargo pipeline.Receiver
// that applies these predicates on the slices of Variant pointers it
// receives. ComposeFilters may return nil if all VariantFilters are
// nil.
func ComposeFilters(header *Header, hdrFilters []Filter) (receiver pipeline.Receiver) {
	var varFilters []VariantFilter
	for _, f := range hdrFilters {
		if f != nil {
			if varFilter := f(header); varFilter != nil {
				varFilters = append(varFilters, varFilter)
			}
		}
	}
	if len(varFilters) > 0 {
		receiver = func(_ int, data interface{}) interface{} {
			variants := data.([]*Variant)
			result := variants[:0]
		vLoop:
			for _, variant := range variants {
				for _, varFilter := range varFilters {
					if variant = varFilter(variant); variant == nil {
						continue vLoop
					}
				}
				result = append(result, variant)
			}
			return result
		}
	}
	return
}

// AddNodes implements the PipelineOutput interface for Set values to
// represent complete VCF files in memory.
func (set *Set) AddNodes(p *pipeline.Pipeline, header *Header) {
	set.Header = header
	p.Add(pipeline.StrictOrd(pipeline.Slice(&set.Variants)))
}

// AddNodes implements the PipelineOutput interface for VariantWriter
// values, preserving the input order of the variant stream.
func (w *VariantWriter) AddNodes(p *pipeline.Pipeline, header *Header) {
	if err := header.Format(w.output.Writer); err != nil {
		p.SetErr(fmt.Errorf("%v, while writing a VCF header to %v", err, w.Filename))
		return
	}
	p.Add(
		pipeline.LimitedPar(0, VariantsToLines()),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			var err error
			for _, record := range data.([][]byte) {
				_, err = w.output.Write(record)
			}
			if err != nil {
				p.SetErr(fmt.Errorf("%v, while writing variant lines to %v", err, w.Filename))
			}
			return data
		})),
	)
}

// RunPipeline implements the PipelineInput interface for
// VariantReader values. The header passed to the output has the
// filters applied to it first.
func (r *VariantReader) RunPipeline(output PipelineOutput, filters []Filter) error {
	header := r.Header
	varFilter := ComposeFilters(header, filters)
	var p pipeline.Pipeline
	p.Source(r)
	p.SetVariableBatchSize(minBatchSize, maxBatchSize)
	p.Add(pipeline.LimitedPar(0, LinesToVariants(r)))
	if varFilter != nil {
		p.Add(pipeline.LimitedPar(0, pipeline.Receive(varFilter)))
	}
	output.AddNodes(&p, header)
	p.Run()
	return p.Err()
}
