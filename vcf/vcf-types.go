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

	"github.com/varcomp/varcomp/utils"
)

// The supported VCF file format version.
const (
	FileFormatVersion           = "VCFv4.3"
	FileFormatVersionLine       = "##fileformat=VCFv4.3"
	fileFormatVersionLinePrefix = "##fileformat=VCFv4."
)

// DefaultHeaderColumns for VCF files.
var DefaultHeaderColumns = []string{"CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}

// Commonly used VCF entries.
var (
	GT   = utils.Intern("GT")
	PASS = utils.Intern("PASS")
)

// Kind is an enumeration type classifying a variant record by its
// reference and alternate alleles.
type Kind uint

// The different variant kinds.
const (
	UnknownKind Kind = iota
	SNP
	Indel
	MNP
	Mixed
)

func (kind Kind) String() string {
	switch kind {
	case SNP:
		return "SNP"
	case Indel:
		return "INDEL"
	case MNP:
		return "MNP"
	case Mixed:
		return "MIXED"
	default:
		return "UNKNOWN"
	}
}

// Zygosity is an enumeration type for the zygosity of a genotype
// call. Both heterozygous kinds report IsHet() == true.
type Zygosity uint

// The different zygosities.
const (
	NoCall Zygosity = iota
	HomRef
	Het
	HetNonRef // two different alternate alleles
	HomVar
)

func (z Zygosity) String() string {
	switch z {
	case HomRef:
		return "HOM_REF"
	case Het:
		return "HET"
	case HetNonRef:
		return "HET_NON_REF"
	case HomVar:
		return "HOM_VAR"
	default:
		return "NO_CALL"
	}
}

// IsHet reports whether the zygosity tag is one of the heterozygous
// kinds.
func (z Zygosity) IsHet() bool {
	return z == Het || z == HetNonRef
}

type (
	// Header section of a VCF file. Meta-information lines other than
	// the fileformat line are kept verbatim so that rewritten files
	// only differ where variant lines were changed.
	Header struct {
		FileFormat string
		Meta       []string
		Columns    []string
	}

	// Genotype is a structured representation of one sample column in
	// a VCF file. GT holds the allele calls (< 0 for unknown entries);
	// Data holds the remaining FORMAT-level attributes.
	Genotype struct {
		Phased bool
		GT     []int32
		Data   utils.SmallMap // values are nil, int, float64, string, or []interface{}
	}

	// Variant line in a VCF file.
	Variant struct {
		Chrom          string
		Pos            int32    // < 0 if unknown
		ID             []string // nil/empty if missing
		Ref            string
		Alt            []string       // nil/empty if missing
		Qual           interface{}    // float64, or nil if missing
		Filter         []utils.Symbol // nil/empty if missing
		Info           utils.SmallMap // values are int, float64, bool, string, or []interface{}
		GenotypeFormat []utils.Symbol
		GenotypeData   []Genotype
	}
)

// NewHeader creates an empty instance.
func NewHeader() *Header {
	return &Header{
		FileFormat: FileFormatVersionLine,
		Columns:    DefaultHeaderColumns,
	}
}

// NSamples returns the number of sample columns declared by the
// header.
func (header *Header) NSamples() int {
	n := len(header.Columns) - len(DefaultHeaderColumns) - 1
	if n < 0 {
		return 0
	}
	return n
}

// AddInfoLine appends an INFO meta-information line to the header,
// unless a line with the same ID is already present.
func (header *Header) AddInfoLine(id, number, typ, description string) {
	header.addMetaLine(fmt.Sprintf("##INFO=<ID=%v,Number=%v,Type=%v,Description=%q>", id, number, typ, description))
}

// AddFilterLine appends a FILTER meta-information line to the header,
// unless a line with the same ID is already present.
func (header *Header) AddFilterLine(id, description string) {
	header.addMetaLine(fmt.Sprintf("##FILTER=<ID=%v,Description=%q>", id, description))
}

func (header *Header) addMetaLine(line string) {
	for _, meta := range header.Meta {
		if meta == line {
			return
		}
	}
	header.Meta = append(header.Meta, line)
}

// Ploidy returns the number of allele calls in the genotype.
func (gt *Genotype) Ploidy() int {
	return len(gt.GT)
}

// Called reports whether all allele calls in the genotype are known.
func (gt *Genotype) Called() bool {
	if len(gt.GT) == 0 {
		return false
	}
	for _, allele := range gt.GT {
		if allele < 0 {
			return false
		}
	}
	return true
}

// Zygosity determines the zygosity tag for the genotype call.
func (gt *Genotype) Zygosity() Zygosity {
	if !gt.Called() {
		return NoCall
	}
	first := gt.GT[0]
	mixed := false
	for _, allele := range gt.GT[1:] {
		if allele != first {
			mixed = true
			break
		}
	}
	switch {
	case !mixed && first == 0:
		return HomRef
	case !mixed:
		return HomVar
	default:
		for _, allele := range gt.GT {
			if allele == 0 {
				return Het
			}
		}
		return HetNonRef
	}
}

// Start returns the start position of a VCF line in the reference.
func (v *Variant) Start() int32 {
	return v.Pos
}

// End returns the end position of a VCF line in the reference.
func (v *Variant) End() int32 {
	return v.Pos - 1 + int32(len(v.Ref))
}

// Pass determines whether the variant passed all filters. An empty
// filter list and the single PASS entry both count as passing.
func (v *Variant) Pass() bool {
	return len(v.Filter) == 0 || (len(v.Filter) == 1 && v.Filter[0] == PASS)
}

// Novel reports whether the variant has no identifier in a known
// variant database. The literal placeholder "." counts as absent.
func (v *Variant) Novel() bool {
	return len(v.ID) == 0 || v.ID[0] == "."
}

// QualScore returns the overall call quality score, or false if the
// QUAL column is missing.
func (v *Variant) QualScore() (float64, bool) {
	q, ok := v.Qual.(float64)
	return q, ok
}

// Kind classifies the variant based on its alleles.
func (v *Variant) Kind() Kind {
	if len(v.Alt) == 0 {
		return UnknownKind
	}
	snps, mnps, indels := 0, 0, 0
	for _, alt := range v.Alt {
		switch {
		case len(alt) == len(v.Ref) && len(v.Ref) == 1:
			snps++
		case len(alt) == len(v.Ref):
			mnps++
		default:
			indels++
		}
	}
	switch {
	case snps == len(v.Alt):
		return SNP
	case mnps == len(v.Alt):
		return MNP
	case indels == len(v.Alt):
		return Indel
	default:
		return Mixed
	}
}

// SingleGenotype returns the genotype call for a single-sample
// record. It returns an error if the record does not have exactly one
// sample, since attribute derivations over multi-sample records
// indicate a caller contract violation.
func (v *Variant) SingleGenotype() (*Genotype, error) {
	if len(v.GenotypeData) != 1 {
		return nil, fmt.Errorf("expected a single-sample record at %v:%v, got %v samples", v.Chrom, v.Pos, len(v.GenotypeData))
	}
	return &v.GenotypeData[0], nil
}

// Locus formats the variant's position for error reporting.
func (v *Variant) Locus() string {
	return fmt.Sprintf("%v:%v", v.Chrom, v.Pos)
}

// WithFilter returns a new variant record whose filter list gains the
// given filter name. The original record is never mutated, because
// records are shared across read-only consumers within one pass.
func (v *Variant) WithFilter(name utils.Symbol) *Variant {
	result := *v
	if len(v.Filter) == 1 && v.Filter[0] == PASS {
		result.Filter = []utils.Symbol{name}
	} else {
		result.Filter = append(append([]utils.Symbol(nil), v.Filter...), name)
	}
	return &result
}

// WithInfo returns a new variant record whose INFO map gains or
// replaces the given entry. The original record is never mutated.
func (v *Variant) WithInfo(key utils.Symbol, value interface{}) *Variant {
	result := *v
	info := v.Info.Dup()
	info.Set(key, value)
	result.Info = info
	return &result
}
