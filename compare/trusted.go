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
	"strings"

	"github.com/varcomp/varcomp/internal"
	"github.com/varcomp/varcomp/vcf"
)

// SupportFiles are the variant files representing a resolved support
// specification: calls trusted as true positives, calls suspected as
// false positives, and, for validation workflows with a target call
// set, the calls corroborated by every set except the target.
type SupportFiles struct {
	TruePositives  string
	FalsePositives string
	TargetOverlaps string
}

// An UnresolvedSupportError reports a support specification for which
// no matching comparison result exists.
type UnresolvedSupportError struct {
	Support []string
	Target  string
}

func (e *UnresolvedSupportError) Error() string {
	if len(e.Support) > 0 {
		return fmt.Sprintf("no comparison result matches the support specification %v", strings.Join(e.Support, ", "))
	}
	return fmt.Sprintf("no comparison result matches the target call set %v", e.Target)
}

// SelectTrusted resolves a support specification against the
// comparison collection. A single supporting call set routes to its
// pairwise comparison when the collection reduces to one underlying
// pair; an explicit pair routes to that pair's comparison; everything
// else performs the full multi-way overlap analysis over the merged
// union file, with the given target call set (which may be empty
// outside validation workflows).
func SelectTrusted(cmps *Comparisons, support []string, target string, x *Experiment) (*SupportFiles, error) {
	switch {
	case len(support) == 1:
		if pair, ok := cmps.SinglePair(x); ok {
			name := support[0]
			other := pair.Other(name)
			if other == "" {
				return nil, &UnresolvedSupportError{Support: support}
			}
			return &SupportFiles{
				TruePositives:  pair.Only(name),
				FalsePositives: pair.Only(other),
			}, nil
		}
		return MultiwayOverlap(cmps, x, target)
	case len(support) == 2:
		pair := cmps.FindPair(support[0], support[1])
		if pair == nil {
			return nil, &UnresolvedSupportError{Support: support}
		}
		return &SupportFiles{
			TruePositives:  pair.Only(support[0]),
			FalsePositives: pair.Only(support[1]),
		}, nil
	default:
		return MultiwayOverlap(cmps, x, target)
	}
}

// MultiwayOverlap splits the merged union file by overlap membership
// in a single pass: calls with full membership are true positives;
// calls corroborated by every set except the target go to the target
// overlap file; everything else is a suspected false positive. A call
// whose provenance annotation cannot be decoded fails the whole
// operation.
func MultiwayOverlap(cmps *Comparisons, x *Experiment, target string) (*SupportFiles, error) {
	if cmps.Union == "" {
		return nil, &UnresolvedSupportError{Target: target}
	}
	targetIndex := -1
	if target != "" {
		if targetIndex = x.Index(target); targetIndex < 0 {
			return nil, &UnresolvedSupportError{Target: target}
		}
	}
	files := &SupportFiles{
		TruePositives:  DerivedName(cmps.Union, "-tps"),
		FalsePositives: DerivedName(cmps.Union, "-fps"),
	}
	outputs := []string{files.TruePositives, files.FalsePositives}
	if targetIndex >= 0 {
		files.TargetOverlaps = DerivedName(cmps.Union, "-wo-"+target)
		outputs = append(outputs, files.TargetOverlaps)
	}
	if !internal.NeedsRun(outputs...) {
		return files, nil
	}
	reader, err := vcf.OpenVariantReader(cmps.Union)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()
	total := uint(len(x.CallSets))
	var tps, fps, overlaps []*vcf.Variant
	for {
		variant, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		members, err := Membership(variant, x)
		if err != nil {
			return nil, err
		}
		switch {
		case members.Count() == total:
			tps = append(tps, variant)
		case targetIndex >= 0 && members.Count() == total-1 && !members.Test(uint(targetIndex)):
			overlaps = append(overlaps, variant)
		default:
			fps = append(fps, variant)
		}
	}
	if err := writeVariantFile(files.TruePositives, reader.Header, tps); err != nil {
		return nil, err
	}
	if err := writeVariantFile(files.FalsePositives, reader.Header, fps); err != nil {
		return nil, err
	}
	if targetIndex >= 0 {
		if err := writeVariantFile(files.TargetOverlaps, reader.Header, overlaps); err != nil {
			return nil, err
		}
	}
	return files, nil
}
