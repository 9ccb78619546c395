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
	"strings"

	"github.com/bits-and-blooms/bitset"

	"github.com/varcomp/varcomp/utils"
	"github.com/varcomp/varcomp/vcf"
)

// The merge-provenance annotation grammar: the INFO key carrying the
// annotation, the sentinel meaning "every call set", the conjunction
// joining set names, and the prefix of tokens recording contributors
// whose calls were filtered at their source. Filtered tokens never
// count towards membership.
const (
	ProvenanceKey   = "set"
	IntersectionTag = "Intersection"
	conjunction     = "-AND-"
	filteredPrefix  = "filtered"
	filteredSuffix  = "-filtered"
)

var provenanceKey = utils.Intern(ProvenanceKey)

// A MalformedProvenanceError reports a variant whose merge-provenance
// annotation is absent or cannot be decoded against the experiment's
// call sets. It must fail the enclosing run: treating it as zero
// overlap would silently mean "complete discordance" downstream.
type MalformedProvenanceError struct {
	Locus      string
	Annotation string
	Reason     string
}

func (e *MalformedProvenanceError) Error() string {
	if e.Annotation == "" {
		return fmt.Sprintf("missing merge-provenance annotation at %v: %v", e.Locus, e.Reason)
	}
	return fmt.Sprintf("malformed merge-provenance annotation %q at %v: %v", e.Annotation, e.Locus, e.Reason)
}

// Provenance returns the variant's raw merge-provenance annotation.
func Provenance(v *vcf.Variant) (string, bool) {
	value, ok := v.Info.Get(provenanceKey)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// IsIntersection reports whether the variant's merge-provenance
// annotation is exactly the Intersection sentinel.
func IsIntersection(v *vcf.Variant) bool {
	s, ok := Provenance(v)
	return ok && s == IntersectionTag
}

// Membership decodes the subset of the experiment's call sets that
// contributed a call at this variant's locus, as a bitset over the
// experiment's call-set order. The result is never empty: an
// annotation naming only filtered contributors cannot be decoded,
// since the union of passing calls never records such a locus.
func Membership(v *vcf.Variant, x *Experiment) (*bitset.BitSet, error) {
	annotation, ok := Provenance(v)
	if !ok {
		return nil, &MalformedProvenanceError{Locus: v.Locus(), Reason: "no " + ProvenanceKey + " annotation"}
	}
	members := bitset.New(uint(len(x.CallSets)))
	if annotation == IntersectionTag {
		for i := range x.CallSets {
			members.Set(uint(i))
		}
		return members, nil
	}
	for _, token := range strings.Split(annotation, conjunction) {
		if token == "" {
			return nil, &MalformedProvenanceError{Locus: v.Locus(), Annotation: annotation, Reason: "empty call-set name"}
		}
		if strings.HasPrefix(token, filteredPrefix) {
			continue
		}
		name := strings.TrimSuffix(token, filteredSuffix)
		i := x.Index(name)
		if i < 0 {
			return nil, &MalformedProvenanceError{Locus: v.Locus(), Annotation: annotation, Reason: "unknown call set " + name}
		}
		members.Set(uint(i))
	}
	if members.Count() == 0 {
		return nil, &MalformedProvenanceError{Locus: v.Locus(), Annotation: annotation, Reason: "only filtered contributors"}
	}
	return members, nil
}

// MembershipNames decodes the contributing call sets as a name list
// in experiment order.
func MembershipNames(v *vcf.Variant, x *Experiment) ([]string, error) {
	members, err := Membership(v, x)
	if err != nil {
		return nil, err
	}
	var names []string
	for i, cs := range x.CallSets {
		if members.Test(uint(i)) {
			names = append(names, cs.Name)
		}
	}
	return names, nil
}

// ProvenanceAnnotation formats the merge-provenance annotation for
// the given membership: the Intersection sentinel when every call set
// contributed, or the contributing names joined by the conjunction.
func ProvenanceAnnotation(members *bitset.BitSet, x *Experiment) string {
	if members.Count() == uint(len(x.CallSets)) {
		return IntersectionTag
	}
	var names []string
	for i, cs := range x.CallSets {
		if members.Test(uint(i)) {
			names = append(names, cs.Name)
		}
	}
	return strings.Join(names, conjunction)
}
