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
	"errors"
	"testing"
)

func TestMembershipNames(t *testing.T) {
	x := testExperiment("A", "B", "C")
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	set=A-AND-B")
	names, err := MembershipNames(v, x)
	if err != nil {
		t.Fatal("MembershipNames failed: ", err)
	}
	if len(names) != 2 || names[0] != "A" || names[1] != "B" {
		t.Error("membership of A-AND-B failed: ", names)
	}
}

func TestMembershipIntersection(t *testing.T) {
	x := testExperiment("A", "B", "C")
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	set=Intersection")
	if !IsIntersection(v) {
		t.Error("IsIntersection failed")
	}
	members, err := Membership(v, x)
	if err != nil {
		t.Fatal("Membership failed: ", err)
	}
	if members.Count() != 3 {
		t.Error("Intersection membership failed")
	}
	if ProvenanceAnnotation(members, x) != IntersectionTag {
		t.Error("ProvenanceAnnotation round trip failed")
	}
}

func TestMembershipExcludesFilteredTokens(t *testing.T) {
	x := testExperiment("A", "B", "C")
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	set=A-AND-filteredInC")
	names, err := MembershipNames(v, x)
	if err != nil {
		t.Fatal("MembershipNames failed: ", err)
	}
	if len(names) != 1 || names[0] != "A" {
		t.Error("filtered token exclusion failed: ", names)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	set=A-AND-B-filtered")
	names, err = MembershipNames(v, x)
	if err != nil {
		t.Fatal("MembershipNames failed: ", err)
	}
	if len(names) != 2 || names[1] != "B" {
		t.Error("filtered suffix stripping failed: ", names)
	}
}

func TestMembershipMalformed(t *testing.T) {
	x := testExperiment("A", "B", "C")
	var perr *MalformedProvenanceError
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	DP=10")
	if _, err := Membership(v, x); !errors.As(err, &perr) {
		t.Error("missing provenance annotation detection failed")
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	set=A-AND-unknown")
	if _, err := Membership(v, x); !errors.As(err, &perr) {
		t.Error("unknown call set detection failed")
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	set=filteredInA-AND-filteredInB")
	if _, err := Membership(v, x); !errors.As(err, &perr) {
		t.Error("all-filtered annotation detection failed")
	}
}

func TestBelowCallSupportScenario(t *testing.T) {
	x := testExperiment("A", "B", "C")
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	set=A-AND-B")
	// With three call sets and the default tolerance, the limit is
	// ceil(0.25 * 2) = 1 other supporting set.
	holds, decided := belowCallSupport(v, retr, x.CallSet("A"), x)
	if !decided || !holds {
		t.Error("below-call-support for a member call set failed")
	}
	holds, decided = belowCallSupport(v, retr, x.CallSet("C"), x)
	if !decided || holds {
		t.Error("below-call-support for a non-member call set failed")
	}
}
