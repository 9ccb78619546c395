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
	"io/ioutil"
	"log"
	"math"
	"os"
	"testing"

	"github.com/varcomp/varcomp/sites"
)

func TestDepthFallbacks(t *testing.T) {
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:DP:AD	0/1:20:12,8")
	if depth := retr.Get(v, AttrDepth); depth != 20.0 {
		t.Error("explicit depth failed: ", depth)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:AD	0/1:10,5")
	if depth := retr.Get(v, AttrDepth); depth != 15.0 {
		t.Error("allelic depth fallback failed: ", depth)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:RO:AO	0/1:9:4")
	if depth := retr.Get(v, AttrDepth); depth != 13.0 {
		t.Error("observation count fallback failed: ", depth)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT	0/1")
	if depth := retr.Get(v, AttrDepth); depth != nil {
		t.Error("missing depth failed: ", depth)
	}
}

func TestAllelicDeviation(t *testing.T) {
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:AD	0/1:7,7")
	if deviation := retr.Get(v, AttrAllelicDeviation); deviation != 0.0 {
		t.Error("balanced het deviation failed: ", deviation)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:AD	1/1:2,8")
	deviation, ok := asFloat(retr.Get(v, AttrAllelicDeviation))
	if !ok || math.Abs(deviation-0.2) > 1e-9 {
		t.Error("hom-var deviation failed: ", deviation)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:DP:AO	0/1:20:5")
	deviation, ok = asFloat(retr.Get(v, AttrAllelicDeviation))
	if !ok || math.Abs(deviation-0.25) > 1e-9 {
		t.Error("observation count deviation fallback failed: ", deviation)
	}
}

func TestLikelihoods(t *testing.T) {
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:PL	0/1:30,0,300")
	if margin := retr.Get(v, AttrLikelihoodMargin); margin != -3.0 {
		t.Error("likelihood margin failed: ", margin)
	}
	ratio, ok := asFloat(retr.Get(v, AttrLikelihoodRatio))
	if !ok || math.Abs(ratio-0.1) > 1e-9 {
		t.Error("likelihood ratio failed: ", ratio)
	}
	v = testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:DP	0/1:20")
	if margin := retr.Get(v, AttrLikelihoodMargin); margin != nil {
		t.Error("missing likelihoods failed: ", margin)
	}
}

func TestQualityAndGenericAttributes(t *testing.T) {
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	37.5	PASS	MQ=59.1;culprit=FS	GT	0/1")
	if q := retr.Get(v, AttrQuality); q != 37.5 {
		t.Error("quality attribute failed: ", q)
	}
	if mq := retr.Get(v, "MQ"); mq != 59.1 {
		t.Error("generic numeric attribute failed: ", mq)
	}
	if culprit := retr.Get(v, "culprit"); culprit != "FS" {
		t.Error("generic categorical attribute failed: ", culprit)
	}
	if missing := retr.Get(v, "ReadPosRankSum"); missing != nil {
		t.Error("missing attribute failed: ", missing)
	}
}

func TestAnnotationIndexDispatch(t *testing.T) {
	index := sites.NewIndex()
	index.Add("mappability", "chr1", 50, 150, 0.5)
	index.SetDefault("mappability", 1.0)
	index.Build()
	retr := &Retriever{Annotations: index}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT	0/1")
	if value := retr.Get(v, "mappability"); value != 0.5 {
		t.Error("annotation index dispatch failed: ", value)
	}
	v = testVariant(t, "chr2	100	.	A	G	50	PASS	.	GT	0/1")
	if value := retr.Get(v, "mappability"); value != 1.0 {
		t.Error("annotation index defaulting failed: ", value)
	}
}

func TestGetAll(t *testing.T) {
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	MQ=60	GT:DP	0/1:20")
	values := retr.GetAll(v, []string{AttrDepth, AttrQuality, "MQ", "missing"})
	if values[AttrDepth] != 20.0 || values[AttrQuality] != 50.0 || values["MQ"] != 60 {
		t.Error("GetAll failed: ", values)
	}
	if values["missing"] != nil {
		t.Error("GetAll missing attribute failed")
	}
}

func TestSingleSamplePrecondition(t *testing.T) {
	log.SetOutput(ioutil.Discard)
	defer log.SetOutput(os.Stderr)
	retr := &Retriever{}
	v := testVariant(t, "chr1	100	.	A	G	50	PASS	.	GT:AD	0/1:7,7")
	v.GenotypeData = append(v.GenotypeData, v.GenotypeData[0])
	defer func() {
		if recover() == nil {
			t.Error("single-sample precondition failed")
		}
	}()
	retr.Get(v, AttrAllelicDeviation)
}
