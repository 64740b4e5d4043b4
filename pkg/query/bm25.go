/*
Copyright 2024 The Retrievalcore Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package query implements the document-at-a-time top-k evaluator and
// its Okapi BM25 scoring function.
package query

import "math"

// Scorer computes Okapi BM25 scores. The zero value uses the standard
// k1 = 1.5, b = 0.75 constants.
type Scorer struct {
	K1 float64
	B  float64

	TotalDocs    int32
	AvgDocLength float64
}

// NewScorer returns a Scorer with the standard k1/b constants for a
// collection of the given size and average document length.
func NewScorer(totalDocs int32, avgDocLength float64) *Scorer {
	return &Scorer{K1: 1.5, B: 0.75, TotalDocs: totalDocs, AvgDocLength: avgDocLength}
}

func (s *Scorer) k1() float64 {
	if s.K1 == 0 {
		return 1.5
	}
	return s.K1
}

func (s *Scorer) b() float64 {
	if s.B == 0 {
		return 0.75
	}
	return s.B
}

// Score returns the BM25 score of one (term, document) pair given the
// term's frequency in the document (tf), the term's document frequency
// across the collection (df), and the document's length in tokens (dl).
func (s *Scorer) Score(tf, df, dl int32) float64 {
	k1 := s.k1()
	b := s.b()
	n := float64(s.TotalDocs)
	idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
	denom := float64(tf) + k1*(1-b+b*float64(dl)/s.AvgDocLength)
	tfc := float64(tf) * (k1 + 1) / denom
	return idf * tfc
}
