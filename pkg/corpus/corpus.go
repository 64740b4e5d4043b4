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

// Package corpus composes a loaded lexicon and sidecar stats into one
// immutable snapshot a host constructs once and shares, read-only,
// across every concurrent query.Evaluator it runs. Nothing in this
// package mutates a Snapshot after Load returns it.
package corpus

import (
	"fmt"

	"retrievalcore.dev/pkg/postings"
	"retrievalcore.dev/pkg/query"
	"retrievalcore.dev/pkg/stats"
)

// Snapshot is the read-only union of a lexicon and its sidecar stats,
// plus the path to the index file every cursor it spawns will open.
type Snapshot struct {
	IndexPath string
	Lexicon   *postings.Lexicon
	Stats     *stats.Stats
}

// Load opens the lexicon at lexiconPath and the four sidecar files under
// statsDir, pairing them with indexPath for later cursor opens. Every
// error here is the "missing input file" / "malformed sidecar record"
// class from the format's error table: fatal at startup.
func Load(indexPath, lexiconPath, statsDir string) (*Snapshot, error) {
	lex, err := postings.LoadLexicon(lexiconPath)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	st, err := stats.Load(statsDir)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	return &Snapshot{IndexPath: indexPath, Lexicon: lex, Stats: st}, nil
}

// NewEvaluator returns a query.Evaluator over this snapshot with a
// standard-constant BM25 scorer seeded from the snapshot's collection
// statistics. Every call returns an independent Evaluator value; callers
// running queries concurrently should call this once per goroutine
// rather than sharing one Evaluator, since each Conjunctive/Disjunctive
// call opens and closes its own cursors against the shared, read-only
// Snapshot.
func (s *Snapshot) NewEvaluator() *query.Evaluator {
	return &query.Evaluator{
		Lexicon:    s.Lexicon,
		IndexPath:  s.IndexPath,
		Scorer:     query.NewScorer(s.Stats.TotalDocs, s.Stats.AvgDocLength),
		DocLengths: s.Stats.DocLengths,
	}
}
