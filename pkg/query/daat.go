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

package query

import (
	"container/heap"
	"context"

	"retrievalcore.dev/pkg/postings"
)

// Result is one (document, score) pair produced by the evaluator.
type Result struct {
	DocID int32
	Score float64
}

// Evaluator composes per-term cursors into conjunctive and disjunctive
// top-k BM25 retrieval. It never runs its own goroutines; the context it
// accepts is checked once per outer-loop iteration purely as a host
// cancellation hook, not an internal concurrency mechanism — the core
// remains single-threaded per the format's own resource model.
type Evaluator struct {
	Lexicon    *postings.Lexicon
	IndexPath  string
	Scorer     *Scorer
	DocLengths map[int32]int32

	// Cache, if non-nil, is attached to every cursor this Evaluator
	// opens. See postings.BlockCache.
	Cache postings.BlockCache
}

func (e *Evaluator) docLength(docID int32) int32 {
	if e.DocLengths == nil {
		return 0
	}
	return e.DocLengths[docID]
}

type openCursor struct {
	term   string
	df     int32
	cursor *postings.Cursor
}

func (e *Evaluator) openTerms(terms []string) ([]openCursor, error) {
	var cursors []openCursor
	for _, t := range terms {
		entry, ok := e.Lexicon.Lookup(t)
		if !ok {
			continue
		}
		var opts []postings.Option
		if e.Cache != nil {
			opts = append(opts, postings.WithCache(e.Cache))
		}
		c, err := postings.OpenList(t, e.IndexPath, entry, opts...)
		if err != nil {
			closeAll(cursors)
			return nil, err
		}
		cursors = append(cursors, openCursor{term: t, df: entry.DocFrequency, cursor: c})
	}
	return cursors, nil
}

func closeAll(cursors []openCursor) {
	for _, oc := range cursors {
		oc.cursor.CloseList()
	}
}

// Conjunctive returns the top-k BM25-scored documents containing every
// term in terms. If any term is missing from the lexicon, it returns an
// empty result (every cursor it did open is still closed).
func (ev *Evaluator) Conjunctive(ctx context.Context, terms []string, k int) ([]Result, error) {
	cursors, err := ev.openTerms(terms)
	if err != nil {
		return nil, err
	}
	defer closeAll(cursors)
	if len(cursors) != len(terms) {
		// At least one query term isn't in the lexicon: conjunction is
		// unsatisfiable.
		return nil, nil
	}
	if len(cursors) == 0 {
		return nil, nil
	}

	for i := range cursors {
		cursors[i].cursor.NextGEQ(0)
	}

	h := &topKHeap{}
	for {
		if ctx.Err() != nil {
			break
		}
		did := cursors[0].cursor.CurrentDocID()
		if did == postings.MaxDID {
			break
		}

		aligned := false
		for !aligned {
			aligned = true
			maxDid := did
			for i := range cursors {
				cur := cursors[i].cursor.CurrentDocID()
				if cur < did {
					cur = cursors[i].cursor.NextGEQ(did)
				}
				if cur == postings.MaxDID {
					did = postings.MaxDID
					aligned = true
					break
				}
				if cur > maxDid {
					maxDid = cur
				}
				if cur != did {
					aligned = false
				}
			}
			if did == postings.MaxDID {
				break
			}
			if !aligned {
				did = maxDid
			}
		}
		if did == postings.MaxDID {
			break
		}

		score := 0.0
		for _, oc := range cursors {
			score += ev.Scorer.Score(int32(oc.cursor.GetScore()), oc.df, ev.docLength(did))
		}
		pushTopK(h, Result{DocID: did, Score: score}, k)

		for i := range cursors {
			cursors[i].cursor.NextGEQ(did + 1)
		}
	}
	return drainTopK(h), nil
}

// Disjunctive returns the top-k BM25-scored documents containing at
// least one term in terms. Terms missing from the lexicon are silently
// dropped; the query proceeds with whatever terms remain.
func (ev *Evaluator) Disjunctive(ctx context.Context, terms []string, k int) ([]Result, error) {
	cursors, err := ev.openTerms(terms)
	if err != nil {
		return nil, err
	}
	defer closeAll(cursors)
	if len(cursors) == 0 {
		return nil, nil
	}

	for i := range cursors {
		cursors[i].cursor.NextGEQ(0)
	}

	h := &topKHeap{}
	for {
		if ctx.Err() != nil {
			break
		}
		did := postings.MaxDID
		for i := range cursors {
			if cur := cursors[i].cursor.CurrentDocID(); cur < did {
				did = cur
			}
		}
		if did == postings.MaxDID {
			break
		}

		score := 0.0
		for i := range cursors {
			if cursors[i].cursor.CurrentDocID() == did {
				score += ev.Scorer.Score(int32(cursors[i].cursor.GetScore()), cursors[i].df, ev.docLength(did))
				cursors[i].cursor.NextGEQ(did + 1)
			}
		}
		pushTopK(h, Result{DocID: did, Score: score}, k)
	}
	return drainTopK(h), nil
}

// topKHeap is a bounded min-heap of Results keyed by score; the current
// minimum sits at index 0, so a new arrival that beats it can replace it
// in O(log k) instead of rebuilding from a sorted slice.
type topKHeap struct {
	items []topKItem
	seq   int
}

type topKItem struct {
	result Result
	seq    int
}

func (h topKHeap) Len() int { return len(h.items) }
func (h topKHeap) Less(i, j int) bool {
	if h.items[i].result.Score != h.items[j].result.Score {
		return h.items[i].result.Score < h.items[j].result.Score
	}
	// Ties broken by insertion order: the later insertion is "smaller"
	// (evicted first) so that among equal scores, earlier-seen documents
	// are favored to survive — matches the spec's insertion-order tiebreak.
	return h.items[i].seq > h.items[j].seq
}
func (h topKHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *topKHeap) Push(x any)   { h.items = append(h.items, x.(topKItem)) }
func (h *topKHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func pushTopK(h *topKHeap, r Result, k int) {
	h.seq++
	item := topKItem{result: r, seq: h.seq}
	if k <= 0 {
		heap.Push(h, item)
		return
	}
	if h.Len() < k {
		heap.Push(h, item)
		return
	}
	if h.items[0].result.Score < r.Score {
		h.items[0] = item
		heap.Fix(h, 0)
	}
}

func drainTopK(h *topKHeap) []Result {
	out := make([]Result, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(topKItem).result
	}
	return out
}
