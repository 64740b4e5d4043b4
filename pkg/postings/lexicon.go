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

package postings

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/btree"
)

// LexiconEntry is one term's record in the lexicon: where its posting
// list lives in the index file, how long the record is, and its total
// document frequency.
type LexiconEntry struct {
	Term         string
	Offset       int64
	Length       int64
	DocFrequency int32
}

type lexiconItem struct {
	term  string
	entry LexiconEntry
}

func lexiconItemLess(a, b lexiconItem) bool {
	return a.term < b.term
}

// Lexicon is the in-memory term dictionary loaded once at query-processor
// startup and shared read-only by every cursor opened thereafter.
//
// Point lookups go through an auxiliary map for O(1) amortized cost; an
// ordered github.com/google/btree index backs PrefixTerms, which a plain
// map cannot answer without a full scan.
type Lexicon struct {
	byTerm map[string]LexiconEntry
	tree   *btree.BTreeG[lexiconItem]
}

// NewLexicon returns an empty, ready-to-populate Lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		byTerm: make(map[string]LexiconEntry),
		tree:   btree.NewG(32, lexiconItemLess),
	}
}

// Add inserts or overwrites the entry for a term.
func (l *Lexicon) Add(e LexiconEntry) {
	l.byTerm[e.Term] = e
	l.tree.ReplaceOrInsert(lexiconItem{term: e.Term, entry: e})
}

// Lookup returns the entry for term and whether it exists.
func (l *Lexicon) Lookup(term string) (LexiconEntry, bool) {
	e, ok := l.byTerm[term]
	return e, ok
}

// Len returns the number of distinct terms in the lexicon.
func (l *Lexicon) Len() int {
	return len(l.byTerm)
}

// PrefixTerms returns up to limit terms with the given prefix, in sorted
// order. limit <= 0 means unbounded.
func (l *Lexicon) PrefixTerms(prefix string, limit int) []string {
	if l.tree.Len() == 0 {
		return nil
	}
	var terms []string
	// upperBound is the smallest string that is NOT prefixed by prefix:
	// increment the last byte, matching the half-open range a btree
	// AscendRange expects.
	upper := prefixUpperBound(prefix)
	visit := func(item lexiconItem) bool {
		if !strings.HasPrefix(item.term, prefix) {
			return false
		}
		terms = append(terms, item.term)
		return limit <= 0 || len(terms) < limit
	}
	if upper == "" {
		l.tree.AscendGreaterOrEqual(lexiconItem{term: prefix}, visit)
	} else {
		l.tree.AscendRange(lexiconItem{term: prefix}, lexiconItem{term: upper}, visit)
	}
	return terms
}

// prefixUpperBound returns the smallest string greater than every string
// prefixed by p, or "" if no finite upper bound exists (p is all 0xff
// bytes or empty).
func prefixUpperBound(p string) string {
	b := []byte(p)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] != 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}

// WriteLexiconFile writes entries, one per line, as:
//
//	term offset length docFrequency
func WriteLexiconFile(path string, entries []LexiconEntry) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating lexicon temp file: %w", err)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(tmp)
		}
	}()
	w := bufio.NewWriter(f)
	for _, e := range entries {
		if _, err = fmt.Fprintf(w, "%s %d %d %d\n", e.Term, e.Offset, e.Length, e.DocFrequency); err != nil {
			return fmt.Errorf("writing lexicon entry for %q: %w", e.Term, err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flushing lexicon file: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing lexicon file: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming lexicon file into place: %w", err)
	}
	return nil
}

// LoadLexicon parses a lexicon file written by WriteLexiconFile (or
// equivalently formatted). Duplicate terms: the last occurrence wins.
func LoadLexicon(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon %s: %w", path, err)
	}
	defer f.Close()

	lex := NewLexicon()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("lexicon %s:%d: expected 4 fields, got %d", path, lineNo, len(fields))
		}
		offset, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon %s:%d: bad offset: %w", path, lineNo, err)
		}
		length, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("lexicon %s:%d: bad length: %w", path, lineNo, err)
		}
		df, err := strconv.ParseInt(fields[3], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("lexicon %s:%d: bad docFrequency: %w", path, lineNo, err)
		}
		lex.Add(LexiconEntry{
			Term:         fields[0],
			Offset:       offset,
			Length:       length,
			DocFrequency: int32(df),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lexicon %s: %w", path, err)
	}
	return lex, nil
}
