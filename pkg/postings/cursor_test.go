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
	"os"
	"path/filepath"
	"testing"
)

func writeSingleTermIndex(t *testing.T, term string, postingsList []Posting) (indexPath string, entry LexiconEntry) {
	t.Helper()
	dir := t.TempDir()
	indexPath = filepath.Join(dir, "index.bin")
	f, err := os.Create(indexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	iw := NewIndexWriter(f)
	offset, length, err := iw.WriteTerm(term, postingsList)
	if err != nil {
		t.Fatal(err)
	}
	if err := iw.Flush(); err != nil {
		t.Fatal(err)
	}
	var df int32
	for range postingsList {
		df++
	}
	return indexPath, LexiconEntry{Term: term, Offset: offset, Length: length, DocFrequency: df}
}

func TestCursorFirstDocID(t *testing.T) {
	postingsList := []Posting{{0, 2}, {2, 3}, {5, 1}}
	path, entry := writeSingleTermIndex(t, "cat", postingsList)
	c, err := OpenList("cat", path, entry)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseList()

	if got := c.NextGEQ(0); got != 0 {
		t.Fatalf("NextGEQ(0) = %d, want 0", got)
	}
	if got := c.GetScore(); got != 2 {
		t.Fatalf("GetScore() = %v, want 2", got)
	}
}

func TestCursorSkip(t *testing.T) {
	// Scenario 2 from the spec: cat -> [(0,2),(2,3),(5,1)].
	postingsList := []Posting{{0, 2}, {2, 3}, {5, 1}}
	path, entry := writeSingleTermIndex(t, "cat", postingsList)
	c, err := OpenList("cat", path, entry)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseList()

	if got := c.NextGEQ(1); got != 2 {
		t.Fatalf("NextGEQ(1) = %d, want 2", got)
	}
	if got := c.NextGEQ(4); got != 5 {
		t.Fatalf("NextGEQ(4) = %d, want 5", got)
	}
	if got := c.NextGEQ(6); got != MaxDID {
		t.Fatalf("NextGEQ(6) = %d, want MaxDID", got)
	}
	if c.HasNext() {
		t.Fatalf("cursor should be terminal after exhausting the list")
	}
}

func TestCursorBlockBoundary(t *testing.T) {
	// Scenario 3 from the spec: 300 consecutive docIDs, freq 1 each.
	var postingsList []Posting
	for i := int32(0); i < 300; i++ {
		postingsList = append(postingsList, Posting{DocID: i, Freq: 1})
	}
	path, entry := writeSingleTermIndex(t, "word", postingsList)
	c, err := OpenList("word", path, entry)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseList()

	if got := c.NextGEQ(128); got != 128 {
		t.Fatalf("NextGEQ(128) = %d, want 128", got)
	}
	if got := c.NextGEQ(255); got != 255 {
		t.Fatalf("NextGEQ(255) = %d, want 255", got)
	}
	if got := c.NextGEQ(300); got != MaxDID {
		t.Fatalf("NextGEQ(300) = %d, want MaxDID", got)
	}
}

func TestCursorFullTraversal(t *testing.T) {
	var postingsList []Posting
	for i := int32(0); i < 300; i++ {
		postingsList = append(postingsList, Posting{DocID: i * 2, Freq: i + 1})
	}
	path, entry := writeSingleTermIndex(t, "term", postingsList)
	c, err := OpenList("term", path, entry)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseList()

	var got []Posting
	next := int32(0)
	for {
		did := c.NextGEQ(next)
		if did == MaxDID {
			break
		}
		got = append(got, Posting{DocID: did, Freq: int32(c.GetScore())})
		next = did + 1
	}
	if len(got) != len(postingsList) {
		t.Fatalf("got %d postings, want %d", len(got), len(postingsList))
	}
	for i, p := range got {
		if p != postingsList[i] {
			t.Fatalf("posting %d: got %+v, want %+v", i, p, postingsList[i])
		}
	}
}

func TestCursorTermMismatch(t *testing.T) {
	postingsList := []Posting{{0, 1}}
	path, entry := writeSingleTermIndex(t, "cat", postingsList)
	// Ask for a different term at the same offset/length: the stored
	// term bytes won't match "dog", so the cursor must terminate instead
	// of returning cat's postings under the wrong name.
	c, err := OpenList("dog", path, entry)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseList()
	if c.HasNext() {
		t.Fatalf("cursor should be terminal on term mismatch")
	}
	if got := c.NextGEQ(0); got != MaxDID {
		t.Fatalf("NextGEQ on mismatched cursor = %d, want MaxDID", got)
	}
}

func TestCursorNonMonotoneTargetClamps(t *testing.T) {
	postingsList := []Posting{{1, 1}, {4, 1}, {7, 1}, {10, 1}}
	path, entry := writeSingleTermIndex(t, "t", postingsList)
	c, err := OpenList("t", path, entry)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseList()

	if got := c.NextGEQ(7); got != 7 {
		t.Fatalf("NextGEQ(7) = %d, want 7", got)
	}
	// A target in the past must not rewind the cursor.
	if got := c.NextGEQ(2); got != 7 {
		t.Fatalf("NextGEQ(2) after NextGEQ(7) = %d, want 7 (no rewind)", got)
	}
}
