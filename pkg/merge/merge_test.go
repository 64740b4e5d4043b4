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

package merge

import (
	"os"
	"path/filepath"
	"testing"

	"retrievalcore.dev/pkg/postings"
)

func writeRun(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	var data string
	for _, l := range lines {
		data += l + "\n"
	}
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestMergeRoundtrip implements scenario 1 from the spec: run A = [("cat",
// 0, 2), ("cat", 5, 1), ("dog", 3, 4)], run B = [("cat", 2, 3), ("dog", 3,
// 1)]. After merge, cat -> [(0,2),(2,3),(5,1)], dog -> [(3,5)].
func TestMergeRoundtrip(t *testing.T) {
	dir := t.TempDir()
	runA := writeRun(t, dir, "run_a.txt", []string{
		"cat 0 2",
		"cat 5 1",
		"dog 3 4",
	})
	runB := writeRun(t, dir, "run_b.txt", []string{
		"cat 2 3",
		"dog 3 1",
	})

	indexPath := filepath.Join(dir, "index.bin")
	lexiconPath := filepath.Join(dir, "lexicon.txt")
	if err := Run([]RunSource{{Path: runA}, {Path: runB}}, indexPath, lexiconPath); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lex, err := postings.LoadLexicon(lexiconPath)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}

	catEntry, ok := lex.Lookup("cat")
	if !ok {
		t.Fatal("cat missing from lexicon")
	}
	if catEntry.DocFrequency != 3 {
		t.Errorf("cat docFrequency = %d, want 3", catEntry.DocFrequency)
	}
	wantCat := []postings.Posting{{DocID: 0, Freq: 2}, {DocID: 2, Freq: 3}, {DocID: 5, Freq: 1}}
	assertPostings(t, indexPath, "cat", catEntry, wantCat)

	dogEntry, ok := lex.Lookup("dog")
	if !ok {
		t.Fatal("dog missing from lexicon")
	}
	if dogEntry.DocFrequency != 1 {
		t.Errorf("dog docFrequency = %d, want 1", dogEntry.DocFrequency)
	}
	wantDog := []postings.Posting{{DocID: 3, Freq: 5}}
	assertPostings(t, indexPath, "dog", dogEntry, wantDog)
}

func assertPostings(t *testing.T, indexPath, term string, entry postings.LexiconEntry, want []postings.Posting) {
	t.Helper()
	c, err := postings.OpenList(term, indexPath, entry)
	if err != nil {
		t.Fatalf("OpenList(%q): %v", term, err)
	}
	defer c.CloseList()

	var got []postings.Posting
	next := int32(0)
	for {
		did := c.NextGEQ(next)
		if did == postings.MaxDID {
			break
		}
		got = append(got, postings.Posting{DocID: did, Freq: int32(c.GetScore())})
		next = did + 1
	}
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", term, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%s[%d]: got %+v, want %+v", term, i, got[i], want[i])
		}
	}
}

func TestMergeThreeRunsOutOfOrder(t *testing.T) {
	dir := t.TempDir()
	r1 := writeRun(t, dir, "r1.txt", []string{"alpha 4 2", "zeta 1 1"})
	r2 := writeRun(t, dir, "r2.txt", []string{"alpha 1 5", "zeta 0 9"})
	r3 := writeRun(t, dir, "r3.txt", []string{"alpha 1 1", "beta 2 2"})

	indexPath := filepath.Join(dir, "index.bin")
	lexiconPath := filepath.Join(dir, "lexicon.txt")
	if err := Run([]RunSource{{Path: r1}, {Path: r2}, {Path: r3}}, indexPath, lexiconPath); err != nil {
		t.Fatalf("Run: %v", err)
	}
	lex, err := postings.LoadLexicon(lexiconPath)
	if err != nil {
		t.Fatal(err)
	}

	alphaEntry, _ := lex.Lookup("alpha")
	assertPostings(t, indexPath, "alpha", alphaEntry, []postings.Posting{
		{DocID: 1, Freq: 6}, {DocID: 4, Freq: 2},
	})

	betaEntry, _ := lex.Lookup("beta")
	assertPostings(t, indexPath, "beta", betaEntry, []postings.Posting{{DocID: 2, Freq: 2}})

	zetaEntry, _ := lex.Lookup("zeta")
	assertPostings(t, indexPath, "zeta", zetaEntry, []postings.Posting{{DocID: 0, Freq: 9}, {DocID: 1, Freq: 1}})
}

// TestMergeMalformedRecordIsFatal implements the format's "I/O error
// during merge: fatal; do not emit partial index" policy for a
// malformed run record: Run must fail, and must not leave an index or
// lexicon file behind.
func TestMergeMalformedRecordIsFatal(t *testing.T) {
	dir := t.TempDir()
	runA := writeRun(t, dir, "run_a.txt", []string{"cat 0 2", "not a valid record at all"})

	indexPath := filepath.Join(dir, "index.bin")
	lexiconPath := filepath.Join(dir, "lexicon.txt")
	if err := Run([]RunSource{{Path: runA}}, indexPath, lexiconPath); err == nil {
		t.Fatal("expected an error for a malformed run record")
	}
	if _, err := os.Stat(indexPath); !os.IsNotExist(err) {
		t.Fatalf("index file should not exist after a failed merge, stat err = %v", err)
	}
	if _, err := os.Stat(lexiconPath); !os.IsNotExist(err) {
		t.Fatalf("lexicon file should not exist after a failed merge, stat err = %v", err)
	}
}
