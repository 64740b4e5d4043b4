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

package stats

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "document_lengths", "0 120\n1 45\n2 300\n")
	writeFile(t, dir, "collection_stats", "3 155.0\n")
	writeFile(t, dir, "page_table", "0 passage-aaa\n1 passage-bbb\n2 passage-ccc\n")
	writeFile(t, dir, "passage_offsets", "0 0\n1 512\n2 1024\n")

	s, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.TotalDocs != 3 {
		t.Errorf("TotalDocs = %d, want 3", s.TotalDocs)
	}
	if s.AvgDocLength != 155.0 {
		t.Errorf("AvgDocLength = %v, want 155.0", s.AvgDocLength)
	}
	if s.DocLengths[2] != 300 {
		t.Errorf("DocLengths[2] = %d, want 300", s.DocLengths[2])
	}
	if s.PageTable[1] != "passage-bbb" {
		t.Errorf("PageTable[1] = %q, want passage-bbb", s.PageTable[1])
	}
	if s.PassageOffs[2] != 1024 {
		t.Errorf("PassageOffs[2] = %d, want 1024", s.PassageOffs[2])
	}
}

func TestLoadMalformedLineIsFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "document_lengths", "0 120\nnotanumber\n")
	writeFile(t, dir, "collection_stats", "1 120.0\n")
	writeFile(t, dir, "page_table", "0 p0\n")
	writeFile(t, dir, "passage_offsets", "0 0\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for a malformed document_lengths line")
	}
}
