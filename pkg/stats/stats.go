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

// Package stats parses the sidecar text files the query processor needs
// alongside the index and lexicon: per-document lengths, collection-wide
// statistics, the internal-to-external passage ID mapping, and byte
// offsets into the raw collection file for snippet retrieval.
//
// These files are produced upstream by the parser stage; this package
// only consumes them.
package stats

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Stats holds everything the query processor needs beyond the index and
// lexicon: per-document lengths, collection totals, and the id/offset
// maps used to render results.
type Stats struct {
	DocLengths   map[int32]int32
	TotalDocs    int32
	AvgDocLength float64
	PageTable    map[int32]string
	PassageOffs  map[int32]int64
}

// LoadDocLengths parses "docID length" records.
func LoadDocLengths(path string) (map[int32]int32, error) {
	out := make(map[int32]int32)
	err := scanFields(path, 2, func(lineNo int, f []string) error {
		docID, err := parseInt32(f[0])
		if err != nil {
			return fmt.Errorf("%s:%d: bad docID: %w", path, lineNo, err)
		}
		length, err := parseInt32(f[1])
		if err != nil {
			return fmt.Errorf("%s:%d: bad length: %w", path, lineNo, err)
		}
		out[docID] = length
		return nil
	})
	return out, err
}

// LoadCollectionStats parses the single-line "totalDocuments
// avgDocumentLength" record.
func LoadCollectionStats(path string) (totalDocs int32, avgDocLength float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return 0, 0, fmt.Errorf("%s: expected 2 fields, got %d", path, len(fields))
		}
		n, err := parseInt32(fields[0])
		if err != nil {
			return 0, 0, fmt.Errorf("%s: bad totalDocuments: %w", path, err)
		}
		avgdl, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%s: bad avgDocumentLength: %w", path, err)
		}
		return n, avgdl, nil
	}
	if err := sc.Err(); err != nil {
		return 0, 0, fmt.Errorf("reading %s: %w", path, err)
	}
	return 0, 0, fmt.Errorf("%s: empty collection stats file", path)
}

// LoadPageTable parses "docID externalPassageID" records.
func LoadPageTable(path string) (map[int32]string, error) {
	out := make(map[int32]string)
	err := scanFields(path, 2, func(lineNo int, f []string) error {
		docID, err := parseInt32(f[0])
		if err != nil {
			return fmt.Errorf("%s:%d: bad docID: %w", path, lineNo, err)
		}
		out[docID] = f[1]
		return nil
	})
	return out, err
}

// LoadPassageOffsets parses "docID byteOffset" records.
func LoadPassageOffsets(path string) (map[int32]int64, error) {
	out := make(map[int32]int64)
	err := scanFields(path, 2, func(lineNo int, f []string) error {
		docID, err := parseInt32(f[0])
		if err != nil {
			return fmt.Errorf("%s:%d: bad docID: %w", path, lineNo, err)
		}
		off, err := strconv.ParseInt(f[1], 10, 64)
		if err != nil {
			return fmt.Errorf("%s:%d: bad byteOffset: %w", path, lineNo, err)
		}
		out[docID] = off
		return nil
	})
	return out, err
}

// Load reads all four sidecar files from dir, using the spec's fixed
// file names (document_lengths, collection_stats, page_table,
// passage_offsets).
func Load(dir string) (*Stats, error) {
	join := func(name string) string { return filepath.Join(dir, name) }

	docLengths, err := LoadDocLengths(join("document_lengths"))
	if err != nil {
		return nil, err
	}
	totalDocs, avgdl, err := LoadCollectionStats(join("collection_stats"))
	if err != nil {
		return nil, err
	}
	pageTable, err := LoadPageTable(join("page_table"))
	if err != nil {
		return nil, err
	}
	passageOffs, err := LoadPassageOffsets(join("passage_offsets"))
	if err != nil {
		return nil, err
	}
	return &Stats{
		DocLengths:   docLengths,
		TotalDocs:    totalDocs,
		AvgDocLength: avgdl,
		PageTable:    pageTable,
		PassageOffs:  passageOffs,
	}, nil
}

func parseInt32(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return int32(v), err
}

func scanFields(path string, wantFields int, fn func(lineNo int, fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != wantFields {
			return fmt.Errorf("%s:%d: expected %d fields, got %d", path, lineNo, wantFields, len(fields))
		}
		if err := fn(lineNo, fields); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return nil
}
