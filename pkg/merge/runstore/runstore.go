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

// Package runstore opens the merger's sorted run files, transparently
// decompressing them with github.com/golang/snappy when a run was written
// compressed. This is entirely orthogonal to the index's own posting
// compression (delta + varbyte, package postings): run files are
// ephemeral merge input, never the queryable index itself, so swapping
// their on-disk representation doesn't touch the posting format at all.
package runstore

import (
	"bufio"
	"io"
	"os"

	"github.com/golang/snappy"
)

// OpenRun opens path for reading. If compressed is true the returned
// reader transparently snappy-decompresses the stream.
func OpenRun(path string, compressed bool) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return f, nil
	}
	return &snappyReadCloser{r: snappy.NewReader(f), f: f}, nil
}

type snappyReadCloser struct {
	r *snappy.Reader
	f *os.File
}

func (s *snappyReadCloser) Read(p []byte) (int, error) { return s.r.Read(p) }
func (s *snappyReadCloser) Close() error                { return s.f.Close() }

// CreateRun creates path for writing. If compressed is true, writes are
// snappy-compressed; the returned writer must be closed to flush the
// final snappy frame.
func CreateRun(path string, compressed bool) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if !compressed {
		return f, nil
	}
	return &snappyWriteCloser{w: snappy.NewBufferedWriter(f), f: f}, nil
}

type snappyWriteCloser struct {
	w *snappy.Writer
	f *os.File
}

func (s *snappyWriteCloser) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *snappyWriteCloser) Close() error {
	if err := s.w.Close(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// BufferedReader wraps r with the buffer size the merger's line scanner
// expects. Kept as a named helper so callers don't have to remember the
// size to use for both compressed and uncompressed runs.
func BufferedReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 64*1024)
}
