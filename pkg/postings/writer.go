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
	"io"
)

// IndexWriter appends one term record at a time to an index file and
// reports the (offset, length) of each record so the caller can build the
// matching lexicon entry.
type IndexWriter struct {
	w       *bufio.Writer
	written int64
}

// NewIndexWriter wraps w. The caller owns w's lifetime; Flush must be
// called before the underlying file is closed.
func NewIndexWriter(w io.Writer) *IndexWriter {
	return &IndexWriter{w: bufio.NewWriterSize(w, 1<<20)}
}

// Flush flushes any buffered bytes to the underlying writer.
func (iw *IndexWriter) Flush() error {
	return iw.w.Flush()
}

// WriteTerm writes one term's full record (header + all blocks) and
// returns the (offset, length) of the record within the stream of bytes
// written so far through this writer.
func (iw *IndexWriter) WriteTerm(term string, postings []Posting) (offset, length int64, err error) {
	offset = iw.written
	if err = iw.writeUint64(uint64(len(term))); err != nil {
		return 0, 0, err
	}
	if err = iw.writeBytes([]byte(term)); err != nil {
		return 0, 0, err
	}
	numBlocks := (len(postings) + BlockSize - 1) / BlockSize
	if err = iw.writeUint64(uint64(numBlocks)); err != nil {
		return 0, 0, err
	}
	for i := 0; i < len(postings); i += BlockSize {
		end := i + BlockSize
		if end > len(postings) {
			end = len(postings)
		}
		docIDs, freqs, encErr := EncodeBlock(postings[i:end])
		if encErr != nil {
			return 0, 0, fmt.Errorf("encoding block for term %q: %w", term, encErr)
		}
		if err = iw.writeUint64(uint64(len(docIDs))); err != nil {
			return 0, 0, err
		}
		if err = iw.writeUint64(uint64(len(freqs))); err != nil {
			return 0, 0, err
		}
		if err = iw.writeBytes(docIDs); err != nil {
			return 0, 0, err
		}
		if err = iw.writeBytes(freqs); err != nil {
			return 0, 0, err
		}
	}
	return offset, iw.written - offset, nil
}

func (iw *IndexWriter) writeUint64(v uint64) error {
	if err := putUint64(iw.w, v); err != nil {
		return err
	}
	iw.written += 8
	return nil
}

func (iw *IndexWriter) writeBytes(b []byte) error {
	n, err := iw.w.Write(b)
	iw.written += int64(n)
	return err
}
