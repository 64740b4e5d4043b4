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

// Package postings implements the block-compressed on-disk posting list
// format and the InvertedList cursor that reads it.
//
// Every multi-byte integer in the index file is written as a fixed-width
// 64-bit little-endian unsigned value. The spec this format descends from
// left the width "native", which makes the file's byte layout depend on
// the machine that wrote it; this implementation pins the width instead,
// per that spec's own recommendation, and treats any other width as a
// distinct, unsupported format variant.
package postings

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"retrievalcore.dev/pkg/varbyte"
)

// Posting is a single (docID, termFrequency) pair.
type Posting struct {
	DocID int32
	Freq  int32
}

// BlockSize is the maximum number of postings per block. Delta encoding
// for docIDs resets at every block boundary, so a block can be decoded in
// isolation given only its own bytes.
const BlockSize = 128

// MaxDID is the sentinel docID returned by an exhausted cursor.
const MaxDID int32 = 1<<31 - 1

// maxBlockStreamBytes bounds how large a single block's docIDs or freqs
// byte stream is allowed to be before it's treated as corrupt input
// rather than an unusually large (but legitimate) block.
const maxBlockStreamBytes = 100 << 20 // 100 MiB

var (
	// ErrCorrupt is returned (wrapped) whenever a decode or consistency
	// check fails while reading the index file.
	ErrCorrupt = errors.New("postings: corrupt index record")
)

func putUint64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

// EncodeBlock delta-encodes postings (at most BlockSize of them) into its
// two independent varbyte streams: docIDs (first absolute, rest deltas
// from the previous docID in the block) and freqs (each absolute).
//
// postings must have strictly increasing DocID fields.
func EncodeBlock(postings []Posting) (docIDs, freqs []byte, err error) {
	docIDs = make([]byte, 0, len(postings)*2)
	freqs = make([]byte, 0, len(postings)*2)
	var prev int32
	for i, p := range postings {
		if i == 0 {
			docIDs = varbyte.AppendEncode(docIDs, uint32(p.DocID))
		} else {
			delta := p.DocID - prev
			if delta <= 0 {
				return nil, nil, errors.New("postings: non-increasing docID within block")
			}
			docIDs = varbyte.AppendEncode(docIDs, uint32(delta))
		}
		prev = p.DocID
		freqs = varbyte.AppendEncode(freqs, uint32(p.Freq))
	}
	return docIDs, freqs, nil
}

// decodeVarbyteStream decodes every value out of b. If n >= 0 it is used
// only as a capacity hint; decoding always continues until b is
// exhausted, and a mismatch against n is the caller's responsibility to
// check (a corrupt stream this function can't detect is one that is
// internally well-formed but short or long relative to its declared
// count).
func decodeVarbyteStream(b []byte, n int) ([]uint32, error) {
	capHint := n
	if capHint < 0 {
		capHint = 0
	}
	out := make([]uint32, 0, capHint)
	for len(b) > 0 {
		v, consumed, err := varbyte.DecodeBytes(b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		b = b[consumed:]
	}
	return out, nil
}

// DecodeBlock decodes a block's two byte streams back into postings. n,
// when >= 0, is only a capacity hint for the expected number of postings;
// both streams are always decoded in full and the decoded count is not
// checked against n. Pass n < 0 for no hint.
func DecodeBlock(docIDs, freqs []byte, n int) ([]Posting, error) {
	ids, err := decodeVarbyteStream(docIDs, n)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding docIDs: %w", ErrCorrupt, err)
	}
	fqs, err := decodeVarbyteStream(freqs, n)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding freqs: %w", ErrCorrupt, err)
	}
	if len(ids) != len(fqs) {
		return nil, fmt.Errorf("%w: docID count %d != freq count %d", ErrCorrupt, len(ids), len(fqs))
	}
	out := make([]Posting, len(ids))
	var abs int32
	for i, delta := range ids {
		if i == 0 {
			abs = int32(delta)
		} else {
			if delta == 0 {
				return nil, fmt.Errorf("%w: zero delta at block index %d", ErrCorrupt, i)
			}
			abs += int32(delta)
		}
		out[i] = Posting{DocID: abs, Freq: int32(fqs[i])}
	}
	return out, nil
}
