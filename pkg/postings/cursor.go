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
	"fmt"
	"io"
	"os"
	"sort"
)

type cursorState int

const (
	stateActive cursorState = iota
	stateTerminal
)

// BlockCache lets a host memoize the raw, still-encoded byte streams of
// a block across cursor opens, keyed by the index file path and the
// byte offset of the block's header. It is consulted before a block is
// read from disk and populated after; nothing in this package requires
// one, and decode always happens fresh from whatever bytes Get returns.
// See package blockcache for the bundled implementation.
type BlockCache interface {
	Get(indexPath string, blockOffset int64) (docIDs, freqs []byte, ok bool)
	Put(indexPath string, blockOffset int64, docIDs, freqs []byte)
}

// Cursor is a forward, skip-capable iterator over one term's posting
// list (an "InvertedList" in the terminology this format descends from).
// It owns a dedicated read handle into the index file; no two cursors
// share a position, and a Cursor is not safe for concurrent use.
//
// A Cursor never surfaces a decode or consistency failure as an error to
// the caller beyond OpenList's own I/O errors: it transitions to a
// terminal state instead, and every subsequent call behaves as if the
// list were exhausted. This keeps DAAT evaluation (package query) from
// having to special-case corruption separately from "no more postings".
type Cursor struct {
	term      string
	indexPath string
	f         *os.File
	entry     LexiconEntry
	bytesRead int64
	numBlocks int
	blocksRd  int
	state     cursorState
	cache     BlockCache

	blockIDs   []int32
	blockFreqs []int32
	posInBlock int
	opened     bool
}

// Option configures a Cursor at OpenList time.
type Option func(*Cursor)

// WithCache attaches a BlockCache a cursor consults before reading each
// block from disk.
func WithCache(cache BlockCache) Option {
	return func(c *Cursor) { c.cache = cache }
}

// OpenList positions a new cursor over term's posting list. It returns a
// non-nil error only for the underlying file failing to open; any format
// inconsistency found while reading the term header puts the returned
// cursor directly into its terminal state (HasNext() == false) rather
// than returning an error, matching the "cursor terminated" discipline
// used everywhere else in this package.
func OpenList(term string, indexPath string, entry LexiconEntry, opts ...Option) (*Cursor, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		return nil, fmt.Errorf("opening index file: %w", err)
	}
	c := &Cursor{term: term, indexPath: indexPath, f: f, entry: entry}
	for _, opt := range opts {
		opt(c)
	}
	if _, err := f.Seek(entry.Offset, io.SeekStart); err != nil {
		c.terminate()
		return c, nil
	}
	c.readHeader()
	return c, nil
}

// CloseList releases the cursor's file handle. Every OpenList must be
// paired with exactly one CloseList.
func (c *Cursor) CloseList() error {
	if c.f == nil {
		return nil
	}
	err := c.f.Close()
	c.f = nil
	return err
}

// HasNext reports whether the cursor has not yet terminated.
func (c *Cursor) HasNext() bool {
	return c.state != stateTerminal
}

func (c *Cursor) terminate() {
	c.state = stateTerminal
	c.blockIDs = nil
	c.blockFreqs = nil
}

// readUint64Bounded reads one fixed-width length-prefixed field, enforcing
// that doing so does not push bytesRead past entry.Length.
func (c *Cursor) readUint64Bounded() (uint64, bool) {
	if c.bytesRead+8 > c.entry.Length {
		return 0, false
	}
	v, err := readUint64(c.f)
	if err != nil {
		return 0, false
	}
	c.bytesRead += 8
	return v, true
}

func (c *Cursor) readBytesBounded(n int64) ([]byte, bool) {
	if n < 0 || c.bytesRead+n > c.entry.Length {
		return nil, false
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(c.f, buf); err != nil {
		return nil, false
	}
	c.bytesRead += n
	return buf, true
}

func (c *Cursor) readHeader() {
	termSize, ok := c.readUint64Bounded()
	if !ok {
		c.terminate()
		return
	}
	termBytes, ok := c.readBytesBounded(int64(termSize))
	if !ok {
		c.terminate()
		return
	}
	if string(termBytes) != c.term {
		c.terminate()
		return
	}
	numBlocks, ok := c.readUint64Bounded()
	if !ok {
		c.terminate()
		return
	}
	c.numBlocks = int(numBlocks)
	if !c.loadNextBlock() {
		c.terminate()
	}
}

// loadNextBlock reads and decodes the next block into blockIDs/blockFreqs.
// It returns false (and leaves the cursor ready to be terminated by the
// caller) when there is no next block or the block fails to decode.
func (c *Cursor) loadNextBlock() bool {
	if c.blocksRd >= c.numBlocks {
		return false
	}
	blockOffset := c.entry.Offset + c.bytesRead

	if c.cache != nil {
		if docIDsEnc, freqsEnc, ok := c.cache.Get(c.indexPath, blockOffset); ok {
			total := int64(16 + len(docIDsEnc) + len(freqsEnc))
			if c.bytesRead+total <= c.entry.Length {
				if _, err := c.f.Seek(total, io.SeekCurrent); err == nil {
					c.bytesRead += total
					return c.finishBlock(docIDsEnc, freqsEnc)
				}
			}
			// Cache entry doesn't fit what the lexicon promises for this
			// term; fall through and read it from disk instead of trusting
			// a stale or mismatched cache value.
		}
	}

	docIDsSize, ok := c.readUint64Bounded()
	if !ok || docIDsSize > maxBlockStreamBytes {
		return false
	}
	freqsSize, ok := c.readUint64Bounded()
	if !ok || freqsSize > maxBlockStreamBytes {
		return false
	}
	docIDsEnc, ok := c.readBytesBounded(int64(docIDsSize))
	if !ok {
		return false
	}
	freqsEnc, ok := c.readBytesBounded(int64(freqsSize))
	if !ok {
		return false
	}
	if c.cache != nil {
		c.cache.Put(c.indexPath, blockOffset, docIDsEnc, freqsEnc)
	}
	return c.finishBlock(docIDsEnc, freqsEnc)
}

// finishBlock decodes an already-read (or cache-supplied) pair of
// encoded streams into the cursor's current block.
func (c *Cursor) finishBlock(docIDsEnc, freqsEnc []byte) bool {
	postingsList, err := DecodeBlock(docIDsEnc, freqsEnc, -1)
	if err != nil || len(postingsList) == 0 {
		return false
	}
	ids := make([]int32, len(postingsList))
	freqs := make([]int32, len(postingsList))
	for i, p := range postingsList {
		ids[i] = p.DocID
		freqs[i] = p.Freq
	}
	c.blockIDs = ids
	c.blockFreqs = freqs
	c.posInBlock = 0
	c.blocksRd++
	return true
}

// NextGEQ returns the smallest docID in the list that is >= target,
// advancing the cursor so a later NextGEQ/getScore call refers to that
// posting. It returns MaxDID and terminates the cursor once the list is
// exhausted. Non-monotone targets are tolerated: the cursor only ever
// advances forward, so a target in the past is clamped to wherever the
// cursor currently sits.
func (c *Cursor) NextGEQ(target int32) int32 {
	if c.state == stateTerminal {
		return MaxDID
	}
	for {
		if len(c.blockIDs) == 0 {
			if !c.loadNextBlock() {
				c.terminate()
				return MaxDID
			}
			continue
		}
		last := c.blockIDs[len(c.blockIDs)-1]
		if last >= target {
			// Binary search within the block for the smallest docID >= target.
			idx := sort.Search(len(c.blockIDs), func(i int) bool {
				return c.blockIDs[i] >= target
			})
			if idx < c.posInBlock {
				idx = c.posInBlock
			}
			c.posInBlock = idx
			return c.blockIDs[idx]
		}
		if !c.loadNextBlock() {
			c.terminate()
			return MaxDID
		}
	}
}

// GetScore returns the raw term frequency of the posting most recently
// returned by NextGEQ. It is undefined to call this before a successful
// NextGEQ.
func (c *Cursor) GetScore() float64 {
	if c.posInBlock < 0 || c.posInBlock >= len(c.blockFreqs) {
		return 0
	}
	return float64(c.blockFreqs[c.posInBlock])
}

// CurrentDocID returns the docID the cursor is currently positioned on,
// or MaxDID if the cursor is terminal or has not yet been advanced into
// a block.
func (c *Cursor) CurrentDocID() int32 {
	if c.state == stateTerminal || c.posInBlock >= len(c.blockIDs) {
		return MaxDID
	}
	return c.blockIDs[c.posInBlock]
}
