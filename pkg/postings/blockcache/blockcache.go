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

// Package blockcache memoizes the raw, still-varbyte-encoded byte
// streams a postings.Cursor reads off disk, keyed by the index file
// path and the byte offset of the block's header. It only ever saves a
// disk seek+read; decoding still happens on every access, and nothing
// about a query's result depends on whether the cache is attached.
package blockcache

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
)

type entry struct {
	seq           uint64
	docIDs, freqs []byte
}

// Cache is a bounded, size-limited cache of encoded blocks. A Cache is
// safe for concurrent use by multiple cursors.
//
// Recency is tracked in a second memdb rather than a hand-rolled doubly
// linked list: eviction order keys are an ever-increasing sequence
// number, so the least recently touched entry is always whatever an
// ascending iterator yields first.
type Cache struct {
	mu       sync.Mutex
	capacity int
	seq      uint64
	entries  map[string]*entry
	recency  *memdb.DB
}

// New returns a Cache holding at most capacity blocks. A capacity <= 0
// is treated as 1.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*entry),
		recency:  memdb.New(comparer.DefaultComparer, 0),
	}
}

func cacheKey(indexPath string, offset int64) string {
	h := xxhash.New()
	_, _ = h.WriteString(indexPath)
	var off [8]byte
	binary.BigEndian.PutUint64(off[:], uint64(offset))
	_, _ = h.Write(off[:])
	return string(h.Sum(nil))
}

func recencyKey(seq uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return b[:]
}

// touch assigns e a fresh sequence number and moves its recency entry
// to the end of the ordering. Caller holds c.mu.
func (c *Cache) touch(key string, e *entry) {
	_ = c.recency.Delete(recencyKey(e.seq))
	c.seq++
	e.seq = c.seq
	_ = c.recency.Put(recencyKey(e.seq), []byte(key))
}

// Get returns the cached encoded docID and frequency streams for the
// block at (indexPath, offset), if present, and marks it most recently
// used.
func (c *Cache) Get(indexPath string, offset int64) (docIDs, freqs []byte, ok bool) {
	key := cacheKey(indexPath, offset)
	c.mu.Lock()
	defer c.mu.Unlock()
	e, found := c.entries[key]
	if !found {
		return nil, nil, false
	}
	c.touch(key, e)
	return e.docIDs, e.freqs, true
}

// Put inserts or refreshes the encoded streams for the block at
// (indexPath, offset), evicting the least recently touched entry first
// if the cache is already at capacity.
func (c *Cache) Put(indexPath string, offset int64, docIDs, freqs []byte) {
	key := cacheKey(indexPath, offset)
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, found := c.entries[key]; found {
		e.docIDs, e.freqs = docIDs, freqs
		c.touch(key, e)
		return
	}
	if len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.seq++
	e := &entry{seq: c.seq, docIDs: docIDs, freqs: freqs}
	c.entries[key] = e
	_ = c.recency.Put(recencyKey(e.seq), []byte(key))
}

func (c *Cache) evictOldest() {
	iter := c.recency.NewIterator(nil)
	defer iter.Release()
	if !iter.First() {
		return
	}
	oldestKey := string(iter.Value())
	oldestSeqKey := append([]byte(nil), iter.Key()...)
	_ = c.recency.Delete(oldestSeqKey)
	delete(c.entries, oldestKey)
}

// Len reports the number of blocks currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
