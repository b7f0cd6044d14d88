/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package prometheus

import (
	"encoding/hex"
	"sync"

	"github.com/bits-and-blooms/bitset"
)

// DedupeFilter is an approximate duplicate-hash pre-check: a content hash
// already extracted in this process very likely sets every one of its k
// bits, so a miss on any bit proves the hash is new and the caller can
// skip a CAS existence stat. A hit is only a hint — cas.Store.Exists
// remains the source of truth, since a bloom filter never lies about
// absence but can lie about presence.
type DedupeFilter struct {
	mu   sync.Mutex
	bits *bitset.BitSet
	size uint

	hit  int64
	miss int64
}

// NewDedupeFilter returns a filter sized for roughly expectedHashes
// distinct content hashes at a low false-positive rate.
func NewDedupeFilter(expectedHashes int) *DedupeFilter {
	size := uint(expectedHashes) * 10
	if size < 1024 {
		size = 1024
	}
	return &DedupeFilter{
		bits: bitset.New(size),
		size: size,
	}
}

// positions derives k=3 bit positions from a hex-encoded SHA-256 hash by
// slicing three disjoint 4-byte windows of it as big-endian uint32s,
// avoiding a general-purpose hash library for what is already
// uniformly-distributed input.
func (f *DedupeFilter) positions(hash string) [3]uint {
	b, err := hex.DecodeString(hash)
	if err != nil || len(b) < 12 {
		var zero [3]uint
		return zero
	}

	var pos [3]uint
	for i := 0; i < 3; i++ {
		off := i * 4
		v := uint32(b[off])<<24 | uint32(b[off+1])<<16 | uint32(b[off+2])<<8 | uint32(b[off+3])
		pos[i] = uint(v) % f.size
	}
	return pos
}

// MightContain reports whether hash may already have been seen. false is
// certain; true is a hint that still requires confirmation.
func (f *DedupeFilter) MightContain(hash string) bool {
	pos := f.positions(hash)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range pos {
		if !f.bits.Test(p) {
			f.miss++
			return false
		}
	}
	f.hit++
	return true
}

// Add records hash as seen.
func (f *DedupeFilter) Add(hash string) {
	pos := f.positions(hash)

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range pos {
		f.bits.Set(p)
	}
}

// Stats returns the running hit/miss counts for MightContain calls, for
// the metrics snapshot to report pre-check effectiveness.
func (f *DedupeFilter) Stats() (hit, miss int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hit, f.miss
}
