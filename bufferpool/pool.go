/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package bufferpool provides a bounded pool of reusable, fixed-size byte
// buffers for streaming copies in the extraction pipeline.
package bufferpool

import "sync"

// Buffer is an opaque, reusable byte container. Callers must not retain a
// Buffer across task boundaries; once released it may be handed to another
// goroutine.
type Buffer struct {
	b []byte
}

// Bytes returns the buffer's backing slice at its configured capacity.
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Pool is a bounded, thread-safe free list of buffers of identical size.
// New allocates nothing up front: released buffers are kept, up to the
// configured maximum, for later Acquire calls. Acquire never blocks: when the pool is empty it allocates
// a fresh buffer at the configured size, so the hot path never deadlocks.
type Pool struct {
	size int
	max  int

	mu   sync.Mutex
	free []*Buffer
}

// New builds a Pool of buffers of size bytes, holding at most max idle
// buffers. A max of 0 disables retention: every release drops its buffer.
func New(size int, max int) *Pool {
	if size <= 0 {
		size = 32 * 1024
	}
	if max < 0 {
		max = 0
	}

	return &Pool{
		size: size,
		max:  max,
		free: make([]*Buffer, 0, max),
	}
}

// Acquire returns a buffer of the pool's configured size. If the pool is
// warm, no allocation occurs.
func (p *Pool) Acquire() *Buffer {
	p.mu.Lock()
	n := len(p.free)
	if n > 0 {
		buf := p.free[n-1]
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return buf
	}
	p.mu.Unlock()

	return &Buffer{b: make([]byte, p.size)}
}

// Release returns a buffer to the pool. Buffers of the wrong size, or
// offered once the pool is already at capacity, are dropped instead of
// retained.
func (p *Pool) Release(buf *Buffer) {
	if buf == nil || len(buf.b) != p.size {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) >= p.max {
		return
	}
	p.free = append(p.free, buf)
}

// Size returns the configured buffer size in bytes.
func (p *Pool) Size() int {
	return p.size
}
