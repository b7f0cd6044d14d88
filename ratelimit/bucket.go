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

// Package ratelimit implements a token-bucket limiter, one instance per
// operation class (import, search, workspace-management per spec.md §5),
// each configured with its own requests-per-minute and burst size.
package ratelimit

import (
	"sync"
	"time"
)

// Config is one operation class's limiter configuration.
type Config struct {
	Class             string
	RequestsPerMinute int
	Burst             int
}

// Bucket is a single token-bucket limiter, safe for concurrent use.
type Bucket struct {
	class    string
	capacity float64
	refill   float64 // tokens per second

	mu       sync.Mutex
	tokens   float64
	lastFill time.Time
}

// NewBucket returns a Bucket for cfg. A zero RequestsPerMinute disables
// limiting (Allow always succeeds).
func NewBucket(cfg Config) *Bucket {
	capacity := float64(cfg.Burst)
	if capacity <= 0 {
		capacity = 1
	}
	return &Bucket{
		class:    cfg.Class,
		capacity: capacity,
		refill:   float64(cfg.RequestsPerMinute) / 60,
		tokens:   capacity,
		lastFill: time.Now(),
	}
}

// Allow consumes one token if available. On success it returns (true, 0).
// On rejection it returns (false, retryAfter): the wait until the next
// token would be available.
func (b *Bucket) Allow() (bool, time.Duration) {
	if b.refill <= 0 {
		return true, 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastFill).Seconds()
	b.tokens += elapsed * b.refill
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastFill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	deficit := 1 - b.tokens
	retryAfter := time.Duration(deficit / b.refill * float64(time.Second))
	return false, retryAfter
}

// Wait blocks the caller until a token is available or ctx-less timeout
// expires. Import/search/workspace callers that would rather queue than
// fail fast can use this instead of Allow.
func (b *Bucket) Wait(maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)
	for {
		ok, retryAfter := b.Allow()
		if ok {
			return true
		}
		if time.Now().Add(retryAfter).After(deadline) {
			return false
		}
		time.Sleep(retryAfter)
	}
}

// Limiters holds one Bucket per operation class.
type Limiters struct {
	Import    *Bucket
	Search    *Bucket
	Workspace *Bucket
}

// NewLimiters builds the three per-class buckets named in spec.md §5.
func NewLimiters(importCfg, searchCfg, workspaceCfg Config) *Limiters {
	return &Limiters{
		Import:    NewBucket(importCfg),
		Search:    NewBucket(searchCfg),
		Workspace: NewBucket(workspaceCfg),
	}
}

// Check consumes one token from b or returns an ErrRateLimited carrying
// retry_after, matching spec.md §5's RateLimited(retry_after) contract.
func Check(b *Bucket, class string) *ErrRateLimited {
	if ok, retryAfter := b.Allow(); !ok {
		return errRateLimited(class, retryAfter)
	}
	return nil
}
