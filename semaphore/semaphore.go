/*
 * MIT License
 *
 * Copyright (c) 2019 Nicolas JUHEL
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

// Package semaphore bounds the number of concurrent workers performing a
// task (archive extraction, hashing, nested-archive walks) and optionally
// renders their progress on an mpb container. A zero or negative weight
// means unlimited: NewWorker/NewWorkerTry never block and Weighted
// reports -1.
package semaphore

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	xsync "golang.org/x/sync/semaphore"
)

var _maxSimultaneous = initMaxSimultaneous()

func initMaxSimultaneous() int64 {
	n := int64(runtime.NumCPU()) * 2
	if n < 1 {
		n = 1
	}
	return n
}

// MaxSimultaneous returns the process-wide default concurrency, derived
// from runtime.NumCPU and adjustable via SetSimultaneous.
func MaxSimultaneous() int64 {
	return atomic.LoadInt64(&_maxSimultaneous)
}

// SetSimultaneous updates the process-wide default concurrency. Values
// <= 0 are rejected and the current default is returned unchanged.
func SetSimultaneous(n int64) int64 {
	if n <= 0 {
		return MaxSimultaneous()
	}
	atomic.StoreInt64(&_maxSimultaneous, n)
	return n
}

// Semaphore bounds concurrent access to a resource while behaving as a
// context.Context derived from the one it was created with, so callers
// can select on sem.Done() alongside the work it guards.
type Semaphore interface {
	context.Context

	// NewWorker blocks until a slot is available or the context is done.
	NewWorker() error

	// NewWorkerTry acquires a slot without blocking, returning false if
	// none is currently free.
	NewWorkerTry() bool

	// DeferWorker releases a slot acquired by NewWorker/NewWorkerTry.
	DeferWorker()

	// WaitAll blocks until every outstanding worker has been released.
	WaitAll() error

	// Weighted returns the configured concurrency limit, or -1 when
	// unlimited.
	Weighted() int64

	// Clone returns an independent Semaphore with the same limit,
	// sharing the progress container (if any) so bars stack together.
	Clone() Semaphore

	// New is an alias of Clone kept for call sites that read more
	// naturally as "give me a fresh one like this".
	New() Semaphore

	// DeferMain releases the Semaphore's own context, closing Done()
	// and detaching it from any progress container.
	DeferMain()

	// BarBytes, BarTime and BarNumber create a progress Bar with a
	// decoration matching the quantity being tracked. prev, when
	// non-nil, queues this bar after the previous one completes.
	BarBytes(title, name string, total int64, drop bool, prev Bar) Bar
	BarTime(title, name string, total int64, drop bool, prev Bar) Bar
	BarNumber(title, name string, total int64, drop bool, prev Bar) Bar

	// BarOpts creates a bare progress Bar without decorators.
	BarOpts(total int64, drop bool) Bar
}

type semImpl struct {
	parent context.Context
	ctx    context.Context
	cancel context.CancelFunc
	max    int64
	wgt    *xsync.Weighted
	pgb    *progressContainer
}

// New creates a Semaphore limiting concurrency to max (unlimited if
// max <= 0). When progress is true, BarBytes/BarTime/BarNumber/BarOpts
// render onto a shared mpb container; otherwise they return inert Bars.
func New(ctx context.Context, max int64, progress bool) Semaphore {
	if ctx == nil {
		ctx = context.Background()
	}

	c, cancel := context.WithCancel(ctx)

	s := &semImpl{
		parent: ctx,
		ctx:    c,
		cancel: cancel,
		max:    max,
	}

	if max > 0 {
		s.wgt = xsync.NewWeighted(max)
	}

	if progress {
		s.pgb = newProgressContainer()
	}

	return s
}

// Deadline, Done, Err and Value implement context.Context by delegating
// to the internal, cancellable context derived from the parent.
func (s *semImpl) Deadline() (time.Time, bool) {
	return s.ctx.Deadline()
}

func (s *semImpl) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *semImpl) Err() error {
	return s.ctx.Err()
}

func (s *semImpl) Value(key interface{}) interface{} {
	return s.ctx.Value(key)
}

func (s *semImpl) NewWorker() error {
	if s.wgt == nil {
		return nil
	}
	return s.wgt.Acquire(s.ctx, 1)
}

func (s *semImpl) NewWorkerTry() bool {
	if s.wgt == nil {
		return true
	}
	return s.wgt.TryAcquire(1)
}

func (s *semImpl) DeferWorker() {
	if s.wgt == nil {
		return
	}
	s.wgt.Release(1)
}

func (s *semImpl) WaitAll() error {
	if s.wgt == nil {
		return nil
	}
	if err := s.wgt.Acquire(s.ctx, s.max); err != nil {
		return err
	}
	s.wgt.Release(s.max)
	return nil
}

func (s *semImpl) Weighted() int64 {
	if s.wgt == nil {
		return -1
	}
	return s.max
}

func (s *semImpl) Clone() Semaphore {
	return s.cloneFrom()
}

func (s *semImpl) New() Semaphore {
	return s.cloneFrom()
}

// cloneFrom returns an independent semaphore with its own worker count,
// sharing the parent context and progress container (if any) so cloned
// bars stack onto the same display.
func (s *semImpl) cloneFrom() *semImpl {
	c, cancel := context.WithCancel(s.parent)

	n := &semImpl{
		parent: s.parent,
		ctx:    c,
		cancel: cancel,
		max:    s.max,
		pgb:    s.pgb,
	}
	if s.max > 0 {
		n.wgt = xsync.NewWeighted(s.max)
	}
	return n
}

func (s *semImpl) DeferMain() {
	s.cancel()
}

// GetMPB exposes the shared progress container for test introspection and
// for callers that need to add an out-of-band bar to the same container.
func (s *semImpl) GetMPB() interface{} {
	if s.pgb == nil {
		return nil
	}
	return s.pgb.container
}

func (s *semImpl) BarBytes(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(title, name, total, drop, prev, barKindBytes)
}

func (s *semImpl) BarTime(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(title, name, total, drop, prev, barKindTime)
}

func (s *semImpl) BarNumber(title, name string, total int64, drop bool, prev Bar) Bar {
	return s.newBar(title, name, total, drop, prev, barKindNumber)
}

func (s *semImpl) BarOpts(total int64, drop bool) Bar {
	return s.newBar("", "", total, drop, nil, barKindPlain)
}
