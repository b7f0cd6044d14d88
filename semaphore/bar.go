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

package semaphore

import (
	"sync/atomic"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type barKind uint8

const (
	barKindPlain barKind = iota
	barKindBytes
	barKindTime
	barKindNumber
)

// progressContainer holds the single mpb.Progress a Semaphore's family of
// bars (including clones) render onto.
type progressContainer struct {
	container *mpb.Progress
}

func newProgressContainer() *progressContainer {
	return &progressContainer{
		container: mpb.New(mpb.WithWidth(64)),
	}
}

// Bar is a single progress indicator, optionally gated behind the
// Semaphore's own worker limit so a bar's lifetime also counts as one
// unit of concurrency.
type Bar interface {
	// NewWorker acquires a worker slot from the owning Semaphore.
	NewWorker() error

	// DeferWorker releases the worker slot and increments the bar by 1,
	// marking one unit of work complete.
	DeferWorker()

	Inc(n int)
	Inc64(n int64)
	Total() int64
	Complete()
	Completed() bool
}

type barImpl struct {
	parent    *semImpl
	total     int64
	mbar      *mpb.Bar
	completed atomic.Bool
}

func (s *semImpl) newBar(title, name string, total int64, drop bool, prev Bar, kind barKind) Bar {
	b := &barImpl{
		parent: s,
	}

	if s.pgb == nil {
		// No progress container: Total() reports 0, matching a bar that
		// was never actually rendered anywhere.
		return b
	}

	b.total = total

	var opts []mpb.BarOption
	if drop {
		opts = append(opts, mpb.BarRemoveOnComplete())
	}

	if prv, ok := prev.(*barImpl); ok && prv != nil && prv.mbar != nil {
		opts = append(opts, mpb.BarQueueAfter(prv.mbar, false))
	}

	switch kind {
	case barKindBytes:
		opts = append(opts,
			mpb.PrependDecorators(decor.Name(title), decor.Name(" "+name)),
			mpb.AppendDecorators(decor.CountersKibiByte("% .2f / % .2f")),
		)
	case barKindTime:
		opts = append(opts,
			mpb.PrependDecorators(decor.Name(title), decor.Name(" "+name)),
			mpb.AppendDecorators(decor.Elapsed(decor.ET_STYLE_GO)),
		)
	case barKindNumber:
		opts = append(opts,
			mpb.PrependDecorators(decor.Name(title), decor.Name(" "+name)),
			mpb.AppendDecorators(decor.Counters(0, "%d / %d")),
		)
	}

	b.mbar = s.pgb.container.New(total, mpb.BarStyle(), opts...)

	return b
}

func (b *barImpl) NewWorker() error {
	return b.parent.NewWorker()
}

func (b *barImpl) DeferWorker() {
	b.parent.DeferWorker()
	b.Inc(1)
}

func (b *barImpl) Inc(n int) {
	if b.mbar != nil {
		b.mbar.IncrBy(n)
	}
}

func (b *barImpl) Inc64(n int64) {
	if b.mbar != nil {
		b.mbar.IncrInt64(n)
	}
}

func (b *barImpl) Total() int64 {
	return b.total
}

func (b *barImpl) Complete() {
	b.completed.Store(true)
	if b.mbar != nil {
		b.mbar.SetTotal(b.total, true)
	}
}

func (b *barImpl) Completed() bool {
	if b.mbar != nil {
		return b.mbar.Completed()
	}
	return b.completed.Load()
}
