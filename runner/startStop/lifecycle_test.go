/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

package startStop_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/nabbar/logsieve/runner/startStop"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Construction", func() {
	It("starts with zero uptime and not running", func() {
		r := New(func(ctx context.Context) error { return nil }, func(ctx context.Context) error { return nil })

		Expect(r).ToNot(BeNil())
		Expect(r.IsRunning()).To(BeFalse())
		Expect(r.Uptime()).To(BeZero())
		Expect(r.ErrorsLast()).To(BeNil())
		Expect(r.ErrorsList()).To(BeEmpty())
	})

	It("tolerates nil start and stop functions", func() {
		r := New(nil, nil)
		Expect(r).ToNot(BeNil())
		Expect(r.IsRunning()).To(BeFalse())
	})
})

var _ = Describe("Lifecycle", func() {
	var x context.Context
	var n context.CancelFunc

	BeforeEach(func() {
		x, n = context.WithTimeout(context.Background(), 5*time.Second)
	})

	AfterEach(func() {
		n()
	})

	It("runs the start function until stopped", func() {
		var running atomic.Bool

		start := func(ctx context.Context) error {
			running.Store(true)
			<-ctx.Done()
			running.Store(false)
			return nil
		}
		stop := func(ctx context.Context) error { return nil }

		r := New(start, stop)
		Expect(r.Start(x)).To(Succeed())

		Eventually(func() bool { return running.Load() && r.IsRunning() }, time.Second).Should(BeTrue())
		Expect(r.Uptime()).To(BeNumerically(">=", 0))

		Expect(r.Stop(x)).To(Succeed())
		Eventually(r.IsRunning, time.Second).Should(BeFalse())
		Eventually(r.Uptime, time.Second).Should(BeZero())
	})

	It("stops the previous run when started again", func() {
		var startCount atomic.Int32

		start := func(ctx context.Context) error {
			startCount.Add(1)
			<-ctx.Done()
			return nil
		}
		stop := func(ctx context.Context) error { return nil }

		r := New(start, stop)
		Expect(r.Start(x)).To(Succeed())
		Eventually(r.IsRunning, 100*time.Millisecond).Should(BeTrue())

		before := startCount.Load()
		Expect(r.Start(x)).To(Succeed())
		Eventually(func() int32 { return startCount.Load() }, time.Second).Should(BeNumerically(">", before))

		_ = r.Stop(x)
	})

	It("only invokes the stop function once per run across concurrent Stop calls", func() {
		var stopCount atomic.Int32
		var running atomic.Bool

		start := func(ctx context.Context) error {
			running.Store(true)
			<-ctx.Done()
			running.Store(false)
			return nil
		}
		stop := func(ctx context.Context) error {
			stopCount.Add(1)
			return nil
		}

		r := New(start, stop)
		Expect(r.Start(x)).To(Succeed())
		Eventually(func() bool { return running.Load() }, time.Second).Should(BeTrue())

		err1 := r.Stop(x)
		err2 := r.Stop(x)
		Expect(err1).ToNot(HaveOccurred())
		Expect(err2).ToNot(HaveOccurred())

		Consistently(func() int32 { return stopCount.Load() }, 200*time.Millisecond, 50*time.Millisecond).Should(BeNumerically("<=", 1))
	})

	It("restarts cleanly", func() {
		var startCount atomic.Int32

		start := func(ctx context.Context) error {
			startCount.Add(1)
			<-ctx.Done()
			return nil
		}
		stop := func(ctx context.Context) error { return nil }

		r := New(start, stop)
		Expect(r.Start(x)).To(Succeed())
		Eventually(r.IsRunning, 100*time.Millisecond).Should(BeTrue())

		before := startCount.Load()
		Expect(r.Restart(x)).To(Succeed())
		Eventually(func() int32 { return startCount.Load() }, time.Second).Should(BeNumerically(">", before))

		_ = r.Stop(x)
	})

	It("records errors from the start function", func() {
		first := errors.New("boom")

		start := func(ctx context.Context) error { return first }
		stop := func(ctx context.Context) error { return nil }

		r := New(start, stop)
		Expect(r.Start(x)).To(Succeed())

		Eventually(func() error { return r.ErrorsLast() }, time.Second).Should(MatchError(first))
		Expect(r.ErrorsList()).To(ContainElement(MatchError(first)))
	})

	It("reports invalid start/stop functions as recorded errors, not panics", func() {
		r := New(nil, nil)
		Expect(r.Start(x)).To(Succeed())

		Eventually(func() string {
			if e := r.ErrorsLast(); e != nil {
				return e.Error()
			}
			return ""
		}, time.Second).Should(ContainSubstring("invalid start function"))
	})
})
