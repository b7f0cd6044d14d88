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

package semaphore_test

import (
	"context"
	"sync"
	"time"

	libsem "github.com/nabbar/logsieve/semaphore"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Semaphore", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(globalCtx, 5*time.Second)
	})

	AfterEach(func() {
		cancel()
	})

	It("reports the configured weight and -1 for unlimited", func() {
		sem := libsem.New(ctx, 5, false)
		defer sem.DeferMain()
		Expect(sem.Weighted()).To(Equal(int64(5)))

		unlimited := libsem.New(ctx, -1, false)
		defer unlimited.DeferMain()
		Expect(unlimited.Weighted()).To(Equal(int64(-1)))
	})

	It("acquires and releases workers up to the limit", func() {
		sem := libsem.New(ctx, 2, false)
		defer sem.DeferMain()

		Expect(sem.NewWorker()).ToNot(HaveOccurred())
		Expect(sem.NewWorker()).ToNot(HaveOccurred())
		Expect(sem.NewWorkerTry()).To(BeFalse())

		sem.DeferWorker()
		Expect(sem.NewWorkerTry()).To(BeTrue())
		sem.DeferWorker()
		sem.DeferWorker()
	})

	It("waits for all outstanding workers to be released", func() {
		sem := libsem.New(ctx, 3, false)
		defer sem.DeferMain()

		var wg sync.WaitGroup
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := sem.NewWorker(); err == nil {
					defer sem.DeferWorker()
					time.Sleep(10 * time.Millisecond)
				}
			}()
		}
		wg.Wait()

		Expect(sem.WaitAll()).ToNot(HaveOccurred())
	})

	It("clones into an independent instance sharing no worker slots", func() {
		sem1 := libsem.New(ctx, 2, false)
		defer sem1.DeferMain()

		sem2 := sem1.Clone()
		defer sem2.DeferMain()

		Expect(sem2.Weighted()).To(Equal(int64(2)))
		Expect(sem1.NewWorker()).ToNot(HaveOccurred())
		Expect(sem2.NewWorker()).ToNot(HaveOccurred())

		sem1.DeferWorker()
		sem2.DeferWorker()
	})

	It("implements context.Context via Done/Err and closes on DeferMain", func() {
		sem := libsem.New(ctx, 1, false)

		Expect(sem.Err()).To(BeNil())
		done := sem.Done()

		sem.DeferMain()
		Eventually(done, time.Second).Should(BeClosed())
	})

	It("returns inert bars with zero total when progress is disabled", func() {
		sem := libsem.New(ctx, 5, false)
		defer sem.DeferMain()

		bar := sem.BarBytes("download", "file.zip", 1024, false, nil)
		Expect(bar).ToNot(BeNil())
		Expect(bar.Total()).To(BeZero())

		bar.Inc(10)
		bar.Complete()
		Expect(bar.Completed()).To(BeTrue())
	})

	It("renders a real total when progress is enabled", func() {
		sem := libsem.New(ctx, 5, true)
		defer sem.DeferMain()

		bar := sem.BarNumber("items", "processing", 1000, false, nil)
		Expect(bar.Total()).To(Equal(int64(1000)))

		bar.Inc(100)
		bar.Complete()
	})

	It("gates a bar's DeferWorker behind the semaphore's own limit", func() {
		sem := libsem.New(ctx, 2, true)
		defer sem.DeferMain()

		bar := sem.BarNumber("tasks", "item", 10, false, nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := bar.NewWorker(); err == nil {
					defer bar.DeferWorker()
					time.Sleep(5 * time.Millisecond)
				}
			}()
		}
		wg.Wait()
	})
})

var _ = Describe("Simultaneous defaults", func() {
	It("returns a positive default and rejects invalid overrides", func() {
		Expect(libsem.MaxSimultaneous()).To(BeNumerically(">", 0))

		current := libsem.MaxSimultaneous()
		Expect(libsem.SetSimultaneous(0)).To(Equal(current))
		Expect(libsem.SetSimultaneous(-1)).To(Equal(current))
		Expect(libsem.SetSimultaneous(3)).To(Equal(int64(3)))
	})
})
