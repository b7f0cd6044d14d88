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

package actor_test

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nabbar/logsieve/actor"
	"github.com/nabbar/logsieve/cas"
	"github.com/nabbar/logsieve/extraction"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/nestedarchive"
	"github.com/nabbar/logsieve/pathsafety"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildTestZip(files map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, _ := zw.Create(name)
		_, _ = w.Write([]byte(content))
	}
	_ = zw.Close()
	return buf.Bytes()
}

func newTestEngine(dir string, id int) *extraction.Engine {
	store := cas.New(filepath.Join(dir, fmt.Sprintf("cas-%d", id)))
	_ = store.Open()

	meta, _ := metadatastore.Open(filepath.Join(dir, fmt.Sprintf("meta-%d.db", id)))

	policy := extraction.Policy{
		MaxFileSize:      1 << 30,
		MaxTotalSize:     1 << 30,
		MaxFileCount:     1000,
		MaxParallelFiles: 4,
		BufferSize:       4096,
		DirBatchSize:     10,
		Security:         pathsafety.DefaultPolicy(),
		Nested: nestedarchive.Policy{
			MaxDepth:                    8,
			MinDepth:                    1,
			DepthReductionStep:          1,
			FileCountThreshold:          50000,
			TotalSizeThreshold:          1 << 30,
			CompressionRatioThreshold:   1000,
			ExponentialBackoffThreshold: 1 << 20,
		},
	}

	return extraction.New(store, meta, policy)
}

var _ = Describe("Pool", func() {
	var (
		ctx    context.Context
		cancel context.CancelFunc
		pool   *actor.Pool
		dir    string
	)

	BeforeEach(func() {
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)
		dir = GinkgoT().TempDir()

		pool = actor.NewPool(2, 3, func(id int) *extraction.Engine {
			return newTestEngine(dir, id)
		})
		Expect(pool.Start(ctx)).To(Succeed())
	})

	AfterEach(func() {
		_ = pool.Stop(ctx)
		cancel()
	})

	It("assigns an extract request to a worker and completes it", func() {
		data := buildTestZip(map[string]string{"a.log": "hello"})

		taskID, err := pool.Coordinator().ExtractRequest(actor.ExtractJob{
			ArchiveID:  "arc-1",
			SourceName: "bundle.zip",
			Reader:     bytes.NewReader(data),
		})
		Expect(err).To(BeNil())
		Expect(taskID).ToNot(BeEmpty())

		Eventually(func() actor.TaskStatus {
			info, _ := pool.Coordinator().QueryStatus(taskID)
			return info.Status
		}, 5*time.Second, 20*time.Millisecond).Should(Equal(actor.StatusCompleted))

		info, ok := pool.Coordinator().QueryStatus(taskID)
		Expect(ok).To(BeTrue())
		Expect(info.FilesProcessed).To(Equal(1))
	})

	It("spreads requests across the least-loaded worker", func() {
		var ids []int

		for i := 0; i < 4; i++ {
			data := buildTestZip(map[string]string{"f.log": "x"})
			taskID, err := pool.Coordinator().ExtractRequest(actor.ExtractJob{
				ArchiveID:  fmt.Sprintf("arc-%d", i),
				SourceName: "bundle.zip",
				Reader:     bytes.NewReader(data),
			})
			Expect(err).To(BeNil())

			Eventually(func() actor.TaskStatus {
				info, _ := pool.Coordinator().QueryStatus(taskID)
				return info.Status
			}, 5*time.Second, 20*time.Millisecond).Should(Equal(actor.StatusCompleted))

			info, _ := pool.Coordinator().QueryStatus(taskID)
			ids = append(ids, info.WorkerID)
		}

		Expect(ids).To(HaveLen(4))
	})

	It("reports unknown tasks as not-found", func() {
		_, ok := pool.Coordinator().QueryStatus("no-such-task")
		Expect(ok).To(BeFalse())
	})
})
