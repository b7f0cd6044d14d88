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

package workspace_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"time"

	"github.com/nabbar/logsieve/actor"
	"github.com/nabbar/logsieve/config"
	"github.com/nabbar/logsieve/workspace"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func buildZip(files map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, _ := zw.Create(name)
		_, _ = w.Write([]byte(content))
	}
	_ = zw.Close()
	return buf.Bytes()
}

func openTestWorkspace(dir string) *workspace.Workspace {
	cfg := config.DefaultWorkspace("ws-test", dir)
	w, err := workspace.New(cfg, nil)
	Expect(err).To(BeNil())
	Expect(w.Open(context.Background())).To(Succeed())
	return w
}

var _ = Describe("Workspace", func() {
	var (
		ctx context.Context
		dir string
		w   *workspace.Workspace
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		w = openTestWorkspace(dir)
	})

	AfterEach(func() {
		_ = w.Close(ctx)
	})

	It("imports an archive and makes it searchable", func() {
		data := buildZip(map[string]string{"app.log": "connection refused by peer"})
		archivePath := filepath.Join(dir, "bundle.zip")
		Expect(os.WriteFile(archivePath, data, 0o644)).To(Succeed())

		taskID, err := w.ImportArchive(archivePath)
		Expect(err).To(BeNil())

		Eventually(func() actor.TaskStatus {
			info, _ := w.QueryTaskStatus(taskID)
			return info.Status
		}, 5*time.Second, 20*time.Millisecond).Should(Equal(actor.StatusCompleted))

		Eventually(func() int64 {
			res, serr := w.Search(ctx, "refused", 10, 0, 2*time.Second)
			Expect(serr).To(BeNil())
			return res.Total
		}, 2*time.Second, 20*time.Millisecond).Should(BeNumerically(">=", int64(1)))
	})

	It("recurses into a nested archive on import", func() {
		inner := buildZip(map[string]string{"inner.log": "deep entry"})
		outer := buildZip(map[string]string{
			"outer.log":  "shallow entry",
			"nested.zip": string(inner),
		})
		archivePath := filepath.Join(dir, "outer.zip")
		Expect(os.WriteFile(archivePath, outer, 0o644)).To(Succeed())

		taskID, err := w.ImportArchive(archivePath)
		Expect(err).To(BeNil())

		Eventually(func() actor.TaskStatus {
			info, _ := w.QueryTaskStatus(taskID)
			return info.Status
		}, 5*time.Second, 20*time.Millisecond).Should(Equal(actor.StatusCompleted))

		Eventually(func() int64 {
			res, serr := w.Search(ctx, "deep", 10, 0, 2*time.Second)
			Expect(serr).To(BeNil())
			return res.Total
		}, 2*time.Second, 20*time.Millisecond).Should(BeNumerically(">=", int64(1)))
	})

	It("reports a clean verification with nothing imported", func() {
		report, err := w.Verify(false)
		Expect(err).To(BeNil())
		Expect(report.Success).To(BeTrue())
		Expect(report.ObjectsChecked).To(Equal(0))
	})

	It("snapshots metrics after an import", func() {
		data := buildZip(map[string]string{"a.log": "hello"})
		archivePath := filepath.Join(dir, "a.zip")
		Expect(os.WriteFile(archivePath, data, 0o644)).To(Succeed())

		taskID, err := w.ImportArchive(archivePath)
		Expect(err).To(BeNil())

		Eventually(func() actor.TaskStatus {
			info, _ := w.QueryTaskStatus(taskID)
			return info.Status
		}, 5*time.Second, 20*time.Millisecond).Should(Equal(actor.StatusCompleted))

		snap, serr := w.MetricsSnapshot()
		Expect(serr).To(BeNil())
		Expect(snap.ArchiveCount).To(BeNumerically(">=", int64(1)))
	})
})

var _ = Describe("Legacy detection", func() {
	It("finds nothing in an empty directory", func() {
		dir := GinkgoT().TempDir()
		infos := workspace.DetectLegacyWorkspaces(dir)
		Expect(infos).To(BeEmpty())
	})

	It("ignores files that are not legacy indices", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "not-an-index.txt"), []byte("x"), 0o644)).To(Succeed())

		infos := workspace.DetectLegacyWorkspaces(dir)
		Expect(infos).To(BeEmpty())
	})

	It("detects both compressed and uncompressed legacy indices", func() {
		dir := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(dir, "proj-a.idx"), []byte("x"), 0o644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "proj-b.idx.gz"), []byte("x"), 0o644)).To(Succeed())

		infos := workspace.DetectLegacyWorkspaces(dir)
		Expect(infos).To(HaveLen(2))

		byID := map[string]workspace.LegacyWorkspaceInfo{}
		for _, info := range infos {
			byID[info.WorkspaceID] = info
		}
		Expect(byID["proj-a"].Format).To(Equal(workspace.LegacyUncompressed))
		Expect(byID["proj-b"].Format).To(Equal(workspace.LegacyCompressed))
	})
})

var _ = Describe("Legacy migration", func() {
	It("re-ingests every file a legacy index points at", func() {
		dir := GinkgoT().TempDir()

		realFile := filepath.Join(dir, "orig.log")
		Expect(os.WriteFile(realFile, []byte("legacy line one"), 0o644)).To(Succeed())

		idxPath := filepath.Join(dir, "legacy-proj.idx")
		Expect(os.WriteFile(idxPath, encodeBincodePathMap(map[string]string{
			"app.log": realFile,
		}), 0o644)).To(Succeed())

		w := openTestWorkspace(filepath.Join(dir, "ws"))
		defer w.Close(context.Background())

		report, err := w.MigrateLegacy(workspace.LegacyWorkspaceInfo{
			WorkspaceID: "legacy-proj",
			IndexPath:   idxPath,
			Format:      workspace.LegacyUncompressed,
		})
		Expect(err).To(BeNil())
		Expect(report.Success).To(BeTrue())
		Expect(report.MigratedFiles).To(Equal(1))
		Expect(report.FailedFiles).To(Equal(0))
	})
})

// encodeBincodePathMap mirrors the original Rust IndexData's deterministic
// wire format for a HashMap<String,String>, for tests that exercise the
// legacy migration path without depending on real bincode tooling.
func encodeBincodePathMap(m map[string]string) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, uint64(len(m)))
	for k, v := range m {
		_ = binary.Write(&buf, binary.LittleEndian, uint64(len(k)))
		buf.WriteString(k)
		_ = binary.Write(&buf, binary.LittleEndian, uint64(len(v)))
		buf.WriteString(v)
	}
	return buf.Bytes()
}
