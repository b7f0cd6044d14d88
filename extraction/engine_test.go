package extraction_test

import (
	"archive/zip"
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/nabbar/logsieve/cas"
	"github.com/nabbar/logsieve/extraction"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/nestedarchive"
	"github.com/nabbar/logsieve/pathsafety"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newEngine(t *testing.T) (*extraction.Engine, *metadatastore.Store) {
	t.Helper()

	store := cas.New(t.TempDir())
	require.NoError(t, store.Open())

	meta, err := metadatastore.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)

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

	return extraction.New(store, meta, policy), meta
}

func TestExtractFlatZip(t *testing.T) {
	eng, meta := newEngine(t)
	data := buildZip(t, map[string]string{"a.log": "hello", "b.log": "world"})

	res, err := eng.Extract(context.Background(), "ws-1", "arc-1", "", "flat.zip", 0, int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 2, res.FilesExtracted)

	files, gerr := meta.GetAllFiles("arc-1")
	require.NoError(t, gerr)
	require.Len(t, files, 2)
}

func TestExtractDeduplicatesIdenticalContent(t *testing.T) {
	eng, meta := newEngine(t)
	data := buildZip(t, map[string]string{"a.log": "same", "b.log": "same"})

	_, err := eng.Extract(context.Background(), "ws-1", "arc-1", "", "dup.zip", 0, int64(len(data)), bytes.NewReader(data))
	require.NoError(t, err)

	a, _ := meta.GetFileByVirtualPath("ws-1", "a.log")
	b, _ := meta.GetFileByVirtualPath("ws-1", "b.log")
	require.Equal(t, a.ContentHash, b.ContentHash)
}

func TestExtractRecursesIntoNestedArchive(t *testing.T) {
	eng, meta := newEngine(t)

	inner := buildZip(t, map[string]string{"inner.log": "deep"})
	outerData := buildZip(t, map[string]string{
		"outer.log":  "shallow",
		"nested.zip": string(inner),
	})

	res, err := eng.Extract(context.Background(), "ws-1", "arc-outer", "", "outer.zip", 0, int64(len(outerData)), bytes.NewReader(outerData))
	require.NoError(t, err)
	require.Len(t, res.NestedArchives, 1)

	outerFiles, gerr := meta.GetAllFiles("arc-outer")
	require.NoError(t, gerr)
	require.Len(t, outerFiles, 1)
	require.Equal(t, "outer.log", outerFiles[0].VirtualPath)
	require.Equal(t, 0, outerFiles[0].DepthLevel)

	nestedID := res.NestedArchives[0]
	nestedFiles, nerr := meta.GetAllFiles(nestedID)
	require.NoError(t, nerr)
	require.Len(t, nestedFiles, 1)
	require.Equal(t, "inner.log", nestedFiles[0].VirtualPath)
	require.Equal(t, 1, nestedFiles[0].DepthLevel)
	require.Equal(t, "arc-outer", nestedFiles[0].ParentArchiveID)
}
