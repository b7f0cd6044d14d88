package archivehandler_test

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/nabbar/logsieve/archivehandler"
	"github.com/nabbar/logsieve/nestedarchive"
	"github.com/nabbar/logsieve/pathsafety"
	"github.com/stretchr/testify/require"
)

func defaultOpts(sink func(string, int64, io.Reader) error) archivehandler.ExtractOptions {
	return archivehandler.ExtractOptions{
		MaxFileSize:  1 << 30,
		MaxTotalSize: 1 << 30,
		MaxFileCount: 1000,
		Depth:        1,
		Security:     pathsafety.DefaultPolicy(),
		Nested: nestedarchive.Policy{
			MaxDepth:                    8,
			MinDepth:                    1,
			DepthReductionStep:          1,
			FileCountThreshold:          50000,
			TotalSizeThreshold:          1 << 30,
			CompressionRatioThreshold:   1000,
			ExponentialBackoffThreshold: 1 << 20,
		},
		Sink: sink,
	}
}

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

func buildTar(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Size: int64(len(content)), Mode: 0o644}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	return buf.Bytes()
}

func TestContainerHandlerZip(t *testing.T) {
	data := buildZip(t, map[string]string{"a.txt": "hello", "dir/b.txt": "world"})

	got := map[string]string{}
	h := archivehandler.ContainerHandler{}
	require.True(t, h.CanHandle("x.zip"))

	summary, err := h.ExtractWithLimits(context.Background(), bytes.NewReader(data), defaultOpts(func(vp string, _ int64, r io.Reader) error {
		b, e := io.ReadAll(r)
		got[vp] = string(b)
		return e
	}))
	require.NoError(t, err)
	require.Equal(t, 2, summary.FilesExtracted)
	require.Equal(t, "hello", got["a.txt"])
	require.Equal(t, "world", got["dir/b.txt"])
}

func TestContainerHandlerTar(t *testing.T) {
	data := buildTar(t, map[string]string{"a.log": "line1\n"})

	h := archivehandler.ContainerHandler{}
	require.True(t, h.CanHandle("bundle.tar"))

	summary, err := h.ExtractWithLimits(context.Background(), bytes.NewReader(data), defaultOpts(nil))
	require.NoError(t, err)
	require.Equal(t, 1, summary.FilesExtracted)
}

func TestContainerHandlerRejectsPathTraversal(t *testing.T) {
	data := buildZip(t, map[string]string{"../escape.txt": "evil"})

	h := archivehandler.ContainerHandler{}
	summary, err := h.ExtractWithLimits(context.Background(), bytes.NewReader(data), defaultOpts(nil))
	require.NoError(t, err)
	require.Equal(t, 0, summary.FilesExtracted)
	require.Len(t, summary.Entries, 1)
	require.Equal(t, archivehandler.OutcomeRejected, summary.Entries[0].Outcome)
}

func TestContainerHandlerEnforcesMaxFileCount(t *testing.T) {
	data := buildZip(t, map[string]string{"a.txt": "1", "b.txt": "2", "c.txt": "3"})

	opts := defaultOpts(nil)
	opts.MaxFileCount = 2

	h := archivehandler.ContainerHandler{}
	summary, err := h.ExtractWithLimits(context.Background(), bytes.NewReader(data), opts)
	require.NoError(t, err)
	require.Equal(t, 2, summary.FilesExtracted)
	require.True(t, summary.Truncated)
}

func TestResolvePicksContainerOverPlainStream(t *testing.T) {
	reg := archivehandler.DefaultRegistry()
	h := archivehandler.Resolve("archive.tar.gz", reg)
	require.NotNil(t, h)
	_, ok := h.(archivehandler.ContainerHandler)
	require.True(t, ok)

	h = archivehandler.Resolve("file.gz", reg)
	require.NotNil(t, h)
	_, ok = h.(archivehandler.PlainStreamHandler)
	require.True(t, ok)
}
