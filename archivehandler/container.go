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

package archivehandler

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	arcroot "github.com/nabbar/logsieve/archive"
)

// countingReader tracks how many bytes have been pulled from the raw,
// possibly-compressed source stream, feeding the zip-bomb check's
// compressed-size side of the ratio.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, e := c.r.Read(p)
	c.n += int64(n)
	return n, e
}

// ContainerHandler handles TAR, ZIP and the compressed TAR variants
// (.tar.gz/.tgz, .tar.bz2/.tbz2, .tar.xz/.txz) by delegating compression
// detection and archive parsing to the teacher's archive/archive and
// archive/compress packages.
type ContainerHandler struct{}

var _ Handler = ContainerHandler{}

func (ContainerHandler) FileExtensions() []string {
	return []string{".tar", ".tar.gz", ".tgz", ".tar.bz2", ".tbz2", ".tar.xz", ".txz", ".zip"}
}

func (h ContainerHandler) CanHandle(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range h.FileExtensions() {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (ContainerHandler) ExtractWithLimits(ctx context.Context, r io.Reader, opts ExtractOptions) (*ExtractionSummary, error) {
	start := time.Now()
	state := newWalkState(opts)

	cr := &countingReader{r: r}
	rc := toReadCloser(cr)

	algo, reader, _, e := arcroot.DetectArchive(rc)
	if e != nil {
		return state.summary, errOpen(e)
	}
	if algo.IsNone() || reader == nil {
		return state.summary, errUnsupported("no tar/zip container detected")
	}

	var walkErr error
	reader.Walk(func(info fs.FileInfo, closer io.ReadCloser, name, _ string) bool {
		defer func() {
			if closer != nil {
				_ = closer.Close()
			}
		}()

		if ctx.Err() != nil {
			walkErr = ctx.Err()
			return false
		}

		if info.IsDir() {
			state.skipDir(name)
			return true
		}
		if !info.Mode().IsRegular() {
			state.reject(name, "not a regular file")
			return true
		}

		vpath, ok := state.admitEntry(name, info.Size())
		if !ok {
			_, _ = io.Copy(io.Discard, closer)
			return true
		}
		if !state.admitBomb(vpath, cr.n, state.bytesSoFar+info.Size()) {
			_, _ = io.Copy(io.Discard, closer)
			return true
		}

		if opts.Sink != nil {
			if e := opts.Sink(vpath, info.Size(), closer); e != nil {
				walkErr = e
				return false
			}
		} else {
			_, _ = io.Copy(io.Discard, closer)
		}

		state.accept(vpath, info.Size())
		return true
	})

	state.summary.Duration = time.Since(start)
	if walkErr != nil {
		return state.summary, errRead(walkErr)
	}
	return state.summary, nil
}

type rcWrap struct {
	io.Reader
}

func (rcWrap) Close() error { return nil }

func toReadCloser(r io.Reader) io.ReadCloser {
	if rc, ok := r.(io.ReadCloser); ok {
		return rc
	}
	return rcWrap{Reader: r}
}

// baseNameWithoutCompressionExt strips a known compression extension
// (.gz/.bz2/.xz/.lz4) from name's base. Nothing in this package calls it;
// PlainStreamHandler names its output "content".
func baseNameWithoutCompressionExt(name string) string {
	base := filepath.Base(name)
	for _, ext := range []string{".gz", ".bz2", ".xz", ".lz4"} {
		if strings.HasSuffix(strings.ToLower(base), ext) {
			return strings.TrimSuffix(base, base[len(base)-len(ext):])
		}
	}
	return base
}
