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
	"strings"
	"time"

	arcroot "github.com/nabbar/logsieve/archive"
)

// PlainStreamHandler handles a single compressed, non-archived file
// (.gz/.bz2/.xz/.lz4 with no enclosed TAR), streaming the decompressed
// content as one logical file. The handler is not given the source name,
// so that file's virtual path is always "content"; it is not named after
// the source file.
type PlainStreamHandler struct{}

var _ Handler = PlainStreamHandler{}

func (PlainStreamHandler) FileExtensions() []string {
	return []string{".gz", ".bz2", ".xz", ".lz4"}
}

func (h PlainStreamHandler) CanHandle(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz") ||
		strings.HasSuffix(lower, ".tar.bz2") || strings.HasSuffix(lower, ".tbz2") ||
		strings.HasSuffix(lower, ".tar.xz") || strings.HasSuffix(lower, ".txz") {
		return false
	}
	for _, ext := range h.FileExtensions() {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (PlainStreamHandler) ExtractWithLimits(ctx context.Context, r io.Reader, opts ExtractOptions) (*ExtractionSummary, error) {
	start := time.Now()
	state := newWalkState(opts)

	cr := &countingReader{r: r}
	_, dec, e := arcroot.DetectCompression(toReadCloser(cr))
	if e != nil {
		return state.summary, errOpen(e)
	}
	defer dec.Close()

	vpath, ok := state.admitEntry("content", 0)
	if !ok {
		state.summary.Duration = time.Since(start)
		return state.summary, nil
	}

	var capped io.Reader = dec
	if opts.MaxFileSize > 0 {
		capped = io.LimitReader(dec, opts.MaxFileSize+1)
	}

	if ctx.Err() != nil {
		return state.summary, ctx.Err()
	}

	var written int64
	if opts.Sink != nil {
		counter := &countingReader{r: capped}
		if e := opts.Sink(vpath, -1, counter); e != nil {
			return state.summary, errRead(e)
		}
		written = counter.n
	} else {
		n, _ := io.Copy(io.Discard, capped)
		written = n
	}

	if opts.MaxFileSize > 0 && written > opts.MaxFileSize {
		state.reject(vpath, "file too large")
		state.summary.Truncated = true
		state.summary.Duration = time.Since(start)
		return state.summary, nil
	}

	state.accept(vpath, written)
	state.summary.Duration = time.Since(start)
	return state.summary, nil
}
