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

	rardecode "github.com/nwaples/rardecode/v2"
)

// RarHandler streams RAR archive members via nwaples/rardecode/v2, which
// decodes RAR's solid-block format sequentially, matching the format's
// own streaming model.
type RarHandler struct{}

var _ Handler = RarHandler{}

func (RarHandler) FileExtensions() []string { return []string{".rar"} }

func (RarHandler) CanHandle(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".rar")
}

func (RarHandler) ExtractWithLimits(ctx context.Context, r io.Reader, opts ExtractOptions) (*ExtractionSummary, error) {
	start := time.Now()
	state := newWalkState(opts)

	cr := &countingReader{r: r}
	rr, e := rardecode.NewReader(cr)
	if e != nil {
		return state.summary, errOpen(e)
	}

	for {
		if ctx.Err() != nil {
			return state.summary, ctx.Err()
		}

		hdr, e := rr.Next()
		if e == io.EOF {
			break
		}
		if e != nil {
			return state.summary, errRead(e)
		}

		if hdr.IsDir {
			state.skipDir(hdr.Name)
			continue
		}

		vpath, ok := state.admitEntry(hdr.Name, hdr.UnPackedSize)
		if !ok {
			_, _ = io.Copy(io.Discard, rr)
			continue
		}
		if !state.admitBomb(vpath, cr.n, state.bytesSoFar+hdr.UnPackedSize) {
			_, _ = io.Copy(io.Discard, rr)
			continue
		}

		if opts.Sink != nil {
			if e := opts.Sink(vpath, hdr.UnPackedSize, rr); e != nil {
				return state.summary, errRead(e)
			}
		} else {
			_, _ = io.Copy(io.Discard, rr)
		}

		state.accept(vpath, hdr.UnPackedSize)
	}

	state.summary.Duration = time.Since(start)
	return state.summary, nil
}
