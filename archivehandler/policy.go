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
	"github.com/nabbar/logsieve/pathsafety"
)

// walkState accumulates the running totals every handler's Walk callback
// needs to apply the 7-step per-entry policy of spec.md §4.6: path safety,
// per-file size cap, cumulative total-size cap, cumulative count cap, and
// a zip-bomb check against the archive's own compression ratio.
type walkState struct {
	opts ExtractOptions

	filesSoFar int
	bytesSoFar int64

	summary *ExtractionSummary
}

func newWalkState(opts ExtractOptions) *walkState {
	return &walkState{opts: opts, summary: &ExtractionSummary{}}
}

// admitEntry applies steps 1-4 of the per-entry policy (path safety, per-
// file size, cumulative size, cumulative count) and returns the normalized
// virtual path to extract under, or false if the entry must be skipped.
func (w *walkState) admitEntry(rawPath string, size int64) (string, bool) {
	res := pathsafety.Validate(rawPath, w.opts.Security)
	if res.Verdict == pathsafety.VerdictUnsafe {
		w.reject(rawPath, string(res.Reason))
		return "", false
	}

	if w.opts.MaxFileSize > 0 && size > w.opts.MaxFileSize {
		w.reject(res.Normalized, "file too large")
		return "", false
	}

	if w.opts.MaxTotalSize > 0 && w.bytesSoFar+size > w.opts.MaxTotalSize {
		w.summary.Truncated = true
		w.reject(res.Normalized, "total size cap exceeded")
		return "", false
	}

	if w.opts.MaxFileCount > 0 && w.filesSoFar+1 > w.opts.MaxFileCount {
		w.summary.Truncated = true
		w.reject(res.Normalized, "file count cap exceeded")
		return "", false
	}

	return res.Normalized, true
}

// admitBomb applies step 5: the zip-bomb predicate, comparing the
// cumulative uncompressed size (bytes admitted so far plus this entry's
// declared size, as the callers pass it) against the bytes actually
// consumed from the underlying (possibly compressed) source stream so far.
func (w *walkState) admitBomb(virtualPath string, compressedSoFar, uncompressedSize int64) bool {
	if w.opts.Nested.IsZipBomb(compressedSoFar, uncompressedSize, w.opts.Depth) {
		w.reject(virtualPath, "zip-bomb risk")
		return false
	}
	return true
}

func (w *walkState) accept(virtualPath string, size int64) {
	w.filesSoFar++
	w.bytesSoFar += size
	w.summary.FilesExtracted++
	w.summary.BytesExtracted += size
	w.summary.Entries = append(w.summary.Entries, EntryResult{
		VirtualPath: virtualPath,
		SizeBytes:   size,
		Outcome:     OutcomeExtracted,
	})
}

func (w *walkState) reject(virtualPath, reason string) {
	w.summary.Entries = append(w.summary.Entries, EntryResult{
		VirtualPath: virtualPath,
		Outcome:     OutcomeRejected,
		Reason:      reason,
	})
}

func (w *walkState) skipDir(virtualPath string) {
	w.summary.Entries = append(w.summary.Entries, EntryResult{
		VirtualPath: virtualPath,
		Outcome:     OutcomeSkippedDir,
	})
}
