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

// Package archivehandler implements the per-format archive handlers of
// spec.md §4.6: a common can_handle/file_extensions/extract_with_limits
// contract over TAR, TAR.GZ/BZ2/XZ, ZIP, GZ, RAR and 7Z, each applying the
// same entry-level policy (path safety, size caps, zip-bomb detection)
// while streaming rather than buffering whole archives in memory.
package archivehandler

import (
	"context"
	"io"
	"time"

	"github.com/nabbar/logsieve/nestedarchive"
	"github.com/nabbar/logsieve/pathsafety"
)

// EntryOutcome classifies what happened to one archive entry.
type EntryOutcome string

const (
	OutcomeExtracted EntryOutcome = "extracted"
	OutcomeSkippedDir EntryOutcome = "skipped-dir"
	OutcomeRejected  EntryOutcome = "rejected"
)

// EntryResult reports the outcome of one archive entry.
type EntryResult struct {
	VirtualPath string
	SizeBytes   int64
	Outcome     EntryOutcome
	Reason      string
}

// ExtractionSummary is the per-archive result spec.md §4.6 requires every
// handler to return.
type ExtractionSummary struct {
	FilesExtracted int
	BytesExtracted int64
	Entries        []EntryResult
	Truncated      bool
	Duration       time.Duration
}

// ExtractOptions carries the caps and policies one extraction call must
// honor, plus the sink that receives each extracted entry's bytes.
type ExtractOptions struct {
	MaxFileSize  int64
	MaxTotalSize int64
	MaxFileCount int
	Depth        int

	Security pathsafety.Policy
	Nested   nestedarchive.Policy

	// Sink is invoked once per accepted regular-file entry with its
	// normalized virtual path and content stream; it must fully drain or
	// close rc before returning.
	Sink func(virtualPath string, size int64, rc io.Reader) error
}

// Handler is the contract every archive format adapter implements.
type Handler interface {
	// CanHandle reports whether name's extension is handled.
	CanHandle(name string) bool
	// FileExtensions lists the extensions this handler recognizes, e.g.
	// [".tar.gz", ".tgz"].
	FileExtensions() []string
	// ExtractWithLimits streams r's entries to opts.Sink, enforcing opts'
	// caps and policies, and returns a summary even on partial failure.
	ExtractWithLimits(ctx context.Context, r io.Reader, opts ExtractOptions) (*ExtractionSummary, error)
}
