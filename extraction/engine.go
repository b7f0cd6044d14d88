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

// Package extraction ties the buffer pool, path safety, CAS, metadata
// store, archive handlers and nested-archive controller together into the
// single engine described in spec.md §4.7: given one archive, it streams
// every entry through policy checks, into CAS, and into the metadata
// store, recursing into nested archives up to the depth the policy allows.
package extraction

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nabbar/logsieve/archivehandler"
	"github.com/nabbar/logsieve/bufferpool"
	"github.com/nabbar/logsieve/cas"
	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/nestedarchive"
	"github.com/nabbar/logsieve/pathsafety"
	"github.com/nabbar/logsieve/semaphore"
	"github.com/nabbar/logsieve/sniff"
	"github.com/nabbar/logsieve/textdecode"
)

// sampleCap bounds how many leading bytes of an entry's content are kept
// for sniff admission and the search_index content column: large enough to
// cover a typical log line burst, small enough that indexing a multi-GB
// file never holds more than this in memory.
const sampleCap = 64 << 10

// Policy bundles the extraction and security policies governing one
// engine instance, mirroring config.ExtractionPolicy/SecurityPolicy.
type Policy struct {
	MaxFileSize      int64
	MaxTotalSize     int64
	MaxFileCount     int
	MaxParallelFiles int64
	BufferSize       int
	DirBatchSize     int
	Security         pathsafety.Policy
	Nested           nestedarchive.Policy
}

// Result is what Extract returns for one archive, aggregating every
// handled entry's outcome plus the nested archives discovered within it.
type Result struct {
	ArchiveID      string
	FilesExtracted int
	BytesExtracted int64
	Truncated      bool
	NestedArchives []string // archive IDs recursed into (spec.md §4.7 step 6)
	Warnings       []string // non-fatal issues, e.g. a nested archive's own extraction failing
	Duration       time.Duration
}

// Engine extracts archives into a workspace's CAS and metadata store.
type Engine struct {
	store    *cas.Store
	meta     *metadatastore.Store
	pool     *bufferpool.Pool
	handlers []archivehandler.Handler
	policy   Policy
}

// New builds an Engine bound to one workspace's CAS and metadata store.
func New(store *cas.Store, meta *metadatastore.Store, policy Policy) *Engine {
	bufSize := policy.BufferSize
	if bufSize <= 0 {
		bufSize = 1 << 20
	}

	return &Engine{
		store:    store,
		meta:     meta,
		pool:     bufferpool.New(bufSize, int(policy.MaxParallelFiles)+1),
		handlers: archivehandler.DefaultRegistry(),
		policy:   policy,
	}
}

// Extract runs the 8-step algorithm of spec.md §4.7 over one archive's
// byte stream: insert the archive's own row, detect its handler, walk its
// entries under the semaphore's backpressure, sniff and write each
// accepted entry's content into CAS, batch the resulting file rows into
// the metadata store, and recurse into nested archives up to the depth
// the nested-archive controller allows, tagging recursed files with the
// enclosing archive's id and the correct depth level.
func (e *Engine) Extract(ctx context.Context, workspaceID, archiveID, parentArchiveID, sourceName string, depth int, sizeBytes int64, r io.Reader) (*Result, liberr.Error) {
	start := time.Now()

	h := archivehandler.Resolve(sourceName, e.handlers)
	if h == nil {
		return nil, errUnsupportedFormat(sourceName)
	}

	archiveRow := &metadatastore.Archive{
		ID:              archiveID,
		WorkspaceID:     workspaceID,
		ParentArchiveID: parentArchiveID,
		OriginalName:    filepath.Base(sourceName),
		SourcePath:      sourceName,
		ContentHash:     "",
		SizeBytes:       sizeBytes,
		DepthLevel:      depth,
		Status:          "running",
	}
	if err := e.meta.InsertArchive(archiveRow); err != nil {
		return nil, err
	}

	res, err := e.extractEntries(ctx, workspaceID, archiveID, parentArchiveID, sourceName, depth, r, h)

	if err != nil {
		_ = e.meta.UpdateArchiveStatus(archiveID, "failed")
		return res, err
	}
	if uerr := e.meta.UpdateArchiveStatus(archiveID, "done"); uerr != nil {
		return res, uerr
	}

	res.Duration = time.Since(start)
	return res, nil
}

func (e *Engine) extractEntries(ctx context.Context, workspaceID, archiveID, parentArchiveID, sourceName string, depth int, r io.Reader, h archivehandler.Handler) (*Result, liberr.Error) {
	sem := semaphore.New(ctx, e.policy.MaxParallelFiles, false)
	defer sem.DeferMain()

	res := &Result{ArchiveID: archiveID}

	var (
		batch      []metadatastore.FileRecord
		filesSoFar int
		bytesSoFar int64
	)

	flush := func() liberr.Error {
		if len(batch) == 0 {
			return nil
		}
		if e := e.meta.InsertFilesBatch(batch); e != nil {
			return e
		}
		batch = batch[:0]
		return nil
	}

	batchSize := e.policy.DirBatchSize
	if batchSize <= 0 {
		batchSize = 256
	}

	opts := archivehandler.ExtractOptions{
		MaxFileSize:  e.policy.MaxFileSize,
		MaxTotalSize: e.policy.MaxTotalSize,
		MaxFileCount: e.policy.MaxFileCount,
		Depth:        depth,
		Security:     e.policy.Security,
		Nested:       e.policy.Nested,
		Sink: func(virtualPath string, size int64, rc io.Reader) error {
			if err := sem.NewWorker(); err != nil {
				return err
			}
			defer sem.DeferWorker()

			buf := e.pool.Acquire()
			defer e.pool.Release(buf)

			sample := &cappedBuffer{cap: sampleCap}
			hash, herr := e.store.StoreStream(io.TeeReader(rc, sample))
			if herr != nil {
				return herr
			}

			filesSoFar++
			bytesSoFar += size

			decision := sniff.Sniff(sniff.Input{
				VirtualPath: virtualPath,
				Sample:      sample.buf.Bytes(),
				SizeBytes:   size,
				MaxFileSize: e.policy.MaxFileSize,
			})
			if decision.Action == sniff.Reject {
				res.Warnings = append(res.Warnings, "sniff-reject:"+string(decision.Reason)+":"+virtualPath)
				return nil
			}

			indexContent := ""
			if decision.Action == sniff.Allow {
				text, _ := textdecode.Decode(sample.buf.Bytes())
				indexContent = text
			}

			if e.isNestedArchiveName(virtualPath) {
				effMax := e.policy.Nested.EffectiveMaxDepth(filesSoFar, bytesSoFar)
				if depth+1 <= effMax {
					nestedID := NewArchiveID()
					rc2, rerr := e.store.ReadStream(hash)
					if rerr != nil {
						return rerr
					}
					subRes, serr := e.Extract(ctx, workspaceID, nestedID, archiveID, virtualPath, depth+1, size, rc2)
					_ = rc2.Close()

					res.NestedArchives = append(res.NestedArchives, nestedID)
					if serr != nil {
						res.Warnings = append(res.Warnings, "nested-archive-failed:"+virtualPath+": "+serr.Error())
					} else if subRes != nil {
						res.Warnings = append(res.Warnings, subRes.Warnings...)
					}
					return nil
				}
				res.Warnings = append(res.Warnings, "nested-depth-exceeded:"+virtualPath)
			}

			batch = append(batch, metadatastore.FileRecord{
				WorkspaceID:     workspaceID,
				ArchiveID:       archiveID,
				ParentArchiveID: parentArchiveID,
				VirtualPath:     virtualPath,
				OriginalName:    filepath.Base(virtualPath),
				ContentHash:     hash,
				SizeBytes:       size,
				DepthLevel:      depth,
				IndexContent:    indexContent,
			})

			if len(batch) >= batchSize {
				return flush()
			}
			return nil
		},
	}

	summary, e2 := h.ExtractWithLimits(ctx, r, opts)
	if e2 != nil {
		return res, liberr.Make(e2)
	}

	if err := flush(); err != nil {
		return res, err
	}

	if err := sem.WaitAll(); err != nil {
		return res, liberr.Make(err)
	}

	res.FilesExtracted = summary.FilesExtracted
	res.BytesExtracted = summary.BytesExtracted
	res.Truncated = summary.Truncated
	for _, entry := range summary.Entries {
		if entry.Outcome == archivehandler.OutcomeRejected {
			res.Warnings = append(res.Warnings, entry.Reason+":"+entry.VirtualPath)
		}
	}

	return res, nil
}

// NewArchiveID generates a fresh archive identifier for an imported or
// nested archive.
func NewArchiveID() string {
	return uuid.NewString()
}

func (e *Engine) isNestedArchiveName(name string) bool {
	return archivehandler.Resolve(name, e.handlers) != nil
}

// cappedBuffer is an io.Writer that retains only the first cap bytes
// written to it, used as the Tee destination for sniff admission and
// search-index content sampling without holding a whole extracted file in
// memory.
type cappedBuffer struct {
	buf bytes.Buffer
	cap int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if remaining := c.cap - c.buf.Len(); remaining > 0 {
		if remaining > len(p) {
			remaining = len(p)
		}
		c.buf.Write(p[:remaining])
	}
	return len(p), nil
}
