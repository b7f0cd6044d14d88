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

// Package tailwatch watches already-imported files on disk for appended
// bytes and folds each append into the workspace as its own immutable
// segment, per spec.md §4.9. A live-tailed file is never rewritten in
// place: every new range of bytes becomes a new CAS object and a new
// tail_segments row, keyed by the line range it covers.
package tailwatch

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nabbar/logsieve/cas"
	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/textdecode"
)

// DebounceInterval is how long the watcher waits after the last write event
// for a path before processing it, collapsing bursts of duplicate events
// into a single read (spec.md §4.9's backpressure requirement).
const DebounceInterval = 200 * time.Millisecond

// tracked is the bookkeeping kept per watched file.
type tracked struct {
	archiveID   string
	virtualPath string
	offset      int64
}

// Watcher live-tails a set of on-disk files, decoding and recording each
// append through store and meta. Callers add files with Track and run the
// event loop with Run; all mutable state is owned by the Run goroutine and
// the debouncer it drives, so Watcher needs no locking beyond the maps
// guarded by mu for Track/Untrack calls made from other goroutines.
type Watcher struct {
	fsw   *fsnotify.Watcher
	store *cas.Store
	meta  *metadatastore.Store

	mu      sync.Mutex
	tracked map[string]*tracked

	deb *debouncer
}

// New returns a Watcher that will store appended bytes in store and record
// them through meta. The caller must call Run to start processing events
// and Close to release the underlying fsnotify handle.
func New(store *cas.Store, meta *metadatastore.Store) (*Watcher, liberr.Error) {
	fsw, e := fsnotify.NewWatcher()
	if e != nil {
		return nil, errWatch("fsnotify init", e)
	}

	w := &Watcher{
		fsw:     fsw,
		store:   store,
		meta:    meta,
		tracked: make(map[string]*tracked),
	}
	w.deb = newDebouncer(DebounceInterval, w.process)
	return w, nil
}

// Track registers path for live-tailing. archiveID/virtualPath identify the
// file's existing row in the metadata store; offset is the byte size of the
// content already imported (normally the file's current on-disk size at
// import time).
func (w *Watcher) Track(path, archiveID, virtualPath string, offset int64) liberr.Error {
	if e := w.fsw.Add(path); e != nil {
		return errWatch(path, e)
	}

	w.mu.Lock()
	w.tracked[path] = &tracked{archiveID: archiveID, virtualPath: virtualPath, offset: offset}
	w.mu.Unlock()
	return nil
}

// Untrack stops watching path.
func (w *Watcher) Untrack(path string) {
	w.mu.Lock()
	delete(w.tracked, path)
	w.mu.Unlock()
	_ = w.fsw.Remove(path)
}

// Run drains fsnotify events until ctx is cancelled or the watcher is
// closed. Only Write and Create events (the latter covering truncate+
// recreate log rotation) trigger a (debounced) read.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.deb.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.deb.notify(ev.Name)
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			// fsnotify surfaces transient OS errors (e.g. a watch removed
			// out from under us); the next debounced pass will simply find
			// nothing new and skip the file.
		}
	}
}

// Close releases the underlying inotify/kqueue handle.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// process reads and records whatever new bytes have appeared for path since
// its last recorded offset. It is only ever invoked by the debouncer, one
// path at a time, so it never runs concurrently with itself for the same
// path.
func (w *Watcher) process(path string) {
	w.mu.Lock()
	t, ok := w.tracked[path]
	w.mu.Unlock()
	if !ok {
		return
	}

	info, e := os.Stat(path)
	if e != nil {
		return
	}
	size := info.Size()

	w.mu.Lock()
	offset := t.offset
	w.mu.Unlock()

	if size < offset {
		// Truncated (log rotation via copytruncate, or a fresh file under
		// the same name): start over from the beginning.
		offset = 0
	}
	if size <= offset {
		return
	}

	f, e := os.Open(path)
	if e != nil {
		return
	}
	defer f.Close()

	if _, e = f.Seek(offset, io.SeekStart); e != nil {
		return
	}

	buf := make([]byte, size-offset)
	if _, e = io.ReadFull(f, buf); e != nil {
		return
	}

	text, decInfo := textdecode.Decode(buf)
	lines := splitLines(text)
	if len(lines) == 0 {
		w.advance(path, size)
		return
	}

	startLine, err := w.meta.NextTailLine(t.archiveID, t.virtualPath)
	if err != nil {
		return
	}

	hash, err := w.store.StoreStream(newLineReader(lines))
	if err != nil {
		return
	}

	seg := &metadatastore.TailSegment{
		ArchiveID:   t.archiveID,
		VirtualPath: t.virtualPath,
		StartLine:   startLine,
		EndLine:     startLine + len(lines) - 1,
		ContentHash: hash,
		SizeBytes:   int64(len(buf)),
		Encoding:    decInfo.Encoding,
	}
	if err = w.meta.InsertTailSegment(seg, text); err != nil {
		return
	}

	w.advance(path, size)
}

func (w *Watcher) advance(path string, size int64) {
	w.mu.Lock()
	if t, ok := w.tracked[path]; ok {
		t.offset = size
	}
	w.mu.Unlock()
}

// splitLines splits decoded text on '\n', dropping a single trailing empty
// element left by a final newline. A partial last line with no trailing
// newline yet is kept as a line of its own; process then advances the
// offset past it, so bytes later appended to that line are recorded in the
// next segment as a separate line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			lines = append(lines, text[start:i])
			start = i + 1
		}
	}
	if start < len(text) {
		lines = append(lines, text[start:])
	}
	return lines
}

type lineReader struct {
	lines []string
	idx   int
	rest  []byte
}

func newLineReader(lines []string) *lineReader {
	return &lineReader{lines: lines}
}

func (r *lineReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.rest) == 0 {
			if r.idx >= len(r.lines) {
				if n > 0 {
					return n, nil
				}
				return 0, io.EOF
			}
			r.rest = append([]byte(r.lines[r.idx]), '\n')
			r.idx++
		}
		c := copy(p[n:], r.rest)
		n += c
		r.rest = r.rest[c:]
	}
	return n, nil
}
