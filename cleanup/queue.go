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

// Package cleanup removes temp directories left behind by a task or a
// workspace deletion, and scans for archives interrupted mid-extraction on
// startup, per spec.md §4.10. Removal never blocks the caller: Remove
// enqueues and returns immediately, retrying on its own goroutine.
package cleanup

import (
	"context"
	"os"
	"sync"
	"time"

	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
)

// RetrySchedule is the bounded retry schedule for a single Remove call:
// one immediate attempt followed by waits of 100ms, 500ms and 1s.
var RetrySchedule = []time.Duration{0, 100 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}

// SweepInterval is how often Run re-attempts paths that exhausted
// RetrySchedule.
const SweepInterval = 30 * time.Second

// Queue tracks temp-directory removals that exhausted their bounded retry
// schedule, for a later periodic sweep.
type Queue struct {
	mu     sync.Mutex
	failed []string
}

// NewQueue returns an empty Queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Remove attempts to delete path on a background goroutine, following
// RetrySchedule. It never blocks the caller. If every attempt fails, path
// is appended to the queue for Run's periodic sweep to retry later.
func (q *Queue) Remove(path string) {
	go q.removeWithRetry(path)
}

func (q *Queue) removeWithRetry(path string) {
	for _, wait := range RetrySchedule {
		if wait > 0 {
			time.Sleep(wait)
		}
		if e := os.RemoveAll(path); e == nil {
			return
		}
	}

	q.mu.Lock()
	q.failed = append(q.failed, path)
	q.mu.Unlock()
}

// Sweep retries every queued path once, keeping the ones that still fail.
// It returns the paths that were successfully removed this pass.
func (q *Queue) Sweep() []string {
	q.mu.Lock()
	pending := q.failed
	q.failed = nil
	q.mu.Unlock()

	var succeeded, stillFailed []string
	for _, p := range pending {
		if e := os.RemoveAll(p); e == nil {
			succeeded = append(succeeded, p)
		} else {
			stillFailed = append(stillFailed, p)
		}
	}

	if len(stillFailed) > 0 {
		q.mu.Lock()
		q.failed = append(q.failed, stillFailed...)
		q.mu.Unlock()
	}
	return succeeded
}

// Pending returns a snapshot of the paths still stuck in the queue.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.failed))
	copy(out, q.failed)
	return out
}

// Run is the queue's supervised goroutine body: it calls Sweep every
// SweepInterval until ctx is cancelled, satisfying the "cleanup must never
// block the data path" requirement by running entirely off to the side.
func (q *Queue) Run(ctx context.Context) error {
	ticker := time.NewTicker(SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			q.Sweep()
		}
	}
}

// RecoverWorkspace returns the archives left in a non-terminal status by a
// crash mid-extraction. Re-running them is safe because both CAS writes
// and metadata inserts are idempotent on (workspace, virtual_path); the
// caller (the extraction/workspace wiring) re-opens each returned archive
// the same way a fresh import would.
func RecoverWorkspace(meta *metadatastore.Store, workspaceID string) ([]metadatastore.Archive, liberr.Error) {
	return meta.NonTerminalArchives(workspaceID)
}
