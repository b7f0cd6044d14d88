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

// Package search is the thin orchestration layer over metadatastore's
// FTS5-backed query execution: it owns the search operation's rate limit,
// timeout and result-shaping contract (spec.md §6), while metadatastore
// itself owns the actual MATCH query and search_history bookkeeping.
package search

import (
	"context"
	"fmt"
	"time"

	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/ratelimit"
)

// LogEntry is the stable wire shape of one matched line, spec.md §6: a
// file-row hit carries no line number (the match is against the whole
// sampled content), a tail-segment hit fills Line with its start line.
type LogEntry struct {
	ID              string
	Timestamp       string
	Level           string
	File            string
	RealPath        string
	Line            int
	Content         string
	Tags            []string
	MatchDetails    []string
	MatchedKeywords []string
}

// Result is one search operation's response shape: spec.md §6's
// ([LogEntry], total, duration).
type Result struct {
	Entries  []LogEntry
	Total    int64
	Duration time.Duration
}

func fileToLogEntry(f metadatastore.FileRecord) LogEntry {
	ts := ""
	if !f.ModifiedTime.IsZero() {
		ts = f.ModifiedTime.UTC().Format(time.RFC3339)
	}
	return LogEntry{
		ID:        fmt.Sprintf("file-%d", f.ID),
		Timestamp: ts,
		File:      f.VirtualPath,
		RealPath:  "cas://" + f.ContentHash,
	}
}

func tailToLogEntry(t metadatastore.TailSegment) LogEntry {
	ts := ""
	if !t.CreatedAt.IsZero() {
		ts = t.CreatedAt.UTC().Format(time.RFC3339)
	}
	return LogEntry{
		ID:        fmt.Sprintf("tail-%d", t.ID),
		Timestamp: ts,
		File:      t.VirtualPath,
		RealPath:  "cas://" + t.ContentHash,
		Line:      t.StartLine,
	}
}

// Planner executes search queries against one workspace's metadata store,
// applying the search operation class's rate limiter and a per-call
// timeout on top of any workspace-level default.
type Planner struct {
	meta    *metadatastore.Store
	limiter *ratelimit.Bucket
}

// NewPlanner returns a Planner reading from meta and throttled by limiter.
// A nil limiter disables rate limiting.
func NewPlanner(meta *metadatastore.Store, limiter *ratelimit.Bucket) *Planner {
	return &Planner{meta: meta, limiter: limiter}
}

// Search runs query with pagination (limit, offset), honoring ctx's
// deadline and the search rate limiter. It returns *ratelimit.ErrRateLimited
// when the limiter rejects the call.
func (p *Planner) Search(ctx context.Context, query string, limit, offset int, timeout time.Duration) (*Result, liberr.Error) {
	if query == "" {
		return nil, errEmptyQuery()
	}

	if p.limiter != nil {
		if err := ratelimit.Check(p.limiter, "search"); err != nil {
			return nil, err
		}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type response struct {
		entries []LogEntry
		total   int64
		err     liberr.Error
	}
	done := make(chan response, 1)

	started := time.Now()
	go func() {
		files, total, err := p.meta.SearchFilesPage(query, limit, offset)
		if err != nil {
			done <- response{err: err}
			return
		}

		tails, terr := p.meta.SearchTailSegments(query, limit)
		if terr != nil {
			done <- response{err: terr}
			return
		}

		entries := make([]LogEntry, 0, len(files)+len(tails))
		for _, f := range files {
			entries = append(entries, fileToLogEntry(f))
		}
		for _, t := range tails {
			entries = append(entries, tailToLogEntry(t))
		}

		done <- response{entries: entries, total: total + int64(len(tails))}
	}()

	select {
	case <-ctx.Done():
		return nil, errTimeout(query)
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		return &Result{Entries: r.entries, Total: r.total, Duration: time.Since(started)}, nil
	}
}

// Statistics surfaces the search-statistics supplement (SPEC_FULL.md §5)
// alongside the metrics snapshot.
func (p *Planner) Statistics(topN int) (*metadatastore.SearchStatistics, liberr.Error) {
	return p.meta.Statistics(topN)
}
