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

package search_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/ratelimit"
	"github.com/nabbar/logsieve/search"
	"github.com/stretchr/testify/require"
)

func newMeta(t *testing.T) *metadatastore.Store {
	meta, err := metadatastore.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	require.NoError(t, meta.InsertArchive(&metadatastore.Archive{ID: "a1", WorkspaceID: "ws", Status: "done"}))
	require.NoError(t, meta.InsertFilesBatch([]metadatastore.FileRecord{
		{WorkspaceID: "ws", ArchiveID: "a1", VirtualPath: "logs/app.log", OriginalName: "app.log"},
		{WorkspaceID: "ws", ArchiveID: "a1", VirtualPath: "logs/error.log", OriginalName: "error.log"},
	}))
	return meta
}

func TestPlannerSearchReturnsResults(t *testing.T) {
	meta := newMeta(t)
	p := search.NewPlanner(meta, nil)

	res, err := p.Search(context.Background(), "app", 10, 0, time.Second)
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Total)
	require.Len(t, res.Entries, 1)
}

func TestPlannerSearchRejectsEmptyQuery(t *testing.T) {
	meta := newMeta(t)
	p := search.NewPlanner(meta, nil)

	_, err := p.Search(context.Background(), "", 10, 0, time.Second)
	require.NotNil(t, err)
}

func TestPlannerSearchHonorsRateLimit(t *testing.T) {
	meta := newMeta(t)
	limiter := ratelimit.NewBucket(ratelimit.Config{Class: "search", RequestsPerMinute: 60, Burst: 1})
	p := search.NewPlanner(meta, limiter)

	_, err := p.Search(context.Background(), "app", 10, 0, time.Second)
	require.NoError(t, err)

	_, err = p.Search(context.Background(), "app", 10, 0, time.Second)
	require.NotNil(t, err)
}

func TestPlannerStatisticsAggregatesHistory(t *testing.T) {
	meta := newMeta(t)
	p := search.NewPlanner(meta, nil)

	_, err := p.Search(context.Background(), "app", 10, 0, time.Second)
	require.NoError(t, err)

	stats, serr := p.Statistics(5)
	require.NoError(t, serr)
	require.Equal(t, int64(1), stats.TotalSearches)
}
