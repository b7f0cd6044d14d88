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

package tailwatch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nabbar/logsieve/cas"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/tailwatch"
	"github.com/stretchr/testify/require"
)

func newFixtures(t *testing.T) (*cas.Store, *metadatastore.Store) {
	store := cas.New(t.TempDir())
	require.NoError(t, store.Open())
	meta, err := metadatastore.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	return store, meta
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatcherRecordsAppendedLines(t *testing.T) {
	store, meta := newFixtures(t)

	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("line one\n"), 0o644))

	w, werr := tailwatch.New(store, meta)
	require.NoError(t, werr)
	defer w.Close()

	require.NoError(t, w.Track(path, "archive-1", "app.log", int64(len("line one\n"))))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	f, e := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, e)
	_, e = f.WriteString("line two\nline three\n")
	require.NoError(t, e)
	require.NoError(t, f.Close())

	waitFor(t, 3*time.Second, func() bool {
		segs, err := meta.TailSegments("archive-1", "app.log")
		require.NoError(t, err)
		return len(segs) == 1
	})

	segs, err := meta.TailSegments("archive-1", "app.log")
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, 1, segs[0].StartLine)
	require.Equal(t, 2, segs[0].EndLine)

	content, cerr := store.ReadContent(segs[0].ContentHash)
	require.NoError(t, cerr)
	require.Equal(t, "line two\nline three\n", string(content))
}

func TestWatcherResetsOffsetOnTruncation(t *testing.T) {
	store, meta := newFixtures(t)

	path := filepath.Join(t.TempDir(), "rotating.log")
	require.NoError(t, os.WriteFile(path, []byte("aaaaaaaaaa\n"), 0o644))

	w, werr := tailwatch.New(store, meta)
	require.NoError(t, werr)
	defer w.Close()

	require.NoError(t, w.Track(path, "archive-2", "rotating.log", int64(len("aaaaaaaaaa\n"))))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte("b\n"), 0o644))

	waitFor(t, 3*time.Second, func() bool {
		segs, err := meta.TailSegments("archive-2", "rotating.log")
		require.NoError(t, err)
		return len(segs) == 1
	})

	segs, err := meta.TailSegments("archive-2", "rotating.log")
	require.NoError(t, err)
	require.Equal(t, 1, segs[0].StartLine)
	require.Equal(t, 1, segs[0].EndLine)

	content, cerr := store.ReadContent(segs[0].ContentHash)
	require.NoError(t, cerr)
	require.Equal(t, "b\n", string(content))
}
