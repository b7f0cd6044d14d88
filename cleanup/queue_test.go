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

package cleanup_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nabbar/logsieve/cleanup"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/stretchr/testify/require"
)

func TestRemoveDeletesDirectory(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "victim")
	require.NoError(t, os.MkdirAll(target, 0o755))

	q := cleanup.NewQueue()
	q.Remove(target)

	require.Eventually(t, func() bool {
		_, e := os.Stat(target)
		return os.IsNotExist(e)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRemoveMissingPathLeavesQueueEmpty(t *testing.T) {
	dir := t.TempDir()
	stuck := filepath.Join(dir, "never-existed")

	q := cleanup.NewQueue()
	q.Remove(stuck)

	require.Eventually(t, func() bool {
		return len(q.Pending()) == 0
	}, 3*time.Second, 20*time.Millisecond)

	succeeded := q.Sweep()
	require.Empty(t, succeeded)
}

func TestRecoverWorkspaceReturnsNonTerminalArchives(t *testing.T) {
	meta, err := metadatastore.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)

	require.NoError(t, meta.InsertArchive(&metadatastore.Archive{
		ID: "a1", WorkspaceID: "ws", OriginalName: "logs.zip", Status: "running",
	}))
	require.NoError(t, meta.InsertArchive(&metadatastore.Archive{
		ID: "a2", WorkspaceID: "ws", OriginalName: "done.zip", Status: "done",
	}))

	stuck, serr := cleanup.RecoverWorkspace(meta, "ws")
	require.NoError(t, serr)
	require.Len(t, stuck, 1)
	require.Equal(t, "a1", stuck[0].ID)
}
