package metadatastore_test

import (
	"path/filepath"
	"testing"

	"github.com/nabbar/logsieve/metadatastore"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *metadatastore.Store {
	t.Helper()
	s, err := metadatastore.Open(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	return s
}

func TestInsertAndQueryArchive(t *testing.T) {
	s := newStore(t)

	a := &metadatastore.Archive{ID: "arc-1", WorkspaceID: "ws-1", Status: "pending"}
	require.NoError(t, s.InsertArchive(a))

	require.NoError(t, s.UpdateArchiveStatus("arc-1", "done"))

	tree, err := s.ArchiveTree("arc-1")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Equal(t, "done", tree[0].Status)
}

func TestChildArchivesAndTree(t *testing.T) {
	s := newStore(t)

	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "root", WorkspaceID: "ws-1", Status: "done"}))
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "child", WorkspaceID: "ws-1", ParentArchiveID: "root", Status: "done"}))

	children, err := s.ChildArchives("root")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "child", children[0].ID)

	tree, err := s.ArchiveTree("root")
	require.NoError(t, err)
	require.Len(t, tree, 2)
}

func TestInsertFilesBatchAndLookup(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "arc-1", WorkspaceID: "ws-1", Status: "running"}))

	files := []metadatastore.FileRecord{
		{WorkspaceID: "ws-1", ArchiveID: "arc-1", VirtualPath: "a/b.txt", OriginalName: "b.txt", ContentHash: "h1", SizeBytes: 10},
		{WorkspaceID: "ws-1", ArchiveID: "arc-1", VirtualPath: "a/c.txt", OriginalName: "c.txt", ContentHash: "h2", SizeBytes: 20},
	}
	require.NoError(t, s.InsertFilesBatch(files))

	got, err := s.GetFileByVirtualPath("ws-1", "a/b.txt")
	require.NoError(t, err)
	require.Equal(t, "h1", got.ContentHash)

	all, err := s.GetAllFiles("arc-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestInsertFilesBatchIsIdempotentOnWorkspaceAndVirtualPath(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "arc-1", WorkspaceID: "ws-1", Status: "running"}))
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "arc-2", WorkspaceID: "ws-1", Status: "running"}))

	require.NoError(t, s.InsertFilesBatch([]metadatastore.FileRecord{
		{WorkspaceID: "ws-1", ArchiveID: "arc-1", VirtualPath: "a/b.txt", OriginalName: "b.txt", ContentHash: "h1", SizeBytes: 10},
	}))

	// Re-importing the same workspace/path under a fresh archive id (as a
	// re-run import would mint) must update the existing row, not create a
	// sibling one.
	require.NoError(t, s.InsertFilesBatch([]metadatastore.FileRecord{
		{WorkspaceID: "ws-1", ArchiveID: "arc-2", VirtualPath: "a/b.txt", OriginalName: "b.txt", ContentHash: "h2", SizeBytes: 20},
	}))

	all, err := s.GetAllFiles("arc-1")
	require.NoError(t, err)
	require.Len(t, all, 0)

	got, err := s.GetFileByVirtualPath("ws-1", "a/b.txt")
	require.NoError(t, err)
	require.Equal(t, "h2", got.ContentHash)
	require.Equal(t, "arc-2", got.ArchiveID)

	results, err := s.SearchFiles("b", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchFilesRecordsHistory(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "arc-1", WorkspaceID: "ws-1", Status: "done"}))
	require.NoError(t, s.InsertFilesBatch([]metadatastore.FileRecord{
		{ArchiveID: "arc-1", VirtualPath: "logs/app.log", OriginalName: "app.log"},
	}))

	results, err := s.SearchFiles("app", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)

	stats, serr := s.Statistics(10)
	require.NoError(t, serr)
	require.Equal(t, int64(1), stats.TotalSearches)
}

func TestSnapshotMetrics(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "arc-1", WorkspaceID: "ws-1", Status: "done"}))

	snap, err := s.SnapshotMetrics("ws-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), snap.ArchiveCount)
}

func TestNonTerminalArchives(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "a1", WorkspaceID: "ws-1", Status: "pending"}))
	require.NoError(t, s.InsertArchive(&metadatastore.Archive{ID: "a2", WorkspaceID: "ws-1", Status: "done"}))

	pending, err := s.NonTerminalArchives("ws-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "a1", pending[0].ID)
}
