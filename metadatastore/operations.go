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

package metadatastore

import (
	"time"

	liberr "github.com/nabbar/logsieve/errors"
	gormdb "gorm.io/gorm"
	gorcls "gorm.io/gorm/clause"
)

// InsertArchive inserts one archive row.
func (s *Store) InsertArchive(a *Archive) liberr.Error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.UpdatedAt = time.Now()
	if e := s.db.Create(a).Error; e != nil {
		return errQuery(e)
	}
	return nil
}

// UpdateArchiveStatus transitions an archive's status (pending/running/
// done/failed), used both by the normal extraction lifecycle and by crash
// recovery's idempotent re-run of non-terminal rows.
func (s *Store) UpdateArchiveStatus(id, status string) liberr.Error {
	if e := s.db.Model(&Archive{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error; e != nil {
		return errQuery(e)
	}
	return nil
}

// ChildArchives returns the direct children of parentID (nested archives
// discovered while extracting it).
func (s *Store) ChildArchives(parentID string) ([]Archive, liberr.Error) {
	var out []Archive
	if e := s.db.Where("parent_archive_id = ?", parentID).Find(&out).Error; e != nil {
		return nil, errQuery(e)
	}
	return out, nil
}

// ArchiveTree returns rootID and every descendant archive, depth-first.
func (s *Store) ArchiveTree(rootID string) ([]Archive, liberr.Error) {
	var root Archive
	if e := s.db.First(&root, "id = ?", rootID).Error; e != nil {
		if e == gormdb.ErrRecordNotFound {
			return nil, errNotFound("archive " + rootID)
		}
		return nil, errQuery(e)
	}

	out := []Archive{root}
	children, err := s.ChildArchives(rootID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		sub, err := s.ArchiveTree(c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, sub...)
	}
	return out, nil
}

// NonTerminalArchives returns archives stuck in pending/running, the input
// to crash recovery's idempotent re-run (spec.md §4.10).
func (s *Store) NonTerminalArchives(workspaceID string) ([]Archive, liberr.Error) {
	var out []Archive
	if e := s.db.Where("workspace_id = ? AND status IN ?", workspaceID, []string{"pending", "running"}).
		Find(&out).Error; e != nil {
		return nil, errQuery(e)
	}
	return out, nil
}

// InsertFilesBatch upserts files and refreshes their FTS5 index rows in a
// single transaction, honoring both the batch-commit discipline of
// spec.md §4.4 (dir_batch_size-sized commits rather than one transaction
// per file) and its idempotency requirement: a file is identified by
// (workspace_id, virtual_path), so re-importing the same archive updates
// the existing row (and its content hash, if changed) instead of
// inserting a duplicate — the invariant property 9 (recovery idempotence)
// depends on.
func (s *Store) InsertFilesBatch(files []FileRecord) liberr.Error {
	if len(files) == 0 {
		return nil
	}

	return wrapTx(s.db.Transaction(func(tx *gormdb.DB) error {
		for i := range files {
			f := &files[i]
			if f.CreatedAt.IsZero() {
				f.CreatedAt = time.Now()
			}

			e := tx.Clauses(gorcls.OnConflict{
				Columns: []gorcls.Column{{Name: "workspace_id"}, {Name: "virtual_path"}},
				DoUpdates: gorcls.AssignmentColumns([]string{
					"archive_id", "parent_archive_id", "original_name",
					"content_hash", "size_bytes", "modified_time",
					"mime_type", "depth_level",
				}),
			}).Create(f).Error
			if e != nil {
				return e
			}

			// SQLite's upsert only reports the rowid for the branch it took
			// when the driver doesn't surface RETURNING through CreateInBatches;
			// re-read it explicitly so the FTS5 row below is keyed correctly
			// whether this file was freshly inserted or updated in place.
			if e := tx.Model(&FileRecord{}).
				Select("id").
				Where("workspace_id = ? AND virtual_path = ?", f.WorkspaceID, f.VirtualPath).
				First(f).Error; e != nil {
				return e
			}

			if e := tx.Exec(
				"INSERT OR REPLACE INTO search_index(rowid, virtual_path, original_name, content) VALUES (?, ?, ?, ?)",
				f.ID, f.VirtualPath, f.OriginalName, f.IndexContent,
			).Error; e != nil {
				return e
			}
		}
		return nil
	}))
}

// InsertFile inserts or updates a single file record, for callers outside
// the batched extraction path.
func (s *Store) InsertFile(f *FileRecord) liberr.Error {
	return s.InsertFilesBatch([]FileRecord{*f})
}

// GetFileByVirtualPath looks up one file within a workspace by its logical
// path, the (workspace, virtual_path) scope spec.md §4.4 defines for it.
func (s *Store) GetFileByVirtualPath(workspaceID, virtualPath string) (*FileRecord, liberr.Error) {
	var f FileRecord
	e := s.db.Where("workspace_id = ? AND virtual_path = ?", workspaceID, virtualPath).First(&f).Error
	if e == gormdb.ErrRecordNotFound {
		return nil, errNotFound("file " + virtualPath)
	}
	if e != nil {
		return nil, errQuery(e)
	}
	return &f, nil
}

// GetAllFiles returns every file row belonging to an archive.
func (s *Store) GetAllFiles(archiveID string) ([]FileRecord, liberr.Error) {
	var out []FileRecord
	if e := s.db.Where("archive_id = ?", archiveID).Find(&out).Error; e != nil {
		return nil, errQuery(e)
	}
	return out, nil
}

// SearchFiles runs an FTS5 MATCH query over the index and returns the
// matching file rows, most relevant first, recording the query in
// search_history (SPEC_FULL.md §5).
func (s *Store) SearchFiles(query string, limit int) ([]FileRecord, liberr.Error) {
	out, _, err := s.SearchFilesPage(query, limit, 0)
	return out, err
}

// SearchFilesPage is SearchFiles with offset-based pagination and a total
// match count, backing the search operation's (query, limit, offset) ->
// ([LogEntry], total, duration) contract (spec.md §6).
func (s *Store) SearchFilesPage(query string, limit, offset int) ([]FileRecord, int64, liberr.Error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	started := time.Now()

	var total int64
	if e := s.db.Raw(`
		SELECT COUNT(*) FROM files f
		JOIN search_index si ON si.rowid = f.id
		WHERE search_index MATCH ?`, query).Scan(&total).Error; e != nil {
		return nil, 0, errQuery(e)
	}

	var out []FileRecord
	e := s.db.Raw(`
		SELECT f.* FROM files f
		JOIN search_index si ON si.rowid = f.id
		WHERE search_index MATCH ?
		ORDER BY rank
		LIMIT ? OFFSET ?`, query, limit, offset).Scan(&out).Error
	if e != nil {
		return nil, 0, errQuery(e)
	}

	_ = s.db.Create(&SearchHistory{
		Query:      query,
		ResultCnt:  len(out),
		DurationMs: time.Since(started).Milliseconds(),
		ExecutedAt: started,
	}).Error

	return out, total, nil
}

// SnapshotMetrics computes and persists one metrics snapshot row.
func (s *Store) SnapshotMetrics(workspaceID string) (*MetricsSnapshot, liberr.Error) {
	var archives, files, searches int64
	var bytes int64

	if e := s.db.Model(&Archive{}).Where("workspace_id = ?", workspaceID).Count(&archives).Error; e != nil {
		return nil, errQuery(e)
	}
	if e := s.db.Model(&FileRecord{}).Count(&files).Error; e != nil {
		return nil, errQuery(e)
	}
	if e := s.db.Model(&FileRecord{}).Select("COALESCE(SUM(size_bytes),0)").Scan(&bytes).Error; e != nil {
		return nil, errQuery(e)
	}
	if e := s.db.Model(&SearchHistory{}).Count(&searches).Error; e != nil {
		return nil, errQuery(e)
	}

	snap := &MetricsSnapshot{
		TakenAt:      time.Now(),
		ArchiveCount: archives,
		FileCount:    files,
		TotalBytes:   bytes,
		SearchCount:  searches,
	}
	if e := s.db.Create(snap).Error; e != nil {
		return nil, errQuery(e)
	}
	return snap, nil
}

// InsertTailSegment records one live-tail append as its own row, leaving
// the original file row and its CAS object untouched, and mirrors content
// (the decoded line text, not persisted on the row itself) into tail_index
// so a live-tailed append is searchable as soon as it lands.
func (s *Store) InsertTailSegment(seg *TailSegment, content string) liberr.Error {
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}
	return wrapTx(s.db.Transaction(func(tx *gormdb.DB) error {
		if e := tx.Create(seg).Error; e != nil {
			return e
		}
		return tx.Exec(
			"INSERT INTO tail_index(rowid, virtual_path, content) VALUES (?, ?, ?)",
			seg.ID, seg.VirtualPath, content,
		).Error
	}))
}

// SearchTailSegments runs an FTS5 MATCH query over tail_index and returns
// the matching tail segment rows, most recent first.
func (s *Store) SearchTailSegments(query string, limit int) ([]TailSegment, liberr.Error) {
	if limit <= 0 {
		limit = 100
	}
	var out []TailSegment
	e := s.db.Raw(`
		SELECT t.* FROM tail_segments t
		JOIN tail_index ti ON ti.rowid = t.id
		WHERE tail_index MATCH ?
		ORDER BY t.id DESC
		LIMIT ?`, query, limit).Scan(&out).Error
	if e != nil {
		return nil, errQuery(e)
	}
	return out, nil
}

// TailSegments returns every recorded append for a file, oldest first.
func (s *Store) TailSegments(archiveID, virtualPath string) ([]TailSegment, liberr.Error) {
	var out []TailSegment
	if e := s.db.Where("archive_id = ? AND virtual_path = ?", archiveID, virtualPath).
		Order("id ASC").Find(&out).Error; e != nil {
		return nil, errQuery(e)
	}
	return out, nil
}

// NextTailLine returns the line number the next segment for a file should
// start at: one past the highest EndLine recorded so far, or 1 if the file
// has no segments yet.
func (s *Store) NextTailLine(archiveID, virtualPath string) (int, liberr.Error) {
	var last TailSegment
	e := s.db.Where("archive_id = ? AND virtual_path = ?", archiveID, virtualPath).
		Order("id DESC").First(&last).Error
	if e == gormdb.ErrRecordNotFound {
		return 1, nil
	}
	if e != nil {
		return 0, errQuery(e)
	}
	return last.EndLine + 1, nil
}

// SearchStatistics is the search-statistics supplement of SPEC_FULL.md §5:
// aggregate counts surfaced alongside the metrics snapshot.
type SearchStatistics struct {
	TotalSearches  int64
	AverageResults float64
	SlowestQueries []SearchHistory
}

// Statistics aggregates search_history into SearchStatistics, returning
// the topN slowest recorded queries.
func (s *Store) Statistics(topN int) (*SearchStatistics, liberr.Error) {
	if topN <= 0 {
		topN = 10
	}

	var total int64
	if e := s.db.Model(&SearchHistory{}).Count(&total).Error; e != nil {
		return nil, errQuery(e)
	}

	var avg float64
	if total > 0 {
		if e := s.db.Model(&SearchHistory{}).
			Select("COALESCE(AVG(result_cnt),0)").Scan(&avg).Error; e != nil {
			return nil, errQuery(e)
		}
	}

	var slowest []SearchHistory
	if e := s.db.Order("duration_ms DESC").Limit(topN).Find(&slowest).Error; e != nil {
		return nil, errQuery(e)
	}

	return &SearchStatistics{
		TotalSearches:  total,
		AverageResults: avg,
		SlowestQueries: slowest,
	}, nil
}

// AllContentHashes returns every distinct CAS hash referenced by workspaceID,
// across both extracted files and tail segments, for orphan collection and
// integrity verification.
func (s *Store) AllContentHashes(workspaceID string) ([]string, liberr.Error) {
	var hashes []string

	e := s.db.Model(&FileRecord{}).
		Joins("JOIN archives ON archives.id = files.archive_id").
		Where("archives.workspace_id = ?", workspaceID).
		Distinct("files.content_hash").
		Pluck("files.content_hash", &hashes).Error
	if e != nil {
		return nil, errQuery(e)
	}

	var tailHashes []string
	e = s.db.Model(&TailSegment{}).
		Joins("JOIN archives ON archives.id = tail_segments.archive_id").
		Where("archives.workspace_id = ?", workspaceID).
		Distinct("tail_segments.content_hash").
		Pluck("tail_segments.content_hash", &tailHashes).Error
	if e != nil {
		return nil, errQuery(e)
	}

	seen := make(map[string]struct{}, len(hashes)+len(tailHashes))
	out := make([]string, 0, len(hashes)+len(tailHashes))
	for _, h := range append(hashes, tailHashes...) {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out, nil
}

func wrapTx(e error) liberr.Error {
	if e == nil {
		return nil
	}
	return errTx(e)
}
