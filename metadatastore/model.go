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

// Package metadatastore persists the per-workspace catalog of archives,
// logical files and search history in a single SQLite database, following
// the schema in spec.md §3/§4.4.
package metadatastore

import "time"

// Archive is one imported archive (or nested sub-archive) row.
type Archive struct {
	ID              string `gorm:"primaryKey"`
	WorkspaceID     string `gorm:"index"`
	ParentArchiveID string `gorm:"index"`
	OriginalName    string
	SourcePath      string
	ContentHash     string `gorm:"index"`
	SizeBytes       int64
	DepthLevel      int
	Status          string `gorm:"index"` // pending, running, done, failed
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Archive) TableName() string { return "archives" }

// FileRecord is one logical file extracted from an archive. Its identity
// scope is (WorkspaceID, VirtualPath) — spec.md §3/§4.4's unique key — not
// ArchiveID, since re-importing the same source must update the existing
// row rather than create a sibling one.
type FileRecord struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	WorkspaceID     string `gorm:"uniqueIndex:idx_files_workspace_path"`
	ArchiveID       string `gorm:"index"`
	ParentArchiveID string `gorm:"index"`
	VirtualPath     string `gorm:"uniqueIndex:idx_files_workspace_path"`
	OriginalName    string
	ContentHash     string `gorm:"index"`
	SizeBytes       int64
	ModifiedTime    time.Time
	MimeType        string
	DepthLevel      int
	CreatedAt       time.Time

	// IndexContent is the decoded content sample fed into search_index on
	// insert; it is never persisted on the files row itself (the body
	// lives once, in CAS, addressed by ContentHash).
	IndexContent string `gorm:"-"`
}

func (FileRecord) TableName() string { return "files" }

// SearchHistory records one executed search query, feeding the search
// statistics supplement (SPEC_FULL.md §5).
type SearchHistory struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	Query     string
	ResultCnt int
	DurationMs int64
	ExecutedAt time.Time
}

func (SearchHistory) TableName() string { return "search_history" }

// MetricsSnapshot is one counters snapshot, written each time
// Store.SnapshotMetrics is called; nothing in this module calls it on a
// timer.
type MetricsSnapshot struct {
	ID           uint `gorm:"primaryKey;autoIncrement"`
	TakenAt      time.Time
	ArchiveCount int64
	FileCount    int64
	TotalBytes   int64
	SearchCount  int64
}

func (MetricsSnapshot) TableName() string { return "metrics_snapshots" }

// TailSegment is one incremental append discovered by the live-tail
// watcher: a range of new lines for a file already tracked under an
// archive, stored as its own immutable CAS object (the original file
// object is never mutated).
type TailSegment struct {
	ID          uint `gorm:"primaryKey;autoIncrement"`
	ArchiveID   string `gorm:"index"`
	VirtualPath string `gorm:"index"`
	StartLine   int
	EndLine     int
	ContentHash string
	SizeBytes   int64
	Encoding    string
	CreatedAt   time.Time
}

func (TailSegment) TableName() string { return "tail_segments" }
