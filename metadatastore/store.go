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
	liberr "github.com/nabbar/logsieve/errors"
	gormdb "gorm.io/gorm"
	drvsql "gorm.io/driver/sqlite"
)

// Store wraps the per-workspace metadata.db described in spec.md §6.
type Store struct {
	db *gormdb.DB
}

// Open opens (creating if absent) the SQLite database at path, migrates
// the archives/files/search_history/metrics_snapshots tables, and ensures
// the FTS5 search_index virtual table exists.
func Open(path string) (*Store, liberr.Error) {
	db, e := gormdb.Open(drvsql.Open(path), &gormdb.Config{})
	if e != nil {
		return nil, errOpen(e)
	}

	if e = db.AutoMigrate(&Archive{}, &FileRecord{}, &SearchHistory{}, &MetricsSnapshot{}, &TailSegment{}); e != nil {
		return nil, errMigrate(e)
	}

	const ddl = `CREATE VIRTUAL TABLE IF NOT EXISTS search_index USING fts5(
		virtual_path, original_name, content, content='files', content_rowid='id'
	)`
	if e = db.Exec(ddl).Error; e != nil {
		return nil, errMigrate(e)
	}

	const tailDDL = `CREATE VIRTUAL TABLE IF NOT EXISTS tail_index USING fts5(
		virtual_path, content, content='tail_segments', content_rowid='id'
	)`
	if e = db.Exec(tailDDL).Error; e != nil {
		return nil, errMigrate(e)
	}

	return &Store{db: db}, nil
}

// DB exposes the underlying *gorm.DB for callers that need raw queries
// (e.g. the search planner's FTS5 MATCH clauses).
func (s *Store) DB() *gormdb.DB {
	return s.db
}

// Close releases the underlying SQL connection.
func (s *Store) Close() liberr.Error {
	sqlDB, e := s.db.DB()
	if e != nil {
		return errQuery(e)
	}
	if e = sqlDB.Close(); e != nil {
		return errQuery(e)
	}
	return nil
}
