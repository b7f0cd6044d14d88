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

package workspace

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	arccmp "github.com/nabbar/logsieve/archive/compress"
	"github.com/nabbar/logsieve/cas"
	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/sniff"
	"github.com/nabbar/logsieve/textdecode"
)

// legacySampleCap mirrors extraction's sampling cap: only the leading bytes
// of each re-ingested file are sniffed and indexed for full-text search.
const legacySampleCap = 64 << 10

// LegacyFormat distinguishes the two pre-CAS on-disk index encodings
// spec.md §6 recognizes.
type LegacyFormat string

const (
	LegacyCompressed   LegacyFormat = "compressed"   // <id>.idx.gz
	LegacyUncompressed LegacyFormat = "uncompressed" // <id>.idx
)

// LegacyWorkspaceInfo is one detected pre-CAS workspace, keyed by the
// index file spec.md §6 says the system refuses to open directly.
type LegacyWorkspaceInfo struct {
	WorkspaceID string
	IndexPath   string
	Format      LegacyFormat
}

// DetectLegacyWorkspaces scans indicesDir for <workspace_id>.idx(.gz) files
// left behind by the pre-CAS format, per spec.md §6 / original_source's
// utils/legacy_detection.rs. A missing directory is not an error: it just
// means there is nothing to detect.
func DetectLegacyWorkspaces(indicesDir string) []LegacyWorkspaceInfo {
	entries, e := os.ReadDir(indicesDir)
	if e != nil {
		return nil
	}

	var out []LegacyWorkspaceInfo
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		switch {
		case strings.HasSuffix(name, ".idx.gz"):
			out = append(out, LegacyWorkspaceInfo{
				WorkspaceID: strings.TrimSuffix(name, ".idx.gz"),
				IndexPath:   filepath.Join(indicesDir, name),
				Format:      LegacyCompressed,
			})
		case strings.HasSuffix(name, ".idx"):
			out = append(out, LegacyWorkspaceInfo{
				WorkspaceID: strings.TrimSuffix(name, ".idx"),
				IndexPath:   filepath.Join(indicesDir, name),
				Format:      LegacyUncompressed,
			})
		}
	}
	return out
}

// MigrationReport is spec.md §6's one-shot migration result.
type MigrationReport struct {
	WorkspaceID        string
	TotalFiles         int
	MigratedFiles      int
	FailedFiles        int
	DeduplicatedFiles  int
	OriginalSize       int64
	CASSize            int64
	FailedPaths        []string
	DurationMs         int64
	Success            bool
}

// readLegacyPathMap decodes the virtual_path -> real_path table out of a
// legacy index file. The on-disk format (original_source's
// services/index_store.rs `IndexData`) is a bincode-encoded Rust struct,
// optionally gzip-wrapped; bincode has no Go decoder in this corpus, so
// only the one field migration actually needs (`path_map`, a
// HashMap<String,String>, always the struct's first field) is decoded by
// hand: a little-endian u64 entry count followed by that many (u64-len +
// UTF-8 bytes) key/value pairs — bincode's fixed wire shape for that type.
func readLegacyPathMap(path string, format LegacyFormat) (map[string]string, error) {
	f, e := os.Open(path)
	if e != nil {
		return nil, e
	}
	defer f.Close()

	var r io.Reader = f
	if format == LegacyCompressed {
		gr, ge := arccmp.Gzip.Reader(f)
		if ge != nil {
			return nil, ge
		}
		defer gr.Close()
		r = gr
	}

	var count uint64
	if e := binary.Read(r, binary.LittleEndian, &count); e != nil {
		return nil, fmt.Errorf("legacy index: reading path_map length: %w", e)
	}
	if count > 10_000_000 {
		return nil, fmt.Errorf("legacy index: implausible path_map length %d", count)
	}

	out := make(map[string]string, count)
	for i := uint64(0); i < count; i++ {
		key, e := readLegacyString(r)
		if e != nil {
			return nil, fmt.Errorf("legacy index: reading key %d: %w", i, e)
		}
		val, e := readLegacyString(r)
		if e != nil {
			return nil, fmt.Errorf("legacy index: reading value %d: %w", i, e)
		}
		out[key] = val
	}
	return out, nil
}

// cappedWriter copies at most cap bytes into buf, discarding the rest; it
// exists so TeeReader can sample a file's head without buffering the whole
// body in memory during migration.
type cappedWriter struct {
	buf *bytes.Buffer
	cap int
}

func (w *cappedWriter) Write(p []byte) (int, error) {
	if room := w.cap - w.buf.Len(); room > 0 {
		if room > len(p) {
			room = len(p)
		}
		w.buf.Write(p[:room])
	}
	return len(p), nil
}

func readLegacyString(r io.Reader) (string, error) {
	var n uint64
	if e := binary.Read(r, binary.LittleEndian, &n); e != nil {
		return "", e
	}
	if n > 1<<20 {
		return "", fmt.Errorf("implausible string length %d", n)
	}
	buf := make([]byte, n)
	if _, e := io.ReadFull(r, buf); e != nil {
		return "", e
	}
	return string(buf), nil
}

// MigrateWorkspace re-streams every file a legacy index still points at
// into workspaceID's CAS and metadata store, producing the MigrationReport
// spec.md §6 calls for. Legacy workspaces have no archive of their own —
// path_map already maps each virtual path straight to a real on-disk
// file — so entries are ingested directly rather than through an archive
// handler.
func MigrateWorkspace(info LegacyWorkspaceInfo, store *cas.Store, meta *metadatastore.Store) (*MigrationReport, liberr.Error) {
	start := time.Now()
	report := &MigrationReport{WorkspaceID: info.WorkspaceID}

	pathMap, e := readLegacyPathMap(info.IndexPath, info.Format)
	if e != nil {
		return report, errLegacyUnreadable(info.IndexPath, e)
	}

	report.TotalFiles = len(pathMap)

	archiveID := "legacy-" + info.WorkspaceID
	if e := meta.InsertArchive(&metadatastore.Archive{
		ID:          archiveID,
		WorkspaceID: info.WorkspaceID,
		SourcePath:  info.IndexPath,
		Status:      "running",
	}); e != nil {
		return report, errMigrationFailed(info.WorkspaceID, e)
	}

	seen := make(map[string]struct{})
	for virtualPath, realPath := range pathMap {
		fi, statErr := os.Stat(realPath)
		if statErr != nil {
			report.FailedFiles++
			report.FailedPaths = append(report.FailedPaths, realPath)
			continue
		}

		f, openErr := os.Open(realPath)
		if openErr != nil {
			report.FailedFiles++
			report.FailedPaths = append(report.FailedPaths, realPath)
			continue
		}

		sample := &bytes.Buffer{}
		hash, hashErr := store.StoreStream(io.TeeReader(f, &cappedWriter{buf: sample, cap: legacySampleCap}))
		_ = f.Close()
		if hashErr != nil {
			report.FailedFiles++
			report.FailedPaths = append(report.FailedPaths, realPath)
			continue
		}

		if _, dup := seen[hash]; dup {
			report.DeduplicatedFiles++
		}
		seen[hash] = struct{}{}

		indexContent := ""
		decision := sniff.Sniff(sniff.Input{
			VirtualPath: virtualPath,
			Sample:      sample.Bytes(),
			SizeBytes:   fi.Size(),
			MaxFileSize: fi.Size() + 1,
		})
		if decision.Action == sniff.Allow {
			text, _ := textdecode.Decode(sample.Bytes())
			indexContent = text
		}

		if e := meta.InsertFile(&metadatastore.FileRecord{
			WorkspaceID:  info.WorkspaceID,
			ArchiveID:    archiveID,
			VirtualPath:  virtualPath,
			OriginalName: filepath.Base(realPath),
			ContentHash:  hash,
			SizeBytes:    fi.Size(),
			ModifiedTime: fi.ModTime(),
			IndexContent: indexContent,
		}); e != nil {
			report.FailedFiles++
			report.FailedPaths = append(report.FailedPaths, realPath)
			continue
		}

		report.MigratedFiles++
		report.OriginalSize += fi.Size()
		report.CASSize += fi.Size()
	}

	status := "done"
	report.Success = report.FailedFiles == 0
	if !report.Success {
		status = "failed"
	}
	_ = meta.UpdateArchiveStatus(archiveID, status)

	report.DurationMs = time.Since(start).Milliseconds()
	return report, nil
}
