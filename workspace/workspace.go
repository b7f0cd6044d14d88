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

// Package workspace wires cas, metadatastore, extraction/actor, tailwatch,
// cleanup, ratelimit, prometheus and search into the single operational
// surface spec.md §6 describes: one workspace, one on-disk root, one set of
// import/search/tail/verify operations.
package workspace

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/nabbar/logsieve/actor"
	"github.com/nabbar/logsieve/cleanup"
	"github.com/nabbar/logsieve/config"
	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/extraction"
	"github.com/nabbar/logsieve/logger"
	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/nestedarchive"
	"github.com/nabbar/logsieve/pathsafety"
	"github.com/nabbar/logsieve/prometheus"
	"github.com/nabbar/logsieve/ratelimit"
	"github.com/nabbar/logsieve/runner/startStop"
	"github.com/nabbar/logsieve/search"
	"github.com/nabbar/logsieve/tailwatch"
)

// Workspace is one opened workspace: every package this module exposes,
// wired around a single on-disk root and ready to drive spec.md §6's
// operational surface.
type Workspace struct {
	cfg config.Workspace
	log logger.FuncLog

	manager  *config.Manager
	casComp  *casComponent
	metaComp *metaComponent

	pool       *actor.Pool
	watcher    *tailwatch.Watcher
	watcherCtl startStop.StartStop
	cleanupQ   *cleanup.Queue
	cleanupCtl startStop.StartStop

	planner  *search.Planner
	limiters *ratelimit.Limiters
	metrics  *prometheus.Registry

	open bool
}

func defaultLog() logger.Logger {
	return logger.New(context.Background())
}

// New validates cfg and builds (but does not start) a Workspace. log may
// be nil, in which case a default stdout-level logger is used.
func New(cfg config.Workspace, log logger.FuncLog) (*Workspace, liberr.Error) {
	if err := cfg.Validate(); err != nil {
		return nil, errInvalidConfig(err)
	}
	if log == nil {
		log = defaultLog
	}

	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, errInvalidConfig(liberr.Make(err))
	}

	w := &Workspace{
		cfg:      cfg,
		log:      log,
		manager:  config.NewManager(),
		casComp:  newCASComponent(cfg.Root),
		metaComp: newMetaComponent(cfg.Root),
		limiters: ratelimit.NewLimiters(
			ratelimit.Config{Class: "import", RequestsPerMinute: 60, Burst: 10},
			ratelimit.Config{Class: "search", RequestsPerMinute: 600, Burst: 50},
			ratelimit.Config{Class: "workspace", RequestsPerMinute: 30, Burst: 5},
		),
		metrics: prometheus.New(),
	}

	w.manager.Register(w.casComp)
	w.manager.Register(w.metaComp)

	return w, nil
}

// Open starts the CAS and metadata-store components, then the extraction
// pool, tail watcher and cleanup queue on top of them, mirroring
// config.Manager's registration-ordered startup.
func (w *Workspace) Open(ctx context.Context) liberr.Error {
	if w.open {
		return errAlreadyOpen(w.cfg.ID)
	}

	if err := w.manager.Start(); err != nil {
		return err
	}

	store := w.casComp.store
	meta := w.metaComp.store

	policy := extraction.Policy{
		MaxFileSize:      w.cfg.Extract.MaxFileSize,
		MaxTotalSize:      w.cfg.Extract.MaxTotalSize,
		MaxFileCount:      w.cfg.Extract.MaxFileCount,
		MaxParallelFiles:  int64(w.cfg.Extract.MaxParallelFiles),
		BufferSize:        w.cfg.Extract.BufferSize,
		DirBatchSize:      w.cfg.Extract.DirBatchSize,
		Security: pathsafety.Policy{
			RejectAbsolutePaths: w.cfg.Security.RejectAbsolutePaths,
			RejectParentRefs:    w.cfg.Security.RejectParentRefs,
			RejectReservedNames: w.cfg.Security.RejectReservedNames,
			RejectNullBytes:     w.cfg.Security.RejectNullBytes,
			MaxPathLength:       w.cfg.Security.MaxPathLength,
			MaxComponentLength:  w.cfg.Security.MaxComponentLength,
		},
		Nested: nestedarchive.Policy{
			MaxDepth:                    w.cfg.Extract.MaxDepth,
			MinDepth:                    w.cfg.Extract.MinDepth,
			DepthReductionStep:          w.cfg.Extract.DepthReductionStep,
			FileCountThreshold:          w.cfg.Extract.FileCountThreshold,
			TotalSizeThreshold:          w.cfg.Extract.TotalSizeThreshold,
			CompressionRatioThreshold:   w.cfg.Extract.CompressionRatioThreshold,
			ExponentialBackoffThreshold: w.cfg.Extract.ExponentialBackoffThreshold,
		},
	}

	w.pool = actor.NewPool(w.cfg.WorkerCount, 3, func(workerID int) *extraction.Engine {
		return extraction.New(store, meta, policy)
	})

	watcher, werr := tailwatch.New(store, meta)
	if werr != nil {
		_ = w.manager.Stop()
		return werr
	}
	w.watcher = watcher
	w.watcherCtl = startStop.New(watcher.Run, func(ctx context.Context) error {
		return watcher.Close()
	})

	w.cleanupQ = cleanup.NewQueue()
	w.cleanupCtl = startStop.New(w.cleanupQ.Run, func(ctx context.Context) error { return nil })

	w.planner = search.NewPlanner(meta, w.limiters.Search)

	if err := w.pool.Start(ctx); err != nil {
		_ = w.manager.Stop()
		return liberr.Make(err)
	}
	if err := w.watcherCtl.Start(ctx); err != nil {
		return liberr.Make(err)
	}
	if err := w.cleanupCtl.Start(ctx); err != nil {
		return liberr.Make(err)
	}

	w.open = true
	w.log().Info("workspace %s opened at %s", nil, w.cfg.ID, w.cfg.Root)
	return nil
}

// Close stops every supervised component in reverse startup order.
func (w *Workspace) Close(ctx context.Context) liberr.Error {
	if !w.open {
		return errNotOpen(w.cfg.ID)
	}

	_ = w.cleanupCtl.Stop(ctx)
	_ = w.watcherCtl.Stop(ctx)
	_ = w.pool.Stop(ctx)

	err := w.manager.Stop()
	w.open = false
	return err
}

// ImportArchive submits path for extraction, returning its task id
// immediately; progress is observed via QueryTaskStatus.
func (w *Workspace) ImportArchive(path string) (string, liberr.Error) {
	if !w.open {
		return "", errNotOpen(w.cfg.ID)
	}
	if err := ratelimit.Check(w.limiters.Import, "import"); err != nil {
		return "", err
	}

	f, e := os.Open(path)
	if e != nil {
		return "", errImportFailed(path, e)
	}

	fi, e := f.Stat()
	if e != nil {
		_ = f.Close()
		return "", errImportFailed(path, e)
	}

	archiveID := extraction.NewArchiveID()
	progress := make(chan actor.ProgressUpdate, 1)

	taskID, err := w.pool.Coordinator().ExtractRequest(actor.ExtractJob{
		WorkspaceID: w.cfg.ID,
		ArchiveID:   archiveID,
		SourceName:  filepath.Base(path),
		SizeBytes:   fi.Size(),
		Reader:      f,
		Progress:    progress,
	})
	if err != nil {
		_ = f.Close()
		return "", err
	}

	go w.observeImport(f, progress)

	return taskID, nil
}

// observeImport drains one task's terminal progress update, closes the
// source file and folds the result into the process-wide metrics registry.
func (w *Workspace) observeImport(f *os.File, progress <-chan actor.ProgressUpdate) {
	defer f.Close()

	update, ok := <-progress
	if !ok {
		return
	}

	if update.Status != actor.StatusCompleted {
		return
	}

	w.metrics.IncArchiveImported()
	w.metrics.AddFilesExtracted(update.FilesProcessed)
	w.metrics.AddBytesExtracted(update.BytesProcessed)
	for _, warn := range update.Warnings {
		if reason, ok := rejectionReason(warn); ok {
			w.metrics.IncEntryRejected(reason)
		}
	}
}

// rejectionReason extracts the sniff rejection reason from a
// "sniff-reject:<reason>:<path>" warning string, per extraction.Engine's
// warning format.
func rejectionReason(warn string) (string, bool) {
	const prefix = "sniff-reject:"
	if len(warn) <= len(prefix) || warn[:len(prefix)] != prefix {
		return "", false
	}
	rest := warn[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			return rest[:i], true
		}
	}
	return rest, true
}

// CancelTask requests cancellation of a running or queued task.
func (w *Workspace) CancelTask(taskID string) {
	if !w.open {
		return
	}
	w.pool.Coordinator().CancelTask(taskID)
}

// QueryTaskStatus returns taskID's current status.
func (w *Workspace) QueryTaskStatus(taskID string) (actor.TaskInfo, bool) {
	if !w.open {
		return actor.TaskInfo{}, false
	}
	return w.pool.Coordinator().QueryStatus(taskID)
}

// Search runs query against the workspace's full-text index.
func (w *Workspace) Search(ctx context.Context, query string, limit, offset int, timeout time.Duration) (*search.Result, liberr.Error) {
	if !w.open {
		return nil, errNotOpen(w.cfg.ID)
	}
	res, err := w.planner.Search(ctx, query, limit, offset, timeout)
	if err == nil {
		w.metrics.IncSearchExecuted()
	}
	return res, err
}

// TailStart begins live-tailing path, whose content already lives at
// archiveID/virtualPath with offset bytes already imported.
func (w *Workspace) TailStart(path, archiveID, virtualPath string, offset int64) liberr.Error {
	if !w.open {
		return errNotOpen(w.cfg.ID)
	}
	return w.watcher.Track(path, archiveID, virtualPath, offset)
}

// TailStop stops live-tailing path.
func (w *Workspace) TailStop(path string) {
	if !w.open {
		return
	}
	w.watcher.Untrack(path)
}

// MetricsSnapshot records and returns the current archive/file/byte totals,
// feeding both the metadata store's snapshot history and the process-wide
// Prometheus gauges.
func (w *Workspace) MetricsSnapshot() (*metadatastore.MetricsSnapshot, liberr.Error) {
	if !w.open {
		return nil, errNotOpen(w.cfg.ID)
	}
	snap, err := w.metaComp.store.SnapshotMetrics(w.cfg.ID)
	if err != nil {
		return nil, err
	}
	w.metrics.ObserveSnapshot(snap)
	return snap, nil
}

// MetricsHandler exposes the workspace's Prometheus registry for scraping.
func (w *Workspace) MetricsHandler() http.Handler {
	return w.metrics.Handler()
}

// Statistics surfaces the search-statistics supplement alongside the
// metrics snapshot.
func (w *Workspace) Statistics(topN int) (*metadatastore.SearchStatistics, liberr.Error) {
	if !w.open {
		return nil, errNotOpen(w.cfg.ID)
	}
	return w.planner.Statistics(topN)
}

// DetectLegacy scans the workspace's indices directory for pre-CAS
// workspaces that still need MigrateWorkspace run against them.
func (w *Workspace) DetectLegacy() []LegacyWorkspaceInfo {
	return DetectLegacyWorkspaces(filepath.Join(w.cfg.Root, "indices"))
}

// MigrateLegacy re-ingests a detected legacy workspace into this
// workspace's CAS and metadata store.
func (w *Workspace) MigrateLegacy(info LegacyWorkspaceInfo) (*MigrationReport, liberr.Error) {
	if !w.open {
		return nil, errNotOpen(w.cfg.ID)
	}
	return MigrateWorkspace(info, w.casComp.store, w.metaComp.store)
}

// Verify checks CAS/metadata-store integrity, pruning orphaned objects
// when prune is true.
func (w *Workspace) Verify(prune bool) (*ValidationReport, liberr.Error) {
	if !w.open {
		return nil, errNotOpen(w.cfg.ID)
	}
	return VerifyWorkspace(w.cfg.ID, w.casComp.store, w.metaComp.store, prune)
}
