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

// Package prometheus is the single process-wide metrics registry named in
// spec.md §5's "no singletons beyond a process-wide metrics registry,
// which is initialized once at startup". It exposes counters fed by the
// extraction/search paths and gauges set from each metrics snapshot the
// workspace records (workspace.MetricsSnapshot, called on demand).
package prometheus

import (
	"net/http"

	libprom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nabbar/logsieve/metadatastore"
)

// Registry wraps a dedicated *prometheus.Registry (never the global
// DefaultRegisterer) so tests and multiple processes in the same binary
// never collide on metric registration.
type Registry struct {
	reg *libprom.Registry

	archivesImported libprom.Counter
	filesExtracted   libprom.Counter
	bytesExtracted   libprom.Counter
	searchesExecuted libprom.Counter
	entriesRejected  *libprom.CounterVec

	archiveCount libprom.Gauge
	fileCount    libprom.Gauge
	totalBytes   libprom.Gauge
}

// New creates and registers every metric once. Call it a single time at
// process startup and share the returned Registry.
func New() *Registry {
	r := &Registry{
		reg: libprom.NewRegistry(),
		archivesImported: libprom.NewCounter(libprom.CounterOpts{
			Name: "logsieve_archives_imported_total",
			Help: "Archives (including nested) successfully extracted.",
		}),
		filesExtracted: libprom.NewCounter(libprom.CounterOpts{
			Name: "logsieve_files_extracted_total",
			Help: "Logical files written to the content-addressable store.",
		}),
		bytesExtracted: libprom.NewCounter(libprom.CounterOpts{
			Name: "logsieve_bytes_extracted_total",
			Help: "Bytes of extracted file content written to the CAS.",
		}),
		searchesExecuted: libprom.NewCounter(libprom.CounterOpts{
			Name: "logsieve_searches_executed_total",
			Help: "Search queries executed against the FTS5 index.",
		}),
		entriesRejected: libprom.NewCounterVec(libprom.CounterOpts{
			Name: "logsieve_entries_rejected_total",
			Help: "Archive entries rejected by sniff admission, by reason.",
		}, []string{"reason"}),
		archiveCount: libprom.NewGauge(libprom.GaugeOpts{
			Name: "logsieve_archive_count",
			Help: "Archives recorded as of the last metrics snapshot.",
		}),
		fileCount: libprom.NewGauge(libprom.GaugeOpts{
			Name: "logsieve_file_count",
			Help: "Files recorded as of the last metrics snapshot.",
		}),
		totalBytes: libprom.NewGauge(libprom.GaugeOpts{
			Name: "logsieve_total_bytes",
			Help: "Total extracted bytes as of the last metrics snapshot.",
		}),
	}

	r.reg.MustRegister(
		r.archivesImported, r.filesExtracted, r.bytesExtracted,
		r.searchesExecuted, r.entriesRejected,
		r.archiveCount, r.fileCount, r.totalBytes,
	)
	return r
}

// IncArchiveImported records one archive (or nested sub-archive) fully
// extracted.
func (r *Registry) IncArchiveImported() {
	r.archivesImported.Inc()
}

// AddFilesExtracted records n logical files written to the CAS.
func (r *Registry) AddFilesExtracted(n int) {
	r.filesExtracted.Add(float64(n))
}

// AddBytesExtracted records n bytes of extracted content.
func (r *Registry) AddBytesExtracted(n int64) {
	r.bytesExtracted.Add(float64(n))
}

// IncSearchExecuted records one completed search query.
func (r *Registry) IncSearchExecuted() {
	r.searchesExecuted.Inc()
}

// IncEntryRejected records one archive entry skipped by sniff admission,
// labeled by its rejection reason.
func (r *Registry) IncEntryRejected(reason string) {
	r.entriesRejected.WithLabelValues(reason).Inc()
}

// ObserveSnapshot sets the gauges to one metrics snapshot's counters.
func (r *Registry) ObserveSnapshot(snap *metadatastore.MetricsSnapshot) {
	if snap == nil {
		return
	}
	r.archiveCount.Set(float64(snap.ArchiveCount))
	r.fileCount.Set(float64(snap.FileCount))
	r.totalBytes.Set(float64(snap.TotalBytes))
}

// Handler returns the HTTP handler a process can mount at /metrics.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
