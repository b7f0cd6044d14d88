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

package prometheus_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nabbar/logsieve/metadatastore"
	"github.com/nabbar/logsieve/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegistryExposesCounters(t *testing.T) {
	r := prometheus.New()
	r.IncArchiveImported()
	r.AddFilesExtracted(3)
	r.AddBytesExtracted(1024)
	r.IncSearchExecuted()
	r.IncEntryRejected("BinaryFile")
	r.ObserveSnapshot(&metadatastore.MetricsSnapshot{ArchiveCount: 1, FileCount: 3, TotalBytes: 1024})

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := make([]byte, 8192)
	n, _ := resp.Body.Read(body)
	text := string(body[:n])

	require.Contains(t, text, "logsieve_archives_imported_total 1")
	require.Contains(t, text, "logsieve_files_extracted_total 3")
	require.True(t, strings.Contains(text, "logsieve_entries_rejected_total"))
}

func TestDedupeFilterNeverFalseNegative(t *testing.T) {
	f := prometheus.NewDedupeFilter(100)

	hash := "a3f5e1c2b4d6a8f9e0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3"
	require.False(t, f.MightContain(hash))

	f.Add(hash)
	require.True(t, f.MightContain(hash))

	hit, miss := f.Stats()
	require.Equal(t, int64(1), hit)
	require.Equal(t, int64(1), miss)
}
