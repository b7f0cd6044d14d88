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

package main

import (
	"fmt"
	"net/http"

	spfcbr "github.com/spf13/cobra"
)

func newMetricsCommand() *spfcbr.Command {
	var topN int
	var serveAddr string

	cmd := &spfcbr.Command{
		Use:   "metrics",
		Short: "Snapshot workspace metrics, or serve them for Prometheus scraping",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			snap, err := w.MetricsSnapshot()
			if err != nil {
				return err
			}
			fmt.Printf("archives=%d files=%d bytes=%d searches=%d taken_at=%s\n",
				snap.ArchiveCount, snap.FileCount, snap.TotalBytes, snap.SearchCount, snap.TakenAt)

			stats, err := w.Statistics(topN)
			if err != nil {
				return err
			}
			fmt.Printf("total_searches=%d average_results=%.2f\n", stats.TotalSearches, stats.AverageResults)
			for _, q := range stats.SlowestQueries {
				fmt.Printf("  slow query %q: %dms, %d results\n", q.Query, q.DurationMs, q.ResultCnt)
			}

			if serveAddr == "" {
				return nil
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", w.MetricsHandler())
			fmt.Printf("serving /metrics on %s\n", serveAddr)
			return http.ListenAndServe(serveAddr, mux)
		},
	}

	cmd.Flags().IntVar(&topN, "top", 10, "number of slowest queries to report")
	cmd.Flags().StringVar(&serveAddr, "serve", "", "if set, serve Prometheus metrics on this address (e.g. :9090) instead of exiting")

	return cmd
}
