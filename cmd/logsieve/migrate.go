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

	spfcbr "github.com/spf13/cobra"
)

func newMigrateCommand() *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "migrate",
		Short: "Detect and re-ingest legacy (pre-CAS) workspaces found under the workspace root",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			infos := w.DetectLegacy()
			if len(infos) == 0 {
				fmt.Println("no legacy workspaces found")
				return nil
			}

			for _, info := range infos {
				report, err := w.MigrateLegacy(info)
				if err != nil {
					fmt.Printf("%s: FAILED: %s\n", info.WorkspaceID, err)
					continue
				}
				fmt.Printf("%s: migrated %d/%d files (%d deduplicated, %d failed) in %dms\n",
					info.WorkspaceID, report.MigratedFiles, report.TotalFiles,
					report.DeduplicatedFiles, report.FailedFiles, report.DurationMs)
			}
			return nil
		},
	}
}
