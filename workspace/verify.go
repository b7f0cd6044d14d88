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
	"time"

	"github.com/nabbar/logsieve/cas"
	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/metadatastore"
)

// ValidationReport is spec.md §6's integrity-check result: every CAS object
// the metadata store still references is re-hashed. Unreferenced CAS
// objects are only looked for when prune is requested; those found are
// then deleted and listed in OrphanObjects. Without prune, orphans are not
// reported.
type ValidationReport struct {
	WorkspaceID     string
	ObjectsChecked  int
	MissingObjects  []string
	CorruptObjects  []string
	OrphanObjects   []string
	Pruned          int
	DurationMs      int64
	Success         bool
}

// VerifyWorkspace re-hashes every CAS object workspaceID's metadata still
// references and, when prune is true, removes objects nothing references.
func VerifyWorkspace(workspaceID string, store *cas.Store, meta *metadatastore.Store, prune bool) (*ValidationReport, liberr.Error) {
	start := time.Now()
	report := &ValidationReport{WorkspaceID: workspaceID}

	hashes, err := meta.AllContentHashes(workspaceID)
	if err != nil {
		return report, errVerifyFailed(workspaceID, err)
	}
	report.ObjectsChecked = len(hashes)

	live := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		live[h] = struct{}{}

		if verr := store.Verify(h); verr != nil {
			if verr.IsCode(cas.CodeNotFound) {
				report.MissingObjects = append(report.MissingObjects, h)
			} else {
				report.CorruptObjects = append(report.CorruptObjects, h)
			}
		}
	}

	if prune {
		orphans, oerr := store.CollectOrphans(live)
		if oerr != nil {
			return report, errVerifyFailed(workspaceID, oerr)
		}
		report.OrphanObjects = orphans
		report.Pruned = len(orphans)
	}

	report.Success = len(report.MissingObjects) == 0 && len(report.CorruptObjects) == 0
	report.DurationMs = time.Since(start).Milliseconds()
	return report, nil
}
