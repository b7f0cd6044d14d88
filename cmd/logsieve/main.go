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

// Command logsieve drives one workspace's import/search/tail/verify surface
// (spec.md §6) from the shell.
package main

import (
	"fmt"
	"os"

	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/logsieve/config"
	"github.com/nabbar/logsieve/workspace"
)

var (
	flagWorkspaceID string
	flagRoot        string

	openWorkspace func() (*workspace.Workspace, func(), error)
)

func main() {
	root := &spfcbr.Command{
		Use:   "logsieve",
		Short: "Import, search and tail log archives through a content-addressable workspace",
	}

	root.PersistentFlags().StringVar(&flagWorkspaceID, "workspace-id", "default", "workspace identifier")
	root.PersistentFlags().StringVar(&flagRoot, "root", "./logsieve-data", "workspace on-disk root")

	root.AddCommand(
		newImportCommand(),
		newSearchCommand(),
		newTailCommand(),
		newVerifyCommand(),
		newMigrateCommand(),
		newMetricsCommand(),
	)

	openWorkspace = func() (*workspace.Workspace, func(), error) {
		cfg := config.DefaultWorkspace(flagWorkspaceID, flagRoot)
		w, err := workspace.New(cfg, nil)
		if err != nil {
			return nil, nil, err
		}
		if err := w.Open(rootContext()); err != nil {
			return nil, nil, err
		}
		closer := func() { _ = w.Close(rootContext()) }
		return w, closer, nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
