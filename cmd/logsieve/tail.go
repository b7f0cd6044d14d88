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

func newTailCommand() *spfcbr.Command {
	root := &spfcbr.Command{
		Use:   "tail",
		Short: "Track or untrack a live-growing log file",
	}

	var offset int64
	start := &spfcbr.Command{
		Use:   "start <path> <archive-id> <virtual-path>",
		Short: "Start live-tailing path, appending new lines under archive-id/virtual-path",
		Args:  spfcbr.ExactArgs(3),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			if err := w.TailStart(args[0], args[1], args[2], offset); err != nil {
				return err
			}
			fmt.Println("tailing", args[0])
			return nil
		},
	}
	start.Flags().Int64Var(&offset, "offset", 0, "byte offset already imported")

	stop := &spfcbr.Command{
		Use:   "stop <path>",
		Short: "Stop live-tailing path",
		Args:  spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			w.TailStop(args[0])
			fmt.Println("stopped tailing", args[0])
			return nil
		},
	}

	root.AddCommand(start, stop)
	return root
}
