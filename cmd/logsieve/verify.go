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

func newVerifyCommand() *spfcbr.Command {
	var prune bool

	cmd := &spfcbr.Command{
		Use:   "verify",
		Short: "Check content-addressable store and metadata-store integrity",
		RunE: func(cmd *spfcbr.Command, args []string) error {
			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			report, err := w.Verify(prune)
			if err != nil {
				return err
			}

			fmt.Printf("checked %d objects\n", report.ObjectsChecked)
			if len(report.MissingObjects) > 0 {
				fmt.Printf("missing: %v\n", report.MissingObjects)
			}
			if len(report.CorruptObjects) > 0 {
				fmt.Printf("corrupt: %v\n", report.CorruptObjects)
			}
			if prune {
				fmt.Printf("pruned %d orphan objects\n", report.Pruned)
			}
			if report.Success {
				fmt.Println("OK")
			} else {
				fmt.Println("FAILED")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "delete orphaned content-addressable objects")
	return cmd
}
