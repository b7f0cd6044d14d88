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
	"time"

	spfcbr "github.com/spf13/cobra"
)

func newSearchCommand() *spfcbr.Command {
	var limit, offset int
	var timeout time.Duration

	cmd := &spfcbr.Command{
		Use:   "search <query>",
		Short: "Run a full-text query against the workspace's search index",
		Args:  spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			ctx := rootContext()
			res, err := w.Search(ctx, args[0], limit, offset, timeout)
			if err != nil {
				return err
			}

			for _, e := range res.Entries {
				fmt.Printf("%s\t%s\t%s\t%s\n", e.Timestamp, e.Level, e.File, e.Content)
			}
			fmt.Printf("-- %d/%d results in %s\n", len(res.Entries), res.Total, res.Duration)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "result offset for pagination")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "search timeout")

	return cmd
}
