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
	"os"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	spfcbr "github.com/spf13/cobra"

	"github.com/nabbar/logsieve/actor"
)

func newImportCommand() *spfcbr.Command {
	return &spfcbr.Command{
		Use:   "import <archive>",
		Short: "Extract an archive into the workspace's content-addressable store",
		Args:  spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			path := args[0]

			fi, e := os.Stat(path)
			if e != nil {
				return e
			}

			w, closer, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closer()

			taskID, err := w.ImportArchive(path)
			if err != nil {
				return err
			}

			progress := mpb.New(mpb.WithWidth(60))
			bar := progress.AddBar(fi.Size(),
				mpb.PrependDecorators(decor.Name(path)),
				mpb.AppendDecorators(decor.Percentage()),
			)

			var lastBytes int64
			for {
				info, ok := w.QueryTaskStatus(taskID)
				if !ok {
					break
				}
				bar.SetCurrent(info.BytesProcessed)
				lastBytes = info.BytesProcessed

				switch info.Status {
				case actor.StatusCompleted:
					bar.SetCurrent(fi.Size())
					progress.Wait()
					fmt.Printf("imported %d files, %d bytes\n", info.FilesProcessed, lastBytes)
					return nil
				case actor.StatusFailed:
					progress.Wait()
					return fmt.Errorf("import failed: %s", info.Err)
				case actor.StatusCancelled:
					progress.Wait()
					return fmt.Errorf("import cancelled")
				}

				time.Sleep(50 * time.Millisecond)
			}

			progress.Wait()
			return nil
		},
	}
}
