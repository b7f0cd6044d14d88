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

package actor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/nabbar/logsieve/extraction"
	libsrv "github.com/nabbar/logsieve/runner"
)

// Worker owns one extraction engine and processes messages from its mailbox
// one at a time. StartExtraction hands the actual extraction off to a
// background goroutine so Ping and Abort keep getting answered while it
// runs. Each StartExtraction gets its own goroutine, so a worker handed a
// second task while one is running runs both at once.
type Worker struct {
	id      int
	engine  *extraction.Engine
	mailbox chan interface{}
	done    chan<- taskCompleted

	active    atomic.Int32
	abortFlag atomic.Bool
}

// NewWorker returns a Worker bound to engine, reporting completed tasks on
// done.
func NewWorker(id int, engine *extraction.Engine, done chan<- taskCompleted) *Worker {
	return &Worker{
		id:      id,
		engine:  engine,
		mailbox: make(chan interface{}, 16),
		done:    done,
	}
}

// ID returns the worker's stable identifier within its pool.
func (w *Worker) ID() int { return w.id }

// ActiveTasks reports how many extractions this worker currently runs,
// used by the coordinator to pick the least-loaded worker.
func (w *Worker) ActiveTasks() int32 { return w.active.Load() }

func (w *Worker) send(msg interface{}) {
	w.mailbox <- msg
}

// Ping blocks until the worker's mailbox loop has acknowledged, or timeout
// elapses. A false return is a liveness failure for the supervisor.
func (w *Worker) Ping(timeout time.Duration) bool {
	reply := make(chan struct{})

	select {
	case w.mailbox <- pingWorker{reply: reply}:
	case <-time.After(timeout):
		return false
	}

	select {
	case <-reply:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Run is the worker's supervised goroutine body (runner/startStop.FuncStart):
// it drains the mailbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-w.mailbox:
			w.handle(ctx, msg)
		}
	}
}

func (w *Worker) handle(ctx context.Context, msg interface{}) {
	switch m := msg.(type) {
	case startExtraction:
		w.handleStart(ctx, m)
	case abortTask:
		w.abortFlag.Store(true)
	case pingWorker:
		close(m.reply)
	}
}

func (w *Worker) handleStart(ctx context.Context, m startExtraction) {
	w.active.Add(1)
	w.abortFlag.Store(false)

	go func() {
		defer func() {
			libsrv.RecoveryCaller("actor/worker/extract", recover())
			w.active.Add(-1)
		}()

		cctx, cancel := context.WithCancel(ctx)
		defer cancel()

		abortCheck := time.NewTicker(50 * time.Millisecond)
		defer abortCheck.Stop()

		go func() {
			for {
				select {
				case <-cctx.Done():
					return
				case <-abortCheck.C:
					if w.abortFlag.Load() {
						cancel()
						return
					}
				}
			}
		}()

		res, err := w.engine.Extract(cctx, m.workspaceID, m.archiveID, m.parentArchiveID, m.sourceName, m.depth, m.sizeBytes, m.reader)

		status := StatusCompleted
		switch {
		case err != nil:
			status = StatusFailed
		case w.abortFlag.Load():
			status = StatusCancelled
		}

		if m.progress != nil {
			update := ProgressUpdate{TaskID: m.taskID, Status: status}
			if res != nil {
				update.FilesProcessed = res.FilesExtracted
				update.BytesProcessed = res.BytesExtracted
				update.Warnings = res.Warnings
			}
			select {
			case m.progress <- update:
			default:
			}
		}

		w.done <- taskCompleted{taskID: m.taskID, workerID: w.id, result: res, err: err}
	}()
}
