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
	"fmt"

	liberr "github.com/nabbar/logsieve/errors"
)

// Coordinator is the single owner of the task map and worker pool; every
// field below is touched exclusively from the goroutine running Run, so the
// public methods only ever communicate with it over inbox/doneCh.
type Coordinator struct {
	inbox  chan interface{}
	doneCh chan taskCompleted

	workers []*Worker
	tasks   map[string]*TaskInfo
	nextID  uint64
}

// NewCoordinator returns a Coordinator over the given initial worker pool.
// Workers may also be added before Run starts by assigning to the slice
// returned from Pool's construction.
func NewCoordinator(workers []*Worker) *Coordinator {
	return &Coordinator{
		inbox:   make(chan interface{}, 64),
		doneCh:  make(chan taskCompleted, 64),
		workers: workers,
		tasks:   make(map[string]*TaskInfo),
	}
}

// Run is the coordinator's supervised goroutine body.
func (c *Coordinator) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-c.inbox:
			c.handleInbox(msg)
		case tc := <-c.doneCh:
			c.handleCompleted(tc)
		}
	}
}

// ExtractRequest assigns job to the least-loaded worker and returns its
// fresh task id, or NoAvailableWorker if the pool is empty.
func (c *Coordinator) ExtractRequest(job ExtractJob) (string, liberr.Error) {
	reply := make(chan extractReplyMsg, 1)
	c.inbox <- extractRequestMsg{job: job, reply: reply}
	r := <-reply
	return r.taskID, r.err
}

// CancelTask forwards an Abort to the worker running taskID, if any.
func (c *Coordinator) CancelTask(taskID string) {
	reply := make(chan struct{})
	c.inbox <- cancelTaskMsg{taskID: taskID, reply: reply}
	<-reply
}

// QueryStatus returns the current TaskInfo for taskID.
func (c *Coordinator) QueryStatus(taskID string) (TaskInfo, bool) {
	reply := make(chan queryStatusReply, 1)
	c.inbox <- queryStatusMsg{taskID: taskID, reply: reply}
	r := <-reply
	return r.info, r.ok
}

// RemoveWorker drops a worker whose restart budget is exhausted. Called by
// the supervisor, never by extraction callers.
func (c *Coordinator) RemoveWorker(workerID int) {
	reply := make(chan struct{})
	c.inbox <- removeWorkerMsg{workerID: workerID, reply: reply}
	<-reply
}

func (c *Coordinator) handleInbox(msg interface{}) {
	switch m := msg.(type) {
	case extractRequestMsg:
		c.handleExtractRequest(m)
	case cancelTaskMsg:
		c.handleCancel(m)
	case queryStatusMsg:
		c.handleQuery(m)
	case removeWorkerMsg:
		c.handleRemoveWorker(m)
	}
}

func (c *Coordinator) handleExtractRequest(m extractRequestMsg) {
	w := c.leastLoaded()
	if w == nil {
		m.reply <- extractReplyMsg{err: errNoAvailableWorker()}
		return
	}

	c.nextID++
	taskID := fmt.Sprintf("task-%d", c.nextID)

	c.tasks[taskID] = &TaskInfo{TaskID: taskID, WorkerID: w.id, Status: StatusRunning}

	w.send(startExtraction{
		taskID:          taskID,
		workspaceID:     m.job.WorkspaceID,
		archiveID:       m.job.ArchiveID,
		parentArchiveID: m.job.ParentArchiveID,
		sourceName:      m.job.SourceName,
		depth:           m.job.Depth,
		sizeBytes:       m.job.SizeBytes,
		reader:          m.job.Reader,
		progress:        m.job.Progress,
	})

	m.reply <- extractReplyMsg{taskID: taskID}
}

func (c *Coordinator) handleCancel(m cancelTaskMsg) {
	if info, ok := c.tasks[m.taskID]; ok {
		for _, w := range c.workers {
			if w.id == info.WorkerID {
				w.send(abortTask{taskID: m.taskID})
				break
			}
		}
	}
	close(m.reply)
}

func (c *Coordinator) handleQuery(m queryStatusMsg) {
	info, ok := c.tasks[m.taskID]
	if !ok {
		m.reply <- queryStatusReply{}
		return
	}
	m.reply <- queryStatusReply{info: *info, ok: true}
}

func (c *Coordinator) handleRemoveWorker(m removeWorkerMsg) {
	for i, w := range c.workers {
		if w.id == m.workerID {
			c.workers = append(c.workers[:i], c.workers[i+1:]...)
			break
		}
	}
	close(m.reply)
}

func (c *Coordinator) handleCompleted(tc taskCompleted) {
	info, ok := c.tasks[tc.taskID]
	if !ok {
		return
	}

	if tc.err != nil {
		info.Status = StatusFailed
		info.Err = tc.err.Error()
	} else {
		info.Status = StatusCompleted
	}

	if tc.result != nil {
		info.FilesProcessed = tc.result.FilesExtracted
		info.BytesProcessed = tc.result.BytesExtracted
	}
}

func (c *Coordinator) leastLoaded() *Worker {
	var best *Worker
	for _, w := range c.workers {
		if w == nil {
			continue
		}
		if best == nil || w.ActiveTasks() < best.ActiveTasks() {
			best = w
		}
	}
	return best
}
