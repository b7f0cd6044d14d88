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

// Package actor implements the message-passing extraction runtime of
// spec.md §4.8: a single Coordinator assigns ExtractRequest jobs to the
// least-loaded Extractor worker, a Supervisor pings every worker on an
// interval and restarts the unresponsive ones up to a restart budget, and a
// ProgressFanOut throttles per-task progress updates to the caller's sink.
// Every cross-goroutine interaction is a channel send; no field here is
// touched by more than one goroutine.
package actor

import (
	"io"

	liberr "github.com/nabbar/logsieve/errors"
	"github.com/nabbar/logsieve/extraction"
)

// TaskStatus is the lifecycle state of one extraction task.
type TaskStatus string

const (
	StatusPending   TaskStatus = "pending"
	StatusRunning   TaskStatus = "running"
	StatusCompleted TaskStatus = "completed"
	StatusFailed    TaskStatus = "failed"
	StatusCancelled TaskStatus = "cancelled"
)

// Terminal reports whether no further updates will follow this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// ProgressUpdate is one delta describing a task's progress so far.
type ProgressUpdate struct {
	TaskID         string
	Status         TaskStatus
	FilesProcessed int
	BytesProcessed int64
	Warnings       []string
}

// ExtractJob is everything a worker needs to run one extraction, handed to
// the coordinator via ExtractRequest.
type ExtractJob struct {
	WorkspaceID     string
	ArchiveID       string
	ParentArchiveID string
	SourceName      string
	Depth           int
	SizeBytes       int64
	Reader          io.Reader
	Progress        chan<- ProgressUpdate
}

// TaskInfo is the coordinator's public view of one task, returned by
// QueryStatus.
type TaskInfo struct {
	TaskID         string
	WorkerID       int
	Status         TaskStatus
	FilesProcessed int
	BytesProcessed int64
	Err            string
}

// startExtraction is the internal message a worker receives to begin a job.
type startExtraction struct {
	taskID          string
	workspaceID     string
	archiveID       string
	parentArchiveID string
	sourceName      string
	depth           int
	sizeBytes       int64
	reader          io.Reader
	progress        chan<- ProgressUpdate
}

// abortTask tells a worker to cancel the task it is currently running.
type abortTask struct {
	taskID string
}

// pingWorker is the liveness probe the supervisor sends each worker.
type pingWorker struct {
	reply chan<- struct{}
}

// taskCompleted is what a worker sends back to the coordinator once an
// extraction (successful, failed or aborted) returns.
type taskCompleted struct {
	taskID   string
	workerID int
	result   *extraction.Result
	err      liberr.Error
}

type extractRequestMsg struct {
	job   ExtractJob
	reply chan extractReplyMsg
}

type extractReplyMsg struct {
	taskID string
	err    liberr.Error
}

type cancelTaskMsg struct {
	taskID string
	reply  chan struct{}
}

type queryStatusMsg struct {
	taskID string
	reply  chan queryStatusReply
}

type queryStatusReply struct {
	info TaskInfo
	ok   bool
}

type removeWorkerMsg struct {
	workerID int
	reply    chan struct{}
}
