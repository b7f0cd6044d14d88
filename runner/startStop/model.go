/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package startStop provides a generic supervised goroutine: a start
// function that runs until its context is cancelled and a stop function
// that tears it down, wrapped with uptime tracking and error history.
package startStop

import (
	"context"
	"fmt"
	"sync"
	"time"

	libsrv "github.com/nabbar/logsieve/runner"
)

// FuncStart is the long-running body of a StartStop instance. It must
// return once ctx is cancelled.
type FuncStart func(ctx context.Context) error

// FuncStop tears down whatever FuncStart set up.
type FuncStop func(ctx context.Context) error

// StartStop supervises a single start/stop goroutine pair, exposing
// lifecycle state, uptime and the error history of the current run.
type StartStop interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Restart(ctx context.Context) error
	IsRunning() bool
	Uptime() time.Duration
	ErrorsLast() error
	ErrorsList() []error
}

type runnerModel struct {
	fnStart FuncStart
	fnStop  FuncStop

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	stopOnce  *sync.Once

	errMu   sync.Mutex
	errList []error
}

// New returns a StartStop wrapping the given start/stop functions. Either
// may be nil; calling Start/Stop will then record an "invalid ... function"
// error instead of panicking.
func New(start FuncStart, stop FuncStop) StartStop {
	return &runnerModel{
		fnStart: start,
		fnStop:  stop,
	}
}

func (r *runnerModel) addErr(err error) {
	if err == nil {
		return
	}
	r.errMu.Lock()
	r.errList = append(r.errList, err)
	r.errMu.Unlock()
}

func (r *runnerModel) ErrorsLast() error {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	if len(r.errList) == 0 {
		return nil
	}
	return r.errList[len(r.errList)-1]
}

func (r *runnerModel) ErrorsList() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()

	out := make([]error, len(r.errList))
	copy(out, r.errList)
	return out
}

func (r *runnerModel) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *runnerModel) Uptime() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running || r.startedAt.IsZero() {
		return 0
	}
	return time.Since(r.startedAt)
}

// Start stops whatever run is currently in flight, clears the error
// history and launches a fresh goroutine for FuncStart. It always
// returns nil: failures surface asynchronously via ErrorsLast/ErrorsList.
func (r *runnerModel) Start(ctx context.Context) error {
	r.doStop(ctx)

	r.errMu.Lock()
	r.errList = nil
	r.errMu.Unlock()

	cctx, cancel := context.WithCancel(ctx)

	r.mu.Lock()
	r.cancel = cancel
	r.stopOnce = &sync.Once{}
	r.startedAt = time.Now()
	r.running = true
	r.mu.Unlock()

	go r.run(cctx)

	return nil
}

func (r *runnerModel) run(ctx context.Context) {
	defer func() {
		libsrv.RecoveryCaller("runner/startStop/run", recover())

		r.mu.Lock()
		r.running = false
		r.startedAt = time.Time{}
		r.mu.Unlock()
	}()

	var err error
	if r.fnStart == nil {
		err = fmt.Errorf("invalid start function")
	} else {
		err = r.fnStart(ctx)
	}

	r.addErr(err)
}

// Stop cancels the current run's context and invokes FuncStop exactly
// once per run. Safe to call when not running or more than once; it
// always returns nil, recording failures in the error history instead.
func (r *runnerModel) Stop(ctx context.Context) error {
	r.doStop(ctx)
	return nil
}

func (r *runnerModel) doStop(ctx context.Context) {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}

	cancel := r.cancel
	once := r.stopOnce
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if once == nil {
		return
	}

	once.Do(func() {
		defer func() {
			libsrv.RecoveryCaller("runner/startStop/stop", recover())
		}()

		var err error
		if r.fnStop == nil {
			err = fmt.Errorf("invalid stop function")
		} else {
			err = r.fnStop(ctx)
		}

		r.addErr(err)
	})
}

// Restart stops the current run (if any) and starts a new one.
func (r *runnerModel) Restart(ctx context.Context) error {
	_ = r.Stop(ctx)
	return r.Start(ctx)
}
