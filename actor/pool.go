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

	"github.com/nabbar/logsieve/extraction"
	"github.com/nabbar/logsieve/runner/startStop"
)

// Pool wires a Coordinator, its Extractor workers and a Supervisor into one
// startable unit, mirroring config.Manager's component-lifecycle pattern
// applied to the extraction runtime.
type Pool struct {
	coordinator *Coordinator
	supervisor  *Supervisor

	coordinatorCtl startStop.StartStop
	supervisorCtl  startStop.StartStop
	workerCtls     []startStop.StartStop
}

var noopStop = func(ctx context.Context) error { return nil }

// NewPool builds a pool of workerCount extractor workers, each wrapping one
// engine built by newEngine(workerID), supervised with the given restart
// budget (spec.md §4.8's max_restarts, default 3).
func NewPool(workerCount, maxRestarts int, newEngine func(workerID int) *extraction.Engine) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}

	coord := NewCoordinator(nil)
	sup := NewSupervisor(coord, maxRestarts)

	workers := make([]*Worker, 0, workerCount)
	ctls := make([]startStop.StartStop, 0, workerCount)

	for i := 0; i < workerCount; i++ {
		w := NewWorker(i, newEngine(i), coord.doneCh)
		workers = append(workers, w)

		ctl := startStop.New(w.Run, noopStop)
		ctls = append(ctls, ctl)

		sup.AddWorker(w, ctl)
	}

	coord.workers = workers

	return &Pool{
		coordinator:    coord,
		supervisor:     sup,
		coordinatorCtl: startStop.New(coord.Run, noopStop),
		supervisorCtl:  startStop.New(sup.Run, noopStop),
		workerCtls:     ctls,
	}
}

// Coordinator exposes the pool's Coordinator for ExtractRequest/CancelTask/
// QueryStatus calls.
func (p *Pool) Coordinator() *Coordinator { return p.coordinator }

// Start launches the coordinator, every worker, then the supervisor.
func (p *Pool) Start(ctx context.Context) error {
	if err := p.coordinatorCtl.Start(ctx); err != nil {
		return err
	}
	for i, ctl := range p.workerCtls {
		if err := ctl.Start(ctx); err != nil {
			return fmt.Errorf("actor: starting worker %d: %w", i, err)
		}
	}
	return p.supervisorCtl.Start(ctx)
}

// Stop tears down the supervisor, every worker, then the coordinator.
func (p *Pool) Stop(ctx context.Context) error {
	_ = p.supervisorCtl.Stop(ctx)
	for _, ctl := range p.workerCtls {
		_ = ctl.Stop(ctx)
	}
	return p.coordinatorCtl.Stop(ctx)
}
