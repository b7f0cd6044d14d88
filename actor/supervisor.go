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
	"time"

	"github.com/nabbar/logsieve/runner/startStop"
)

type supervisedWorker struct {
	worker   *Worker
	control  startStop.StartStop
	restarts int
	lastPong time.Time
}

// Supervisor pings every registered worker on an interval and restarts the
// unresponsive ones up to a restart budget; once a worker's budget is
// exhausted it is dropped from the coordinator's pool.
type Supervisor struct {
	coordinator *Coordinator
	workers     []*supervisedWorker

	maxRestarts    int
	pingTimeout    time.Duration
	sweepInterval  time.Duration
	livenessWindow time.Duration
}

// NewSupervisor returns a Supervisor watching coordinator's workers,
// restarting each up to maxRestarts times before retiring it.
func NewSupervisor(coordinator *Coordinator, maxRestarts int) *Supervisor {
	if maxRestarts < 0 {
		maxRestarts = 0
	}
	return &Supervisor{
		coordinator:    coordinator,
		maxRestarts:    maxRestarts,
		pingTimeout:    2 * time.Second,
		sweepInterval:  5 * time.Second,
		livenessWindow: 15 * time.Second,
	}
}

// AddWorker registers a worker and the startStop control that starts/stops
// its Run goroutine, so the supervisor can restart it in place.
func (s *Supervisor) AddWorker(w *Worker, control startStop.StartStop) {
	s.workers = append(s.workers, &supervisedWorker{
		worker:   w,
		control:  control,
		lastPong: time.Now(),
	})
}

// Run is the supervisor's supervised goroutine body: it sweeps every
// sweepInterval until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Supervisor) sweep(ctx context.Context) {
	for _, sw := range s.workers {
		if sw == nil {
			continue
		}

		if sw.worker.Ping(s.pingTimeout) {
			sw.lastPong = time.Now()
			continue
		}

		if time.Since(sw.lastPong) <= s.livenessWindow {
			continue
		}

		if sw.restarts >= s.maxRestarts {
			s.coordinator.RemoveWorker(sw.worker.ID())
			continue
		}

		sw.restarts++
		_ = sw.control.Restart(ctx)
		sw.lastPong = time.Now()
	}
}
