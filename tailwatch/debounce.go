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

package tailwatch

import (
	"sync"
	"time"
)

// debouncer collapses a burst of notify calls for the same path into a
// single call to fn, run on its own goroutine one path at a time so fn
// never needs to guard against re-entrancy for a given path. A path
// already pending simply has its timer pushed back; it does not queue a
// second run.
type debouncer struct {
	interval time.Duration
	fn       func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
}

func newDebouncer(interval time.Duration, fn func(path string)) *debouncer {
	return &debouncer{
		interval: interval,
		fn:       fn,
		timers:   make(map[string]*time.Timer),
	}
}

// notify schedules (or reschedules) a run of fn(path) after interval.
func (d *debouncer) notify(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if t, ok := d.timers[path]; ok {
		t.Reset(d.interval)
		return
	}

	d.timers[path] = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		delete(d.timers, path)
		d.mu.Unlock()
		d.fn(path)
	})
}

// stop cancels every pending timer without running fn for them.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	for _, t := range d.timers {
		t.Stop()
	}
	d.timers = make(map[string]*time.Timer)
}
