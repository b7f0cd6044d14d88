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
)

// ProgressFanOut subscribes to one task's update channel and forwards to
// sink, throttled to at most one event per interval except for terminal
// states, which always pass through immediately.
type ProgressFanOut struct {
	interval time.Duration
}

// NewProgressFanOut returns a ProgressFanOut throttling to interval between
// non-terminal events (100ms if interval <= 0).
func NewProgressFanOut(interval time.Duration) *ProgressFanOut {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &ProgressFanOut{interval: interval}
}

// Forward drains in until it closes or ctx is cancelled, calling sink for
// every terminal update and for non-terminal ones no more often than once
// per interval.
func (f *ProgressFanOut) Forward(ctx context.Context, in <-chan ProgressUpdate, sink func(ProgressUpdate)) {
	var last time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-in:
			if !ok {
				return
			}
			if u.Status.Terminal() || time.Since(last) >= f.interval {
				sink(u)
				last = time.Now()
			}
		}
	}
}
