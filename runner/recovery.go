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

// Package runner provides shared goroutine lifecycle helpers: panic recovery
// for long-running worker goroutines and, in the startStop subpackage, a
// generic start/stop/restart supervisor.
package runner

import (
	"fmt"
	"os"
	"runtime/debug"
)

// RecoveryCaller recovers from a panic raised inside a deferred goroutine,
// printing the caller name, the recovered value, any extra context strings,
// and a stack trace to stderr so background failures are never silent.
//
// It is a no-op when rec is nil, so it is safe to defer unconditionally:
//
//	defer func() {
//	    runner.RecoveryCaller("pkg/worker", recover())
//	}()
func RecoveryCaller(caller string, rec any, extra ...string) {
	if rec == nil {
		return
	}

	msg := fmt.Sprintf("panic recovered in %s: %v", caller, rec)

	for _, e := range extra {
		if e != "" {
			msg += " | " + e
		}
	}

	_, _ = fmt.Fprintln(os.Stderr, msg)
	_, _ = fmt.Fprintln(os.Stderr, string(debug.Stack()))
}
