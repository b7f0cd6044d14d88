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

package ratelimit_test

import (
	"testing"
	"time"

	"github.com/nabbar/logsieve/ratelimit"
	"github.com/stretchr/testify/require"
)

func TestBucketAllowsUpToBurst(t *testing.T) {
	b := ratelimit.NewBucket(ratelimit.Config{Class: "import", RequestsPerMinute: 60, Burst: 3})

	for i := 0; i < 3; i++ {
		ok, _ := b.Allow()
		require.True(t, ok)
	}

	ok, retryAfter := b.Allow()
	require.False(t, ok)
	require.Greater(t, retryAfter, time.Duration(0))
}

func TestBucketRefillsOverTime(t *testing.T) {
	b := ratelimit.NewBucket(ratelimit.Config{Class: "search", RequestsPerMinute: 600, Burst: 1})

	ok, _ := b.Allow()
	require.True(t, ok)

	ok, _ = b.Allow()
	require.False(t, ok)

	require.Eventually(t, func() bool {
		ok, _ := b.Allow()
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestCheckReturnsErrRateLimited(t *testing.T) {
	b := ratelimit.NewBucket(ratelimit.Config{Class: "workspace", RequestsPerMinute: 60, Burst: 1})

	require.Nil(t, ratelimit.Check(b, "workspace"))

	err := ratelimit.Check(b, "workspace")
	require.NotNil(t, err)
	require.Greater(t, err.RetryAfter, time.Duration(0))
}

func TestUnlimitedBucketAlwaysAllows(t *testing.T) {
	b := ratelimit.NewBucket(ratelimit.Config{Class: "import", RequestsPerMinute: 0})
	for i := 0; i < 100; i++ {
		ok, _ := b.Allow()
		require.True(t, ok)
	}
}
