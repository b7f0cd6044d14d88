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

import liberr "github.com/nabbar/logsieve/errors"

const (
	CodeWatchError liberr.CodeError = liberr.MinPkgTailWatch + iota
	CodeReadError
	CodeNotTracked
)

func errWatch(path string, parent error) liberr.Error {
	return liberr.New(uint16(CodeWatchError), "tailwatch: cannot watch "+path, parent)
}

func errRead(path string, parent error) liberr.Error {
	return liberr.New(uint16(CodeReadError), "tailwatch: cannot read "+path, parent)
}

func errNotTracked(path string) liberr.Error {
	return liberr.New(uint16(CodeNotTracked), "tailwatch: not tracked: "+path)
}
