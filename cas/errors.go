/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

package cas

import liberr "github.com/nabbar/logsieve/errors"

const (
	CodeIOError liberr.CodeError = liberr.MinPkgCAS + iota
	CodeHashMismatch
	CodeNotFound
	CodeInvalidHash
)

func errIO(parent error) liberr.Error {
	return liberr.New(uint16(CodeIOError), "cas: io error", parent)
}

func errHashMismatch(want, got string) liberr.Error {
	return liberr.New(uint16(CodeHashMismatch), "cas: hash mismatch: expected "+want+" got "+got)
}

func errNotFound(hash string) liberr.Error {
	return liberr.New(uint16(CodeNotFound), "cas: object not found: "+hash)
}

func errInvalidHash(hash string) liberr.Error {
	return liberr.New(uint16(CodeInvalidHash), "cas: invalid hash: "+hash)
}
