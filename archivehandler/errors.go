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

package archivehandler

import liberr "github.com/nabbar/logsieve/errors"

const (
	CodeOpen liberr.CodeError = liberr.MinPkgArchive + 50 + iota
	CodeRead
	CodeUnsupported
	CodeZipBomb
)

func errOpen(parent error) liberr.Error {
	return liberr.New(uint16(CodeOpen), "archivehandler: open failed", parent)
}

func errRead(parent error) liberr.Error {
	return liberr.New(uint16(CodeRead), "archivehandler: read failed", parent)
}

func errUnsupported(name string) liberr.Error {
	return liberr.New(uint16(CodeUnsupported), "archivehandler: unsupported format: "+name)
}

func errZipBomb(virtualPath string) liberr.Error {
	return liberr.New(uint16(CodeZipBomb), "archivehandler: zip-bomb risk rejected: "+virtualPath)
}
