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

package workspace

import liberr "github.com/nabbar/logsieve/errors"

const (
	CodeInvalidConfig liberr.CodeError = liberr.MinPkgWorkspace + iota
	CodeAlreadyOpen
	CodeNotOpen
	CodeImportFailed
	CodeLegacyUnreadable
	CodeMigrationFailed
	CodeVerifyFailed
)

func errInvalidConfig(parent liberr.Error) liberr.Error {
	return liberr.New(uint16(CodeInvalidConfig), "workspace: invalid configuration", parent)
}

func errAlreadyOpen(id string) liberr.Error {
	return liberr.New(uint16(CodeAlreadyOpen), "workspace: already open: "+id)
}

func errNotOpen(id string) liberr.Error {
	return liberr.New(uint16(CodeNotOpen), "workspace: not open: "+id)
}

func errImportFailed(source string, parent error) liberr.Error {
	return liberr.New(uint16(CodeImportFailed), "workspace: import failed: "+source, parent)
}

func errLegacyUnreadable(path string, parent error) liberr.Error {
	return liberr.New(uint16(CodeLegacyUnreadable), "workspace: legacy index unreadable: "+path, parent)
}

func errMigrationFailed(id string, parent error) liberr.Error {
	return liberr.New(uint16(CodeMigrationFailed), "workspace: migration failed: "+id, parent)
}

func errVerifyFailed(id string, parent error) liberr.Error {
	return liberr.New(uint16(CodeVerifyFailed), "workspace: verify failed: "+id, parent)
}
