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

// DefaultRegistry returns the handlers for every format spec.md §4.6
// names, in the order they should be probed: container formats first (so
// a .tar.gz is not mistaken for a plain .gz), then RAR and 7Z, then the
// single-stream compressed-file handler.
func DefaultRegistry() []Handler {
	return []Handler{
		ContainerHandler{},
		RarHandler{},
		SevenZipHandler{},
		PlainStreamHandler{},
	}
}

// Resolve returns the first registered handler able to handle name, or
// nil if none match.
func Resolve(name string, handlers []Handler) Handler {
	for _, h := range handlers {
		if h.CanHandle(name) {
			return h
		}
	}
	return nil
}
