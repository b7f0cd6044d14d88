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

// Package textdecode turns an arbitrary byte segment into text, falling
// back through three layers per spec.md §4.11: a zero-copy UTF-8 fast
// path, lossy UTF-8 when the segment is mostly valid, and finally GBK then
// Windows-1252 when it is not.
package textdecode

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// MaxInvalidRatio is the invalid-byte-ratio ceiling below which lossy UTF-8
// decoding is preferred over trying other encodings.
const MaxInvalidRatio = 0.30

// Info describes how Decode arrived at its result.
type Info struct {
	Encoding     string
	HadErrors    bool
	FallbackUsed bool
}

// Decode returns b decoded as text plus an Info describing which layer was
// used. It never fails: Windows-1252 maps every byte value, so the final
// fallback always succeeds.
func Decode(b []byte) (string, Info) {
	if utf8.Valid(b) {
		return string(b), Info{Encoding: "utf-8"}
	}

	if invalidByteRatio(b) <= MaxInvalidRatio {
		return decodeLossyUTF8(b), Info{Encoding: "utf-8", HadErrors: true}
	}

	if text, ok := tryDecode(simplifiedchinese.GBK.NewDecoder().Bytes, b); ok {
		return text, Info{Encoding: "gbk", HadErrors: true, FallbackUsed: true}
	}

	text, _ := charmap.Windows1252.NewDecoder().Bytes(b)
	return string(text), Info{Encoding: "windows-1252", HadErrors: true, FallbackUsed: true}
}

func tryDecode(decode func([]byte) ([]byte, error), b []byte) (string, bool) {
	out, err := decode(b)
	if err != nil {
		return "", false
	}
	// x/text decoders substitute utf8.RuneError for invalid input instead
	// of returning an error, so a replacement rune means the decode failed.
	text := string(out)
	for _, r := range text {
		if r == utf8.RuneError {
			return "", false
		}
	}
	return text, true
}

// invalidByteRatio scans b rune-by-rune, counting the bytes consumed by
// invalid sequences (utf8.RuneError with width 1) against the total length.
func invalidByteRatio(b []byte) float64 {
	if len(b) == 0 {
		return 0
	}

	var invalid int
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		i += size
	}

	return float64(invalid) / float64(len(b))
}

// decodeLossyUTF8 replaces every invalid byte sequence with
// utf8.RuneError, mirroring (string).ToValidUTF8-style lossy conversion
// without pulling in a third dependency just for a byte-for-byte match.
func decodeLossyUTF8(b []byte) string {
	out := make([]rune, 0, len(b))
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		out = append(out, r)
		i += size
	}
	return string(out)
}
