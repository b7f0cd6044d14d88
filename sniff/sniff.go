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

// Package sniff inspects a sample of an archive entry's content and
// decides whether the extractor should import it, per spec.md §4.11's
// file-type / import admission helper.
package sniff

import (
	"bytes"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Action is the extractor's verdict for one entry.
type Action string

const (
	Allow  Action = "allow"
	Reject Action = "reject"
	Defer  Action = "defer"
)

// Reason names why an entry was rejected or deferred.
type Reason string

const (
	ReasonBinaryFile           Reason = "BinaryFile"
	ReasonFileTooLarge         Reason = "FileTooLarge"
	ReasonZipBombRisk          Reason = "ZipBombRisk"
	ReasonNestingDepthExceeded Reason = "NestingDepthExceeded"
	ReasonFileTypeMismatch     Reason = "FileTypeMismatch"
	ReasonLowReadability       Reason = "LowReadability"
)

// LowReadabilityThreshold is the minimum fraction of printable runes in a
// text sample below which it is deferred as low-readability.
const LowReadabilityThreshold = 0.70

// Input carries the sample and the caller-computed facts (size caps,
// zip-bomb/depth verdicts already known from archivehandler/nestedarchive)
// that Sniff folds into one decision.
type Input struct {
	VirtualPath          string
	Sample               []byte
	SizeBytes            int64
	MaxFileSize          int64
	ZipBombRisk          bool
	NestingDepthExceeded bool
}

// Decision is Sniff's verdict: an Action, the Reason when not Allow, and a
// confidence in [0,1].
type Decision struct {
	Action     Action
	Reason     Reason
	Confidence float64
}

var magicSignatures = []struct {
	prefix []byte
	kind   string
}{
	{[]byte("PK\x03\x04"), "zip"},
	{[]byte{0x1f, 0x8b}, "gzip"},
	{[]byte("\x7fELF"), "elf"},
	{[]byte("%PDF"), "pdf"},
	{[]byte{0x42, 0x5a, 0x68}, "bzip2"},
}

var textLikeExtensions = map[string]bool{
	".txt": true, ".log": true, ".csv": true, ".json": true,
	".xml": true, ".yaml": true, ".yml": true, ".conf": true, ".ini": true,
}

// Sniff inspects in.Sample and the caller-supplied risk flags and returns
// the extractor's admission decision.
func Sniff(in Input) Decision {
	if in.NestingDepthExceeded {
		return Decision{Action: Reject, Reason: ReasonNestingDepthExceeded, Confidence: 1}
	}
	if in.ZipBombRisk {
		return Decision{Action: Reject, Reason: ReasonZipBombRisk, Confidence: 1}
	}
	if in.MaxFileSize > 0 && in.SizeBytes > in.MaxFileSize {
		return Decision{Action: Reject, Reason: ReasonFileTooLarge, Confidence: 1}
	}
	if looksBinary(in.Sample) {
		return Decision{Action: Reject, Reason: ReasonBinaryFile, Confidence: binaryConfidence(in.Sample)}
	}
	if mismatch, kind := detectMismatch(in.VirtualPath, in.Sample); mismatch {
		return Decision{Action: Defer, Reason: ReasonFileTypeMismatch, Confidence: mismatchConfidence(kind)}
	}
	if r := readability(in.Sample); r < LowReadabilityThreshold {
		return Decision{Action: Defer, Reason: ReasonLowReadability, Confidence: 1 - r}
	}
	return Decision{Action: Allow, Confidence: 1}
}

// looksBinary applies the common NUL-byte heuristic: text files essentially
// never contain a NUL byte in their first sample.
func looksBinary(sample []byte) bool {
	return bytes.IndexByte(sample, 0) >= 0
}

func binaryConfidence(sample []byte) float64 {
	if len(sample) == 0 {
		return 0.5
	}
	n := bytes.Count(sample, []byte{0})
	c := float64(n) / float64(len(sample)) * 10
	if c > 1 {
		c = 1
	}
	if c < 0.5 {
		c = 0.5
	}
	return c
}

// detectMismatch flags a text-looking extension whose content's magic
// bytes actually match a known compressed/binary format.
func detectMismatch(virtualPath string, sample []byte) (bool, string) {
	ext := strings.ToLower(filepath.Ext(virtualPath))
	if !textLikeExtensions[ext] {
		return false, ""
	}
	for _, sig := range magicSignatures {
		if bytes.HasPrefix(sample, sig.prefix) {
			return true, sig.kind
		}
	}
	return false, ""
}

func mismatchConfidence(kind string) float64 {
	if kind == "" {
		return 0.5
	}
	return 0.8
}

// readability returns the fraction of sample that decodes as printable
// UTF-8 runes (letters, digits, punctuation, common whitespace).
func readability(sample []byte) float64 {
	if len(sample) == 0 {
		return 1
	}

	var printable, total int
	for i := 0; i < len(sample); {
		r, size := utf8.DecodeRune(sample[i:])
		total++
		if isPrintable(r) {
			printable++
		}
		i += size
	}

	if total == 0 {
		return 1
	}
	return float64(printable) / float64(total)
}

func isPrintable(r rune) bool {
	switch r {
	case '\n', '\r', '\t':
		return true
	}
	return r >= 0x20 && r != utf8.RuneError
}
