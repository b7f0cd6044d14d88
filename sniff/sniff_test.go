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

package sniff_test

import (
	"strings"
	"testing"

	"github.com/nabbar/logsieve/sniff"
	"github.com/stretchr/testify/require"
)

func TestSniffAllowsPlainText(t *testing.T) {
	d := sniff.Sniff(sniff.Input{
		VirtualPath: "app.log",
		Sample:      []byte("2024-01-01 INFO starting up\n"),
		SizeBytes:   29,
		MaxFileSize: 1 << 20,
	})
	require.Equal(t, sniff.Allow, d.Action)
}

func TestSniffRejectsNestingDepthExceeded(t *testing.T) {
	d := sniff.Sniff(sniff.Input{NestingDepthExceeded: true})
	require.Equal(t, sniff.Reject, d.Action)
	require.Equal(t, sniff.ReasonNestingDepthExceeded, d.Reason)
}

func TestSniffRejectsZipBombRisk(t *testing.T) {
	d := sniff.Sniff(sniff.Input{ZipBombRisk: true})
	require.Equal(t, sniff.Reject, d.Action)
	require.Equal(t, sniff.ReasonZipBombRisk, d.Reason)
}

func TestSniffRejectsOversizedFile(t *testing.T) {
	d := sniff.Sniff(sniff.Input{SizeBytes: 100, MaxFileSize: 10})
	require.Equal(t, sniff.Reject, d.Action)
	require.Equal(t, sniff.ReasonFileTooLarge, d.Reason)
}

func TestSniffRejectsBinaryContent(t *testing.T) {
	d := sniff.Sniff(sniff.Input{
		VirtualPath: "blob.bin",
		Sample:      []byte{0x00, 0x01, 0x02, 0x00, 0x03},
	})
	require.Equal(t, sniff.Reject, d.Action)
	require.Equal(t, sniff.ReasonBinaryFile, d.Reason)
}

func TestSniffDefersFileTypeMismatch(t *testing.T) {
	d := sniff.Sniff(sniff.Input{
		VirtualPath: "notes.txt",
		Sample:      []byte("PK\x03\x04rest-of-zip-bytes"),
	})
	require.Equal(t, sniff.Defer, d.Action)
	require.Equal(t, sniff.ReasonFileTypeMismatch, d.Reason)
}

func TestSniffDefersLowReadability(t *testing.T) {
	sample := strings.Repeat(string([]byte{0x01, 0x02, 0x1b, 0x1c}), 10)
	d := sniff.Sniff(sniff.Input{
		VirtualPath: "weird.log",
		Sample:      []byte(sample),
	})
	require.Equal(t, sniff.Defer, d.Action)
	require.Equal(t, sniff.ReasonLowReadability, d.Reason)
}
