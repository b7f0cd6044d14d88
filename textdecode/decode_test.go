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

package textdecode_test

import (
	"testing"

	"github.com/nabbar/logsieve/textdecode"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidUTF8FastPath(t *testing.T) {
	text, info := textdecode.Decode([]byte("hello, world"))
	require.Equal(t, "hello, world", text)
	require.Equal(t, "utf-8", info.Encoding)
	require.False(t, info.HadErrors)
	require.False(t, info.FallbackUsed)
}

func TestDecodeMostlyValidUsesLossyUTF8(t *testing.T) {
	b := append([]byte("mostly valid text "), 0xff)
	text, info := textdecode.Decode(b)
	require.Contains(t, text, "mostly valid text")
	require.Equal(t, "utf-8", info.Encoding)
	require.True(t, info.HadErrors)
	require.False(t, info.FallbackUsed)
}

func TestDecodeHeavilyInvalidUsesFallbackEncoding(t *testing.T) {
	b := make([]byte, 0, 64)
	for i := 0; i < 32; i++ {
		b = append(b, 0x90) // not a GBK single-byte character; pairs of it form GBK double-byte codes, and Windows-1252 maps it too
	}
	text, info := textdecode.Decode(b)
	require.NotEmpty(t, text)
	require.True(t, info.FallbackUsed)
	require.Contains(t, []string{"gbk", "windows-1252"}, info.Encoding)
}

func TestDecodeEmptyInput(t *testing.T) {
	text, info := textdecode.Decode(nil)
	require.Equal(t, "", text)
	require.Equal(t, "utf-8", info.Encoding)
}
