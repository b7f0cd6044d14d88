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

package errors

// Code ranges, one per package, following the teacher's convention of a
// contiguous block reserved for each package so codes never collide when
// errors are wrapped across package boundaries. Most blocks are 100 wide;
// MinPkgCompress and MinPkgDatabaseGorm take the upper half of the archive
// and database blocks.
const (
	MinPkgArchive       = 100
	MinPkgCompress      = 150
	MinPkgPathSafety    = 200
	MinPkgCAS           = 300
	MinPkgMetadataStore = 400
	MinPkgNestedArchive = 500
	MinPkgExtraction    = 600
	MinPkgActor         = 700
	MinPkgTailWatch     = 800
	MinPkgSearch        = 900
	MinPkgCleanup       = 1000
	MinPkgTextDecode    = 1100
	MinPkgSniff         = 1200
	MinPkgWorkspace     = 1300
	MinPkgRateLimit     = 1400
	MinPkgConfig        = 1500
	MinPkgDatabase      = 1600
	MinPkgDatabaseGorm  = 1650
	MinPkgIOUtils       = 1700
	MinPkgLogger        = 1800
	MinPkgMonitor       = 1900
	MinPkgSemaphore     = 2000
	MinPkgPrometheus    = 2100
	MinPkgVersion       = 2200

	MinAvailable = 3000
)
