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

// Package nestedarchive decides, for each archive discovered while
// extracting another archive, how much deeper nesting may go and whether
// the entry looks like a zip bomb, per spec.md §4.5.
package nestedarchive

import "math"

// Policy mirrors the extraction-policy fields spec.md §3 defines for
// nested-archive control.
type Policy struct {
	MaxDepth                    int
	MinDepth                    int
	DepthReductionStep          int
	FileCountThreshold          int
	TotalSizeThreshold          int64
	CompressionRatioThreshold   float64
	ExponentialBackoffThreshold float64
}

// gibibyte is the unit EffectiveMaxDepth counts "full GB over threshold"
// in, matching the original implementation's byte-granularity reduction.
const gibibyte = 1 << 30

// EffectiveMaxDepth returns the depth limit in force at the current
// cumulative file count and total size, per spec.md §4.5: every 1000
// files past FileCountThreshold subtracts DepthReductionStep from
// MaxDepth, capped at a reduction of 5; every full GB past
// TotalSizeThreshold subtracts another DepthReductionStep, capped at a
// reduction of 3. Both reductions apply together, floored at MinDepth.
func (p Policy) EffectiveMaxDepth(filesSoFar int, bytesSoFar int64) int {
	depth := p.MaxDepth

	if p.FileCountThreshold > 0 && filesSoFar > p.FileCountThreshold {
		reduction := (filesSoFar - p.FileCountThreshold) / 1000 * p.DepthReductionStep
		if reduction > 5 {
			reduction = 5
		}
		depth -= reduction
	}

	if p.TotalSizeThreshold > 0 && bytesSoFar > p.TotalSizeThreshold {
		gbOver := int((bytesSoFar - p.TotalSizeThreshold) / gibibyte)
		if gbOver > 3 {
			gbOver = 3
		}
		depth -= gbOver * p.DepthReductionStep
	}

	if depth < p.MinDepth {
		depth = p.MinDepth
	}
	return depth
}

// IsZipBomb reports whether an archive entry's uncompressed-to-compressed
// ratio, evaluated at the given nesting depth, trips either defense in
// spec.md §4.5:
//
//	ratio > CompressionRatioThreshold
//	ratio^depth > ExponentialBackoffThreshold
//
// depth is the nesting level the entry would be extracted at (0 for a
// top-level archive's direct members, where only the plain ratio check
// applies).
func (p Policy) IsZipBomb(compressedSize, uncompressedSize int64, depth int) bool {
	if compressedSize <= 0 {
		return uncompressedSize > 0
	}

	ratio := float64(uncompressedSize) / float64(compressedSize)

	if p.CompressionRatioThreshold > 0 && ratio > p.CompressionRatioThreshold {
		return true
	}

	if p.ExponentialBackoffThreshold > 0 && depth > 0 {
		exp := math.Pow(ratio, float64(depth))
		if math.IsInf(exp, 1) || exp > p.ExponentialBackoffThreshold {
			return true
		}
	}

	return false
}

// AllowDescend reports whether extraction may recurse into a nested
// archive found at candidateDepth, given the policy's effective depth
// limit at the current progress.
func (p Policy) AllowDescend(candidateDepth, filesSoFar int, bytesSoFar int64) bool {
	return candidateDepth <= p.EffectiveMaxDepth(filesSoFar, bytesSoFar)
}
