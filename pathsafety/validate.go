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

// Package pathsafety validates archive-entry paths before they ever reach
// the filesystem, rejecting traversal, absolute paths, reserved device
// names, and oversized components.
package pathsafety

import (
	"strings"
)

// Reason is a short machine-readable code explaining an Unsafe verdict.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNull      Reason = "null"
	ReasonTraversal Reason = "traversal"
	ReasonAbsolute  Reason = "absolute"
	ReasonReserved  Reason = "reserved"
	ReasonLength    Reason = "length"
)

// Verdict classifies a path safety validation.
type Verdict int

const (
	// VerdictValid means the path was already safe; use Normalized as-is.
	VerdictValid Verdict = iota
	// VerdictSanitized means unsafe sequences were stripped; use Normalized
	// and log that sanitization occurred.
	VerdictSanitized
	// VerdictUnsafe means the entry must be rejected; Reason explains why.
	VerdictUnsafe
)

// Result is the outcome of validating one archive-entry path.
type Result struct {
	Verdict    Verdict
	Original   string
	Normalized string
	Reason     Reason
}

// Policy controls which rules are enforced and their thresholds. The zero
// value enforces nothing; DefaultPolicy returns the spec.md §3 defaults.
type Policy struct {
	RejectAbsolutePaths  bool
	RejectParentRefs     bool
	RejectReservedNames  bool
	RejectNullBytes      bool
	MaxPathLength        int
	MaxComponentLength   int
}

// DefaultPolicy returns the spec's default security policy.
func DefaultPolicy() Policy {
	return Policy{
		RejectAbsolutePaths: true,
		RejectParentRefs:    true,
		RejectReservedNames: true,
		RejectNullBytes:     true,
		MaxPathLength:       4096,
		MaxComponentLength:  255,
	}
}

var reservedNames = map[string]struct{}{
	"CON": {}, "PRN": {}, "AUX": {}, "NUL": {},
	"COM1": {}, "COM2": {}, "COM3": {}, "COM4": {}, "COM5": {},
	"COM6": {}, "COM7": {}, "COM8": {}, "COM9": {},
	"LPT1": {}, "LPT2": {}, "LPT3": {}, "LPT4": {}, "LPT5": {},
	"LPT6": {}, "LPT7": {}, "LPT8": {}, "LPT9": {},
}

// Validate applies the policy's rules, in the order spec.md §4.2 mandates,
// to raw, an entry path exactly as it appeared in an archive header.
func Validate(raw string, pol Policy) Result {
	if pol.RejectNullBytes && strings.ContainsRune(raw, 0) {
		return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonNull}
	}

	sanitized := raw != strings.ReplaceAll(raw, "\\", "/")
	norm := strings.ReplaceAll(raw, "\\", "/")

	if pol.RejectParentRefs {
		for _, p := range strings.Split(norm, "/") {
			if p == ".." {
				return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonTraversal}
			}
		}
	}

	if pol.RejectAbsolutePaths && isAbsolute(norm) {
		return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonAbsolute}
	}

	parts := strings.Split(norm, "/")
	clean := make([]string, 0, len(parts))

	for _, p := range parts {
		switch p {
		case "", ".":
			if p != "" {
				sanitized = true
			}
			continue
		case "..":
			if pol.RejectParentRefs {
				return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonTraversal}
			}
			sanitized = true
			continue
		}

		if pol.RejectReservedNames && isReserved(p) {
			return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonReserved}
		}

		if pol.MaxComponentLength > 0 && len(p) > pol.MaxComponentLength {
			return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonLength}
		}

		clean = append(clean, p)
	}

	normalized := strings.Join(clean, "/")

	if pol.MaxPathLength > 0 && len(normalized) > pol.MaxPathLength {
		return Result{Verdict: VerdictUnsafe, Original: raw, Reason: ReasonLength}
	}

	if normalized != raw {
		sanitized = true
	}

	if sanitized {
		return Result{Verdict: VerdictSanitized, Original: raw, Normalized: normalized}
	}

	return Result{Verdict: VerdictValid, Original: raw, Normalized: normalized}
}

func isAbsolute(p string) bool {
	if strings.HasPrefix(p, "/") {
		return true
	}
	// drive-letter prefix, e.g. "C:/..." or "C:\..."
	if len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0]) {
		return true
	}
	return false
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isReserved(component string) bool {
	name := component
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	_, ok := reservedNames[strings.ToUpper(name)]
	return ok
}

// JoinUnderBase joins a validated, normalized path under base. Callers must
// only pass a Normalized value from a non-Unsafe Result; the normalization
// already guarantees no ".." segments remain, so the join cannot escape
// base.
func JoinUnderBase(base, normalized string) string {
	if normalized == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + normalized
}
