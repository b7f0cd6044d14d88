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

// Package config describes a workspace's configuration and owns the
// lifecycle of the named components (CAS, metadata store) that make it
// up, mirroring the teacher's component-manager pattern (start in
// registration order, stop in reverse; there is no reload) repurposed from generic
// application wiring to a single workspace's lifecycle.
package config

import (
	"fmt"
	"regexp"

	libval "github.com/go-playground/validator/v10"
	liberr "github.com/nabbar/logsieve/errors"
)

const (
	CodeValidation liberr.CodeError = liberr.MinPkgConfig + iota
)

var workspaceIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,100}$`)

// ExtractionPolicy mirrors spec.md §3's extraction policy controls.
type ExtractionPolicy struct {
	MaxFileSize                 int64 `validate:"gte=0"`
	MaxTotalSize                int64 `validate:"gte=0"`
	MaxFileCount                int   `validate:"gte=0"`
	MaxParallelFiles            int   `validate:"gte=1"`
	BufferSize                  int   `validate:"gte=1"`
	DirBatchSize                int   `validate:"gte=1"`
	MaxDepth                    int   `validate:"gte=0"`
	CompressionRatioThreshold   float64
	ExponentialBackoffThreshold float64
	FileCountThreshold          int
	TotalSizeThreshold          int64
	MinDepth                    int
	DepthReductionStep          int
}

// DefaultExtractionPolicy returns sane defaults for a new workspace.
func DefaultExtractionPolicy() ExtractionPolicy {
	return ExtractionPolicy{
		MaxFileSize:                 2 << 30, // 2 GiB
		MaxTotalSize:                20 << 30,
		MaxFileCount:                200000,
		MaxParallelFiles:            8,
		BufferSize:                  1 << 20,
		DirBatchSize:                256,
		MaxDepth:                    8,
		CompressionRatioThreshold:   100,
		ExponentialBackoffThreshold: 1 << 20,
		FileCountThreshold:          50000,
		TotalSizeThreshold:          1 << 30,
		MinDepth:                    1,
		DepthReductionStep:          1,
	}
}

// SecurityPolicy mirrors spec.md §3's security policy controls.
type SecurityPolicy struct {
	RejectAbsolutePaths bool
	RejectParentRefs    bool
	RejectReservedNames bool
	RejectNullBytes     bool
	MaxPathLength       int `validate:"gte=0"`
	MaxComponentLength  int `validate:"gte=0"`
}

// DefaultSecurityPolicy returns the spec's default security policy.
func DefaultSecurityPolicy() SecurityPolicy {
	return SecurityPolicy{
		RejectAbsolutePaths: true,
		RejectParentRefs:    true,
		RejectReservedNames: true,
		RejectNullBytes:     true,
		MaxPathLength:       4096,
		MaxComponentLength:  255,
	}
}

// Workspace describes one workspace: its identity, on-disk root, and the
// policies governing import and security.
type Workspace struct {
	ID        string `validate:"required"`
	Root      string `validate:"required"`
	Extract   ExtractionPolicy
	Security  SecurityPolicy
	WorkerCount int `validate:"gte=1"`
}

// DefaultWorkspace builds a Workspace with the spec's default policies.
func DefaultWorkspace(id, root string) Workspace {
	return Workspace{
		ID:          id,
		Root:        root,
		Extract:     DefaultExtractionPolicy(),
		Security:    DefaultSecurityPolicy(),
		WorkerCount: 4,
	}
}

// Validate checks the workspace identifier against spec.md §3's pattern and
// runs struct-tag validation over the rest, mirroring
// database/gorm.Config.Validate.
func (w Workspace) Validate() liberr.Error {
	e := liberr.New(uint16(CodeValidation), "config: invalid workspace")

	if !workspaceIDPattern.MatchString(w.ID) {
		e.Add(fmt.Errorf("workspace id %q does not match [A-Za-z0-9_-]{1,100}", w.ID))
	}

	if err := libval.New().Struct(w); err != nil {
		if ve, ok := err.(libval.ValidationErrors); ok {
			for _, fe := range ve {
				e.Add(fmt.Errorf("field %q failed constraint %q", fe.Namespace(), fe.ActualTag()))
			}
		} else {
			e.Add(err)
		}
	}

	if !e.HasParent() {
		return nil
	}
	return e
}
