// Copyright 2019-2020 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package access

import (
	"errors"
	"fmt"
)

const (
	// DefaultLineSize is the assumed cache line size in bytes.
	DefaultLineSize = 64
	// DefaultWorkingSetLines is the number of lines in a working set (32 KiB).
	DefaultWorkingSetLines = 512
	// DefaultLocalityRepeat is how many times a working set is revisited.
	DefaultLocalityRepeat = 16
	// DefaultIterations is the number of working sets visited per run.
	DefaultIterations = 1 << 20
	// DefaultWriteEvery makes every 8th touched line a store.
	DefaultWriteEvery = 8
)

// ErrRegionTooSmall is returned when a region cannot hold a single working
// set with room to move its base around.
var ErrRegionTooSmall = errors.New("region too small for working set")

// Pattern describes a memory access pattern.
type Pattern struct {
	// RandomBase picks working set bases randomly instead of sequentially.
	RandomBase bool
	// LineSize is the cache line size in bytes.
	LineSize int
	// WorkingSetLines is the number of lines in one working set.
	WorkingSetLines int
	// LocalityRepeat is the number of passes over the same working set.
	LocalityRepeat int
	// Iterations is the number of working sets visited.
	Iterations int
	// WriteEvery makes every WriteEvery'th line of a pass a store.
	WriteEvery int
}

// DefaultPattern returns the default sequential access pattern.
func DefaultPattern() Pattern {
	return Pattern{
		LineSize:        DefaultLineSize,
		WorkingSetLines: DefaultWorkingSetLines,
		LocalityRepeat:  DefaultLocalityRepeat,
		Iterations:      DefaultIterations,
		WriteEvery:      DefaultWriteEvery,
	}
}

// Validate checks the pattern parameters against the given region size.
func (p Pattern) Validate(regionSize int) error {
	switch {
	case p.LineSize <= 0:
		return accessError("invalid line size %d", p.LineSize)
	case p.WorkingSetLines <= 0:
		return accessError("invalid working set size %d lines", p.WorkingSetLines)
	case p.LocalityRepeat <= 0:
		return accessError("invalid locality repeat count %d", p.LocalityRepeat)
	case p.Iterations < 0:
		return accessError("invalid iteration count %d", p.Iterations)
	case p.WriteEvery <= 0:
		return accessError("invalid write stride %d", p.WriteEvery)
	case regionSize%p.LineSize != 0:
		return accessError("region size %d is not a multiple of line size %d",
			regionSize, p.LineSize)
	}
	if p.MaxBase(regionSize) <= 0 {
		return fmt.Errorf("access: %w: %d bytes is %d lines, need more than %d",
			ErrRegionTooSmall, regionSize, regionSize/p.LineSize, p.WorkingSetLines)
	}
	return nil
}

// MaxBase returns the exclusive upper bound of working set bases, in lines.
func (p Pattern) MaxBase(regionSize int) int {
	return regionSize/p.LineSize - p.WorkingSetLines
}

// MinRegionSize returns the smallest region size the pattern accepts.
func (p Pattern) MinRegionSize() int {
	return (p.WorkingSetLines + 1) * p.LineSize
}

// Touches returns the total number of line accesses of one run.
func (p Pattern) Touches() int64 {
	return int64(p.Iterations) * int64(p.LocalityRepeat) * int64(p.WorkingSetLines)
}

// Offset returns the byte offset of line i of the working set at base.
func (p Pattern) Offset(base, i int) int {
	return (base + i) * p.LineSize
}

// String returns a short description of the pattern.
func (p Pattern) String() string {
	mode := "sequential"
	if p.RandomBase {
		mode = "random"
	}
	return fmt.Sprintf("%s, %d x %d-byte lines, %d passes, %d iterations, 1/%d stores",
		mode, p.WorkingSetLines, p.LineSize, p.LocalityRepeat, p.Iterations, p.WriteEvery)
}

func accessError(format string, args ...interface{}) error {
	return fmt.Errorf("access: "+format, args...)
}
