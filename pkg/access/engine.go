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

// Random is the source of random working set bases.
type Random interface {
	// Below returns a value in [0, n).
	Below(n uint64) uint64
}

// BaseSelector produces the working set base of each outer iteration.
type BaseSelector struct {
	rng     Random
	random  bool
	step    int
	maxBase int
	base    int
}

// NewBaseSelector creates a base selector for the pattern and region size.
func NewBaseSelector(p Pattern, regionSize int, rng Random) (*BaseSelector, error) {
	if err := p.Validate(regionSize); err != nil {
		return nil, err
	}
	if p.RandomBase && rng == nil {
		return nil, accessError("random base selection needs a random source")
	}
	return &BaseSelector{
		rng:     rng,
		random:  p.RandomBase,
		step:    p.WorkingSetLines,
		maxBase: p.MaxBase(regionSize),
	}, nil
}

// MaxBase returns the exclusive upper bound of the bases produced.
func (s *BaseSelector) MaxBase() int {
	return s.maxBase
}

// Next returns the base line of the next working set.
func (s *BaseSelector) Next() int {
	if s.random {
		s.base = int(s.rng.Below(uint64(s.maxBase)))
		return s.base
	}
	s.base += s.step
	if s.base >= s.maxBase {
		s.base = 0
	}
	return s.base
}

// Engine runs an access pattern over a memory region.
type Engine struct {
	pattern Pattern
	rng     Random
}

// NewEngine creates an engine for the given pattern. rng is only consulted
// for random base selection.
func NewEngine(p Pattern, rng Random) *Engine {
	return &Engine{pattern: p, rng: rng}
}

// Pattern returns the pattern of this engine.
func (e *Engine) Pattern() Pattern {
	return e.pattern
}

// Prepare validates the pattern against region and sets up base selection.
// It returns the touch loop, which runs the full pattern over region when
// called. Nothing is touched before that, and the loop itself allocates
// nothing.
func (e *Engine) Prepare(region []byte) (func(), error) {
	p := e.pattern
	bases, err := NewBaseSelector(p, len(region), e.rng)
	if err != nil {
		return nil, err
	}

	return func() {
		var acc byte
		span := p.WorkingSetLines * p.LineSize
		for outer := 0; outer < p.Iterations; outer++ {
			start := bases.Next() * p.LineSize
			ws := region[start : start+span : start+span]
			for pass := 0; pass < p.LocalityRepeat; pass++ {
				acc ^= touch(ws, p.LineSize, p.WriteEvery)
			}
		}
		sink ^= acc
	}, nil
}

// Run runs the full pattern over region. All validation happens before the
// first access, so a returned error means region was never touched.
func (e *Engine) Run(region []byte) error {
	loop, err := e.Prepare(region)
	if err != nil {
		return err
	}
	loop()
	return nil
}

// sink keeps the loaded bytes alive so the loads cannot be dropped.
var sink byte

// touch performs one pass over a working set: a store to every writeEvery'th
// line and a load from every other line.
//
//go:noinline
func touch(ws []byte, lineSize, writeEvery int) byte {
	var acc byte
	for i, off := 0, 0; off < len(ws); i, off = i+1, off+lineSize {
		if i%writeEvery == 0 {
			ws[off] = 1
		} else {
			acc ^= ws[off]
		}
	}
	return acc
}
