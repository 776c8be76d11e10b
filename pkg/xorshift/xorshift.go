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

// Package xorshift implements a small, fast and fully reproducible
// xorshift pseudo-random source with 256 bits of state. The words are
// signed and shifted arithmetically, so a Source seeded with DefaultState
// yields the same sequence as the classic C simplerand over longs. It is
// cheap enough to sit inside measured loops without perturbing them much
// and, unlike math/rand's global source, every user owns its own state.
package xorshift

import (
	"fmt"
	"math/rand"
)

// State is the four-word generator state.
type State [4]uint64

// DefaultState is the classic seed state for the generator.
var DefaultState = State{1, 4, 7, 13}

// Source is a xorshift generator with four signed 64-bit words of state.
// It is not safe for concurrent use.
type Source struct {
	x, y, z, w int64
}

var _ rand.Source64 = &Source{}

// New creates a Source with the given initial state. An all-zero state
// would make the generator emit zeroes forever, so it is replaced by
// DefaultState.
func New(state State) *Source {
	if state.IsZero() {
		state = DefaultState
	}
	s := &Source{}
	s.set(state)
	return s
}

// Default creates a Source seeded with DefaultState.
func Default() *Source {
	return New(DefaultState)
}

// IsZero returns true if all words of the state are zero.
func (s State) IsZero() bool {
	return s[0] == 0 && s[1] == 0 && s[2] == 0 && s[3] == 0
}

// String returns the state as a comma-separated word list.
func (s State) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", s[0], s[1], s[2], s[3])
}

// State returns the current state of the generator.
func (s *Source) State() State {
	return State{uint64(s.x), uint64(s.y), uint64(s.z), uint64(s.w)}
}

func (s *Source) set(st State) {
	s.x, s.y, s.z, s.w = int64(st[0]), int64(st[1]), int64(st[2]), int64(st[3])
}

// Next returns the next value of the sequence. Right shifts are
// arithmetic, as they are on signed C longs.
func (s *Source) Next() int64 {
	t := s.x
	t ^= t << 11
	t ^= t >> 8
	s.x, s.y, s.z = s.y, s.z, s.w
	s.w ^= s.w >> 19
	s.w ^= t
	return s.w
}

// Uint64 returns the bits of the next value of the sequence.
func (s *Source) Uint64() uint64 {
	return uint64(s.Next())
}

// Int63 returns a non-negative 63-bit value, for math/rand compatibility.
func (s *Source) Int63() int64 {
	return int64(s.Uint64() & (1<<63 - 1))
}

// Below returns the bits of the next value reduced into [0, n). n must be
// positive.
func (s *Source) Below(n uint64) uint64 {
	return s.Uint64() % n
}

// Seed reseeds the generator from a single word, expanding it with
// splitmix64. The resulting state is never all-zero.
func (s *Source) Seed(seed int64) {
	v := uint64(seed)
	var st State
	for i := range st {
		v += 0x9e3779b97f4a7c15
		z := v
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		st[i] = z ^ (z >> 31)
	}
	if st.IsZero() {
		st = DefaultState
	}
	s.set(st)
}
