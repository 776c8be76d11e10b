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

package xorshift

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKnownSequence(t *testing.T) {
	expected := map[int]int64{
		0:  2052,
		1:  10272,
		24: 579210683551891502,
		25: 6895755073317537139,
		26: 6988969847529933092,
		39: 6162028258082432778,
	}

	s := Default()
	for i := 0; i < 40; i++ {
		v := s.Next()
		if want, ok := expected[i]; ok {
			require.Equal(t, want, v, "draw #%d", i)
		}
	}
}

func TestUint64MatchesNext(t *testing.T) {
	a, b := Default(), Default()
	for i := 0; i < 1000; i++ {
		require.Equal(t, uint64(a.Next()), b.Uint64(), "draw #%d", i)
	}
}

func TestDeterminism(t *testing.T) {
	const draws = 1 << 16

	for _, state := range []State{DefaultState, {3, 5, 7, 11}, {1 << 63, 0, 0, 1}} {
		a, b := New(state), New(state)
		for i := 0; i < draws; i++ {
			va, vb := a.Next(), b.Next()
			if va != vb {
				t.Fatalf("state %s: draw #%d differs: %d != %d", state, i, va, vb)
			}
		}
		require.Equal(t, a.State(), b.State())
	}
}

func TestZeroStateIsReplaced(t *testing.T) {
	s := New(State{})
	require.Equal(t, DefaultState, s.State())
	require.NotZero(t, s.Uint64())
}

func TestNoShortCycle(t *testing.T) {
	const draws = 1 << 20

	s := Default()
	start := s.State()
	for i := 0; i < draws; i++ {
		s.Uint64()
		if s.State() == start {
			t.Fatalf("state repeated after %d draws", i+1)
		}
		if s.State().IsZero() {
			t.Fatalf("state collapsed to zero after %d draws", i+1)
		}
	}
}

func TestBelow(t *testing.T) {
	s := Default()
	for _, n := range []uint64{1, 2, 7, 512, 1<<21 - 512, 1 << 40} {
		for i := 0; i < 1000; i++ {
			v := s.Below(n)
			require.Less(t, v, n)
		}
	}
}

func TestSeed(t *testing.T) {
	a, b := Default(), Default()
	a.Seed(42)
	b.Seed(42)
	require.Equal(t, a.State(), b.State())
	require.False(t, a.State().IsZero())

	b.Seed(43)
	require.NotEqual(t, a.State(), b.State())
}

func TestMathRandSource(t *testing.T) {
	r := rand.New(Default())
	for i := 0; i < 1000; i++ {
		v := r.Intn(10)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 10)
		require.GreaterOrEqual(t, r.Int63(), int64(0))
	}
}
