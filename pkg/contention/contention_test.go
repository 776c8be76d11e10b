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

package contention

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intel/cachebench/pkg/pidfile"
	"github.com/intel/cachebench/pkg/xorshift"
)

// TestMain lets the test binary double as a contention child.
func TestMain(m *testing.M) {
	ChildMain()
	os.Exit(m.Run())
}

const testSize = 4 << 20

func TestParseLifetime(t *testing.T) {
	l, err := ParseLifetime("Bound")
	require.NoError(t, err)
	require.Equal(t, Bound, l)
	l, err = ParseLifetime("orphan")
	require.NoError(t, err)
	require.Equal(t, Orphan, l)
	_, err = ParseLifetime("forever")
	require.Error(t, err)
}

func TestChildArgs(t *testing.T) {
	opts := Options{Lifetime: Bound, CPU: 3, Size: testSize, Seed: 17}
	args := opts.args()
	require.True(t, IsChild(append([]string{"cachebench"}, args...)))
	require.False(t, IsChild([]string{"cachebench", "-cpu=3"}))

	parsed, err := parseArgs(args[1:])
	require.NoError(t, err)
	require.Equal(t, 3, parsed.CPU)
	require.Equal(t, int64(testSize), parsed.Size)
	require.Equal(t, int64(17), parsed.Seed)

	_, err = parseArgs([]string{"-size=-1"})
	require.Error(t, err)
	_, err = parseArgs([]string{"-cpu=1", "extra"})
	require.Error(t, err)
}

func TestTouchStopsOnCancel(t *testing.T) {
	const pageSize = 4096
	mem := make([]byte, 16*pageSize)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	touched := touch(ctx, mem, 16, pageSize, xorshift.Default(), func() {
		calls++
		if calls == 3 {
			cancel()
		}
	})

	require.Equal(t, uint64(3*checkEvery), touched)
	for off, b := range mem {
		if off%pageSize != 0 {
			require.Zero(t, b, "offset %d", off)
		}
	}
	require.Equal(t, byte(1), maxByte(mem))
}

func maxByte(mem []byte) byte {
	var m byte
	for _, b := range mem {
		if b > m {
			m = b
		}
	}
	return m
}

func TestRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, Run(ctx, Options{CPU: -1, Size: testSize, Seed: 5}))
}

func TestRunTooSmall(t *testing.T) {
	require.Error(t, Run(context.Background(), Options{CPU: -1, Size: 1}))
}

func alive(t *testing.T, pid int) bool {
	owner, err := pidfile.Alive(pid)
	require.NoError(t, err)
	return owner == pid
}

func TestSpawnBound(t *testing.T) {
	p, err := Spawn(Options{Lifetime: Bound, CPU: -1, Size: testSize})
	require.NoError(t, err)
	require.Equal(t, Bound, p.Lifetime())
	require.True(t, alive(t, p.Pid()))

	time.Sleep(50 * time.Millisecond)
	require.False(t, p.Exited())

	require.NoError(t, p.Stop())
	require.True(t, p.Exited())
	require.False(t, alive(t, p.Pid()))

	// stopping again is harmless
	require.NoError(t, p.Stop())
}

func TestSpawnBoundFailingChild(t *testing.T) {
	p, err := Spawn(Options{Lifetime: Bound, CPU: -1, Size: 1})
	require.NoError(t, err)
	require.Eventually(t, p.Exited, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, p.Stop())
}

func TestSpawnOrphan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contention.pid")

	_, err := Spawn(Options{Lifetime: Orphan, CPU: -1, Size: testSize})
	require.Error(t, err)

	p, err := Spawn(Options{Lifetime: Orphan, CPU: -1, Size: testSize, PidFile: path})
	require.NoError(t, err)
	defer syscall.Kill(p.Pid(), syscall.SIGKILL)

	pid, err := pidfile.New(path).Read()
	require.NoError(t, err)
	require.Equal(t, p.Pid(), pid)

	require.NoError(t, p.Stop())
	require.True(t, alive(t, pid))

	// a second orphan can't take over the running one's PID file
	_, err = Spawn(Options{Lifetime: Orphan, CPU: -1, Size: testSize, PidFile: path})
	require.Error(t, err)
}
