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

package rusage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestTake(t *testing.T) {
	before, err := Take()
	require.NoError(t, err)

	// burn some CPU and fault in some memory
	buf := make([]byte, 32<<20)
	for i := 0; i < len(buf); i += 4096 {
		buf[i] = byte(i)
	}
	deadline := time.Now().Add(20 * time.Millisecond)
	for time.Now().Before(deadline) {
	}

	after, err := Take()
	require.NoError(t, err)
	require.Greater(t, after.MaxRSS, int64(0))
	require.GreaterOrEqual(t, after.MinorFaults, before.MinorFaults)
	require.GreaterOrEqual(t, after.UserTime+after.SystemTime, before.UserTime+before.SystemTime)
	require.Greater(t, after.UserTime+after.SystemTime, time.Duration(0))
}

func TestFromRusage(t *testing.T) {
	ru := &unix.Rusage{
		Utime:   unix.Timeval{Sec: 3, Usec: 250},
		Stime:   unix.Timeval{Sec: 0, Usec: 999999},
		Maxrss:  2048,
		Minflt:  11,
		Majflt:  1,
		Inblock: 8,
		Oublock: 16,
		Nvcsw:   5,
		Nivcsw:  7,
	}
	s := FromRusage(ru)
	require.Equal(t, Snapshot{
		UserTime:            3*time.Second + 250*time.Microsecond,
		SystemTime:          999999 * time.Microsecond,
		MaxRSS:              2048,
		MinorFaults:         11,
		MajorFaults:         1,
		BlockInputs:         8,
		BlockOutputs:        16,
		VoluntarySwitches:   5,
		InvoluntarySwitches: 7,
	}, s)

	sec, usec := Split(s.UserTime)
	require.Equal(t, int64(3), sec)
	require.Equal(t, int64(250), usec)
	sec, usec = Split(s.SystemTime)
	require.Equal(t, int64(0), sec)
	require.Equal(t, int64(999999), usec)
}
