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

// Package rusage takes resource usage snapshots of the running process.
package rusage

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Snapshot is the resource usage of the process at one point in time.
type Snapshot struct {
	UserTime            time.Duration
	SystemTime          time.Duration
	MaxRSS              int64 // kilobytes
	MinorFaults         int64
	MajorFaults         int64
	BlockInputs         int64
	BlockOutputs        int64
	VoluntarySwitches   int64
	InvoluntarySwitches int64
}

// Take returns the resource usage of the calling process.
func Take() (Snapshot, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return Snapshot{}, errors.Wrap(err, "rusage: getrusage failed")
	}
	return FromRusage(&ru), nil
}

// FromRusage converts a raw rusage into a Snapshot.
func FromRusage(ru *unix.Rusage) Snapshot {
	return Snapshot{
		UserTime:            time.Duration(ru.Utime.Nano()),
		SystemTime:          time.Duration(ru.Stime.Nano()),
		MaxRSS:              int64(ru.Maxrss),
		MinorFaults:         int64(ru.Minflt),
		MajorFaults:         int64(ru.Majflt),
		BlockInputs:         int64(ru.Inblock),
		BlockOutputs:        int64(ru.Oublock),
		VoluntarySwitches:   int64(ru.Nvcsw),
		InvoluntarySwitches: int64(ru.Nivcsw),
	}
}

// Split splits a duration into whole seconds and remaining microseconds.
func Split(d time.Duration) (sec, usec int64) {
	return int64(d / time.Second), int64(d % time.Second / time.Microsecond)
}
