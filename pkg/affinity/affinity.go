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

// Package affinity pins the running process to a single CPU.
package affinity

import (
	"fmt"
	"os"
	"strconv"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/sysfs"
)

var log = logger.NewLogger("affinity")

// taskDir lists the threads of the running process.
var taskDir = "/proc/self/task"

// Pin restricts every thread of the process to cpu. Threads created later
// inherit the mask of their creator, so the whole process stays on cpu.
// The measuring goroutine should have locked its OS thread before calling
// Pin, so the counters it opens and the work it measures share a thread.
func Pin(cpu int) error {
	if err := sysfs.CheckOnline(cpu); err != nil {
		return affinityError("can't pin to CPU #%d: %v", cpu, err)
	}

	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)

	tids, err := threads()
	if err != nil {
		return err
	}

	var result *multierror.Error
	pinned := 0
	for _, tid := range tids {
		if err := unix.SchedSetaffinity(tid, &mask); err != nil {
			// threads may exit while we iterate
			if err == unix.ESRCH {
				continue
			}
			result = multierror.Append(result,
				errors.Wrapf(err, "affinity: failed to pin thread %d to CPU #%d", tid, cpu))
			continue
		}
		pinned++
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}

	log.Info("Process locked onto CPU core %d (%d threads).", cpu, pinned)
	return nil
}

// Current returns the CPUs the calling thread may run on.
func Current() ([]int, error) {
	var mask unix.CPUSet
	if err := unix.SchedGetaffinity(0, &mask); err != nil {
		return nil, errors.Wrap(err, "affinity: failed to get CPU affinity")
	}
	var cpus []int
	for cpu := 0; len(cpus) < mask.Count() && cpu < 8*int(unsafe.Sizeof(mask)); cpu++ {
		if mask.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}

// threads returns the IDs of all threads of the process.
func threads() ([]int, error) {
	entries, err := os.ReadDir(taskDir)
	if err != nil {
		return nil, errors.Wrapf(err, "affinity: failed to list threads")
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		tids = append(tids, tid)
	}
	if len(tids) == 0 {
		return nil, affinityError("no threads found in %s", taskDir)
	}
	return tids, nil
}

func affinityError(format string, args ...interface{}) error {
	return fmt.Errorf("affinity: "+format, args...)
}
