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

package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/utils/cpuset"
)

var (
	// sysRoot is where sysfs is mounted.
	sysRoot = "/sys"
	// procRoot is where procfs is mounted.
	procRoot = "/proc"
)

const (
	cpuDir = "devices/system/cpu"
	// DefaultCacheLineSize is used when the kernel does not tell.
	DefaultCacheLineSize = 64
)

// readSysfsEntry reads a sysfs entry, trimming trailing newlines.
func readSysfsEntry(entry ...string) (string, error) {
	path := filepath.Join(append([]string{sysRoot}, entry...)...)
	blob, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "sysfs: failed to read entry %s", path)
	}
	return strings.Trim(string(blob), "\n"), nil
}

// OnlineCPUs returns the set of online CPUs.
func OnlineCPUs() (cpuset.CPUSet, error) {
	online, err := readSysfsEntry(cpuDir, "online")
	if err != nil {
		return cpuset.New(), err
	}
	cset, err := cpuset.Parse(online)
	if err != nil {
		return cpuset.New(), sysfsError(filepath.Join(sysRoot, cpuDir, "online"),
			"failed to parse CPU set '%s': %v", online, err)
	}
	return cset, nil
}

// CheckOnline returns an error unless cpu is online.
func CheckOnline(cpu int) error {
	online, err := OnlineCPUs()
	if err != nil {
		return err
	}
	if !online.Contains(cpu) {
		return sysfsError("", "CPU #%d is not online (online CPUs: %s)", cpu, online.String())
	}
	return nil
}

// PhysicalMemory returns the total amount of physical memory in bytes.
func PhysicalMemory() (int64, error) {
	var total int64
	path := filepath.Join(procRoot, "meminfo")
	entries := map[string]interface{}{"MemTotal": &total}
	if err := ParseFileEntries(path, entries, PickColonEntry); err != nil {
		return 0, err
	}
	return total, nil
}

// CacheLineSize returns the coherency line size of the first level data
// cache of cpu, or DefaultCacheLineSize if the kernel does not expose it.
func CacheLineSize(cpu int) int {
	var size int
	entry, err := readSysfsEntry(cpuDir, fmt.Sprintf("cpu%d", cpu), "cache/index0/coherency_line_size")
	if err != nil {
		return DefaultCacheLineSize
	}
	if err := parseNumeric("", entry, &size); err != nil || size <= 0 {
		return DefaultCacheLineSize
	}
	return size
}

func sysfsError(path, format string, args ...interface{}) error {
	if path == "" {
		return fmt.Errorf("sysfs: "+format, args...)
	}
	return fmt.Errorf("sysfs: %s: "+format, append([]interface{}{path}, args...)...)
}
