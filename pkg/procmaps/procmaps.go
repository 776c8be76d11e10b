// Copyright 2021 Intel Corporation. All Rights Reserved.
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

// Package procmaps reads the virtual memory map of a process.
package procmaps

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Self is the PID used to refer to the calling process.
const Self = 0

// Mapping is one line of /proc/<pid>/maps.
type Mapping struct {
	Start  uint64
	End    uint64
	Perms  string
	Offset uint64
	Device string
	Inode  uint64
	Path   string
}

// Mappings is a parsed memory map.
type Mappings []Mapping

// Size returns the size of the mapping in bytes.
func (m Mapping) Size() uint64 {
	return m.End - m.Start
}

// Contains returns true if addr falls into the mapping.
func (m Mapping) Contains(addr uint64) bool {
	return m.Start <= addr && addr < m.End
}

// Anonymous returns true for mappings without a backing file.
func (m Mapping) Anonymous() bool {
	return m.Inode == 0 && (m.Path == "" || strings.HasPrefix(m.Path, "["))
}

// String returns the mapping in /proc/<pid>/maps format.
func (m Mapping) String() string {
	s := fmt.Sprintf("%x-%x %s %08x %s %d", m.Start, m.End, m.Perms, m.Offset, m.Device, m.Inode)
	if m.Path != "" {
		s += " " + m.Path
	}
	return s
}

// Find returns the mapping containing addr.
func (ms Mappings) Find(addr uint64) (Mapping, bool) {
	for _, m := range ms {
		if m.Contains(addr) {
			return m, true
		}
	}
	return Mapping{}, false
}

func path(pid int) string {
	if pid == Self {
		return "/proc/self/maps"
	}
	return "/proc/" + strconv.Itoa(pid) + "/maps"
}

// Copy copies the memory map of pid verbatim to w.
func Copy(w io.Writer, pid int) error {
	f, err := os.Open(path(pid))
	if err != nil {
		return errors.Wrap(err, "procmaps: failed to open memory map")
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrap(err, "procmaps: failed to copy memory map")
	}
	return nil
}

// Read reads and parses the memory map of pid.
func Read(pid int) (Mappings, error) {
	f, err := os.Open(path(pid))
	if err != nil {
		return nil, errors.Wrap(err, "procmaps: failed to open memory map")
	}
	defer f.Close()

	return Parse(f)
}

// Parse parses a memory map in /proc/<pid>/maps format. Lines look like
//
//	55d74cf13000-55d74cf14000 rw-p 00003000 fe:03 1194719   /usr/bin/python3.8
//	55d74e76d000-55d74e968000 rw-p 00000000 00:00 0         [heap]
//	7f3bcfe69000-7f3c4fe6a000 rw-p 00000000 00:00 0
func Parse(r io.Reader) (Mappings, error) {
	var maps Mappings

	s := bufio.NewScanner(r)
	for lineNo := 1; s.Scan(); lineNo++ {
		line := s.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		m, err := parseLine(line)
		if err != nil {
			return nil, errors.Wrapf(err, "procmaps: line %d", lineNo)
		}
		maps = append(maps, m)
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "procmaps: failed to read memory map")
	}

	return maps, nil
}

func parseLine(line string) (Mapping, error) {
	var (
		m   Mapping
		err error
	)

	fields := strings.Fields(line)
	if len(fields) < 5 {
		return m, fmt.Errorf("malformed mapping %q", line)
	}

	dashIndex := strings.Index(fields[0], "-")
	if dashIndex <= 0 {
		return m, fmt.Errorf("malformed address range %q", fields[0])
	}
	if m.Start, err = strconv.ParseUint(fields[0][:dashIndex], 16, 64); err != nil {
		return m, fmt.Errorf("invalid start address in %q", fields[0])
	}
	if m.End, err = strconv.ParseUint(fields[0][dashIndex+1:], 16, 64); err != nil || m.End < m.Start {
		return m, fmt.Errorf("invalid end address in %q", fields[0])
	}
	m.Perms = fields[1]
	if m.Offset, err = strconv.ParseUint(fields[2], 16, 64); err != nil {
		return m, fmt.Errorf("invalid offset %q", fields[2])
	}
	m.Device = fields[3]
	if m.Inode, err = strconv.ParseUint(fields[4], 10, 64); err != nil {
		return m, fmt.Errorf("invalid inode %q", fields[4])
	}
	if len(fields) > 5 {
		// paths may contain spaces
		m.Path = strings.Join(fields[5:], " ")
	}

	return m, nil
}
