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

package perf

import (
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// UnixBackendName is the name of the raw perf_event_open(2) backend.
const UnixBackendName = "unix"

type unixBackend struct{}

type unixCounter struct {
	event Event
	fd    int
}

func (unixBackend) Name() string {
	return UnixBackendName
}

func (unixBackend) Open(e Event, cpu int) (Counter, error) {
	attr := unix.PerfEventAttr{
		Type:   e.Type(),
		Size:   uint32(unsafe.Sizeof(unix.PerfEventAttr{})),
		Config: e.Config(),
		Bits:   unix.PerfBitDisabled | unix.PerfBitExcludeKernel | unix.PerfBitExcludeHv,
	}

	fd, err := unix.PerfEventOpen(&attr, 0, cpu, -1, unix.PERF_FLAG_FD_CLOEXEC)
	if err != nil {
		return nil, errors.Wrapf(err, "perf: failed to open %s counter on CPU %d", e.Name, cpu)
	}

	return &unixCounter{event: e, fd: fd}, nil
}

func (c *unixCounter) Enable() error {
	if err := unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_ENABLE, 0); err != nil {
		return errors.Wrapf(err, "perf: failed to enable %s counter", c.event.Name)
	}
	return nil
}

func (c *unixCounter) Disable() error {
	if err := unix.IoctlSetInt(c.fd, unix.PERF_EVENT_IOC_DISABLE, 0); err != nil {
		return errors.Wrapf(err, "perf: failed to disable %s counter", c.event.Name)
	}
	return nil
}

func (c *unixCounter) Read() (uint64, error) {
	var buf [8]byte

	n, err := unix.Read(c.fd, buf[:])
	if err != nil {
		return 0, errors.Wrapf(err, "perf: failed to read %s counter", c.event.Name)
	}
	if n != len(buf) {
		return 0, perfError("short read of %s counter (%d bytes)", c.event.Name, n)
	}

	return binary.NativeEndian.Uint64(buf[:]), nil
}

func (c *unixCounter) Close() error {
	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	if err != nil {
		return errors.Wrapf(err, "perf: failed to close %s counter", c.event.Name)
	}
	return nil
}

func init() {
	RegisterBackend(unixBackend{})
}
