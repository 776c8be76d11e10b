// Copyright 2022 Intel Corporation. All Rights Reserved.
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

package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// PidFile records the ID of a process, typically one left running in the
// background, so it can be found and killed later.
type PidFile struct {
	path string
}

// New returns a PID file at the given path.
func New(path string) *PidFile {
	return &PidFile{path: path}
}

// Default returns a PID file with the default path for name.
func Default(name string) *PidFile {
	return New(DefaultPath(name))
}

// Path returns the path of the PID file.
func (f *PidFile) Path() string {
	return f.path
}

// Write writes pid to the PID file. Write fails if the file exists and
// names a running process. A file naming a process that is gone is stale
// and gets overwritten.
func (f *PidFile) Write(pid int) error {
	if pid <= 0 {
		return pidfileError("invalid PID %d", pid)
	}

	owner, err := f.Owner()
	if err != nil {
		return err
	}
	if owner > 0 {
		return pidfileError("%s is owned by running process %d", f.path, owner)
	}
	if err := f.Remove(); err != nil {
		return errors.Wrap(err, "failed to remove stale PID file")
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return errors.Wrap(err, "failed to create PID file")
	}

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to create PID file")
	}
	defer file.Close()

	if _, err = file.Write([]byte(fmt.Sprintf("%d\n", pid))); err != nil {
		file.Close()
		os.Remove(f.path)
		return errors.Wrap(err, "failed to write PID file")
	}

	return nil
}

// Read reads the content of the PID file. It returns the process ID found
// in the file, or 0 if the file does not exist. If reading an integer
// process ID fails Read() returns -1 and an error.
func (f *PidFile) Read() (int, error) {
	buf, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return -1, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimRight(string(buf), "\n"))
	if err != nil {
		return -1, errors.Wrapf(err, "invalid PID (%q) in PID file", string(buf))
	}

	return pid, nil
}

// Remove removes the PID file unconditionally.
func (f *PidFile) Remove() error {
	err := os.Remove(f.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Owner returns the ID of the running process named by the PID file. 0 is
// returned if it is known that no process owns the file. -1 and an error
// is returned if the owner or its existence could not be determined.
func (f *PidFile) Owner() (int, error) {
	pid, err := f.Read()
	if err != nil {
		return -1, err
	}
	if pid == 0 {
		return 0, nil
	}
	return Alive(pid)
}

// Alive returns pid if the process is running, or 0 if it is gone.
func Alive(pid int) (int, error) {
	p, err := os.FindProcess(pid)
	if err != nil {
		return -1, errors.Wrapf(err, "FindProcess() failed for PID %d", pid)
	}

	err = p.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return pid, nil
	case err == os.ErrProcessDone, errors.Is(err, syscall.ESRCH):
		return 0, nil
	case errors.Is(err, syscall.EPERM):
		// exists, but owned by someone else
		return pid, nil
	}

	return -1, errors.Wrapf(err, "failed to check process %d", pid)
}

// DefaultPath returns the default PID file path for name.
func DefaultPath(name string) string {
	if euid := os.Geteuid(); euid > 0 {
		return filepath.Join(os.TempDir(), name+".pid")
	}
	return filepath.Join("/", "var", "run", name+".pid")
}

func pidfileError(format string, args ...interface{}) error {
	return fmt.Errorf("pidfile: "+format, args...)
}
