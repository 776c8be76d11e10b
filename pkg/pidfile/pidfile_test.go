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
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	testPidFile = "pidfile-test.pid"
)

func prepare(t *testing.T) *PidFile {
	return New(filepath.Join(t.TempDir(), "run", testPidFile))
}

// deadPid returns the PID of a process that has already exited.
func deadPid(t *testing.T) int {
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	require.NoError(t, cmd.Run())
	return cmd.Process.Pid
}

func TestDefaultPath(t *testing.T) {
	path := DefaultPath("cachebench")
	require.Equal(t, "cachebench.pid", filepath.Base(path))
	require.Equal(t, path, Default("cachebench").Path())
}

func TestReadNonExisting(t *testing.T) {
	pid, err := prepare(t).Read()
	require.Nil(t, err)
	require.Equal(t, 0, pid)
}

func TestRemoveNonExisting(t *testing.T) {
	require.Nil(t, prepare(t).Remove())
}

func TestWrite(t *testing.T) {
	f := prepare(t)

	require.Nil(t, f.Write(os.Getpid()))

	pid, err := f.Read()
	require.Nil(t, err)
	require.Equal(t, os.Getpid(), pid)

	require.Nil(t, f.Remove())
	pid, err = f.Read()
	require.Nil(t, err)
	require.Equal(t, 0, pid)
}

func TestWriteInvalid(t *testing.T) {
	require.NotNil(t, prepare(t).Write(0))
	require.NotNil(t, prepare(t).Write(-3))
}

func TestFailToOverwriteRunning(t *testing.T) {
	f := prepare(t)

	require.Nil(t, f.Write(os.Getpid()))
	require.NotNil(t, f.Write(os.Getpid()))

	pid, err := f.Read()
	require.Nil(t, err)
	require.Equal(t, os.Getpid(), pid)
}

func TestOverwriteStale(t *testing.T) {
	f := prepare(t)
	dead := deadPid(t)

	require.Nil(t, f.Write(dead))
	owner, err := f.Owner()
	require.Nil(t, err)
	require.Equal(t, 0, owner)

	require.Nil(t, f.Write(os.Getpid()))
	pid, err := f.Read()
	require.Nil(t, err)
	require.Equal(t, os.Getpid(), pid)
}

func TestReadGarbage(t *testing.T) {
	f := prepare(t)
	require.Nil(t, os.MkdirAll(filepath.Dir(f.Path()), 0755))
	require.Nil(t, os.WriteFile(f.Path(), []byte("not-a-pid\n"), 0644))

	pid, err := f.Read()
	require.NotNil(t, err)
	require.Equal(t, -1, pid)

	_, err = f.Owner()
	require.NotNil(t, err)
	require.NotNil(t, f.Write(os.Getpid()))
}

func TestOwner(t *testing.T) {
	f := prepare(t)

	owner, err := f.Owner()
	require.Nil(t, err)
	require.Equal(t, 0, owner)

	require.Nil(t, f.Write(os.Getpid()))
	owner, err = f.Owner()
	require.Nil(t, err)
	require.Equal(t, os.Getpid(), owner)
}

func TestAlive(t *testing.T) {
	pid, err := Alive(os.Getpid())
	require.Nil(t, err)
	require.Equal(t, os.Getpid(), pid)

	pid, err = Alive(deadPid(t))
	require.Nil(t, err)
	require.Equal(t, 0, pid)
}
