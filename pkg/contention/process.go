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
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/pkg/errors"

	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/pidfile"
)

var log = logger.NewLogger("contention")

// stopTimeout is how long Stop waits for a killed child to be reaped.
const stopTimeout = 5 * time.Second

// Process is a running contention child.
type Process struct {
	opts    Options
	cmd     *exec.Cmd
	pid     int
	done    chan struct{}
	err     error
	stopped bool
}

// Spawn starts a contention child by re-executing the running binary. It
// should be called before the harness pins itself, so the child does not
// inherit the measurement CPU unless asked to.
func Spawn(opts Options) (*Process, error) {
	if opts.Lifetime == Orphan && opts.PidFile == "" {
		return nil, contentionError("orphan contention child needs a PID file")
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, errors.Wrap(err, "contention: failed to find own executable")
	}

	cmd := exec.Command(exe, opts.args()...)
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	switch opts.Lifetime {
	case Bound:
		cmd.SysProcAttr.Pdeathsig = syscall.SIGKILL
	case Orphan:
	default:
		return nil, contentionError("unknown contention lifetime %q", opts.Lifetime)
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "contention: failed to start child")
	}

	pid := cmd.Process.Pid
	p := &Process{opts: opts, cmd: cmd, pid: pid}

	if opts.Lifetime == Orphan {
		if err := pidfile.New(opts.PidFile).Write(pid); err != nil {
			cmd.Process.Kill()
			cmd.Wait()
			return nil, errors.Wrap(err, "contention: failed to record child PID")
		}
		cmd.Process.Release()
		log.Info("started orphan contention child %d (PID recorded in %s)", pid, opts.PidFile)
		return p, nil
	}

	p.done = make(chan struct{})
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()

	log.Info("started contention child %d", pid)
	return p, nil
}

// Pid returns the process ID of the child.
func (p *Process) Pid() int {
	return p.pid
}

// Lifetime returns the lifetime policy of the child.
func (p *Process) Lifetime() Lifetime {
	return p.opts.Lifetime
}

// Exited returns true if a bound child has already exited.
func (p *Process) Exited() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Stop ends the child according to its lifetime policy. Bound children
// are killed along with their process group and reaped. Orphan children
// are left running.
func (p *Process) Stop() error {
	pid := p.pid

	if p.stopped {
		return nil
	}
	p.stopped = true

	if p.opts.Lifetime == Orphan {
		log.Info("leaving contention child %d running, see %s", pid, p.opts.PidFile)
		return nil
	}

	if p.Exited() {
		if p.err != nil {
			log.Warn("contention child %d exited early: %v", pid, p.err)
		}
		return nil
	}

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return errors.Wrapf(err, "contention: failed to kill child %d", pid)
	}

	select {
	case <-p.done:
	case <-time.After(stopTimeout):
		return contentionError("child %d not reaped in %s", pid, stopTimeout)
	}

	log.Info("stopped contention child %d", pid)
	return nil
}
