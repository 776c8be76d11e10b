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

package harness

import (
	"bytes"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/intel/cachebench/pkg/access"
	"github.com/intel/cachebench/pkg/affinity"
	"github.com/intel/cachebench/pkg/contention"
	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/perf"
	"github.com/intel/cachebench/pkg/procmaps"
	"github.com/intel/cachebench/pkg/region"
	"github.com/intel/cachebench/pkg/rusage"
	"github.com/intel/cachebench/pkg/xorshift"
)

var log = logger.NewLogger("harness")

// Options describe one measurement run.
type Options struct {
	// CPU to pin the process and count events on.
	CPU int
	// Region is the memory the pattern runs over.
	Region region.Options
	// Pattern is the measured access pattern.
	Pattern access.Pattern
	// Seed seeds random base selection, 0 for the default sequence.
	Seed int64
	// Backend is the name of the counter backend.
	Backend string
	// Events are the counted events.
	Events perf.Selection
	// Contention configures a contention child, nil for none.
	Contention *contention.Options
	// Maps collects the memory map of the process after measuring.
	Maps bool
	// DisableGC turns off garbage collection while measuring.
	DisableGC bool
}

// Result is the outcome of a measurement run.
type Result struct {
	CPU           int
	Pattern       access.Pattern
	RegionKind    region.Kind
	RegionSize    int
	Backend       string
	Events        perf.Selection
	Counts        perf.Counts
	Usage         rusage.Snapshot
	Elapsed       time.Duration
	ContentionPid int
	Maps          []byte
}

// MissRate returns the miss rate of the run in percent.
func (r *Result) MissRate() (float64, error) {
	return r.Counts.MissRate()
}

// TLBMissRate returns the TLB miss rate of the run in percent.
func (r *Result) TLBMissRate() (float64, error) {
	return r.Counts.TLBMissRate()
}

// Run runs one measurement. The calling goroutine gets locked to its OS
// thread, and the whole process pinned to opts.CPU, for the rest of the
// run. Contention children are spawned before pinning.
func Run(opts Options) (res *Result, retErr error) {
	if err := opts.Pattern.Validate(opts.Region.Size); err != nil {
		return nil, err
	}
	if opts.Events.Access.Name == "" || opts.Events.Miss.Name == "" || opts.Events.TLBMiss.Name == "" {
		return nil, harnessError("incomplete event selection")
	}
	backend, err := perf.GetBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	cleanup := func(what string, fn func() error) {
		if err := fn(); err != nil {
			log.Error("failed to %s: %v", what, err)
			retErr = multierror.Append(retErr, err)
			res = nil
		}
	}

	res = &Result{
		CPU:        opts.CPU,
		Pattern:    opts.Pattern,
		RegionKind: opts.Region.Kind,
		RegionSize: opts.Region.Size,
		Backend:    backend.Name(),
		Events:     opts.Events,
	}

	if opts.Contention != nil {
		child, err := contention.Spawn(*opts.Contention)
		if err != nil {
			return nil, err
		}
		defer cleanup("stop contention", child.Stop)
		res.ContentionPid = child.Pid()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := affinity.Pin(opts.CPU); err != nil {
		return nil, err
	}

	counters, err := perf.OpenSet(backend, opts.Events, opts.CPU)
	if err != nil {
		return nil, err
	}
	defer cleanup("close counters", counters.Close)

	mem, err := region.New(opts.Region)
	if err != nil {
		return nil, err
	}
	defer cleanup("release memory", mem.Close)

	rng := xorshift.Default()
	if opts.Seed != 0 {
		rng.Seed(opts.Seed)
	}
	engine := access.NewEngine(opts.Pattern, rng)

	log.Info("measuring %s", opts.Pattern)
	log.Info("  over %s", mem)
	log.Info("  counting %s, %s, %s with %s backend on CPU #%d",
		opts.Events.Access, opts.Events.Miss, opts.Events.TLBMiss, backend.Name(), opts.CPU)
	log.Debug("  %d line touches", opts.Pattern.Touches())
	if m, err := mem.Mapping(); err != nil {
		log.Warn("failed to look up mapping of region: %v", err)
	} else {
		log.Debug("  region lives in mapping %s", m)
	}

	if opts.DisableGC {
		runtime.GC()
		gcPercent := debug.SetGCPercent(-1)
		defer debug.SetGCPercent(gcPercent)
	}

	loop, err := engine.Prepare(mem.Bytes())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res.Counts, err = counters.Measure(loop)
	res.Elapsed = time.Since(start)
	if err != nil {
		return nil, err
	}
	log.Info("measured in %s", res.Elapsed)

	if res.Usage, err = rusage.Take(); err != nil {
		return nil, err
	}

	if opts.Maps {
		var buf bytes.Buffer
		if err := procmaps.Copy(&buf, procmaps.Self); err != nil {
			return nil, err
		}
		res.Maps = buf.Bytes()
	}

	return res, nil
}

func harnessError(format string, args ...interface{}) error {
	return fmt.Errorf("harness: "+format, args...)
}
