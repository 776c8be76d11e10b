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

package config

import (
	"flag"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/intel/cachebench/pkg/perf"
	"github.com/intel/cachebench/pkg/region"
	"github.com/intel/cachebench/pkg/report"
)

// ConfigFlag is the option naming a configuration file.
const ConfigFlag = "config"

// RegisterFlags binds the configuration to command line options of fs,
// using the current values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.CPU, "cpu", c.CPU, "CPU to pin to and count events on")

	fs.StringVar(&c.Region.Backing, "backing", c.Region.Backing,
		"memory backing of the measured region ("+kindNames()+")")
	fs.Var(&c.Region.Size, "region-size", "size of the measured region, like 1G or 512M")
	fs.BoolVar(&c.Region.Populate, "populate", c.Region.Populate, "prefault mapped regions")
	fs.BoolVar(&c.Region.Zero, "zero", c.Region.Zero, "clear the region and sync it before measuring")
	fs.StringVar(&c.Region.File, "backing-file", c.Region.File, "backing file of file regions")

	fs.BoolVar(&c.Pattern.Random, "random", c.Pattern.Random, "pick working sets randomly")
	fs.IntVar(&c.Pattern.LineSize, "line-size", c.Pattern.LineSize,
		"cache line size in bytes, 0 to ask the kernel")
	fs.IntVar(&c.Pattern.WorkingSetLines, "working-set", c.Pattern.WorkingSetLines,
		"cache lines per working set")
	fs.IntVar(&c.Pattern.LocalityRepeat, "locality", c.Pattern.LocalityRepeat,
		"passes over each working set")
	fs.IntVar(&c.Pattern.Iterations, "iterations", c.Pattern.Iterations, "number of working sets")
	fs.IntVar(&c.Pattern.WriteEvery, "write-every", c.Pattern.WriteEvery,
		"store to every Nth line of a pass")
	fs.Int64Var(&c.Pattern.Seed, "seed", c.Pattern.Seed, "random seed, 0 for the default sequence")

	fs.StringVar(&c.Counters.Backend, "counter-backend", c.Counters.Backend,
		"hardware counter backend ("+strings.Join(perf.BackendNames(), ", ")+")")
	fs.StringVar(&c.Counters.Access, "access-event", c.Counters.Access, "event counted as accesses")
	fs.StringVar(&c.Counters.Miss, "miss-event", c.Counters.Miss, "event counted as misses")
	fs.StringVar(&c.Counters.TLBMiss, "tlb-miss-event", c.Counters.TLBMiss, "event counted as TLB misses")

	fs.BoolVar(&c.Contention.Enabled, "contention", c.Contention.Enabled,
		"run a memory contention process while measuring")
	fs.StringVar(&c.Contention.Lifetime, "contention-lifetime", c.Contention.Lifetime,
		"lifetime of the contention process (bound, orphan)")
	fs.IntVar(&c.Contention.CPU, "contention-cpu", c.Contention.CPU,
		"CPU of the contention process, -1 to let it float")
	fs.Var(&c.Contention.Size, "contention-size", "memory touched by contention, 0 for all of it")
	fs.StringVar(&c.Contention.PidFile, "contention-pidfile", c.Contention.PidFile,
		"PID file of an orphaned contention process")

	fs.StringVar(&c.Report.Format, "format", c.Report.Format,
		"report format ("+formatNames()+")")
	fs.BoolVar(&c.Report.Maps, "maps", c.Report.Maps, "print the memory map before the report")

	fs.BoolVar(&c.DisableGC, "disable-gc", c.DisableGC, "turn off garbage collection while measuring")
}

// Overlay loads the configuration file at path and applies every option
// explicitly set on fs on top of it.
func Overlay(path string, fs *flag.FlagSet) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	ovr := flag.NewFlagSet(ConfigFlag, flag.ContinueOnError)
	c.RegisterFlags(ovr)

	var errs *multierror.Error
	fs.Visit(func(f *flag.Flag) {
		if ovr.Lookup(f.Name) == nil {
			return
		}
		if err := ovr.Set(f.Name, f.Value.String()); err != nil {
			errs = multierror.Append(errs, configError("option -%s: %v", f.Name, err))
		}
	})
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return c, nil
}

func kindNames() string {
	var names []string
	for _, k := range region.Kinds() {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func formatNames() string {
	var names []string
	for _, f := range report.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

