// Copyright 2019 Intel Corporation. All Rights Reserved.
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
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"sigs.k8s.io/yaml"

	"github.com/intel/cachebench/pkg/access"
	"github.com/intel/cachebench/pkg/contention"
	"github.com/intel/cachebench/pkg/harness"
	"github.com/intel/cachebench/pkg/perf"
	"github.com/intel/cachebench/pkg/pidfile"
	"github.com/intel/cachebench/pkg/region"
	"github.com/intel/cachebench/pkg/report"
	"github.com/intel/cachebench/pkg/sysfs"
)

// Config is the configuration of a measurement run.
type Config struct {
	// CPU is the CPU to pin to and count events on.
	CPU int `json:"cpu"`
	// Region configures the measured memory.
	Region RegionConfig `json:"region"`
	// Pattern configures the access pattern.
	Pattern PatternConfig `json:"pattern"`
	// Counters configures hardware event counting.
	Counters CountersConfig `json:"counters"`
	// Contention configures the contention child.
	Contention ContentionConfig `json:"contention"`
	// Report configures the report.
	Report ReportConfig `json:"report"`
	// DisableGC turns garbage collection off while measuring.
	DisableGC bool `json:"disableGC"`
}

// RegionConfig configures the measured memory.
type RegionConfig struct {
	Backing  string   `json:"backing"`
	Size     ByteSize `json:"size"`
	Populate bool     `json:"populate"`
	Zero     bool     `json:"zero"`
	File     string   `json:"file"`
}

// PatternConfig configures the access pattern. A zero LineSize is
// replaced by the cache line size of the CPU.
type PatternConfig struct {
	Random          bool  `json:"random"`
	LineSize        int   `json:"lineSize"`
	WorkingSetLines int   `json:"workingSetLines"`
	LocalityRepeat  int   `json:"localityRepeat"`
	Iterations      int   `json:"iterations"`
	WriteEvery      int   `json:"writeEvery"`
	Seed            int64 `json:"seed"`
}

// CountersConfig configures hardware event counting.
type CountersConfig struct {
	Backend string `json:"backend"`
	Access  string `json:"access"`
	Miss    string `json:"miss"`
	TLBMiss string `json:"tlbMiss"`
}

// ContentionConfig configures the contention child. A zero Size maps all
// physical memory.
type ContentionConfig struct {
	Enabled  bool     `json:"enabled"`
	Lifetime string   `json:"lifetime"`
	CPU      int      `json:"cpu"`
	Size     ByteSize `json:"size"`
	PidFile  string   `json:"pidFile"`
}

// ReportConfig configures the report.
type ReportConfig struct {
	Format string `json:"format"`
	Maps   bool   `json:"maps"`
}

// Default returns the default configuration.
func Default() *Config {
	p := access.DefaultPattern()
	sel := perf.DefaultSelection()
	return &Config{
		CPU: 0,
		Region: RegionConfig{
			Backing: string(region.Heap),
			Size:    ByteSize(1 << 30),
			File:    region.DefaultPath,
		},
		Pattern: PatternConfig{
			Random:          p.RandomBase,
			LineSize:        p.LineSize,
			WorkingSetLines: p.WorkingSetLines,
			LocalityRepeat:  p.LocalityRepeat,
			Iterations:      p.Iterations,
			WriteEvery:      p.WriteEvery,
		},
		Counters: CountersConfig{
			Backend: perf.DefaultBackend,
			Access:  sel.Access.Name,
			Miss:    sel.Miss.Name,
			TLBMiss: sel.TLBMiss.Name,
		},
		Contention: ContentionConfig{
			Lifetime: string(contention.Bound),
			CPU:      -1,
			PidFile:  contentionPidFile,
		},
		Report: ReportConfig{
			Format: string(report.Labeled),
		},
		DisableGC: true,
	}
}

var contentionPidFile = pidfile.DefaultPath("cachebench-contention")

// Load reads a YAML (or JSON) configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("failed to read configuration file %s: %v", path, err)
	}
	return Parse(raw)
}

// Parse parses YAML (or JSON) configuration data on top of the defaults.
// Unknown fields are rejected.
func Parse(raw []byte) (*Config, error) {
	c := Default()
	if err := yaml.UnmarshalStrict(raw, c); err != nil {
		return nil, configError("failed to parse configuration: %v", err)
	}
	return c, nil
}

// Dump returns the configuration as YAML.
func (c *Config) Dump() (string, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return "", configError("failed to marshal configuration: %v", err)
	}
	return string(raw), nil
}

// pattern returns the access pattern of the configuration.
func (c *Config) pattern() access.Pattern {
	lineSize := c.Pattern.LineSize
	if lineSize == 0 {
		lineSize = sysfs.CacheLineSize(c.CPU)
	}
	return access.Pattern{
		RandomBase:      c.Pattern.Random,
		LineSize:        lineSize,
		WorkingSetLines: c.Pattern.WorkingSetLines,
		LocalityRepeat:  c.Pattern.LocalityRepeat,
		Iterations:      c.Pattern.Iterations,
		WriteEvery:      c.Pattern.WriteEvery,
	}
}

// Validate checks the configuration. All problems found are reported.
func (c *Config) Validate() error {
	_, err := c.Options()
	return err
}

// Options validates the configuration and converts it to harness options.
func (c *Config) Options() (harness.Options, error) {
	var (
		errs *multierror.Error
		opts = harness.Options{
			CPU:       c.CPU,
			Seed:      c.Pattern.Seed,
			Backend:   c.Counters.Backend,
			Maps:      c.Report.Maps,
			DisableGC: c.DisableGC,
		}
	)
	fail := func(err error) {
		errs = multierror.Append(errs, err)
	}

	if c.CPU < 0 {
		fail(configError("invalid CPU %d", c.CPU))
	}

	kind, err := region.ParseKind(c.Region.Backing)
	if err != nil {
		fail(err)
	}
	if c.Region.Size == 0 || uint64(c.Region.Size) > uint64(maxInt) {
		fail(configError("invalid region size %s", c.Region.Size.String()))
	}
	if kind == region.File && c.Region.File == "" {
		fail(configError("file backing needs a backing file"))
	}
	opts.Region = region.Options{
		Kind:     kind,
		Size:     int(c.Region.Size),
		Populate: c.Region.Populate,
		Zero:     c.Region.Zero,
		Path:     c.Region.File,
	}

	opts.Pattern = c.pattern()
	if err := opts.Pattern.Validate(opts.Region.Size); err != nil {
		fail(err)
	}

	if _, err := perf.GetBackend(c.Counters.Backend); err != nil {
		fail(err)
	}
	sel, err := perf.SelectEvents(c.Counters.Access, c.Counters.Miss, c.Counters.TLBMiss)
	if err != nil {
		fail(err)
	} else {
		if sel.Access.RateLabel != "" {
			fail(configError("access event %s is a miss event", sel.Access))
		}
		if sel.Miss.RateLabel == "" {
			fail(configError("miss event %s is not a miss event", sel.Miss))
		}
		if sel.TLBMiss.RateLabel == "" {
			fail(configError("TLB miss event %s is not a miss event", sel.TLBMiss))
		}
	}
	opts.Events = sel

	if c.Contention.Enabled {
		lifetime, err := contention.ParseLifetime(c.Contention.Lifetime)
		if err != nil {
			fail(err)
		}
		if lifetime == contention.Orphan && c.Contention.PidFile == "" {
			fail(configError("orphan contention needs a PID file"))
		}
		opts.Contention = &contention.Options{
			Lifetime: lifetime,
			CPU:      c.Contention.CPU,
			Size:     int64(c.Contention.Size),
			Seed:     c.Pattern.Seed,
			PidFile:  c.Contention.PidFile,
		}
	}

	if _, err := report.ParseFormat(c.Report.Format); err != nil {
		fail(err)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return harness.Options{}, err
	}
	return opts, nil
}

// Format returns the report format, falling back to the labeled one.
func (c *Config) Format() report.Format {
	f, err := report.ParseFormat(c.Report.Format)
	if err != nil {
		return report.Labeled
	}
	return f
}

const maxInt = int(^uint(0) >> 1)

func configError(format string, args ...interface{}) error {
	return fmt.Errorf("config: "+format, args...)
}
