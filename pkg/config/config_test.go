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
	"encoding/json"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/intel/cachebench/pkg/access"
	"github.com/intel/cachebench/pkg/contention"
	"github.com/intel/cachebench/pkg/perf"
	"github.com/intel/cachebench/pkg/region"
	"github.com/intel/cachebench/pkg/report"
	"github.com/intel/cachebench/pkg/testutils"
)

func TestByteSize(t *testing.T) {
	tcases := []struct {
		in      string
		size    ByteSize
		str     string
		invalid bool
	}{
		{in: "4096", size: 4096, str: "4K"},
		{in: "0x1000", size: 4096, str: "4K"},
		{in: "1000000", size: 1000000, str: "1000000"},
		{in: "512M", size: 512 << 20, str: "512M"},
		{in: "1g", size: 1 << 30, str: "1G"},
		{in: "1536M", size: 1536 << 20, str: "1536M"},
		{in: "2T", size: 2 << 40, str: "2T"},
		{in: "0", size: 0, str: "0"},
		{in: "lots", invalid: true},
		{in: "-1M", invalid: true},
	}
	for _, tc := range tcases {
		t.Run(tc.in, func(t *testing.T) {
			var s ByteSize
			err := s.Set(tc.in)
			if tc.invalid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.size, s)
			require.Equal(t, tc.str, s.String())
		})
	}
}

func TestByteSizeJSON(t *testing.T) {
	var v struct {
		A ByteSize `json:"a"`
		B ByteSize `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 8192, "b": "2M"}`), &v))
	require.Equal(t, ByteSize(8192), v.A)
	require.Equal(t, ByteSize(2<<20), v.B)

	raw, err := json.Marshal(v)
	require.NoError(t, err)
	require.JSONEq(t, `{"a": "8K", "b": "2M"}`, string(raw))

	require.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}

func TestDefault(t *testing.T) {
	c := Default()
	opts, err := c.Options()
	require.NoError(t, err)

	require.Equal(t, 0, opts.CPU)
	require.Equal(t, region.Heap, opts.Region.Kind)
	require.Equal(t, 1<<30, opts.Region.Size)
	require.Equal(t, access.DefaultPattern(), opts.Pattern)
	require.Equal(t, perf.DefaultSelection(), opts.Events)
	require.Equal(t, perf.DefaultBackend, opts.Backend)
	require.Nil(t, opts.Contention)
	require.True(t, opts.DisableGC)
	require.Equal(t, report.Labeled, c.Format())
}

func TestLoad(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "random-file.yaml"))
	require.NoError(t, err)

	opts, err := c.Options()
	require.NoError(t, err)

	require.Equal(t, 2, opts.CPU)
	require.Equal(t, region.Options{
		Kind:     region.File,
		Size:     64 << 20,
		Populate: true,
		Path:     "/tmp/cachebench-test.map",
	}, opts.Region)
	require.True(t, opts.Pattern.RandomBase)
	require.Equal(t, 1000, opts.Pattern.Iterations)
	require.Equal(t, access.DefaultWorkingSetLines, opts.Pattern.WorkingSetLines)
	require.Equal(t, int64(7), opts.Seed)
	require.Equal(t, "acln", opts.Backend)
	require.Equal(t, &contention.Options{
		Lifetime: contention.Orphan,
		CPU:      -1,
		Size:     128 << 20,
		Seed:     7,
		PidFile:  contentionPidFile,
	}, opts.Contention)
	require.True(t, opts.Maps)
	require.Equal(t, report.Bare, c.Format())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("regoin:\n  size: 1G\n"))
	require.Error(t, err, "unknown field")

	_, err = Parse([]byte("region:\n  size: huge\n"))
	require.Error(t, err, "invalid size")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tcases := []struct {
		name   string
		modify func(*Config)
		is     error
	}{
		{name: "negative CPU", modify: func(c *Config) { c.CPU = -1 }},
		{name: "unknown backing", modify: func(c *Config) { c.Region.Backing = "tape" }},
		{name: "empty region", modify: func(c *Config) { c.Region.Size = 0 }},
		{name: "file without path", modify: func(c *Config) {
			c.Region.Backing = "file"
			c.Region.File = ""
		}},
		{name: "region too small", is: access.ErrRegionTooSmall, modify: func(c *Config) {
			c.Region.Size = ByteSize(c.Pattern.WorkingSetLines * c.Pattern.LineSize)
		}},
		{name: "zero locality", modify: func(c *Config) { c.Pattern.LocalityRepeat = 0 }},
		{name: "unknown backend", modify: func(c *Config) { c.Counters.Backend = "papi" }},
		{name: "unknown event", modify: func(c *Config) { c.Counters.Miss = "l3-bogus" }},
		{name: "miss as access", modify: func(c *Config) { c.Counters.Access = "l1d-read-miss" }},
		{name: "access as miss", modify: func(c *Config) { c.Counters.TLBMiss = "dtlb-read-access" }},
		{name: "unknown lifetime", modify: func(c *Config) {
			c.Contention.Enabled = true
			c.Contention.Lifetime = "forever"
		}},
		{name: "orphan without pidfile", modify: func(c *Config) {
			c.Contention.Enabled = true
			c.Contention.Lifetime = "orphan"
			c.Contention.PidFile = ""
		}},
		{name: "unknown format", modify: func(c *Config) { c.Report.Format = "xml" }},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.modify(c)
			err := c.Validate()
			require.Error(t, err)
			if tc.is != nil {
				require.True(t, errors.Is(err, tc.is), "expected %v, got %v", tc.is, err)
			}
		})
	}
}

func TestValidateReportsAll(t *testing.T) {
	c := Default()
	c.Region.Backing = "tape"
	c.Report.Format = "xml"
	c.Counters.Backend = "papi"
	testutils.VerifyErrors(t, c.Validate(), 3, "tape", "xml", "papi")
}

func TestDetectedLineSize(t *testing.T) {
	c := Default()
	c.Pattern.LineSize = 0
	opts, err := c.Options()
	require.NoError(t, err)
	require.Greater(t, opts.Pattern.LineSize, 0)
}

func TestOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cachebench.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cpu: 1\nregion:\n  size: 256M\npattern:\n  random: true\n"), 0644))

	c := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"-region-size", "2G", "-format", "bare", "-random=false"}))

	c, err := Overlay(path, fs)
	require.NoError(t, err)
	require.Equal(t, 1, c.CPU)
	require.Equal(t, ByteSize(2<<30), c.Region.Size)
	require.False(t, c.Pattern.Random)
	require.Equal(t, "bare", c.Report.Format)
	require.Equal(t, access.DefaultIterations, c.Pattern.Iterations)
}

func TestDump(t *testing.T) {
	c := Default()
	c.Region.Size = 512 << 20
	out, err := c.Dump()
	require.NoError(t, err)
	require.Contains(t, out, "size: 512M")

	parsed, err := Parse([]byte(out))
	require.NoError(t, err)
	require.Equal(t, c, parsed)
}
