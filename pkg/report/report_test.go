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

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/intel/cachebench/pkg/harness"
	"github.com/intel/cachebench/pkg/perf"
	"github.com/intel/cachebench/pkg/rusage"
)

func testResult(counts perf.Counts) *harness.Result {
	return &harness.Result{
		Events: perf.DefaultSelection(),
		Counts: counts,
		Usage: rusage.Snapshot{
			UserTime:            2*time.Second + 17*time.Microsecond,
			SystemTime:          340 * time.Millisecond,
			MaxRSS:              1050112,
			MinorFaults:         262400,
			MajorFaults:         0,
			BlockInputs:         0,
			BlockOutputs:        8,
			VoluntarySwitches:   2,
			InvoluntarySwitches: 31,
		},
	}
}

func report(t *testing.T, format Format, res *harness.Result) string {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, format, res))
	return buf.String()
}

func TestLabeled(t *testing.T) {
	res := testResult(perf.Counts{Access: 1000, Miss: 50, TLBMiss: 1})
	res.Maps = []byte("00400000-00452000 r-xp 00000000 08:02 173521 /usr/bin/cachebench\n")

	expected := `00400000-00452000 r-xp 00000000 08:02 173521 /usr/bin/cachebench

Resource usage:
User CPU time used: 2 seconds, 17 microseconds
System CPU time used: 0 seconds, 340000 microseconds
Maximum resident set size (kB): 1050112
Page faults without I/O: 262400
Page faults with I/O: 0
Block input operations: 0
Block output operations: 8
Voluntary context switches: 2
Involuntary context switches: 31
L1 Data Cache Accesses: 1000
L1 Data Cache Misses: 50
Data TLB Misses: 1
L1 Data Cache Miss Percentage: 5.00000000%
Data TLB Miss Percentage: 0.10000000%
`
	if diff := cmp.Diff(expected, report(t, Labeled, res)); diff != "" {
		t.Errorf("unexpected report (-want +got):\n%s", diff)
	}
}

func TestBare(t *testing.T) {
	res := testResult(perf.Counts{Access: 1000, Miss: 50, TLBMiss: 1})

	expected := `
Resource usage:
2000017
340000
1050112
262400
0
0
8
2
31
1000
50
1
5
0.1
`
	if diff := cmp.Diff(expected, report(t, Bare, res)); diff != "" {
		t.Errorf("unexpected report (-want +got):\n%s", diff)
	}
}

func TestUndefinedRates(t *testing.T) {
	res := testResult(perf.Counts{Miss: 3, TLBMiss: 1})

	for _, format := range []Format{Labeled, Bare} {
		lines := strings.Split(strings.TrimSpace(report(t, format, res)), "\n")
		require.True(t, strings.HasSuffix(lines[len(lines)-2], Undefined), format)
		require.True(t, strings.HasSuffix(lines[len(lines)-1], Undefined), format)
		require.NotContains(t, strings.Join(lines, "\n"), "NaN")
		require.NotContains(t, strings.Join(lines, "\n"), "Inf")
	}
}

func TestPrometheus(t *testing.T) {
	res := testResult(perf.Counts{Access: 1000, Miss: 50, TLBMiss: 1})
	res.Maps = []byte("not part of the exposition\n")

	out := report(t, Prometheus, res)
	require.NotContains(t, out, "not part of the exposition")
	require.Contains(t, out, `cachebench_event_count{cpu="0",event="l1d-read-access",role="access"} 1000`)
	require.Contains(t, out, `cachebench_max_rss_kilobytes 1.050112e+06`)
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		parsed, err := ParseFormat(strings.ToUpper(string(f)))
		require.NoError(t, err)
		require.Equal(t, f, parsed)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
	require.Error(t, Write(&bytes.Buffer{}, Format("xml"), testResult(perf.Counts{})))
}
