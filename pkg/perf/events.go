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
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// Event describes a hardware cache event.
type Event struct {
	// Name is the short name used to select the event.
	Name string
	// Label is the human-readable name of the event count.
	Label string
	// RateLabel is the human-readable name of the rate derived from this
	// event against an access count. Empty for access events.
	RateLabel string
	// Cache, Op and Result select the cache event.
	Cache  uint64
	Op     uint64
	Result uint64
}

// Type returns the perf_event_attr type of the event.
func (e Event) Type() uint32 {
	return unix.PERF_TYPE_HW_CACHE
}

// Config returns the perf_event_attr config of the event.
func (e Event) Config() uint64 {
	return e.Cache | e.Op<<8 | e.Result<<16
}

// String returns the name of the event.
func (e Event) String() string {
	return e.Name
}

const (
	// L1DReadAccess counts L1 data cache reads.
	L1DReadAccess = "l1d-read-access"
	// L1DReadMiss counts L1 data cache read misses.
	L1DReadMiss = "l1d-read-miss"
	// DTLBReadMiss counts data TLB read misses.
	DTLBReadMiss = "dtlb-read-miss"
)

var events = map[string]Event{}

func defineEvent(name, label, rateLabel string, cache, op, result uint64) {
	events[name] = Event{
		Name:      name,
		Label:     label,
		RateLabel: rateLabel,
		Cache:     cache,
		Op:        op,
		Result:    result,
	}
}

func init() {
	const (
		l1d    = unix.PERF_COUNT_HW_CACHE_L1D
		ll     = unix.PERF_COUNT_HW_CACHE_LL
		dtlb   = unix.PERF_COUNT_HW_CACHE_DTLB
		read   = unix.PERF_COUNT_HW_CACHE_OP_READ
		write  = unix.PERF_COUNT_HW_CACHE_OP_WRITE
		access = unix.PERF_COUNT_HW_CACHE_RESULT_ACCESS
		miss   = unix.PERF_COUNT_HW_CACHE_RESULT_MISS
	)

	defineEvent(L1DReadAccess, "L1 Data Cache Accesses", "", l1d, read, access)
	defineEvent(L1DReadMiss, "L1 Data Cache Misses", "L1 Data Cache Miss Percentage", l1d, read, miss)
	defineEvent("l1d-write-access", "L1 Data Cache Write Accesses", "", l1d, write, access)
	defineEvent("l1d-write-miss", "L1 Data Cache Write Misses", "L1 Data Cache Write Miss Percentage", l1d, write, miss)
	defineEvent("ll-read-access", "Last Level Cache Accesses", "", ll, read, access)
	defineEvent("ll-read-miss", "Last Level Cache Misses", "Last Level Cache Miss Percentage", ll, read, miss)
	defineEvent("dtlb-read-access", "Data TLB Accesses", "", dtlb, read, access)
	defineEvent(DTLBReadMiss, "Data TLB Misses", "Data TLB Miss Percentage", dtlb, read, miss)
	defineEvent("dtlb-write-miss", "Data TLB Write Misses", "Data TLB Write Miss Percentage", dtlb, write, miss)
}

// LookupEvent returns the named event.
func LookupEvent(name string) (Event, error) {
	e, ok := events[strings.ToLower(name)]
	if !ok {
		return Event{}, perfError("unknown event %q (known events: %s)",
			name, strings.Join(EventNames(), ", "))
	}
	return e, nil
}

// EventNames returns the sorted names of all known events.
func EventNames() []string {
	names := make([]string, 0, len(events))
	for name := range events {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
