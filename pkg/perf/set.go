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
	"errors"

	"github.com/hashicorp/go-multierror"
)

// ErrUndefinedRate is returned for rates against a zero access count.
var ErrUndefinedRate = errors.New("rate undefined for zero access count")

// Selection picks the events counted in the access, miss and TLB miss roles.
type Selection struct {
	Access  Event
	Miss    Event
	TLBMiss Event
}

// DefaultSelection returns the L1 data cache read and data TLB read miss events.
func DefaultSelection() Selection {
	return Selection{
		Access:  events[L1DReadAccess],
		Miss:    events[L1DReadMiss],
		TLBMiss: events[DTLBReadMiss],
	}
}

// SelectEvents looks up a Selection by event names.
func SelectEvents(access, miss, tlbMiss string) (Selection, error) {
	var (
		sel Selection
		err error
	)
	if sel.Access, err = LookupEvent(access); err != nil {
		return Selection{}, err
	}
	if sel.Miss, err = LookupEvent(miss); err != nil {
		return Selection{}, err
	}
	if sel.TLBMiss, err = LookupEvent(tlbMiss); err != nil {
		return Selection{}, err
	}
	return sel, nil
}

func (s Selection) events() []Event {
	return []Event{s.Access, s.Miss, s.TLBMiss}
}

// Counts are the values read from a Set.
type Counts struct {
	Access  uint64
	Miss    uint64
	TLBMiss uint64
}

// MissRate returns the miss count as a percentage of the access count.
func (c Counts) MissRate() (float64, error) {
	return Percent(c.Miss, c.Access)
}

// TLBMissRate returns the TLB miss count as a percentage of the access count.
func (c Counts) TLBMissRate() (float64, error) {
	return Percent(c.TLBMiss, c.Access)
}

// Percent returns part as a percentage of whole, or ErrUndefinedRate if
// whole is zero.
func Percent(part, whole uint64) (float64, error) {
	if whole == 0 {
		return 0, ErrUndefinedRate
	}
	return float64(part) / float64(whole) * 100, nil
}

// Set is the access, miss and TLB miss counters of one measurement.
type Set struct {
	selection Selection
	cpu       int
	counters  []Counter
}

// OpenSet opens disabled counters for all events of the selection on cpu.
// Either all counters get opened or none is left open.
func OpenSet(b Backend, sel Selection, cpu int) (*Set, error) {
	s := &Set{
		selection: sel,
		cpu:       cpu,
	}

	for _, e := range sel.events() {
		c, err := b.Open(e, cpu)
		if err != nil {
			if cerr := s.Close(); cerr != nil {
				err = multierror.Append(err, cerr)
			}
			return nil, err
		}
		s.counters = append(s.counters, c)
	}

	return s, nil
}

// Selection returns the events counted by the set.
func (s *Set) Selection() Selection {
	return s.selection
}

// CPU returns the CPU the set counts on.
func (s *Set) CPU() int {
	return s.cpu
}

// Enable enables all counters back to back.
func (s *Set) Enable() error {
	for _, c := range s.counters {
		if err := c.Enable(); err != nil {
			return err
		}
	}
	return nil
}

// Disable disables all counters back to back. All counters are disabled
// even if some of them fail.
func (s *Set) Disable() error {
	var result *multierror.Error
	for _, c := range s.counters {
		if err := c.Disable(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// Read reads all counters. Reads after Disable are repeatable.
func (s *Set) Read() (Counts, error) {
	if len(s.counters) != 3 {
		return Counts{}, perfError("counter set is closed")
	}

	var (
		values [3]uint64
		err    error
	)
	for i, c := range s.counters {
		if values[i], err = c.Read(); err != nil {
			return Counts{}, err
		}
	}

	return Counts{Access: values[0], Miss: values[1], TLBMiss: values[2]}, nil
}

// Measure counts fn: enables the counters right before calling it, disables
// them right after it returns, then reads them.
func (s *Set) Measure(fn func()) (Counts, error) {
	if err := s.Enable(); err != nil {
		if derr := s.Disable(); derr != nil {
			err = multierror.Append(err, derr)
		}
		return Counts{}, err
	}
	fn()
	if err := s.Disable(); err != nil {
		return Counts{}, err
	}
	return s.Read()
}

// Close closes all counters.
func (s *Set) Close() error {
	var result *multierror.Error
	for _, c := range s.counters {
		if err := c.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	s.counters = nil
	return result.ErrorOrNil()
}
