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
	aclnperf "acln.ro/perf"
	"github.com/pkg/errors"
)

// AclnBackendName is the name of the acln.ro/perf based backend.
const AclnBackendName = "acln"

type aclnBackend struct{}

type aclnCounter struct {
	event Event
	ev    *aclnperf.Event
}

func (aclnBackend) Name() string {
	return AclnBackendName
}

func (aclnBackend) Open(e Event, cpu int) (Counter, error) {
	attr := &aclnperf.Attr{
		Label: e.Name,
		Options: aclnperf.Options{
			Disabled:          true,
			ExcludeKernel:     true,
			ExcludeHypervisor: true,
		},
	}
	hwc := aclnperf.HardwareCacheCounter{
		Cache:  aclnperf.Cache(e.Cache),
		Op:     aclnperf.CacheOp(e.Op),
		Result: aclnperf.CacheOpResult(e.Result),
	}
	if err := hwc.Configure(attr); err != nil {
		return nil, errors.Wrapf(err, "perf: failed to configure %s counter", e.Name)
	}

	ev, err := aclnperf.Open(attr, aclnperf.CallingThread, cpu, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "perf: failed to open %s counter on CPU %d", e.Name, cpu)
	}

	return &aclnCounter{event: e, ev: ev}, nil
}

func (c *aclnCounter) Enable() error {
	return errors.Wrapf(c.ev.Enable(), "perf: failed to enable %s counter", c.event.Name)
}

func (c *aclnCounter) Disable() error {
	return errors.Wrapf(c.ev.Disable(), "perf: failed to disable %s counter", c.event.Name)
}

func (c *aclnCounter) Read() (uint64, error) {
	count, err := c.ev.ReadCount()
	if err != nil {
		return 0, errors.Wrapf(err, "perf: failed to read %s counter", c.event.Name)
	}
	return count.Value, nil
}

func (c *aclnCounter) Close() error {
	return errors.Wrapf(c.ev.Close(), "perf: failed to close %s counter", c.event.Name)
}

func init() {
	RegisterBackend(aclnBackend{})
}
