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
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Counter is an opened hardware counter.
type Counter interface {
	// Enable starts counting.
	Enable() error
	// Disable stops counting.
	Disable() error
	// Read returns the count accumulated while enabled.
	Read() (uint64, error)
	// Close releases the counter.
	Close() error
}

// Backend opens hardware counters.
type Backend interface {
	// Name returns the name of the backend.
	Name() string
	// Open opens a disabled counter for the event, counting only user
	// space activity of the calling thread while it runs on cpu. The
	// caller is expected to have locked its OS thread.
	Open(e Event, cpu int) (Counter, error)
}

// DefaultBackend is the name of the default counter backend.
const DefaultBackend = UnixBackendName

var backends = struct {
	sync.RWMutex
	byName map[string]Backend
}{
	byName: make(map[string]Backend),
}

// RegisterBackend registers a counter backend.
func RegisterBackend(b Backend) {
	backends.Lock()
	defer backends.Unlock()
	backends.byName[b.Name()] = b
}

// GetBackend returns the named counter backend.
func GetBackend(name string) (Backend, error) {
	backends.RLock()
	defer backends.RUnlock()
	if b, ok := backends.byName[name]; ok {
		return b, nil
	}
	return nil, perfError("unknown counter backend %q (known backends: %s)",
		name, strings.Join(backendNames(), ", "))
}

// BackendNames returns the sorted names of the registered backends.
func BackendNames() []string {
	backends.RLock()
	defer backends.RUnlock()
	return backendNames()
}

func backendNames() []string {
	names := make([]string, 0, len(backends.byName))
	for name := range backends.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func perfError(format string, args ...interface{}) error {
	return fmt.Errorf("perf: "+format, args...)
}
