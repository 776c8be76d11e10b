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
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// ChildFlag is the first argument of a re-executed contention child.
const ChildFlag = "--contention-child"

// Lifetime is the lifetime policy of a contention child.
type Lifetime string

const (
	// Bound children die with the harness: they get SIGKILL when the
	// harness exits and are killed and reaped by Process.Stop.
	Bound Lifetime = "bound"
	// Orphan children are left running when the harness exits. Their
	// PID is recorded in a PID file for external teardown.
	Orphan Lifetime = "orphan"
)

// ParseLifetime parses the name of a lifetime policy.
func ParseLifetime(name string) (Lifetime, error) {
	switch Lifetime(strings.ToLower(name)) {
	case Bound:
		return Bound, nil
	case Orphan:
		return Orphan, nil
	}
	return "", contentionError("unknown contention lifetime %q (bound, orphan)", name)
}

// Options configure a contention child.
type Options struct {
	// Lifetime is the lifetime policy of the child.
	Lifetime Lifetime
	// CPU is the CPU to pin the child to, or -1 to let it float.
	CPU int
	// Size is the size of memory the child maps, 0 for all physical memory.
	Size int64
	// Seed seeds the page selection, 0 for the default sequence.
	Seed int64
	// PidFile is where an orphan child's PID gets recorded.
	PidFile string
}

// DefaultOptions returns the default contention options.
func DefaultOptions() Options {
	return Options{
		Lifetime: Bound,
		CPU:      -1,
	}
}

// args returns the command line passing opts to a child.
func (o Options) args() []string {
	return []string{
		ChildFlag,
		"-cpu=" + strconv.Itoa(o.CPU),
		"-size=" + strconv.FormatInt(o.Size, 10),
		"-seed=" + strconv.FormatInt(o.Seed, 10),
	}
}

// parseArgs parses the child command line following ChildFlag.
func parseArgs(args []string) (Options, error) {
	opts := DefaultOptions()

	fs := flag.NewFlagSet("contention-child", flag.ContinueOnError)
	fs.IntVar(&opts.CPU, "cpu", opts.CPU, "CPU to pin to, -1 for none")
	fs.Int64Var(&opts.Size, "size", opts.Size, "bytes of memory to map, 0 for all")
	fs.Int64Var(&opts.Seed, "seed", opts.Seed, "page selection seed")
	if err := fs.Parse(args); err != nil {
		return opts, contentionError("invalid child arguments: %v", err)
	}
	if fs.NArg() > 0 {
		return opts, contentionError("unexpected child arguments: %s", strings.Join(fs.Args(), " "))
	}
	if opts.Size < 0 {
		return opts, contentionError("invalid child memory size %d", opts.Size)
	}

	return opts, nil
}

func contentionError(format string, args ...interface{}) error {
	return fmt.Errorf("contention: "+format, args...)
}
