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
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/intel/cachebench/pkg/affinity"
	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/sysfs"
	"github.com/intel/cachebench/pkg/xorshift"
)

const (
	// checkEvery is how many touches are done between cancellation checks.
	checkEvery = 1 << 16
	// writeEvery makes every 8th touch a store.
	writeEvery = 8
	// progressInterval limits the rate of progress messages.
	progressInterval = 30 * time.Second
)

// sink keeps the loaded bytes alive so the loads cannot be dropped.
var sink byte

// Main runs a contention child with the command line following ChildFlag,
// until it gets killed or receives SIGINT or SIGTERM.
func Main(args []string) error {
	opts, err := parseArgs(args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return Run(ctx, opts)
}

// Run maps opts.Size bytes of memory and keeps touching random pages of it
// until ctx is done: one load per page, and a store on every 8th touch.
func Run(ctx context.Context, opts Options) error {
	if opts.CPU >= 0 {
		if err := affinity.Pin(opts.CPU); err != nil {
			return err
		}
	}

	size := opts.Size
	if size == 0 {
		mem, err := sysfs.PhysicalMemory()
		if err != nil {
			return errors.Wrap(err, "contention: failed to get memory size")
		}
		size = mem
	}

	pageSize := int64(unix.Getpagesize())
	pages := uint64(size / pageSize)
	if pages == 0 {
		return contentionError("memory size %d is smaller than a page", size)
	}

	log.Info("Total memsize is %3.2f GBs", float64(size)/(1024*1024*1024))

	mem, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_NORESERVE|unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return errors.Wrapf(err, "contention: failed to map %d bytes", size)
	}
	defer unix.Munmap(mem)

	rng := xorshift.Default()
	if opts.Seed != 0 {
		rng.Seed(opts.Seed)
	}

	progress := logger.RateLimit(log, logger.Interval(progressInterval))
	touched := touch(ctx, mem, pages, uint64(pageSize), rng, func() {
		progress.Info("contending for %d pages of memory", pages)
	})

	log.Info("done after touching %d pages", touched)
	return nil
}

// touch touches random pages until ctx is done, returning the touch count.
func touch(ctx context.Context, mem []byte, pages, pageSize uint64, rng *xorshift.Source, progress func()) uint64 {
	var acc byte
	for i := uint64(0); ; i++ {
		if i%checkEvery == 0 {
			select {
			case <-ctx.Done():
				sink ^= acc
				return i
			default:
				progress()
			}
		}
		off := rng.Below(pages) * pageSize
		acc += mem[off]
		if i%writeEvery == 0 {
			mem[off] = 1
		}
	}
}

// IsChild returns true if the command line is that of a contention child.
func IsChild(args []string) bool {
	return len(args) > 1 && args[1] == ChildFlag
}

// ChildMain runs the contention child if the command line is that of one,
// exiting the process when done. It returns otherwise.
func ChildMain() {
	if !IsChild(os.Args) {
		return
	}
	if err := Main(os.Args[2:]); err != nil {
		log.Error("%v", err)
		logger.Flush()
		os.Exit(1)
	}
	os.Exit(0)
}
