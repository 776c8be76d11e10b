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

package region

import (
	"fmt"
	"os"
	"strings"
	"unsafe"

	"github.com/edsrzf/mmap-go"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/procmaps"
)

// Kind is the type of memory backing a region.
type Kind string

const (
	// Heap regions are allocated from the Go heap.
	Heap Kind = "heap"
	// Anonymous regions are private anonymous mappings.
	Anonymous Kind = "anonymous"
	// File regions are shared mappings of a backing file.
	File Kind = "file"
)

// DefaultPath is the default backing file of file regions.
const DefaultPath = "cachebench.map"

var log = logger.NewLogger("region")

// Kinds returns all known region kinds.
func Kinds() []Kind {
	return []Kind{Heap, Anonymous, File}
}

// ParseKind parses the name of a region kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds() {
		if strings.EqualFold(name, string(k)) {
			return k, nil
		}
	}
	return "", regionError("unknown memory backing %q", name)
}

// Options describe how a region is set up.
type Options struct {
	// Kind selects the backing.
	Kind Kind
	// Size is the region size in bytes.
	Size int
	// Populate prefaults mappings at creation.
	Populate bool
	// Zero clears the region and, for mappings, syncs it before use.
	// File regions are always zeroed and synced.
	Zero bool
	// Path is the backing file of file regions.
	Path string
}

// Region is memory set up for a measurement.
type Region struct {
	opts Options
	mem  []byte
	anon []byte    // anonymous mapping, if any
	mmap mmap.MMap // file mapping, if any
	file *os.File
}

// New sets up a region according to opts. On failure nothing is left
// allocated or mapped.
func New(opts Options) (*Region, error) {
	if opts.Size <= 0 {
		return nil, regionError("invalid region size %d", opts.Size)
	}

	r := &Region{opts: opts}

	var err error
	switch opts.Kind {
	case Heap:
		r.mem = make([]byte, opts.Size)
	case Anonymous:
		err = r.mapAnonymous()
	case File:
		err = r.mapFile()
	default:
		err = regionError("unknown memory backing %q", opts.Kind)
	}
	if err == nil && (opts.Zero || opts.Kind == File) {
		err = r.zero()
	}

	if err != nil {
		if cerr := r.Close(); cerr != nil {
			err = multierror.Append(err, cerr)
		}
		return nil, err
	}

	log.Debug("set up %s", r)
	return r, nil
}

func (r *Region) mapAnonymous() error {
	flags := unix.MAP_PRIVATE | unix.MAP_ANONYMOUS
	if r.opts.Populate {
		flags |= unix.MAP_POPULATE
	}
	mem, err := unix.Mmap(-1, 0, r.opts.Size, unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil {
		return errors.Wrapf(err, "region: failed to map %d bytes of anonymous memory", r.opts.Size)
	}
	r.anon, r.mem = mem, mem
	return nil
}

func (r *Region) mapFile() error {
	path := r.opts.Path
	if path == "" {
		path = DefaultPath
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0666)
	if err != nil {
		return errors.Wrapf(err, "region: failed to open backing file")
	}
	r.file = f

	// Truncating to the current size would keep stale pages, so shrink
	// to zero first. This discards any prior contents.
	if err := f.Truncate(0); err != nil {
		return errors.Wrapf(err, "region: failed to truncate %s", path)
	}
	if err := f.Truncate(int64(r.opts.Size)); err != nil {
		return errors.Wrapf(err, "region: failed to resize %s to %d bytes", path, r.opts.Size)
	}

	m, err := mmap.MapRegion(f, r.opts.Size, mmap.RDWR, 0, 0)
	if err != nil {
		return errors.Wrapf(err, "region: failed to map %s", path)
	}
	r.mmap, r.mem = m, m

	// File regions are always zeroed through the mapping, which faults in
	// every page before measuring. The hint only starts readahead early.
	if r.opts.Populate {
		if err := unix.Madvise(m, unix.MADV_WILLNEED); err != nil {
			log.Warn("failed to prefault %s: %v", path, err)
		}
	}
	return nil
}

// zero clears the region and flushes mappings to their backing.
func (r *Region) zero() error {
	for i := range r.mem {
		r.mem[i] = 0
	}

	switch {
	case r.mmap != nil:
		if err := r.mmap.Flush(); err != nil {
			return errors.Wrapf(err, "region: failed to flush %s", r.file.Name())
		}
	case r.anon != nil:
		if err := unix.Msync(r.anon, unix.MS_SYNC); err != nil {
			return errors.Wrap(err, "region: failed to sync anonymous memory")
		}
	}
	return nil
}

// Mapping returns the entry of the process memory map the region lives in.
func (r *Region) Mapping() (procmaps.Mapping, error) {
	if len(r.mem) == 0 {
		return procmaps.Mapping{}, regionError("region is released")
	}
	maps, err := procmaps.Read(procmaps.Self)
	if err != nil {
		return procmaps.Mapping{}, err
	}
	addr := uint64(uintptr(unsafe.Pointer(&r.mem[0])))
	m, ok := maps.Find(addr)
	if !ok {
		return procmaps.Mapping{}, regionError("no mapping contains address %#x", addr)
	}
	return m, nil
}

// Bytes returns the memory of the region.
func (r *Region) Bytes() []byte {
	return r.mem
}

// Size returns the size of the region.
func (r *Region) Size() int {
	return len(r.mem)
}

// Kind returns the backing of the region.
func (r *Region) Kind() Kind {
	return r.opts.Kind
}

// Path returns the backing file of a file region.
func (r *Region) Path() string {
	if r.file == nil {
		return ""
	}
	return r.file.Name()
}

// String returns a description of the region.
func (r *Region) String() string {
	s := fmt.Sprintf("%s region of %d bytes", r.opts.Kind, r.opts.Size)
	if r.file != nil {
		s += " backed by " + r.file.Name()
	}
	if r.opts.Populate {
		s += ", populated"
	}
	if r.opts.Zero {
		s += ", zeroed"
	}
	return s
}

// Close releases the region. The backing file of a file region is kept.
func (r *Region) Close() error {
	var result *multierror.Error

	if r.mmap != nil {
		if err := r.mmap.Unmap(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "region: failed to unmap file"))
		}
		r.mmap = nil
	}
	if r.anon != nil {
		if err := unix.Munmap(r.anon); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "region: failed to unmap memory"))
		}
		r.anon = nil
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			result = multierror.Append(result, errors.Wrap(err, "region: failed to close backing file"))
		}
		r.file = nil
	}
	r.mem = nil

	return result.ErrorOrNil()
}

func regionError(format string, args ...interface{}) error {
	return fmt.Errorf("region: "+format, args...)
}
