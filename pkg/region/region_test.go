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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const testSize = 1 << 20

func requireZero(t *testing.T, mem []byte) {
	t.Helper()
	require.True(t, bytes.Equal(mem, make([]byte, len(mem))), "region not zeroed")
}

func TestKinds(t *testing.T) {
	for _, tc := range []struct {
		opts Options
	}{
		{Options{Kind: Heap, Size: testSize}},
		{Options{Kind: Heap, Size: testSize, Zero: true}},
		{Options{Kind: Anonymous, Size: testSize}},
		{Options{Kind: Anonymous, Size: testSize, Populate: true, Zero: true}},
		{Options{Kind: File, Size: testSize}},
		{Options{Kind: File, Size: testSize, Populate: true}},
	} {
		opts := tc.opts
		t.Run(string(opts.Kind), func(t *testing.T) {
			if opts.Kind == File {
				opts.Path = filepath.Join(t.TempDir(), "backing")
			}
			r, err := New(opts)
			require.NoError(t, err)
			require.Equal(t, opts.Kind, r.Kind())
			require.Equal(t, testSize, r.Size())
			require.Len(t, r.Bytes(), testSize)
			requireZero(t, r.Bytes())

			mem := r.Bytes()
			mem[0], mem[testSize-1] = 1, 1

			require.NoError(t, r.Close())
			require.Nil(t, r.Bytes())
			require.NoError(t, r.Close())
		})
	}
}

func TestFileReplacesStaleContents(t *testing.T) {
	for _, stale := range []int{0, testSize / 2, testSize, 3 * testSize} {
		path := filepath.Join(t.TempDir(), "backing")
		require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xa5}, stale), 0644))

		r, err := New(Options{Kind: File, Size: testSize, Path: path})
		require.NoError(t, err, "stale size %d", stale)
		require.Equal(t, path, r.Path())
		requireZero(t, r.Bytes())

		fi, err := os.Stat(path)
		require.NoError(t, err)
		require.Equal(t, int64(testSize), fi.Size())

		r.Bytes()[42] = 7
		require.NoError(t, r.Close())

		// the file outlives the region, and is shared
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Len(t, data, testSize)
		require.Equal(t, byte(7), data[42])
	}
}

func TestFileOpenFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no", "such", "dir", "backing")
	_, err := New(Options{Kind: File, Size: testSize, Path: path})
	require.Error(t, err)
}

func TestInvalidOptions(t *testing.T) {
	_, err := New(Options{Kind: Heap})
	require.Error(t, err)
	_, err = New(Options{Kind: "hugetlb", Size: testSize})
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		require.Equal(t, k, parsed)
	}
	parsed, err := ParseKind("ANONYMOUS")
	require.NoError(t, err)
	require.Equal(t, Anonymous, parsed)

	_, err = ParseKind("stack")
	require.Error(t, err)
}

func TestString(t *testing.T) {
	r, err := New(Options{Kind: Anonymous, Size: testSize, Populate: true, Zero: true})
	require.NoError(t, err)
	defer r.Close()
	require.Equal(t, "anonymous region of 1048576 bytes, populated, zeroed", r.String())
}

func TestMapping(t *testing.T) {
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			opts := Options{Kind: kind, Size: testSize}
			if kind == File {
				opts.Path = filepath.Join(t.TempDir(), "backing")
			}
			r, err := New(opts)
			require.NoError(t, err)
			defer r.Close()

			m, err := r.Mapping()
			require.NoError(t, err)
			if kind != Heap {
				require.GreaterOrEqual(t, m.Size(), uint64(testSize))
			}

			if kind == File {
				path, err := filepath.EvalSymlinks(opts.Path)
				require.NoError(t, err)
				require.Equal(t, path, m.Path)
				require.False(t, m.Anonymous())
				require.Contains(t, m.Perms, "s")
			} else {
				require.True(t, m.Anonymous(), "%s", m)
			}
		})
	}
}

func TestMappingAfterClose(t *testing.T) {
	r, err := New(Options{Kind: Anonymous, Size: testSize})
	require.NoError(t, err)
	require.NoError(t, r.Close())
	_, err = r.Mapping()
	require.Error(t, err)
}

func TestPopulatedFileIsResident(t *testing.T) {
	r, err := New(Options{
		Kind:     File,
		Size:     testSize,
		Populate: true,
		Path:     filepath.Join(t.TempDir(), "backing"),
	})
	require.NoError(t, err)
	defer r.Close()

	pageSize := os.Getpagesize()
	vec := make([]byte, (testSize+pageSize-1)/pageSize)
	require.NoError(t, unix.Mincore(r.Bytes(), vec))
	for i, v := range vec {
		require.Equal(t, byte(1), v&1, "page #%d not resident", i)
	}
}
