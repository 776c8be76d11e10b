// Copyright 2019 Intel Corporation. All Rights Reserved.
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

package sysfs

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// unit multipliers
const (
	k = (int64(1) << 10)
	M = (int64(1) << 20)
	G = (int64(1) << 30)
)

// unit name to multiplier mapping
var units = map[string]int64{
	"k": k, "kB": k, "K": k,
	"M": M, "MB": M,
	"G": G, "GB": G,
}

// PickEntryFn picks a given input line apart into an entry of key and value.
type PickEntryFn func(string) (string, string, error)

// PickColonEntry picks apart 'key: value' lines, as found in /proc/meminfo.
func PickColonEntry(line string) (string, string, error) {
	if line = strings.TrimSpace(line); line == "" {
		return "", "", nil
	}
	kv := strings.SplitN(line, ":", 2)
	if len(kv) != 2 {
		return "", "", sysfsError("", "malformed entry %q", line)
	}
	return strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1]), nil
}

// splitNumericAndUnit splits a string into a numeric and a unit part.
func splitNumericAndUnit(path string, value string) (string, int64, error) {
	fields := strings.Fields(value)

	switch len(fields) {
	case 1:
		num := fields[0]
		if unit, ok := units[num[len(num)-1:]]; ok {
			return num[:len(num)-1], unit, nil
		}
		return num, 1, nil
	case 2:
		unit, ok := units[fields[1]]
		if !ok {
			return "", -1, sysfsError(path, "failed to parse '%s', invalid unit '%s'",
				value, fields[1])
		}
		return fields[0], unit, nil
	}

	return "", -1, sysfsError(path, "invalid numeric value '%s'", value)
}

// parseNumeric parses a numeric string with an optional unit.
func parseNumeric(path, value string, ptr interface{}) error {
	numstr, unit, err := splitNumericAndUnit(path, value)
	if err != nil {
		return err
	}

	num, err := strconv.ParseInt(numstr, 0, 64)
	if err != nil {
		return sysfsError(path, "invalid numeric value '%s': %v", value, err)
	}

	switch p := ptr.(type) {
	case *int:
		*p = int(num * unit)
	case *int64:
		*p = num * unit
	case *uint64:
		if num < 0 {
			return sysfsError(path, "negative value '%s' for unsigned entry", value)
		}
		*p = uint64(num * unit)
	default:
		return sysfsError(path, "can't parse numeric value '%s' into type %T", value, ptr)
	}

	return nil
}

// ParseFileEntries parses a file for the given entries.
func ParseFileEntries(path string, values map[string]interface{}, pickFn PickEntryFn) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "sysfs: failed to read %s", path)
	}

	left := len(values)
	for _, line := range strings.Split(string(data), "\n") {
		key, value, err := pickFn(line)
		if err != nil {
			return err
		}

		ptr, ok := values[key]
		if !ok {
			continue
		}

		switch p := ptr.(type) {
		case *int, *int64, *uint64:
			if err = parseNumeric(path, value, ptr); err != nil {
				return err
			}
		case *string:
			*p = value
		default:
			return sysfsError(path, "don't know how to parse key '%s' of type %T", key, ptr)
		}

		left--
		if left == 0 {
			return nil
		}
	}

	return sysfsError(path, "%d entries not found", left)
}
