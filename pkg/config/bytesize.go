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

package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"code.cloudfoundry.org/bytefmt"
)

// ByteSize is a size in bytes which implements flag.Value and JSON
// marshalling/unmarshalling. It accepts plain byte counts and sizes with
// units, like 512M or 1G.
type ByteSize uint64

var byteUnits = []struct {
	suffix string
	size   uint64
}{
	{"T", bytefmt.TERABYTE},
	{"G", bytefmt.GIGABYTE},
	{"M", bytefmt.MEGABYTE},
	{"K", bytefmt.KILOBYTE},
}

// ParseByteSize parses a size.
func ParseByteSize(value string) (ByteSize, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.ParseUint(value, 0, 64); err == nil {
		return ByteSize(n), nil
	}
	n, err := bytefmt.ToBytes(value)
	if err != nil {
		return 0, configError("invalid size %q: %v", value, err)
	}
	return ByteSize(n), nil
}

// Set implements flag.Value.
func (s *ByteSize) Set(value string) error {
	n, err := ParseByteSize(value)
	if err != nil {
		return err
	}
	*s = n
	return nil
}

// String returns the size with the largest unit that represents it exactly.
func (s *ByteSize) String() string {
	if s == nil {
		return "0"
	}
	n := uint64(*s)
	for _, u := range byteUnits {
		if n >= u.size && n%u.size == 0 {
			return strconv.FormatUint(n/u.size, 10) + u.suffix
		}
	}
	return strconv.FormatUint(n, 10)
}

// Human returns the size rounded for humans.
func (s ByteSize) Human() string {
	return bytefmt.ByteSize(uint64(s))
}

// MarshalJSON is the JSON marshaller for ByteSize.
func (s ByteSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON is the JSON unmarshaller for ByteSize.
func (s *ByteSize) UnmarshalJSON(data []byte) error {
	var n uint64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = ByteSize(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("invalid size %s", string(data))
	}
	return s.Set(str)
}
