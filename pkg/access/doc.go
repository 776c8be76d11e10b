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

// Package access implements the synthetic memory access pattern measured by
// cachebench.
//
// A run consists of a number of outer iterations. Each iteration picks the
// base of a working set of cache lines, either advancing sequentially
// through the region or at random, then walks the working set several times
// in a row. Every WriteEvery'th line of a walk is stored to, every other one
// is loaded from. Revisiting the same lines gives the pattern temporal
// locality, so the measured miss rates reflect the working set size instead
// of plain streaming through memory.
//
// The engine allocates nothing and does no I/O once it has validated its
// parameters, so it can be bracketed tightly by hardware counters.
package access
