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

// Package perf counts hardware cache events of the calling thread.
//
// Counters are opened through a named Backend. The unix backend talks to
// perf_event_open(2) directly, the acln backend goes through acln.ro/perf.
// A Set groups the three counters of one measurement and brackets the
// measured work with back to back enables and disables.
package perf
