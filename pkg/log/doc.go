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

// Package log implements source-aware, leveled logging with pluggable
// backends.
//
// Every log source gets its own Logger. Non-debug messages are enabled
// for all sources by default, debug messages are disabled. Both can be
// toggled per source from the command line using the -logger-sources and
// -logger-debug options, or at runtime with EnableSources, DebugSources
// and Logger.EnableDebug. Messages are emitted to standard error by
// default, so standard output stays free for program output.
package log
