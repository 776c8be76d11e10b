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

package log

import (
	"flag"
	"sort"
	"strings"
)

const (
	// DefaultLevel is the default logging severity level.
	DefaultLevel = LevelInfo
	// command-line argument prefix.
	optPrefix = "logger"
	// Flag for enabling/disabling normal non-debug logging for sources.
	optEnable = optPrefix + "-sources"
	// Flag for enabling/disabling debug logging for sources.
	optDebug = optPrefix + "-debug"
	// Flag for selecting logging level.
	optLevel = optPrefix + "-level"
	// Flag for selecting logging backend.
	optBackend = optPrefix + "-backend"
)

// srcmap tracks logging or debugging settings for sources.
type srcmap map[string]bool

// ParseLevel parses the name of a severity level.
func ParseLevel(value string) (Level, error) {
	levels := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarn,
		"warning": LevelWarn,
		"error":   LevelError,
		"panic":   LevelPanic,
		"fatal":   LevelFatal,
	}
	level, ok := levels[strings.ToLower(value)]
	if !ok {
		return LevelInfo, loggerError("invalid logging level %s", value)
	}
	return level, nil
}

// String returns the name of the level.
func (l Level) String() string {
	names := map[Level]string{
		LevelDebug: "debug",
		LevelInfo:  "info",
		LevelWarn:  "warning",
		LevelError: "error",
		LevelPanic: "panic",
		LevelFatal: "fatal",
	}
	if level, ok := names[l]; ok {
		return level
	}
	return names[LevelInfo]
}

// EnableSources updates which sources produce non-debug messages. The value
// is a comma-separated list of source names, each optionally prefixed with
// 'on:' or 'off:'. A prefix sticks to the following names until the next
// prefix. '*' or 'all' stands for every source.
func EnableSources(spec string) error {
	return updateSources(spec, false)
}

// DebugSources updates which sources produce debug messages, using the same
// syntax as EnableSources.
func DebugSources(spec string) error {
	return updateSources(spec, true)
}

func updateSources(spec string, debug bool) error {
	log.Lock()
	defer log.Unlock()

	m := log.enable
	if debug {
		m = log.debug
	}
	if err := m.parse(spec); err != nil {
		return err
	}
	log.update()

	return nil
}

// parse parses a source list into the srcmap.
func (m srcmap) parse(value string) error {
	prev := ""
	for _, entry := range strings.Split(value, ",") {
		var state, src string
		statesrc := strings.Split(entry, ":")
		switch len(statesrc) {
		case 2:
			state, src = statesrc[0], statesrc[1]
		case 1:
			state, src = "", statesrc[0]
		default:
			return loggerError("invalid state entry '%s' in source map", entry)
		}

		if state != "" {
			prev = state
		} else {
			state = prev
			if state == "" {
				state = "on"
			}
		}
		if src == "all" {
			src = "*"
		}

		enabled, err := parseEnabled(state)
		if err != nil {
			return loggerError("invalid state '%s' in source map", state)
		}
		if src == "*" {
			for key := range m {
				delete(m, key)
			}
		}
		m[src] = enabled
	}
	return nil
}

// isEnabled checks the state of the given source, falling back to '*' then def.
func (m srcmap) isEnabled(source string, def bool) bool {
	if state, ok := m[source]; ok {
		return state
	}
	if state, ok := m["*"]; ok {
		return state
	}
	return def
}

// String returns a string representation of the srcmap.
func (m srcmap) String() string {
	var on, off []string
	for src, state := range m {
		if state {
			on = append(on, src)
		} else {
			off = append(off, src)
		}
	}
	sort.Strings(on)
	sort.Strings(off)

	switch {
	case len(off) == 0:
		return "on:" + strings.Join(on, ",")
	case len(on) == 0:
		return "off:" + strings.Join(off, ",")
	}
	return "on:" + strings.Join(on, ",") + ",off:" + strings.Join(off, ",")
}

func parseEnabled(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "enable", "enabled", "1":
		return true, nil
	case "off", "false", "disable", "disabled", "0":
		return false, nil
	}
	return false, loggerError("invalid enabled/disabled state '%s'", value)
}

// flag.Value adapters for our runtime state.
type (
	levelFlag   struct{}
	sourceFlag  struct{ debug bool }
	backendFlag struct{}
)

func (levelFlag) Set(value string) error {
	level, err := ParseLevel(value)
	if err != nil {
		return err
	}
	SetLevel(level)
	return nil
}

func (levelFlag) String() string {
	log.RLock()
	defer log.RUnlock()
	return log.level.String()
}

func (f sourceFlag) Set(value string) error {
	return updateSources(value, f.debug)
}

func (f sourceFlag) String() string {
	log.RLock()
	defer log.RUnlock()
	if f.debug {
		return log.debug.String()
	}
	return log.enable.String()
}

func (backendFlag) Set(value string) error {
	return SetBackend(value)
}

func (backendFlag) String() string {
	log.RLock()
	defer log.RUnlock()
	if log.active == nil {
		return FmtBackendName
	}
	return log.active.Name()
}

// RegisterFlags registers our command line options with the given FlagSet.
func RegisterFlags(fs *flag.FlagSet) {
	fs.Var(backendFlag{}, optBackend,
		"logger backend to use (fmt, klog).")
	fs.Var(levelFlag{}, optLevel,
		"lowest severity level to pass through (info, warning, error)")
	fs.Var(sourceFlag{debug: false}, optEnable,
		"comma-separated list of source names to enable/disable.\n"+
			"Specify '*' or 'all' to enable all sources, which is also the default.\n"+
			"Prefix a source or list with 'off:' to disable.")
	fs.Var(sourceFlag{debug: true}, optDebug,
		"comma-separated list of source names to enable debug messages for.\n"+
			"Specify '*' or 'all' to enable all sources.\n"+
			"Prefix a source or list with 'off:' to disable, which is also the default state.")
}

func init() {
	RegisterFlags(flag.CommandLine)
}
