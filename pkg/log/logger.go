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
	"fmt"
	"os"
)

// logger implements our Logger.
type logger struct {
	source    string // source name
	logging   bool   // non-debug messages enabled
	debugging bool   // debug messages enabled
}

// exit terminates the process after fatal errors. Tests override it.
var exit = os.Exit

// EnableDebug enables/disables debug logging for this logger.
func (l *logger) EnableDebug(state bool) bool {
	log.Lock()
	defer log.Unlock()

	old := l.debugging
	l.debugging = state
	log.debug[l.source] = state

	return old
}

// DebugEnabled checks debug logging is enabled for this logger.
func (l *logger) DebugEnabled() bool {
	log.RLock()
	defer log.RUnlock()
	return l.debugging || log.forced
}

// Source returns the source for the given logger.
func (l *logger) Source() string {
	return l.source
}

// Debug logs a debug message.
func (l *logger) Debug(format string, args ...interface{}) {
	if active, emit := l.config(LevelDebug); emit {
		active.Log(LevelDebug, l.source, format, args...)
	}
}

// Info logs a informational message.
func (l *logger) Info(format string, args ...interface{}) {
	if active, emit := l.config(LevelInfo); emit {
		active.Log(LevelInfo, l.source, format, args...)
	}
}

// Warn logs a warning message.
func (l *logger) Warn(format string, args ...interface{}) {
	if active, emit := l.config(LevelWarn); emit {
		active.Log(LevelWarn, l.source, format, args...)
	}
}

// Error logs an error message.
func (l *logger) Error(format string, args ...interface{}) {
	if active, emit := l.config(LevelError); emit {
		active.Log(LevelError, l.source, format, args...)
	}
}

// Fatal logs a fatal error message and os.Exit(1)'s.
func (l *logger) Fatal(format string, args ...interface{}) {
	active, _ := l.config(LevelFatal)
	active.Log(LevelFatal, l.source, format, args...)
	active.Flush()

	exit(1)
}

// Panic logs a panic message and panic()'s.
func (l *logger) Panic(format string, args ...interface{}) {
	active, _ := l.config(LevelPanic)
	active.Log(LevelPanic, l.source, format, args...)
	active.Flush()

	panic(fmt.Sprintf("["+l.source+"] "+format, args...))
}

// DebugBlock logs a multi-line debug message.
func (l *logger) DebugBlock(prefix string, format string, args ...interface{}) {
	if active, emit := l.config(LevelDebug); emit {
		active.Block(LevelDebug, l.source, prefix, format, args...)
	}
}

// InfoBlock logs a multi-line informational message.
func (l *logger) InfoBlock(prefix string, format string, args ...interface{}) {
	if active, emit := l.config(LevelInfo); emit {
		active.Block(LevelInfo, l.source, prefix, format, args...)
	}
}

// WarnBlock logs a multi-line warning message.
func (l *logger) WarnBlock(prefix string, format string, args ...interface{}) {
	if active, emit := l.config(LevelWarn); emit {
		active.Block(LevelWarn, l.source, prefix, format, args...)
	}
}

// ErrorBlock logs a multi-line error message.
func (l *logger) ErrorBlock(prefix string, format string, args ...interface{}) {
	if active, emit := l.config(LevelError); emit {
		active.Block(LevelError, l.source, prefix, format, args...)
	}
}

// config returns the active backend and if the level is logged.
func (l *logger) config(level Level) (Backend, bool) {
	log.RLock()
	defer log.RUnlock()

	switch {
	case level == LevelDebug:
		return log.active, l.debugging || log.forced
	case level < log.level:
		return log.active, false
	case level == LevelInfo:
		return log.active, l.logging
	default:
		return log.active, true
	}
}
