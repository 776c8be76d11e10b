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

package log

import (
	"fmt"
	"strings"
	"sync"
)

// Level describes the severity of log messages.
type Level int

const (
	// LevelDebug is the severity for debug messages.
	LevelDebug Level = iota
	// LevelInfo is the severity for informational messages.
	LevelInfo
	// LevelWarn is the severity for warnings.
	LevelWarn
	// LevelError is the severity for errors.
	LevelError
	// LevelPanic is the severity for panic messages.
	LevelPanic
	// LevelFatal is the severity for fatal errors.
	LevelFatal
	// levelHighest is the highest externally visible level
	levelHighest
)

// Logger is the interface for producing log messages for/from a particular source.
type Logger interface {
	// Debug formats and emits a debug message.
	Debug(format string, args ...interface{})
	// Info formats and emits an informational message.
	Info(format string, args ...interface{})
	// Warn formats and emits a warning message.
	Warn(format string, args ...interface{})
	// Error formats and emits an error message.
	Error(format string, args ...interface{})
	// Panic formats and emits an error message then panics with the same.
	Panic(format string, args ...interface{})
	// Fatal formats and emits an error message and os.Exit()'s with status 1.
	Fatal(format string, args ...interface{})

	// DebugBlock formats and emits a multiline debug message.
	DebugBlock(prefix string, format string, args ...interface{})
	// InfoBlock formats and emits a multiline information message.
	InfoBlock(prefix string, format string, args ...interface{})
	// WarnBlock formats and emits a multiline warning message.
	WarnBlock(prefix string, format string, args ...interface{})
	// ErrorBlock formats and emits a multiline error message.
	ErrorBlock(prefix string, format string, args ...interface{})

	// EnableDebug enables debug messages for this Logger.
	EnableDebug(bool) bool
	// DebugEnabled checks if debug messages are enabled for this Logger.
	DebugEnabled() bool

	// Source returns the source name of this Logger.
	Source() string
}

// logging is our runtime state.
type logging struct {
	sync.RWMutex
	level    Level                // lowest unsuppressed severity
	active   Backend              // active backend
	backend  map[string]BackendFn // registered backends
	loggers  map[string]*logger   // running loggers (log sources)
	enable   srcmap               // logging enabled/disabled per source
	debug    srcmap               // debugging enabled/disabled per source
	forced   bool                 // forced full debugging
	srcalign int                  // longest source name seen
}

var log = &logging{
	level:   DefaultLevel,
	backend: make(map[string]BackendFn),
	loggers: make(map[string]*logger),
	enable:  make(srcmap),
	debug:   make(srcmap),
}

// Get returns the Logger for the given source, creating it if necessary.
func Get(source string) Logger {
	return log.get(source)
}

// NewLogger is an alias for Get.
func NewLogger(source string) Logger {
	return log.get(source)
}

// SetLevel sets the lowest severity level of messages to pass through.
func SetLevel(level Level) {
	log.Lock()
	defer log.Unlock()
	log.level = level
}

// SetBackend activates the named Backend.
func SetBackend(name string) error {
	log.Lock()
	defer log.Unlock()
	return log.setBackend(name)
}

// Flush waits for all pending messages of the active backend to get emitted.
func Flush() {
	log.RLock()
	active := log.active
	log.RUnlock()
	if active != nil {
		active.Flush()
	}
}

func (log *logging) get(source string) *logger {
	source = strings.Trim(source, "[] ")

	log.Lock()
	defer log.Unlock()

	if l, ok := log.loggers[source]; ok {
		return l
	}

	l := &logger{source: source}
	l.logging, l.debugging = log.enable.isEnabled(source, true), log.debug.isEnabled(source, false)
	log.loggers[source] = l

	if len(source) > log.srcalign {
		log.srcalign = len(source)
		if log.active != nil {
			log.active.SetSourceAlignment(log.srcalign)
		}
	}

	return l
}

func (log *logging) setBackend(name string) error {
	createFn, ok := log.backend[name]
	if !ok {
		return loggerError("can't activate unknown backend %q", name)
	}
	if log.active != nil {
		if log.active.Name() == name {
			return nil
		}
		log.active.Stop()
	}
	log.active = createFn()
	log.active.SetSourceAlignment(log.srcalign)
	return nil
}

// update reconfigures all loggers after source map changes.
func (log *logging) update() {
	for source, l := range log.loggers {
		l.logging = log.enable.isEnabled(source, true)
		l.debugging = log.debug.isEnabled(source, false)
	}
}

func loggerError(format string, args ...interface{}) error {
	return fmt.Errorf("logger: "+format, args...)
}
