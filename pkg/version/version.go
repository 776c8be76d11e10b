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

// Package version tags binaries with version metadata. Version and Build
// can be set at link time:
//
//	-ldflags "-X=github.com/intel/cachebench/pkg/version.Version=<version> \
//	          -X=github.com/intel/cachebench/pkg/version.Build=<build-id>"
//
// Otherwise they are taken from the module build information, if any.
package version

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
)

const unknown = "unknown"

var (
	// Version is our version as given by 'git describe'.
	Version = ""
	// Build is the SHA1 of the repository we've been built from.
	Build = ""
)

// Info returns the version and the build id of this binary.
func Info() (string, string) {
	version, build := Version, Build
	if bi, ok := debug.ReadBuildInfo(); ok {
		if version == "" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			version = bi.Main.Version
		}
		for _, s := range bi.Settings {
			if build == "" && s.Key == "vcs.revision" {
				build = s.Value
			}
		}
	}
	if version == "" {
		version = unknown
	}
	if build == "" {
		build = unknown
	}
	return version, build
}

// Print writes version information about this binary to w.
func Print(w io.Writer) {
	version, build := Info()
	fmt.Fprintf(w, "%s version information:\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(w, "  - version: %s\n", version)
	fmt.Fprintf(w, "  - build:   %s\n", build)
}

// versionFlag hooks printing into parsing of -version.
type versionFlag struct{}

func (versionFlag) IsBoolFlag() bool {
	return true
}

func (versionFlag) Set(value string) error {
	print, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if print {
		Print(os.Stdout)
		os.Exit(0)
	}
	return nil
}

func (versionFlag) String() string {
	return "false"
}

func init() {
	flag.Var(versionFlag{}, "version", "print version information and exit")
}
