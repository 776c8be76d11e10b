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

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/intel/cachebench/pkg/contention"
	"github.com/intel/cachebench/pkg/harness"
	"github.com/intel/cachebench/pkg/report"
	_ "github.com/intel/cachebench/pkg/version"

	logger "github.com/intel/cachebench/pkg/log"
)

func main() {
	contention.ChildMain()

	log := logger.Default()

	flag.Parse()

	if len(flag.Args()) != 0 {
		log.Error("unknown command-line arguments: %s", strings.Join(flag.Args(), ","))
		flag.Usage()
		os.Exit(1)
	}

	logger.SetupDebugToggleSignal(syscall.SIGUSR1)
	defer logger.ClearDebugToggleSignal()

	cfg, err := effectiveConfig()
	if err != nil {
		log.Fatal("failed to load configuration: %v", err)
	}

	if dumpConfig {
		dump, err := cfg.Dump()
		if err != nil {
			log.Fatal("%v", err)
		}
		fmt.Print(dump)
		return
	}

	opts, err := cfg.Options()
	if err != nil {
		log.Fatal("invalid configuration: %v", err)
	}

	res, err := harness.Run(opts)
	if err != nil {
		log.Fatal("measurement failed: %v", err)
	}

	if err := report.Write(os.Stdout, cfg.Format(), res); err != nil {
		log.Fatal("failed to write report: %v", err)
	}

	logger.Flush()
}
