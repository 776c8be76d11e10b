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

	"github.com/intel/cachebench/pkg/config"
)

var (
	cfg        = config.Default()
	configFile string
	dumpConfig bool
)

func init() {
	flag.StringVar(&configFile, config.ConfigFlag, "",
		"YAML configuration file, overridden by command line options")
	flag.BoolVar(&dumpConfig, "dump-config", false,
		"print the effective configuration and exit")
	cfg.RegisterFlags(flag.CommandLine)
}

// effectiveConfig returns the configuration after command line parsing.
func effectiveConfig() (*config.Config, error) {
	if configFile == "" {
		return cfg, nil
	}
	return config.Overlay(configFile, flag.CommandLine)
}
