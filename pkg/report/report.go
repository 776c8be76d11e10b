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

package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/intel/cachebench/pkg/harness"
	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/metrics"
	"github.com/intel/cachebench/pkg/rusage"
)

// Format is a report format.
type Format string

const (
	// Labeled reports one labeled, human-readable value per line.
	Labeled Format = "labeled"
	// Bare reports one bare value per line, in the same order as Labeled.
	Bare Format = "bare"
	// Prometheus reports in Prometheus text exposition format.
	Prometheus Format = "prometheus"
)

// Undefined is reported for rates that have no value.
const Undefined = "undefined"

var log = logger.NewLogger("report")

// Formats returns all report formats.
func Formats() []Format {
	return []Format{Labeled, Bare, Prometheus}
}

// ParseFormat parses the name of a report format.
func ParseFormat(name string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(name, string(f)) {
			return f, nil
		}
	}
	return "", reportError("unknown report format %q", name)
}

// Write writes the report of a result in the given format. Labeled and
// bare reports start with the verbatim memory map, if one was collected,
// followed by a blank line, the resource usage, the raw event counts and
// the derived rates.
func Write(w io.Writer, format Format, res *harness.Result) error {
	bw := bufio.NewWriter(w)

	var err error
	switch format {
	case Labeled, Bare:
		err = writeLines(bw, format, res)
	case Prometheus:
		err = writePrometheus(bw, res)
	default:
		err = reportError("unknown report format %q", format)
	}
	if err != nil {
		return err
	}

	return errors.Wrap(bw.Flush(), "report: failed to write report")
}

func writeLines(w *bufio.Writer, format Format, res *harness.Result) error {
	line := func(label, value string) {
		if format == Labeled {
			w.WriteString(label + ": " + value + "\n")
		} else {
			w.WriteString(value + "\n")
		}
	}
	duration := func(sec, usec int64) string {
		if format == Labeled {
			return fmt.Sprintf("%d seconds, %d microseconds", sec, usec)
		}
		return fmt.Sprint(sec*1000000 + usec)
	}
	rate := func(fn func() (float64, error)) string {
		v, err := fn()
		if err != nil {
			return Undefined
		}
		if format == Labeled {
			return fmt.Sprintf("%.8f%%", v)
		}
		return fmt.Sprintf("%.6g", v)
	}

	if res.Maps != nil {
		w.Write(res.Maps)
	}

	u := res.Usage
	w.WriteString("\nResource usage:\n")
	line("User CPU time used", duration(rusage.Split(u.UserTime)))
	line("System CPU time used", duration(rusage.Split(u.SystemTime)))
	line("Maximum resident set size (kB)", fmt.Sprint(u.MaxRSS))
	line("Page faults without I/O", fmt.Sprint(u.MinorFaults))
	line("Page faults with I/O", fmt.Sprint(u.MajorFaults))
	line("Block input operations", fmt.Sprint(u.BlockInputs))
	line("Block output operations", fmt.Sprint(u.BlockOutputs))
	line("Voluntary context switches", fmt.Sprint(u.VoluntarySwitches))
	line("Involuntary context switches", fmt.Sprint(u.InvoluntarySwitches))

	ev, c := res.Events, res.Counts
	line(ev.Access.Label, fmt.Sprint(c.Access))
	line(ev.Miss.Label, fmt.Sprint(c.Miss))
	line(ev.TLBMiss.Label, fmt.Sprint(c.TLBMiss))
	line(ev.Miss.RateLabel, rate(res.MissRate))
	line(ev.TLBMiss.RateLabel, rate(res.TLBMissRate))

	return nil
}

func writePrometheus(w io.Writer, res *harness.Result) error {
	if res.Maps != nil {
		log.Warn("memory map is not included in %s reports", Prometheus)
	}
	families, err := metrics.Gather(res)
	if err != nil {
		return err
	}
	return metrics.WriteText(w, families)
}

func reportError(format string, args ...interface{}) error {
	return fmt.Errorf("report: "+format, args...)
}
