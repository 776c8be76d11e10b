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

package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/intel/cachebench/pkg/harness"
	logger "github.com/intel/cachebench/pkg/log"
	"github.com/intel/cachebench/pkg/perf"
)

const namespace = "cachebench"

// Prometheus Metric descriptor indices and descriptor table
const (
	eventCountDesc = iota
	missRateDesc
	rateDefinedDesc
	userTimeDesc
	systemTimeDesc
	maxRSSDesc
	pageFaultsDesc
	blockOpsDesc
	ctxSwitchesDesc
	elapsedDesc
	numDescriptors
)

var descriptors = [numDescriptors]*prometheus.Desc{
	eventCountDesc: prometheus.NewDesc(
		namespace+"_event_count",
		"Hardware cache events counted while running the access pattern.",
		[]string{"role", "event", "cpu"}, nil,
	),
	missRateDesc: prometheus.NewDesc(
		namespace+"_miss_rate_percent",
		"Misses as a percentage of accesses, only present when accesses were counted.",
		[]string{"role", "event", "cpu"}, nil,
	),
	rateDefinedDesc: prometheus.NewDesc(
		namespace+"_miss_rate_defined",
		"1 if the miss rate is defined, 0 if no accesses were counted.",
		[]string{"role"}, nil,
	),
	userTimeDesc: prometheus.NewDesc(
		namespace+"_user_cpu_seconds",
		"User CPU time used by the process.",
		nil, nil,
	),
	systemTimeDesc: prometheus.NewDesc(
		namespace+"_system_cpu_seconds",
		"System CPU time used by the process.",
		nil, nil,
	),
	maxRSSDesc: prometheus.NewDesc(
		namespace+"_max_rss_kilobytes",
		"Maximum resident set size of the process.",
		nil, nil,
	),
	pageFaultsDesc: prometheus.NewDesc(
		namespace+"_page_faults_total",
		"Page faults of the process, without (minor) and with (major) I/O.",
		[]string{"type"}, nil,
	),
	blockOpsDesc: prometheus.NewDesc(
		namespace+"_block_operations_total",
		"Block input and output operations of the process.",
		[]string{"direction"}, nil,
	),
	ctxSwitchesDesc: prometheus.NewDesc(
		namespace+"_context_switches_total",
		"Voluntary and involuntary context switches of the process.",
		[]string{"type"}, nil,
	),
	elapsedDesc: prometheus.NewDesc(
		namespace+"_measurement_seconds",
		"Wall clock time of running the access pattern.",
		nil, nil,
	),
}

var log = logger.NewLogger("metrics")

type collector struct {
	res *harness.Result
}

// NewCollector creates a Prometheus collector for a measurement result.
func NewCollector(res *harness.Result) prometheus.Collector {
	return &collector{res: res}
}

// Describe implements prometheus.Collector interface
func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descriptors {
		ch <- d
	}
}

// Collect implements prometheus.Collector interface
func (c *collector) Collect(ch chan<- prometheus.Metric) {
	res := c.res
	cpu := strconv.Itoa(res.CPU)

	for _, ev := range []struct {
		role  string
		event perf.Event
		count uint64
	}{
		{"access", res.Events.Access, res.Counts.Access},
		{"miss", res.Events.Miss, res.Counts.Miss},
		{"tlb_miss", res.Events.TLBMiss, res.Counts.TLBMiss},
	} {
		ch <- prometheus.MustNewConstMetric(descriptors[eventCountDesc],
			prometheus.CounterValue, float64(ev.count), ev.role, ev.event.Name, cpu)
	}

	for _, r := range []struct {
		role  string
		event perf.Event
		rate  func() (float64, error)
	}{
		{"miss", res.Events.Miss, res.MissRate},
		{"tlb_miss", res.Events.TLBMiss, res.TLBMissRate},
	} {
		rate, err := r.rate()
		defined := 1.0
		if err != nil {
			log.Debug("%s rate: %v", r.role, err)
			defined = 0
		} else {
			ch <- prometheus.MustNewConstMetric(descriptors[missRateDesc],
				prometheus.GaugeValue, rate, r.role, r.event.Name, cpu)
		}
		ch <- prometheus.MustNewConstMetric(descriptors[rateDefinedDesc],
			prometheus.GaugeValue, defined, r.role)
	}

	u := res.Usage
	gauge := func(idx int, value float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(descriptors[idx], prometheus.GaugeValue, value, labels...)
	}
	counter := func(idx int, value int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(descriptors[idx], prometheus.CounterValue, float64(value), labels...)
	}

	gauge(userTimeDesc, u.UserTime.Seconds())
	gauge(systemTimeDesc, u.SystemTime.Seconds())
	gauge(maxRSSDesc, float64(u.MaxRSS))
	counter(pageFaultsDesc, u.MinorFaults, "minor")
	counter(pageFaultsDesc, u.MajorFaults, "major")
	counter(blockOpsDesc, u.BlockInputs, "in")
	counter(blockOpsDesc, u.BlockOutputs, "out")
	counter(ctxSwitchesDesc, u.VoluntarySwitches, "voluntary")
	counter(ctxSwitchesDesc, u.InvoluntarySwitches, "involuntary")
	gauge(elapsedDesc, res.Elapsed.Seconds())
}

// NewGatherer creates a prometheus.Gatherer for the given collectors.
func NewGatherer(collectors ...prometheus.Collector) (prometheus.Gatherer, error) {
	reg := prometheus.NewPedanticRegistry()
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, metricsError("failed to register collector: %v", err)
		}
	}
	return reg, nil
}

// Gather collects the metric families of a measurement result.
func Gather(res *harness.Result) ([]*dto.MetricFamily, error) {
	g, err := NewGatherer(NewCollector(res))
	if err != nil {
		return nil, err
	}
	families, err := g.Gather()
	if err != nil {
		return nil, metricsError("failed to gather metrics: %v", err)
	}
	return families, nil
}

// WriteText writes metric families in Prometheus text exposition format.
func WriteText(w io.Writer, families []*dto.MetricFamily) error {
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return metricsError("failed to encode %s: %v", mf.GetName(), err)
		}
	}
	return nil
}

func metricsError(format string, args ...interface{}) error {
	return fmt.Errorf("metrics: "+format, args...)
}
