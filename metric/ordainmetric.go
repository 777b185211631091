/*
 * Copyright 2026 The OrdainSQL Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package metric

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	metrics "github.com/rcrowley/go-metrics"
)

// ordainSQLStatsMetrics provide description, value, and value type for OrdainSQL stat metrics.
type ordainSQLStatsMetrics []struct {
	desc    *prometheus.Desc
	eval    func(*OrdainSQLCollector) float64
	valType prometheus.ValueType
}

// OrdainSQLCollector exposes the chain query meters of the local node as
// prometheus metrics.
type OrdainSQLCollector struct {
	registry metrics.Registry

	// metrics to describe and collect
	metrics ordainSQLStatsMetrics
}

func ordainSQLStatNamespace(s string) string {
	return fmt.Sprintf("ordainsqlstats_%s", s)
}

// NewOrdainSQLCollector returns a new OrdainSQLCollector reading the default
// go-metrics registry the chain meters register on.
func NewOrdainSQLCollector() prometheus.Collector {
	return &OrdainSQLCollector{
		registry: metrics.DefaultRegistry,
		metrics: ordainSQLStatsMetrics{
			{
				desc: prometheus.NewDesc(
					ordainSQLStatNamespace("query_succ_total"),
					"Total count of succeeded chain queries",
					nil,
					nil,
				),
				eval:    meterCount("db-query-succ"),
				valType: prometheus.CounterValue,
			},
			{
				desc: prometheus.NewDesc(
					ordainSQLStatNamespace("query_fail_total"),
					"Total count of failed chain queries",
					nil,
					nil,
				),
				eval:    meterCount("db-query-fail"),
				valType: prometheus.CounterValue,
			},
			{
				desc: prometheus.NewDesc(
					ordainSQLStatNamespace("query_succ_rate1"),
					"One-minute moving rate of succeeded chain queries",
					nil,
					nil,
				),
				eval:    meterRate1("db-query-succ"),
				valType: prometheus.GaugeValue,
			},
			{
				desc: prometheus.NewDesc(
					ordainSQLStatNamespace("query_fail_rate1"),
					"One-minute moving rate of failed chain queries",
					nil,
					nil,
				),
				eval:    meterRate1("db-query-fail"),
				valType: prometheus.GaugeValue,
			},
		},
	}
}

// meterCount evals the total count of a named go-metrics meter, or 0 when the
// meter is not registered yet.
func meterCount(name string) func(*OrdainSQLCollector) float64 {
	return func(cc *OrdainSQLCollector) float64 {
		if m, ok := cc.registry.Get(name).(metrics.Meter); ok {
			return float64(m.Count())
		}
		return 0
	}
}

// meterRate1 evals the one-minute moving rate of a named go-metrics meter.
func meterRate1(name string) func(*OrdainSQLCollector) float64 {
	return func(cc *OrdainSQLCollector) float64 {
		if m, ok := cc.registry.Get(name).(metrics.Meter); ok {
			return m.Rate1()
		}
		return 0
	}
}

// Describe returns all descriptions of the collector.
func (cc *OrdainSQLCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, i := range cc.metrics {
		ch <- i.desc
	}
}

// Collect returns the current state of all metrics of the collector.
func (cc *OrdainSQLCollector) Collect(ch chan<- prometheus.Metric) {
	for _, i := range cc.metrics {
		ch <- prometheus.MustNewConstMetric(i.desc, i.valType, i.eval(cc))
	}
}
