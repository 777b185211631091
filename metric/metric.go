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

// Package metric collects process metrics of a node and renders them in the
// prometheus text exposition format.
package metric

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"

	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

func init() {
	prometheus.MustRegister(version.NewCollector("OrdainSQL"))
}

// StartMetricCollector starts the node collectors on a dedicated registry.
func StartMetricCollector() (registry *prometheus.Registry) {
	var collectors = map[string]prometheus.Collector{
		"go":        prometheus.NewGoCollector(),
		"process":   prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		"ordainsql": NewOrdainSQLCollector(),
	}

	registry = prometheus.NewRegistry()
	var names []string
	for n, c := range collectors {
		if err := registry.Register(c); err != nil {
			log.Errorf("couldn't register collector: %s", err)
			return nil
		}
		names = append(names, n)
	}

	log.Infof("Enabled collectors:")
	sort.Strings(names)
	for _, n := range names {
		log.Infof(" - %s", n)
	}

	return
}
