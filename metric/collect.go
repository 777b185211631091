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
	"bytes"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

// SimpleMetricMap is map from metric name to MetricFamily.
type SimpleMetricMap map[string]*dto.MetricFamily

// CollectClient gathers the process metrics of the local node.
type CollectClient struct {
	Registry *prometheus.Registry
}

// NewCollectClient returns a new CollectClient.
func NewCollectClient() *CollectClient {
	reg := StartMetricCollector()
	if reg == nil {
		log.Fatal("StartMetricCollector failed")
	}

	return &CollectClient{
		Registry: reg,
	}
}

// GatherMetricBytes gathers the registered metric info and encodes it in the
// text exposition format, one metric family per byte slice.
func (cc *CollectClient) GatherMetricBytes() (mfb [][]byte, err error) {
	mfs, err := cc.Registry.Gather()
	if err != nil {
		log.Errorf("gather metrics failed: %s", err)
		return
	}
	mfb = make([][]byte, 0, len(mfs))
	for _, mf := range mfs {
		buf := new(bytes.Buffer)
		_, err := expfmt.MetricFamilyToText(buf, mf)
		if err != nil {
			log.Warnf("encode MetricFamily failed: %s", err)
			continue
		}
		mfb = append(mfb, buf.Bytes())
	}
	if len(mfb) == 0 {
		err = errors.New("no valid metric gathered")
	}

	return
}

// ParseMetricBytes decodes metric families from the text exposition format
// produced by GatherMetricBytes.
func ParseMetricBytes(mfb [][]byte) (mfm SimpleMetricMap, err error) {
	mfm = make(SimpleMetricMap, len(mfb))
	for _, raw := range mfb {
		tp := expfmt.TextParser{}
		mfs, err := tp.TextToMetricFamilies(bytes.NewReader(raw))
		if err != nil {
			log.Warnf("decode MetricFamily failed: %s", err)
			continue
		}
		for k, v := range mfs {
			mfm[k] = v
		}
	}
	if len(mfm) == 0 {
		err = errors.New("no valid metric received")
	}

	return
}
