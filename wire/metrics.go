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

package wire

import (
	"expvar"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	mw "github.com/zserge/metric"
)

var (
	connAccepted = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordainsql",
		Subsystem: "wire",
		Name:      "accepted_connections_total",
		Help:      "Number of accepted client connections.",
	})
	connRejected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordainsql",
		Subsystem: "wire",
		Name:      "rejected_connections_total",
		Help:      "Number of connections rejected by the connection limit.",
	})
	connActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ordainsql",
		Subsystem: "wire",
		Name:      "active_connections",
		Help:      "Number of currently served client connections.",
	})
	requestCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordainsql",
		Subsystem: "wire",
		Name:      "requests_total",
		Help:      "Number of client requests by message type.",
	}, []string{"type"})
	protocolErrorCount = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordainsql",
		Subsystem: "wire",
		Name:      "protocol_errors_total",
		Help:      "Number of protocol framing errors.",
	})
)

func init() {
	prometheus.MustRegister(
		connAccepted, connRejected, connActive, requestCount, protocolErrorCount)
}

var queryCostExpvarLock sync.Mutex

func recordQueryCost(startTime time.Time, msgType uint8, err error) {
	var (
		name, nameC string
		val, valC   expvar.Var
	)
	costTime := time.Since(startTime)
	if err == nil {
		name = "t_succ:" + typeString(msgType)
		nameC = "c_succ:" + typeString(msgType)
	} else {
		name = "t_fail:" + typeString(msgType)
		nameC = "c_fail:" + typeString(msgType)
	}
	// Optimistically, val will not be nil except the first request of the
	// message type. expvar uses sync.Map, so try it first without lock.
	val = expvar.Get(name)
	valC = expvar.Get(nameC)
	if val == nil || valC == nil {
		queryCostExpvarLock.Lock()
		val = expvar.Get(name)
		if val == nil {
			expvar.Publish(name, mw.NewHistogram("10s1s", "1m5s", "1h1m"))
			expvar.Publish(nameC, mw.NewCounter("10s1s", "1h1m"))
		}
		queryCostExpvarLock.Unlock()
		val = expvar.Get(name)
		valC = expvar.Get(nameC)
	}
	val.(mw.Metric).Add(costTime.Seconds())
	valC.(mw.Metric).Add(1)
}

func typeString(t uint8) string {
	switch t {
	case TypeQuery:
		return "Query"
	case TypeExec:
		return "Exec"
	case TypeTxBegin:
		return "TxBegin"
	case TypeTxCommit:
		return "TxCommit"
	case TypeTxRollback:
		return "TxRollback"
	case TypePing:
		return "Ping"
	case TypeResult:
		return "Result"
	case TypeError:
		return "Error"
	case TypeRows:
		return "Rows"
	case TypeRowsEnd:
		return "RowsEnd"
	case TypePong:
		return "Pong"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}
