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

package ordinal

import (
	"sync"
	"sync/atomic"

	"github.com/OrdainSQL/OrdainSQL/crypto/hash"
	"github.com/OrdainSQL/OrdainSQL/types"
)

// QueryTracker defines an object to track query as a request - response pair.
type QueryTracker struct {
	sync.RWMutex
	Req  *types.Request
	Resp *types.Response
}

// UpdateResp updates response of the QueryTracker within locking scope.
func (q *QueryTracker) UpdateResp(resp *types.Response) {
	q.Lock()
	defer q.Unlock()
	q.Resp = resp
}

// Ready reports whether the query is ready for block producing. It is assumed that all objects
// should be ready shortly.
func (q *QueryTracker) Ready() bool {
	q.RLock()
	defer q.RUnlock()
	return q.Resp != nil
}

func (q *QueryTracker) response() *types.Response {
	q.RLock()
	defer q.RUnlock()
	return q.Resp
}

type pool struct {
	sync.Mutex
	// Failed queries: hash => Request
	failed map[hash.Hash]*types.Request
	// Succeeded queries and their index
	reads   map[hash.Hash]*QueryTracker
	writes  map[hash.Hash]*QueryTracker
	queries []*QueryTracker
	index   map[uint64]int
	// Atomic counters for stats
	failedRequestCount int32
	trackerCount       int32
}

func newPool() *pool {
	return &pool{
		failed:  make(map[hash.Hash]*types.Request),
		reads:   make(map[hash.Hash]*QueryTracker),
		writes:  make(map[hash.Hash]*QueryTracker),
		queries: make([]*QueryTracker, 0),
		index:   make(map[uint64]int),
	}
}

func (p *pool) enqueue(sp uint64, q *QueryTracker) {
	p.Lock()
	defer p.Unlock()
	var pos = len(p.queries)
	p.queries = append(p.queries, q)
	p.index[sp] = pos
	// An unsigned request has a zero header hash and carries no identity to track.
	if h := q.Req.Header.Hash(); h != (hash.Hash{}) {
		p.writes[h] = q
	}
	atomic.StoreInt32(&p.trackerCount, int32(len(p.queries)))
}

func (p *pool) enqueueRead(q *QueryTracker) {
	p.Lock()
	defer p.Unlock()
	// NOTE: this overwrites any request with a same hash
	if h := q.Req.Header.Hash(); h != (hash.Hash{}) {
		p.reads[h] = q
	}
}

func (p *pool) getWrite(h hash.Hash) (q *QueryTracker) {
	p.Lock()
	defer p.Unlock()
	if h == (hash.Hash{}) {
		return
	}
	q = p.writes[h]
	return
}

func (p *pool) getRead(h hash.Hash) (q *QueryTracker) {
	p.Lock()
	defer p.Unlock()
	if h == (hash.Hash{}) {
		return
	}
	q = p.reads[h]
	return
}

// conflicts reports whether the pooled query at offset sp comes from a request other than req.
func (p *pool) conflicts(sp uint64, req *types.Request) bool {
	p.Lock()
	defer p.Unlock()
	var pos, ok = p.index[sp]
	if !ok {
		return false
	}
	var (
		local  = p.queries[pos].Req.Header.Hash()
		remote = req.Header.Hash()
	)
	if local == (hash.Hash{}) || remote == (hash.Hash{}) {
		return false
	}
	return !local.IsEqual(&remote)
}

func (p *pool) setFailed(req *types.Request) {
	p.Lock()
	defer p.Unlock()
	p.failed[req.Header.Hash()] = req
	atomic.StoreInt32(&p.failedRequestCount, int32(len(p.failed)))
}

func (p *pool) failedList() (reqs []*types.Request) {
	p.Lock()
	defer p.Unlock()
	reqs = make([]*types.Request, 0, len(p.failed))
	for _, v := range p.failed {
		reqs = append(reqs, v)
	}
	return
}

func (p *pool) removeFailed(req *types.Request) {
	p.Lock()
	defer p.Unlock()
	var h = req.Header.Hash()
	if h == (hash.Hash{}) {
		return
	}
	delete(p.failed, h)
	atomic.StoreInt32(&p.failedRequestCount, int32(len(p.failed)))
}

func (p *pool) truncate(sp uint64) {
	p.Lock()
	defer p.Unlock()
	var (
		pos int
		ok  bool
		ni  map[uint64]int
	)
	if pos, ok = p.index[sp]; !ok {
		return
	}
	for _, q := range p.queries[:pos+1] {
		if h := q.Req.Header.Hash(); h != (hash.Hash{}) {
			delete(p.writes, h)
		}
	}
	for k, q := range p.reads {
		if r := q.response(); r != nil && r.Header.LogOffset <= sp {
			delete(p.reads, k)
		}
	}
	// Rebuild index
	ni = make(map[uint64]int)
	for k, v := range p.index {
		if k > sp {
			ni[k] = v - (pos + 1)
		}
	}
	p.index = ni
	p.queries = p.queries[pos+1:]
	atomic.StoreInt32(&p.trackerCount, int32(len(p.queries)))
}
