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
	"fmt"
	"sync/atomic"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/OrdainSQL/OrdainSQL/crypto/hash"
	"github.com/OrdainSQL/OrdainSQL/types"
)

func TestPool(t *testing.T) {
	Convey("Given a query pool instance", t, func() {
		var (
			p    = newPool()
			reqs = make([]*types.Request, 5)
			qts  = make([]*QueryTracker, 5)
		)
		for i := range reqs {
			reqs[i] = buildSignedRequest(t, types.WriteQuery, uint64(i), []types.Query{
				buildQuery(`INSERT INTO t1 (k, v) VALUES (?, ?)`, i, fmt.Sprintf("v%d", i)),
			})
			qts[i] = &QueryTracker{Req: reqs[i]}
		}
		Convey("When queries are enqueued", func() {
			for i, v := range qts {
				p.enqueue(uint64(i), v)
			}
			So(len(p.queries), ShouldEqual, 5)
			So(len(p.index), ShouldEqual, 5)
			So(atomic.LoadInt32(&p.trackerCount), ShouldEqual, 5)
			Convey("The pool should look up trackers by request hash", func() {
				for i, v := range reqs {
					So(p.getWrite(v.Header.Hash()), ShouldEqual, qts[i])
				}
				So(p.getWrite(hash.Hash{}), ShouldBeNil)
			})
			Convey("The pool should not register an unsigned request for tracking", func() {
				var unsigned = buildRequest(types.WriteQuery, []types.Query{
					buildQuery(`INSERT INTO t1 (k) VALUES (?)`, 5),
				})
				p.enqueue(5, &QueryTracker{Req: unsigned})
				So(len(p.queries), ShouldEqual, 6)
				So(p.getWrite(unsigned.Header.Hash()), ShouldBeNil)
			})
			Convey("The pool should detect conflicting replays", func() {
				var other = buildSignedRequest(t, types.WriteQuery, 100, []types.Query{
					buildQuery(`INSERT INTO t1 (k, v) VALUES (?, ?)`, 100, "v100"),
				})
				So(p.conflicts(2, reqs[2]), ShouldBeFalse)
				So(p.conflicts(2, other), ShouldBeTrue)
				So(p.conflicts(100, other), ShouldBeFalse)
				var unsigned = buildRequest(types.WriteQuery, []types.Query{
					buildQuery(`INSERT INTO t1 (k) VALUES (?)`, 100),
				})
				So(p.conflicts(2, unsigned), ShouldBeFalse)
			})
			Convey("When the pool is truncated at an absent offset", func() {
				p.truncate(100)
				So(len(p.queries), ShouldEqual, 5)
				So(len(p.index), ShouldEqual, 5)
			})
			Convey("When the pool is truncated", func() {
				p.truncate(2)
				So(len(p.queries), ShouldEqual, 2)
				So(atomic.LoadInt32(&p.trackerCount), ShouldEqual, 2)
				Convey("The index should be consistent with the remaining queries", func() {
					So(len(p.index), ShouldEqual, 2)
					for k, v := range p.index {
						So(p.queries[v], ShouldEqual, qts[int(k)])
					}
				})
				Convey("The truncated trackers should not be tracked any longer", func() {
					for i := 0; i <= 2; i++ {
						So(p.getWrite(reqs[i].Header.Hash()), ShouldBeNil)
					}
					for i := 3; i < 5; i++ {
						So(p.getWrite(reqs[i].Header.Hash()), ShouldEqual, qts[i])
					}
				})
			})
		})
		Convey("When requests fail", func() {
			p.setFailed(reqs[0])
			p.setFailed(reqs[1])
			So(len(p.failedList()), ShouldEqual, 2)
			So(atomic.LoadInt32(&p.failedRequestCount), ShouldEqual, 2)
			Convey("A succeeding request with the same hash should remove the entry", func() {
				p.removeFailed(reqs[0])
				So(len(p.failedList()), ShouldEqual, 1)
				So(p.failedList()[0], ShouldEqual, reqs[1])
				So(atomic.LoadInt32(&p.failedRequestCount), ShouldEqual, 1)
			})
			Convey("Setting an entry twice should not duplicate it", func() {
				p.setFailed(reqs[0])
				So(len(p.failedList()), ShouldEqual, 2)
			})
		})
		Convey("When read queries are enqueued", func() {
			var (
				read = buildSignedRequest(t, types.ReadQuery, 10, []types.Query{
					buildQuery(`SELECT v FROM t1 WHERE k = ?`, 0),
				})
				qt = &QueryTracker{Req: read}
			)
			p.enqueueRead(qt)
			So(p.getRead(read.Header.Hash()), ShouldEqual, qt)
			Convey("An unsigned read should not be tracked", func() {
				var unsigned = buildRequest(types.ReadQuery, []types.Query{
					buildQuery(`SELECT v FROM t1`),
				})
				p.enqueueRead(&QueryTracker{Req: unsigned})
				So(p.getRead(unsigned.Header.Hash()), ShouldBeNil)
			})
			Convey("A repeated read should overwrite the old entry", func() {
				var nqt = &QueryTracker{Req: read}
				p.enqueueRead(nqt)
				So(p.getRead(read.Header.Hash()), ShouldEqual, nqt)
			})
			Convey("Truncating should drop responded reads under the offset", func() {
				qt.UpdateResp(&types.Response{
					Header: types.SignedResponseHeader{
						ResponseHeader: types.ResponseHeader{LogOffset: 2},
					},
				})
				p.enqueue(2, qts[2])
				p.truncate(2)
				So(p.getRead(read.Header.Hash()), ShouldBeNil)
			})
			Convey("Truncating should keep reads without a response", func() {
				p.enqueue(2, qts[2])
				p.truncate(2)
				So(p.getRead(read.Header.Hash()), ShouldEqual, qt)
			})
		})
		Convey("When a tracker response is updated", func() {
			var (
				qt   = &QueryTracker{Req: reqs[0]}
				resp = &types.Response{}
			)
			So(qt.Ready(), ShouldBeFalse)
			So(qt.response(), ShouldBeNil)
			qt.UpdateResp(resp)
			So(qt.Ready(), ShouldBeTrue)
			So(qt.response(), ShouldEqual, resp)
		})
	})
}
