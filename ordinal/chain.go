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
	"bytes"
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"

	"github.com/OrdainSQL/OrdainSQL/conf"
	ca "github.com/OrdainSQL/OrdainSQL/crypto/asymmetric"
	"github.com/OrdainSQL/OrdainSQL/crypto/hash"
	"github.com/OrdainSQL/OrdainSQL/crypto/kms"
	oi "github.com/OrdainSQL/OrdainSQL/ordinal/interfaces"
	"github.com/OrdainSQL/OrdainSQL/ordinal/sqlite"
	"github.com/OrdainSQL/OrdainSQL/proto"
	"github.com/OrdainSQL/OrdainSQL/storage"
	"github.com/OrdainSQL/OrdainSQL/types"
	"github.com/OrdainSQL/OrdainSQL/utils"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
	"github.com/OrdainSQL/OrdainSQL/wal"
)

// blockVersion is the version of a block produced by this chain.
const blockVersion int32 = 0x01000000

var (
	dbQuerySuccMeter = metrics.NewRegisteredMeter("db-query-succ", nil)
	dbQueryFailMeter = metrics.NewRegisteredMeter("db-query-fail", nil)
)

// Chain defines a single shard chain. It drives the underlying state, settles
// responded write queries to the query log and packs pooled queries into blocks.
type Chain struct {
	state *State
	qlog  wal.Wal
	arch  *storage.Storage
	// Cached fields
	priv   *ca.PrivateKey
	nodeID proto.NodeID
	id     proto.DatabaseID

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewChain returns new chain instance of the database id.
func NewChain(filename string, id proto.DatabaseID) (c *Chain, err error) {
	var (
		strg   oi.Storage
		dsn    *storage.DSN
		arch   *storage.Storage
		qlog   wal.Wal
		priv   *ca.PrivateKey
		nodeID proto.NodeID
	)
	if nodeID, err = kms.GetLocalNodeID(); err != nil {
		// use an empty node id
		nodeID = proto.NodeID("0000000000000000000000000000000000000000000000000000000000000000")
		err = nil
	}

	// TODO: add multiple storage engine support.
	if strg, err = sqlite.NewSqlite(filename); err != nil {
		return
	}
	if priv, err = kms.GetLocalPrivateKey(); err != nil {
		return
	}
	if dsn, err = storage.NewDSN(filename); err != nil {
		return
	}
	var fp = dsn.GetFileName()
	if qlog, err = wal.NewLevelDBWal(fp + ".ldb"); err != nil {
		err = errors.Wrap(err, "open query log failed")
		return
	}
	if arch, err = storage.OpenStorage("file:"+fp+"-chain", "blocks"); err != nil {
		err = errors.Wrap(err, "open block archive failed")
		return
	}
	c = &Chain{
		state:  NewState(sql.LevelReadUncommitted, nodeID, strg),
		qlog:   qlog,
		arch:   arch,
		priv:   priv,
		nodeID: nodeID,
		id:     id,

		stopCh: make(chan struct{}),
	}
	return
}

// Query queries req from the local chain state, signs the response with the local
// node key and settles any write to the query log before returning the results
// in resp. A write request whose header hash is already responded is answered
// with the recorded response.
func (c *Chain) Query(req *types.Request) (resp *types.Response, err error) {
	var (
		ref   *QueryTracker
		start = time.Now()

		queried, signed, logged, updated time.Duration
	)
	defer func() {
		var fields = log.Fields{}
		if queried > 0 {
			fields["1#queried"] = float64(queried.Nanoseconds()) / 1000
		}
		if signed > 0 {
			fields["2#signed"] = float64((signed - queried).Nanoseconds()) / 1000
		}
		if logged > 0 {
			fields["3#logged"] = float64((logged - signed).Nanoseconds()) / 1000
		}
		if updated > 0 {
			fields["4#updated"] = float64((updated - logged).Nanoseconds()) / 1000
		}
		log.WithFields(fields).Debug("Chain.Query duration stat (us)")
		if err != nil {
			dbQueryFailMeter.Mark(1)
		} else {
			dbQuerySuccMeter.Mark(1)
		}
	}()
	if ierr := req.Verify(); ierr != nil {
		err = errors.Wrapf(ErrInvalidRequest, "verify request failed: %v", ierr)
		return
	}
	if ref, resp, err = c.state.Query(req, true); err != nil {
		return
	}
	queried = time.Since(start)
	if ref.Ready() {
		// Duplicate request, the tracked response is already signed and logged
		return
	}
	if err = resp.Sign(c.priv); err != nil {
		return
	}
	signed = time.Since(start)
	if req.Header.QueryType == types.WriteQuery {
		if ierr := c.qlog.Write(&wal.LoggedQuery{
			LoggedQueryHeader: wal.LoggedQueryHeader{
				Offset:   resp.Header.LogOffset,
				Producer: c.nodeID,
			},
			Request:  req,
			Response: &resp.Header,
		}); ierr != nil && errors.Cause(ierr) != wal.ErrAlreadyExists {
			err = errors.Wrap(ierr, "write query log failed")
			return
		}
	}
	logged = time.Since(start)
	ref.UpdateResp(resp)
	updated = time.Since(start)
	return
}

// Apply replays a responded write query from a remote peer and settles it to the
// local query log.
func (c *Chain) Apply(req *types.Request, resp *types.Response) (err error) {
	return c.ApplyWithContext(context.Background(), req, resp)
}

// ApplyWithContext replays a responded write query from a remote peer and settles
// it to the local query log with context.
func (c *Chain) ApplyWithContext(
	ctx context.Context, req *types.Request, resp *types.Response) (err error,
) {
	if ierr := req.Verify(); ierr != nil {
		err = errors.Wrapf(ErrInvalidRequest, "verify request failed: %v", ierr)
		return
	}
	if ierr := resp.Verify(); ierr != nil {
		err = errors.Wrapf(ErrInvalidRequest, "verify response failed: %v", ierr)
		return
	}
	if err = c.state.ReplayWithContext(ctx, req, resp); err != nil {
		return
	}
	if req.Header.QueryType == types.WriteQuery {
		if ierr := c.qlog.Write(&wal.LoggedQuery{
			LoggedQueryHeader: wal.LoggedQueryHeader{
				Offset:   resp.Header.LogOffset,
				Producer: resp.Header.NodeID,
			},
			Request:  req,
			Response: &resp.Header,
		}); ierr != nil && errors.Cause(ierr) != wal.ErrAlreadyExists {
			err = errors.Wrap(ierr, "write query log failed")
			return
		}
	}
	return
}

// ProduceBlock commits the current transaction and packs all the pooled queries
// into a signed block on the given parent.
func (c *Chain) ProduceBlock(parent hash.Hash) (block *types.Block, err error) {
	return c.ProduceBlockWithContext(context.Background(), parent)
}

// ProduceBlockWithContext commits the current transaction and packs all the pooled
// queries into a signed block on the given parent with context.
func (c *Chain) ProduceBlockWithContext(
	ctx context.Context, parent hash.Hash) (block *types.Block, err error,
) {
	var (
		failed  []*types.Request
		queries []*QueryTracker
	)
	if failed, queries, err = c.state.CommitExWithContext(ctx); err != nil {
		return
	}
	var qts = make([]*types.QueryAsTx, 0, len(queries))
	for _, q := range queries {
		// Wait for the response of any in-flight query
		for !q.Ready() {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				return
			case <-time.After(time.Millisecond):
			}
		}
		qts = append(qts, &types.QueryAsTx{
			Request:  q.Req,
			Response: &q.response().Header,
		})
	}
	var b = &types.Block{
		SignedHeader: types.SignedHeader{
			Header: types.Header{
				Version:    blockVersion,
				Producer:   c.nodeID,
				ParentHash: parent,
				Timestamp:  time.Now().UTC(),
			},
		},
		FailedReqs: failed,
		QueryTxs:   qts,
	}
	if err = b.PackAndSignBlock(c.priv); err != nil {
		err = errors.Wrap(err, "pack block failed")
		return
	}
	if ierr := c.archiveBlock(b); ierr != nil {
		log.WithError(ierr).WithField("block", b.BlockHash()).Warning("archive produced block failed")
	}
	block = b
	return
}

// ApplyBlock verifies and replays a block produced by a remote peer, then settles
// the acknowledged write queries to the local query log.
func (c *Chain) ApplyBlock(block *types.Block) (err error) {
	return c.ApplyBlockWithContext(context.Background(), block)
}

// ApplyBlockWithContext verifies and replays a block produced by a remote peer with
// context, then settles the acknowledged write queries to the local query log.
func (c *Chain) ApplyBlockWithContext(ctx context.Context, block *types.Block) (err error) {
	if block == nil {
		err = errors.Wrap(ErrInvalidRequest, "nil block")
		return
	}
	if ierr := block.Verify(); ierr != nil {
		err = errors.Wrapf(ErrInvalidRequest, "verify block failed: %v", ierr)
		return
	}
	if err = c.state.ReplayBlockWithContext(ctx, block); err != nil {
		return
	}
	// Settle acknowledged write queries
	for _, v := range block.QueryTxs {
		if v.Request.Header.QueryType != types.WriteQuery {
			continue
		}
		if ierr := c.qlog.Write(&wal.LoggedQuery{
			LoggedQueryHeader: wal.LoggedQueryHeader{
				Offset:   v.Response.LogOffset,
				Producer: block.Producer(),
			},
			Request:  v.Request,
			Response: v.Response,
		}); ierr != nil && errors.Cause(ierr) != wal.ErrAlreadyExists {
			err = errors.Wrap(ierr, "write query log failed")
			return
		}
	}
	if ierr := c.archiveBlock(block); ierr != nil {
		log.WithError(ierr).WithField("block", block.BlockHash()).Warning("archive applied block failed")
	}
	return
}

func (c *Chain) archiveBlock(block *types.Block) (err error) {
	var enc *bytes.Buffer
	if enc, err = utils.EncodeMsgPack(block); err != nil {
		return
	}
	err = c.arch.SetValue(block.BlockHash().String(), enc.Bytes())
	return
}

// Start starts the chain workers.
func (c *Chain) Start() {
	c.wg.Add(1)
	go c.statLoop()
}

func (c *Chain) statLoop() {
	defer c.wg.Done()
	var ticker = time.NewTicker(conf.ChainStatPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.state.Stat(c.id)
		}
	}
}

// Stop stops chain workers and closes all opened resources.
func (c *Chain) Stop() (err error) {
	close(c.stopCh)
	c.wg.Wait()
	if err = c.state.Close(true); err != nil {
		return
	}
	c.qlog.Close()
	err = c.arch.Close()
	return
}
