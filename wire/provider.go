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
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	ca "github.com/OrdainSQL/OrdainSQL/crypto/asymmetric"
	"github.com/OrdainSQL/OrdainSQL/crypto/kms"
	"github.com/OrdainSQL/OrdainSQL/ordinal"
	"github.com/OrdainSQL/OrdainSQL/proto"
	"github.com/OrdainSQL/OrdainSQL/types"
)

// Statement pairs one SQL pattern with its binding values.
type Statement struct {
	SQL  string
	Args []Value
}

// DatabaseProvider executes decoded client statements against a local
// database shard. The connID carries the client connection identity into the
// request headers so that replayed request keys stay unique per connection.
type DatabaseProvider interface {
	// Query executes one read statement and returns the result set.
	Query(connID uint64, dbID string, stmt Statement) (columns []string, rows [][]Value, err error)
	// Exec executes stmts as one write request and returns the counters of
	// its last statement.
	Exec(connID uint64, dbID string, stmts []Statement) (lastInsertID int64, rowsAffected int64, err error)
}

// ChainProvider is a DatabaseProvider executing statements through the local
// chain instances of a multiplexing service. Requests are signed with the
// local node key.
type ChainProvider struct {
	ms  *ordinal.MuxService
	seq uint64
}

// NewChainProvider returns a new ChainProvider routing database ids over ms.
func NewChainProvider(ms *ordinal.MuxService) *ChainProvider {
	return &ChainProvider{ms: ms}
}

func (p *ChainProvider) buildRequest(
	qt types.QueryType, connID uint64, dbID string, stmts []Statement,
) (req *types.Request, err error) {
	var (
		priv   *ca.PrivateKey
		nodeID proto.NodeID
	)
	if priv, err = kms.GetLocalPrivateKey(); err != nil {
		err = errors.Wrap(err, "get local private key failed")
		return
	}
	if nodeID, err = kms.GetLocalNodeID(); err != nil {
		// use an empty node id
		nodeID = proto.NodeID("0000000000000000000000000000000000000000000000000000000000000000")
		err = nil
	}

	var queries = make([]types.Query, len(stmts))
	for i, v := range stmts {
		var args = make([]types.NamedArg, len(v.Args))
		for j := range v.Args {
			args[j] = types.NamedArg{Value: v.Args[j].Interface()}
		}
		queries[i] = types.Query{
			Pattern: v.SQL,
			Args:    args,
		}
	}

	req = &types.Request{
		Header: types.SignedRequestHeader{
			RequestHeader: types.RequestHeader{
				QueryType:    qt,
				NodeID:       nodeID,
				DatabaseID:   proto.DatabaseID(dbID),
				ConnectionID: connID,
				SeqNo:        atomic.AddUint64(&p.seq, 1),
				Timestamp:    time.Now().UTC(),
			},
		},
		Payload: types.RequestPayload{Queries: queries},
	}
	if err = req.Sign(priv); err != nil {
		err = errors.Wrap(err, "sign request failed")
	}
	return
}

// Query implements DatabaseProvider.
func (p *ChainProvider) Query(
	connID uint64, dbID string, stmt Statement,
) (columns []string, rows [][]Value, err error) {
	var (
		c    *ordinal.Chain
		req  *types.Request
		resp *types.Response
	)
	if c, err = p.ms.Route(proto.DatabaseID(dbID)); err != nil {
		return
	}
	if req, err = p.buildRequest(types.ReadQuery, connID, dbID, []Statement{stmt}); err != nil {
		return
	}
	if resp, err = c.Query(req); err != nil {
		return
	}
	columns = resp.Payload.Columns
	rows = make([][]Value, len(resp.Payload.Rows))
	for i, v := range resp.Payload.Rows {
		var row = make([]Value, len(v.Values))
		for j, cell := range v.Values {
			row[j] = NewValue(cell)
		}
		rows[i] = row
	}
	return
}

// Exec implements DatabaseProvider.
func (p *ChainProvider) Exec(
	connID uint64, dbID string, stmts []Statement,
) (lastInsertID int64, rowsAffected int64, err error) {
	var (
		c    *ordinal.Chain
		req  *types.Request
		resp *types.Response
	)
	if c, err = p.ms.Route(proto.DatabaseID(dbID)); err != nil {
		return
	}
	if req, err = p.buildRequest(types.WriteQuery, connID, dbID, stmts); err != nil {
		return
	}
	if resp, err = c.Query(req); err != nil {
		return
	}
	lastInsertID = resp.Header.LastInsertID
	rowsAffected = resp.Header.AffectedRows
	return
}
