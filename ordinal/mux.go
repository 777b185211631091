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

	"github.com/pkg/errors"

	"github.com/OrdainSQL/OrdainSQL/proto"
	"github.com/OrdainSQL/OrdainSQL/types"
)

// MuxService defines a multiplexing service routing requests to the chain
// instances of the local database shards.
type MuxService struct {
	ServiceName string
	// serviceMap maps proto.DatabaseID to *Chain.
	serviceMap sync.Map
}

// NewMuxService returns a new MuxService instance.
func NewMuxService(name string) *MuxService {
	return &MuxService{
		ServiceName: name,
	}
}

// Register registers the chain instance of a database shard to the mux
// service.
func (s *MuxService) Register(id proto.DatabaseID, c *Chain) {
	s.serviceMap.Store(id, c)
}

// Unregister removes the chain instance of a database shard from the mux
// service.
func (s *MuxService) Unregister(id proto.DatabaseID) {
	s.serviceMap.Delete(id)
}

// Route looks up the chain instance of a database shard.
func (s *MuxService) Route(id proto.DatabaseID) (c *Chain, err error) {
	var (
		i  interface{}
		ok bool
	)
	if i, ok = s.serviceMap.Load(id); !ok {
		err = ErrMuxServiceNotFound
		return
	}
	if c, ok = i.(*Chain); !ok {
		err = ErrMuxServiceNotFound
		return
	}
	return
}

// MuxQueryRequest defines a request of the Query RPC method.
type MuxQueryRequest struct {
	proto.DatabaseID
	proto.Envelope
	Request *types.Request
}

// MuxQueryResponse defines a response of the Query RPC method.
type MuxQueryResponse struct {
	proto.DatabaseID
	proto.Envelope
	Response *types.Response
}

// Query is the RPC method to process a database query on mux service.
func (s *MuxService) Query(req *MuxQueryRequest, resp *MuxQueryResponse) (err error) {
	// The envelope node id is filled by the transport layer on receive. A
	// filled id must match the signed request header.
	if req.Envelope.NodeID != nil &&
		req.Envelope.NodeID.String() != string(req.Request.Header.NodeID) {
		err = errors.Wrap(ErrInvalidRequest, "request node id mismatch in query")
		return
	}
	var (
		c *Chain
		r *types.Response
	)
	if c, err = s.Route(req.DatabaseID); err != nil {
		return
	}
	if r, err = c.Query(req.Request); err != nil {
		return
	}
	resp.Envelope = req.Envelope
	resp.DatabaseID = req.DatabaseID
	resp.Response = r
	return
}

// MuxApplyRequest defines a request of the Apply RPC method.
type MuxApplyRequest struct {
	proto.DatabaseID
	proto.Envelope
	Request  *types.Request
	Response *types.Response
}

// MuxApplyResponse defines a response of the Apply RPC method.
type MuxApplyResponse struct {
	proto.DatabaseID
	proto.Envelope
}

// Apply is the RPC method to apply a responded write on mux service.
func (s *MuxService) Apply(req *MuxApplyRequest, resp *MuxApplyResponse) (err error) {
	// The envelope node id is filled by the transport layer on receive. A
	// filled id must match the producer of the response.
	if req.Envelope.NodeID != nil &&
		req.Envelope.NodeID.String() != string(req.Response.Header.NodeID) {
		err = errors.Wrap(ErrInvalidRequest, "response node id mismatch in apply")
		return
	}
	var c *Chain
	if c, err = s.Route(req.DatabaseID); err != nil {
		return
	}
	if err = c.Apply(req.Request, req.Response); err != nil {
		return
	}
	resp.Envelope = req.Envelope
	resp.DatabaseID = req.DatabaseID
	return
}
