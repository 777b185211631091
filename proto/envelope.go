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

package proto

import (
	"context"
	"time"
)

// EnvelopeAPI defines envelope access functions for mux request/response entities.
type EnvelopeAPI interface {
	GetVersion() string
	GetTTL() time.Duration
	GetExpire() time.Duration
	GetNodeID() *RawNodeID
	GetContext() context.Context

	SetVersion(string)
	SetTTL(time.Duration)
	SetExpire(time.Duration)
	SetNodeID(*RawNodeID)
	SetContext(context.Context)
}

// Envelope is the protocol header.
type Envelope struct {
	Version string        `json:"v"`
	TTL     time.Duration `json:"t"`
	Expire  time.Duration `json:"e"`
	// NodeID is the node id of the remote peer, filled in by the transport
	// layer on receive.
	NodeID *RawNodeID `json:"id"`
	_ctx   context.Context
}

// GetVersion implements EnvelopeAPI.GetVersion.
func (e *Envelope) GetVersion() string {
	return e.Version
}

// GetTTL implements EnvelopeAPI.GetTTL.
func (e *Envelope) GetTTL() time.Duration {
	return e.TTL
}

// GetExpire implements EnvelopeAPI.GetExpire.
func (e *Envelope) GetExpire() time.Duration {
	return e.Expire
}

// GetNodeID implements EnvelopeAPI.GetNodeID.
func (e *Envelope) GetNodeID() *RawNodeID {
	return e.NodeID
}

// GetContext returns the context bound to the envelope, or
// context.Background() when none is set.
func (e *Envelope) GetContext() context.Context {
	if e._ctx == nil {
		return context.Background()
	}
	return e._ctx
}

// SetVersion implements EnvelopeAPI.SetVersion.
func (e *Envelope) SetVersion(version string) {
	e.Version = version
}

// SetTTL implements EnvelopeAPI.SetTTL.
func (e *Envelope) SetTTL(ttl time.Duration) {
	e.TTL = ttl
}

// SetExpire implements EnvelopeAPI.SetExpire.
func (e *Envelope) SetExpire(expire time.Duration) {
	e.Expire = expire
}

// SetNodeID implements EnvelopeAPI.SetNodeID.
func (e *Envelope) SetNodeID(nodeID *RawNodeID) {
	e.NodeID = nodeID
}

// SetContext binds a context to the envelope.
func (e *Envelope) SetContext(ctx context.Context) {
	e._ctx = ctx
}
