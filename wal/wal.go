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

// Package wal defines a write ahead log for responded write queries.
package wal

import (
	"github.com/pkg/errors"

	"github.com/OrdainSQL/OrdainSQL/proto"
	"github.com/OrdainSQL/OrdainSQL/types"
)

var (
	// ErrWalClosed represents the wal is closed.
	ErrWalClosed = errors.New("wal is closed")
	// ErrNotExists represents the logged query does not exist.
	ErrNotExists = errors.New("logged query not exists")
	// ErrAlreadyExists represents the logged query already exists.
	ErrAlreadyExists = errors.New("logged query already exists")
	// ErrInvalidLog represents the logged query is invalid.
	ErrInvalidLog = errors.New("invalid logged query")
)

// LoggedQueryHeader defines the header of a persisted query log entry.
type LoggedQueryHeader struct {
	Offset     uint64       // log offset of the write query
	Producer   proto.NodeID // producer node
	DataLength uint64       // encoded data length
}

// LoggedQuery defines a responded write query as a request with its signed response header.
type LoggedQuery struct {
	LoggedQueryHeader
	Request  *types.Request
	Response *types.SignedResponseHeader
}

type loggedQueryData struct {
	Request  *types.Request
	Response *types.SignedResponseHeader
}

// Wal defines the interface of the query log.
type Wal interface {
	// Write writes a logged query to the wal.
	Write(l *LoggedQuery) error
	// Read reads next logged query from the wal, io.EOF is returned after the log
	// is exhausted.
	Read() (*LoggedQuery, error)
	// Get gets the logged query at offset from the wal.
	Get(offset uint64) (*LoggedQuery, error)
	// Close closes the wal.
	Close()
}
