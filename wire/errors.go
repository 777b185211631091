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
	"errors"
)

var (
	// ErrBadMagic indicates a frame not starting with the protocol magic.
	ErrBadMagic = errors.New("bad protocol magic")
	// ErrVersionTooNew indicates a frame of a protocol version newer than this node speaks.
	ErrVersionTooNew = errors.New("protocol version too new")
	// ErrMessageTooLarge indicates a length field exceeding MaxMessageSize.
	ErrMessageTooLarge = errors.New("message exceeds maximum size")
	// ErrInvalidMessage indicates a malformed message body.
	ErrInvalidMessage = errors.New("invalid message format")
	// ErrUnknownMessageType indicates a message type without a handler.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrReadInTransaction indicates a read query issued while a transaction is open.
	ErrReadInTransaction = errors.New("only write is supported during transaction")
	// ErrNotInTransaction indicates a transaction control message without an open transaction.
	ErrNotInTransaction = errors.New("not in transaction")
	// ErrTransactionOpen indicates a transaction begin while another one is open.
	ErrTransactionOpen = errors.New("transaction already open")
	// ErrCrossDatabaseTransaction indicates a statement addressing another database
	// than the one the open transaction began on.
	ErrCrossDatabaseTransaction = errors.New("statement addresses another database during transaction")
)
