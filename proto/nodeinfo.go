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
	"fmt"
	"strings"

	"github.com/OrdainSQL/OrdainSQL/crypto/hash"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

//go:generate hsp

// NodeID is the node id, will be generated from Hash(nodePublicKey).
type NodeID string

// RawNodeID is the node id in hash.Hash form.
type RawNodeID struct {
	hash.Hash
}

// DatabaseID is the database id, globally unique.
type DatabaseID string

// AccountAddress is the wallet address, will be generated from Hash(nodePublicKey).
type AccountAddress hash.Hash

// IsEmpty test if a nodeID is empty.
func (id *NodeID) IsEmpty() bool {
	return id == nil || "" == string(*id)
}

// IsEqual returns if two node ids are equal.
func (id *NodeID) IsEqual(target *NodeID) bool {
	return strings.Compare(string(*id), string(*target)) == 0
}

// ToRawNodeID converts NodeID to RawNodeID.
func (id *NodeID) ToRawNodeID() *RawNodeID {
	idHash, err := hash.NewHashFromStr(string(*id))
	if err != nil {
		log.WithField("node", string(*id)).WithError(err).Error("parse node id failed")
		return nil
	}
	return &RawNodeID{*idHash}
}

// MarshalBinary does the serialization.
func (id NodeID) MarshalBinary() (keyBytes []byte, err error) {
	if id == "" {
		return
	}
	var idHash *hash.Hash
	if idHash, err = hash.NewHashFromStr(string(id)); err != nil {
		return
	}
	keyBytes = idHash.CloneBytes()
	return
}

// UnmarshalBinary does the deserialization.
func (id *NodeID) UnmarshalBinary(keyBytes []byte) (err error) {
	if len(keyBytes) == 2*hash.HashSize {
		// node id in hex string form
		*id = NodeID(keyBytes)
		return
	}
	var idHash *hash.Hash
	if idHash, err = hash.NewHash(keyBytes); err != nil {
		return
	}
	*id = NodeID(idHash.String())
	return
}

// ToNodeID converts RawNodeID to NodeID.
func (id *RawNodeID) ToNodeID() NodeID {
	if id == nil {
		return NodeID("")
	}
	return NodeID(id.String())
}

// AccountAddress converts a database id to its account address form.
func (d DatabaseID) AccountAddress() (a AccountAddress, err error) {
	var h *hash.Hash
	if h, err = hash.NewHashFromStr(string(d)); err != nil {
		return
	}
	a = AccountAddress(*h)
	return
}

// FromAccountAndNonce generates a globally unique database id from the
// owner account address and its transaction nonce.
func FromAccountAndNonce(accountAddress AccountAddress, nonce uint32) DatabaseID {
	h := hash.THashH([]byte(fmt.Sprintf("%s%d", accountAddress.String(), nonce)))
	return DatabaseID(h.String())
}

// String implements the fmt.Stringer interface.
func (a AccountAddress) String() string {
	return hash.Hash(a).String()
}

// DatabaseID converts an account address to its database id form.
func (a AccountAddress) DatabaseID() DatabaseID {
	return DatabaseID(a.String())
}

// MarshalJSON implements the json.Marshaler interface.
func (a AccountAddress) MarshalJSON() ([]byte, error) {
	return hash.Hash(a).MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (a *AccountAddress) UnmarshalJSON(data []byte) error {
	return (*hash.Hash)(a).UnmarshalJSON(data)
}

// MarshalYAML implements the yaml.Marshaler interface.
func (a AccountAddress) MarshalYAML() (interface{}, error) {
	return hash.Hash(a).MarshalYAML()
}

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (a *AccountAddress) UnmarshalYAML(unmarshal func(interface{}) error) error {
	return (*hash.Hash)(a).UnmarshalYAML(unmarshal)
}
