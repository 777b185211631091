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

package asymmetric

import (
	"crypto/ecdsa"

	hsp "github.com/CovenantSQL/HashStablePack/marshalhash"
	ec "github.com/btcsuite/btcd/btcec"
	"github.com/pkg/errors"

	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

const (
	// PrivateKeyBytesLen defines the length in bytes of a serialized private key.
	PrivateKeyBytesLen = 32
	// PublicKeyBytesLen defines the length in bytes of a serialized compressed
	// public key.
	PublicKeyBytesLen = 33
)

// ErrNilKey indicates a marshal/unmarshal on a nil key or signature.
var ErrNilKey = errors.New("nil key or signature")

// PrivateKey is a wrapper of the btcec private key on curve secp256k1.
type PrivateKey ec.PrivateKey

// PublicKey is a wrapper of the btcec public key on curve secp256k1.
type PublicKey ec.PublicKey

// GenSecp256k1KeyPair generates a private/public key pair on curve secp256k1.
func GenSecp256k1KeyPair() (privateKey *PrivateKey, publicKey *PublicKey, err error) {
	pk, err := ec.NewPrivateKey(ec.S256())
	if err != nil {
		log.WithError(err).Error("private key generation failed")
		return nil, nil, err
	}
	privateKey = (*PrivateKey)(pk)
	publicKey = privateKey.PubKey()
	return
}

// PrivKeyFromBytes returns a private and public key for `curve' based on the
// private key bytes.
func PrivKeyFromBytes(pk []byte) (*PrivateKey, *PublicKey) {
	priv, pub := ec.PrivKeyFromBytes(ec.S256(), pk)
	return (*PrivateKey)(priv), (*PublicKey)(pub)
}

// PubKey returns the public key corresponding to the private key.
func (private *PrivateKey) PubKey() *PublicKey {
	return (*PublicKey)((*ec.PrivateKey)(private).PubKey())
}

// Serialize returns the private key as a 256-bit big-endian binary-encoded
// number, padded to a length of 32 bytes.
func (private *PrivateKey) Serialize() []byte {
	return (*ec.PrivateKey)(private).Serialize()
}

// ParsePubKey parses a compressed public key from its serialized form.
func ParsePubKey(pubKeyStr []byte) (*PublicKey, error) {
	key, err := ec.ParsePubKey(pubKeyStr, ec.S256())
	return (*PublicKey)(key), err
}

// Serialize returns the public key in the 33-byte compressed format.
func (public *PublicKey) Serialize() []byte {
	return (*ec.PublicKey)(public).SerializeCompressed()
}

// IsEqual reports whether target has the same curve point as public.
func (public *PublicKey) IsEqual(target *PublicKey) bool {
	if public == nil || target == nil {
		return public == target
	}
	return (*ec.PublicKey)(public).IsEqual((*ec.PublicKey)(target))
}

func (public *PublicKey) toECDSA() *ecdsa.PublicKey {
	return (*ecdsa.PublicKey)(public)
}

// MarshalHash marshals for hash.
func (public *PublicKey) MarshalHash() (o []byte, err error) {
	if public == nil {
		return nil, ErrNilKey
	}
	return public.Serialize(), nil
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by
// the serialized message.
func (public *PublicKey) Msgsize() (s int) {
	return hsp.BytesPrefixSize + PublicKeyBytesLen
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (public *PublicKey) MarshalBinary() (keyBytes []byte, err error) {
	if public == nil {
		return nil, ErrNilKey
	}
	keyBytes = public.Serialize()
	return
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (public *PublicKey) UnmarshalBinary(keyBytes []byte) (err error) {
	if public == nil {
		return ErrNilKey
	}
	key, err := ec.ParsePubKey(keyBytes, ec.S256())
	if err != nil {
		return
	}
	*public = (PublicKey)(*key)
	return
}
