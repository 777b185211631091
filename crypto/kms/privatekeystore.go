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

package kms

import (
	"bytes"
	"errors"
	"io/ioutil"
	"os"

	"github.com/OrdainSQL/OrdainSQL/crypto/asymmetric"
	"github.com/OrdainSQL/OrdainSQL/crypto/hash"
	"github.com/OrdainSQL/OrdainSQL/crypto/symmetric"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

var (
	// ErrNotKeyFile indicates specified key file is empty
	ErrNotKeyFile = errors.New("private key file empty")
	// ErrHashNotMatch indicates specified key hash is wrong
	ErrHashNotMatch = errors.New("private key hash not match")

	// keyFileSalt is the salt used in key file encryption key derivation
	keyFileSalt = []byte("3c3g2u&aOl0G>!%4")
)

// LoadPrivateKey loads private key from keyFilePath, and verifies the hash
// head.
func LoadPrivateKey(keyFilePath string, masterKey []byte) (key *asymmetric.PrivateKey, err error) {
	fileContent, err := ioutil.ReadFile(keyFilePath)
	if err != nil {
		log.WithField("path", keyFilePath).WithError(err).Error("read key file failed")
		return
	}

	decData, err := symmetric.DecryptWithPassword(fileContent, masterKey, keyFileSalt)
	if err != nil {
		log.Error("decrypt private key failed")
		return
	}

	// sha256 twice + privateKey
	if len(decData) != hash.HashBSize+asymmetric.PrivateKeyBytesLen {
		log.Errorf("private key file size should be %d bytes",
			hash.HashBSize+asymmetric.PrivateKeyBytesLen)
		return nil, ErrNotKeyFile
	}

	computedHash := hash.DoubleHashB(decData[hash.HashBSize:])
	if !bytes.Equal(computedHash, decData[:hash.HashBSize]) {
		return nil, ErrHashNotMatch
	}

	key, _ = asymmetric.PrivKeyFromBytes(decData[hash.HashBSize:])
	return
}

// SavePrivateKey saves private key with its hash on the head to keyFilePath,
// default perm is 0600.
func SavePrivateKey(keyFilePath string, key *asymmetric.PrivateKey, masterKey []byte) (err error) {
	serializedKey := key.Serialize()
	keyHash := hash.DoubleHashB(serializedKey)
	rawData := append(keyHash, serializedKey...)
	encKey, err := symmetric.EncryptWithPassword(rawData, masterKey, keyFileSalt)
	if err != nil {
		log.Error("encrypt private key failed")
		return
	}
	return ioutil.WriteFile(keyFilePath, encKey, 0600)
}

// InitLocalKeyPair loads the local private key from keyFilePath and sets the
// global key pair. A new key pair is generated and saved if the key file does
// not exist yet.
func InitLocalKeyPair(keyFilePath string, masterKey []byte) (err error) {
	var (
		private *asymmetric.PrivateKey
		public  *asymmetric.PublicKey
	)
	initLocalKeyStore()
	private, err = LoadPrivateKey(keyFilePath, masterKey)
	if err != nil {
		if err == ErrNotKeyFile || err == ErrHashNotMatch || err == symmetric.ErrInputSize {
			log.WithField("path", keyFilePath).WithError(err).Error("not a valid private key file")
			return
		}
		if !os.IsNotExist(err) {
			log.WithError(err).Error("load private key failed")
			return
		}
		log.Info("private key file not exist, generating one")
		if private, public, err = asymmetric.GenSecp256k1KeyPair(); err != nil {
			log.WithError(err).Error("generate private key failed")
			return
		}
		log.WithField("path", keyFilePath).Info("saving new private key")
		if err = SavePrivateKey(keyFilePath, private, masterKey); err != nil {
			log.WithError(err).Error("save private key failed")
			return
		}
	}
	if public == nil {
		public = private.PubKey()
	}
	SetLocalKeyPair(private, public)
	return
}
