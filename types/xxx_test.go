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

package types

import (
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/OrdainSQL/OrdainSQL/crypto/asymmetric"
	"github.com/OrdainSQL/OrdainSQL/crypto/hash"
	"github.com/OrdainSQL/OrdainSQL/crypto/kms"
	"github.com/OrdainSQL/OrdainSQL/proto"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

var (
	testingPrivateKey *asymmetric.PrivateKey
	testingPublicKey  *asymmetric.PublicKey
)

func generateRandomHash() hash.Hash {
	h := hash.Hash{}
	rand.Read(h[:])
	return h
}

func randBytes(n int) (b []byte) {
	b = make([]byte, n)
	rand.Read(b)
	return
}

func buildQuery(query string, args ...interface{}) Query {
	var nargs = make([]NamedArg, len(args))
	for i := range args {
		nargs[i] = NamedArg{
			Name:  "",
			Value: args[i],
		}
	}
	return Query{
		Pattern: query,
		Args:    nargs,
	}
}

func buildRequest(qt QueryType, qs []Query) (r *Request) {
	var (
		id  proto.NodeID
		err error
	)
	if id, err = kms.GetLocalNodeID(); err != nil {
		id = proto.NodeID("00000000000000000000000000000000")
	}
	r = &Request{
		Header: SignedRequestHeader{
			RequestHeader: RequestHeader{
				NodeID:    id,
				Timestamp: time.Now().UTC(),
				QueryType: qt,
			},
		},
		Payload: RequestPayload{Queries: qs},
	}
	if err = r.Sign(testingPrivateKey); err != nil {
		panic(err)
	}
	return
}

func buildResponse(header *SignedRequestHeader, cols []string, types []string, rows []ResponseRow) (r *Response) {
	var (
		id  proto.NodeID
		err error
	)
	if id, err = kms.GetLocalNodeID(); err != nil {
		id = proto.NodeID("00000000000000000000000000000000")
	}
	r = &Response{
		Header: SignedResponseHeader{
			ResponseHeader: ResponseHeader{
				Request:      header.RequestHeader,
				RequestHash:  header.Hash(),
				NodeID:       id,
				Timestamp:    time.Now().UTC(),
				RowCount:     0,
				LogOffset:    0,
				LastInsertID: 0,
				AffectedRows: 0,
			},
		},
		Payload: ResponsePayload{
			Columns:   cols,
			DeclTypes: types,
			Rows:      rows,
		},
	}
	if err = r.Sign(testingPrivateKey); err != nil {
		panic(err)
	}
	return
}

func setup() {
	rand.Seed(time.Now().UnixNano())
	rand.Read(genesisHash[:])

	var err error

	if testingPrivateKey, testingPublicKey, err = asymmetric.GenSecp256k1KeyPair(); err == nil {
		kms.SetLocalKeyPair(testingPrivateKey, testingPublicKey)
	} else {
		panic(err)
	}

	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

func TestMain(m *testing.M) {
	setup()
	os.Exit(m.Run())
}
