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
	"io/ioutil"
	"os"
	"testing"

	ca "github.com/OrdainSQL/OrdainSQL/crypto/asymmetric"
	"github.com/OrdainSQL/OrdainSQL/crypto/kms"
	"github.com/OrdainSQL/OrdainSQL/utils/log"
)

var (
	testingDataDir string
)

func setup() {
	var err error
	if testingDataDir, err = ioutil.TempDir("", "OrdainSQL"); err != nil {
		panic(err)
	}

	// Initialize kms
	var (
		priv *ca.PrivateKey
		pub  *ca.PublicKey
	)
	if priv, pub, err = ca.GenSecp256k1KeyPair(); err != nil {
		panic(err)
	}
	kms.SetLocalKeyPair(priv, pub)

	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
}

func teardown() {
	if err := os.RemoveAll(testingDataDir); err != nil {
		panic(err)
	}
}

func TestMain(m *testing.M) {
	os.Exit(func() int {
		setup()
		defer teardown()
		return m.Run()
	}())
}
