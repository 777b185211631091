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
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/OrdainSQL/OrdainSQL/crypto/asymmetric"
	"github.com/OrdainSQL/OrdainSQL/crypto/symmetric"
)

var testMasterKey = []byte(`?08Rl%WUih4V0H+c`)

func TestPrivateKeyStore(t *testing.T) {
	Convey("Given a temp key file path", t, func() {
		dir, err := ioutil.TempDir("", "keystore")
		So(err, ShouldBeNil)
		keyFile := filepath.Join(dir, "private.key")
		Reset(func() {
			os.RemoveAll(dir)
		})

		Convey("save and load", func() {
			priv, _, err := asymmetric.GenSecp256k1KeyPair()
			So(err, ShouldBeNil)
			err = SavePrivateKey(keyFile, priv, testMasterKey)
			So(err, ShouldBeNil)

			loaded, err := LoadPrivateKey(keyFile, testMasterKey)
			So(err, ShouldBeNil)
			So(string(loaded.Serialize()), ShouldEqual, string(priv.Serialize()))
		})

		Convey("load with wrong master key", func() {
			priv, _, err := asymmetric.GenSecp256k1KeyPair()
			So(err, ShouldBeNil)
			err = SavePrivateKey(keyFile, priv, testMasterKey)
			So(err, ShouldBeNil)

			loaded, err := LoadPrivateKey(keyFile, []byte("wrong master key"))
			So(err, ShouldNotBeNil)
			So(loaded, ShouldBeNil)
		})

		Convey("load error", func() {
			loaded, err := LoadPrivateKey("/path/not/exist", testMasterKey)
			So(err, ShouldNotBeNil)
			So(loaded, ShouldBeNil)
		})

		Convey("not key file", func() {
			enc, err := symmetric.EncryptWithPassword([]byte("short"), testMasterKey, keyFileSalt)
			So(err, ShouldBeNil)
			err = ioutil.WriteFile(keyFile, enc, 0600)
			So(err, ShouldBeNil)
			loaded, err := LoadPrivateKey(keyFile, testMasterKey)
			So(err, ShouldEqual, ErrNotKeyFile)
			So(loaded, ShouldBeNil)
		})
	})
}

func TestInitLocalKeyPair(t *testing.T) {
	Convey("Given a temp key file path", t, func() {
		dir, err := ioutil.TempDir("", "keystore")
		So(err, ShouldBeNil)
		keyFile := filepath.Join(dir, "private.key")
		Reset(func() {
			os.RemoveAll(dir)
			ResetLocalKeyStore()
		})

		Convey("generate on missing file, then reload", func() {
			ResetLocalKeyStore()
			err = InitLocalKeyPair(keyFile, testMasterKey)
			So(err, ShouldBeNil)
			priv1, err := GetLocalPrivateKey()
			So(err, ShouldBeNil)
			So(priv1, ShouldNotBeNil)

			ResetLocalKeyStore()
			err = InitLocalKeyPair(keyFile, testMasterKey)
			So(err, ShouldBeNil)
			priv2, err := GetLocalPrivateKey()
			So(err, ShouldBeNil)
			So(string(priv2.Serialize()), ShouldEqual, string(priv1.Serialize()))
		})
	})
}
