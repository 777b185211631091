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

/*
Package asymmetric wraps the btcec secp256k1 implementation, exporting only
the key and signature types the engine signs and verifies with.

Signatures are deterministic per RFC6979, so signing the same response hash
with the same node key yields identical bytes on every replica.
*/
package asymmetric
