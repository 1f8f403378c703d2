// Copyright 2024 The socketmap Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package socketmap

// Key identifies a logical peer: an endpoint plus whatever distinguishes
// otherwise-identical connections to it (an auth or channel signature, a
// protocol variant, and so on). Two Keys compare equal, and therefore share
// a Registry entry, exactly when both fields match.
//
// A Key is never mutated after construction; it is safe to use as a map key
// and to share across goroutines.
type Key struct {
	// Peer is the remote endpoint, e.g. "10.0.0.1:8080".
	Peer string
	// Signature distinguishes otherwise-identical connections to the same
	// Peer, e.g. an auth token fingerprint or channel configuration hash.
	// Leave empty if the protocol has no such notion.
	Signature string
}

// String returns a human-readable form of the key, suitable for logging.
func (k Key) String() string {
	if k.Signature == "" {
		return k.Peer
	}
	return k.Peer + "#" + k.Signature
}
