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

import "github.com/CodeZHXS/socketmap/socket"

// singleConnection is one Registry entry: the current socket, how many
// callers are interested in it, and (only meaningful while refCount == 0)
// when it last became uninteresting.
//
// +checklocks:(the owning Registry's mu)
type singleConnection struct {
	socket   socket.Handle
	ref      socketRef
	refCount int
	// noRefUs is a microsecond timestamp, valid only while refCount == 0.
	noRefUs int64
}

// socketRef is the tagged variant from invariant 6: exactly one reference
// beyond whatever the caller's own Insert/Remove accounting tracks is kept
// alive on behalf of an Entry, and exactly one of two release paths is
// correct for it depending on which side owns it. Constructing a socketRef
// only through ownedRef/borrowedHCRef, and only releasing it through
// release, makes it impossible to call the wrong path.
type socketRef struct {
	hcOwned bool
}

// ownedRef marks an entry whose extra reference is owned directly by the
// Registry (health checking disabled for this socket).
func ownedRef() socketRef {
	return socketRef{hcOwned: false}
}

// borrowedHCRef marks an entry whose extra reference is owned by the
// health-check subsystem; the Registry holds only a bare, non-owning
// pointer to the same Handle.
func borrowedHCRef() socketRef {
	return socketRef{hcOwned: true}
}

// release drops the extra reference exactly once, via whichever path this
// variant was tagged with.
func (r socketRef) release(h socket.Handle) {
	if r.hcOwned {
		h.ReleaseHCRelatedReference()
		return
	}
	h.ReleaseAdditionalReference()
}

// refFor picks the correct socketRef variant for a freshly addressed
// handle, per invariant 6.
func refFor(h socket.Handle) socketRef {
	if h.HCEnabled() {
		return borrowedHCRef()
	}
	return ownedRef()
}

// permanentlyDead reports whether sc's socket can never be handed out
// again: it has failed and is not under health checking. Per invariant 4,
// the next Insert for this key must replace such an entry.
func (sc *singleConnection) permanentlyDead() bool {
	return sc.socket.Failed() && !sc.socket.HCEnabled()
}
