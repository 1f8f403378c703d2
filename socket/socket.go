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

// Package socket declares the abstract collaborators a connection registry
// needs but does not itself implement: socket creation, addressing, health
// checking, and pooled-sub-socket lifecycle. Everything in this package is a
// consumed interface. The actual socket I/O, TLS handling, RDMA transport,
// and health-checking subsystem live elsewhere and are out of scope here.
package socket

import "crypto/tls"

// ID identifies a socket within the space managed by a Factory. It is
// opaque to callers of this package: it should be compared for equality and
// passed back into Factory.Address, never interpreted.
type ID uint64

// InvalidID is the sentinel value meaning "no socket" or, when passed as an
// expected id to a removal call, "skip the identity comparison". See
// Registry.Remove for the latter usage and its caveats.
const InvalidID ID = 0

// HealthCheckOption configures whether and how often a created socket is
// health-checked.
type HealthCheckOption struct {
	// Enabled indicates that the created socket should be placed under
	// active health checking. A health-checked socket survives transient
	// failures: the registry will keep handing it out until it is
	// permanently replaced by explicit removal, never merely because
	// Handle.Failed reports true.
	Enabled bool
	// IntervalSeconds is how often the health checker probes the socket.
	// Only meaningful when Enabled is true. Zero means "use whatever
	// default the health-checking subsystem applies"; see
	// WithHealthCheckInterval for a Factory decorator that forces this
	// from a reloadable setting.
	IntervalSeconds int
}

// Options carries everything a Factory needs to open a new socket.
type Options struct {
	// RemoteSide is the endpoint to connect to, e.g. "host:port".
	RemoteSide string
	// TLSContext is the initial TLS configuration for the connection, or
	// nil for a plaintext connection.
	TLSContext *tls.Config
	// UseRDMA requests an RDMA-capable transport for this socket, if the
	// Factory's implementation supports it.
	UseRDMA bool
	// HealthCheck configures health checking for the new socket.
	HealthCheck HealthCheckOption
}

// Factory creates new sockets and re-addresses existing ones by id. A
// single Factory implementation is shared by every Registry it backs.
//
// CreateSocket and Address may be called while the Registry holds its
// internal mutex; implementations must not call back into the Registry
// that invoked them.
type Factory interface {
	// CreateSocket opens a new connection described by opt and returns its
	// id. The returned id must be immediately usable with Address, even if
	// the new socket is already in a failed state (e.g. the remote refused
	// the connection before CreateSocket returned).
	CreateSocket(opt Options) (ID, error)

	// Address resolves id to a live Handle, obtaining a new strong
	// reference on it. It must succeed even if the socket has already
	// failed — addressing a failed socket is not itself an error; only an
	// unknown or already-destroyed id is.
	Address(id ID) (Handle, error)
}

// Handle is an opaque, addressable socket. It is independently reference
// counted by whatever subsystem implements it; this package never assumes
// anything about that counting scheme beyond the four release-oriented
// methods below.
type Handle interface {
	// ID returns this handle's socket id.
	ID() ID
	// RemoteSide returns the endpoint this handle is connected to.
	RemoteSide() string
	// Failed reports whether the underlying connection is currently
	// considered failed. For a health-checked socket this does not mean
	// "permanently dead" — see HCEnabled.
	Failed() bool
	// HCEnabled reports whether this socket is under active health
	// checking. A health-checked socket is never considered permanently
	// dead merely because Failed is true: the health checker owns the
	// decision about when (or whether) it recovers.
	HCEnabled() bool

	// ReleaseAdditionalReference releases the single reference a
	// Registry holds on a non-health-checked socket for as long as the
	// socket has an Entry. Must be called exactly once, after the Entry
	// holding it is removed.
	ReleaseAdditionalReference()
	// ReleaseHCRelatedReference releases the reference the health-check
	// subsystem holds on a health-checked socket, on behalf of the
	// Registry's Entry being removed. Must be called exactly once.
	ReleaseHCRelatedReference()

	// ListPooledSockets returns the ids of this handle's pooled
	// sub-sockets, if any. The Registry does not manage their reference
	// counts directly; it only asks for idle release via
	// ReleaseReferenceIfIdle.
	ListPooledSockets() ([]ID, error)
	// ReleaseReferenceIfIdle asks the handle to release its own
	// reference if it has been idle (no data transmitted) for at least
	// idleSeconds. It reports whether the reference was released. What
	// "idle" means is entirely up to the implementation; callers only
	// supply the threshold.
	ReleaseReferenceIfIdle(idleSeconds int) bool
}
