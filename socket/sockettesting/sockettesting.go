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

// Package sockettesting provides fake implementations of socket.Factory and
// socket.Handle that can be used to test code built on top of the socketmap
// package, without any real connection I/O.
package sockettesting

import (
	"errors"
	"sync"

	"github.com/CodeZHXS/socketmap/socket"
	"github.com/google/uuid"
)

// FakeFactory is a socket.Factory backed by an in-memory table of
// *FakeHandle values. Use NewFakeFactory to construct one.
type FakeFactory struct {
	// CreateError, if set, is returned by CreateSocket instead of
	// creating a new handle. Tests can mutate this between calls to
	// simulate an intermittently failing backend.
	CreateError error

	mu        sync.Mutex
	nextID    socket.ID
	handles   map[socket.ID]*FakeHandle
	createLog []socket.Options
}

// NewFakeFactory creates an empty FakeFactory.
func NewFakeFactory() *FakeFactory {
	return &FakeFactory{
		nextID:  1,
		handles: map[socket.ID]*FakeHandle{},
	}
}

// CreateSocket implements socket.Factory. Each call allocates a new
// *FakeHandle with a fresh socket.ID, recording opt for later inspection via
// CreateCallCount/CreateOptions.
func (f *FakeFactory) CreateSocket(opt socket.Options) (socket.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateError != nil {
		return 0, f.CreateError
	}
	id := f.nextID
	f.nextID++
	f.handles[id] = &FakeHandle{
		id:         id,
		remoteSide: opt.RemoteSide,
		hcEnabled:  opt.HealthCheck.Enabled,
		debugLabel: uuid.NewString(),
	}
	f.createLog = append(f.createLog, opt)
	return id, nil
}

// Address implements socket.Factory.
func (f *FakeFactory) Address(id socket.ID) (socket.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handles[id]
	if !ok {
		return nil, errors.New("sockettesting: unknown socket id")
	}
	return h, nil
}

// CreateCallCount returns how many sockets CreateSocket has created; calls
// that returned CreateError are not counted.
func (f *FakeFactory) CreateCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.createLog)
}

// CreateOptions returns the options passed to the i-th call to CreateSocket.
func (f *FakeFactory) CreateOptions(i int) socket.Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createLog[i]
}

// Handle returns the *FakeHandle for id, for direct manipulation in tests
// (e.g. SetFailed, SetPooledSockets). It panics if id is unknown.
func (f *FakeFactory) Handle(id socket.ID) *FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.handles[id]
	if !ok {
		panic("sockettesting: unknown socket id")
	}
	return h
}

// AddPooledHandle registers a *FakeHandle for id directly, bypassing
// CreateSocket. Use this to make an id returned from a main handle's
// SetPooledSockets independently addressable, the way a real pooled
// sub-socket would be: the reaper calls Factory.Address on pooled ids, not
// just on the ids CreateSocket itself allocated.
func (f *FakeFactory) AddPooledHandle(id socket.ID, remoteSide string) *FakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &FakeHandle{
		id:         id,
		remoteSide: remoteSide,
		debugLabel: uuid.NewString(),
	}
	f.handles[id] = h
	return h
}

// FakeHandle is a socket.Handle test double. Every field affecting its
// externally visible behavior is guarded by mu so it can be observed and
// mutated concurrently with a Registry exercising it.
type FakeHandle struct {
	id         socket.ID
	remoteSide string
	debugLabel string

	mu                     sync.Mutex
	failed                 bool
	hcEnabled              bool
	pooled                 []socket.ID
	additionalRefReleased  int
	hcRelatedRefReleased   int
	releasedIfIdleRequests []int
	idleReleaseResult      bool
}

// ID implements socket.Handle.
func (h *FakeHandle) ID() socket.ID { return h.id }

// RemoteSide implements socket.Handle.
func (h *FakeHandle) RemoteSide() string { return h.remoteSide }

// DebugLabel returns the fake's human-readable debug label (a UUID, distinct
// from its socket.ID), useful for assertions that want to distinguish
// fakes without depending on socket.ID allocation order.
func (h *FakeHandle) DebugLabel() string { return h.debugLabel }

// Failed implements socket.Handle.
func (h *FakeHandle) Failed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failed
}

// SetFailed scripts the result of future Failed calls.
func (h *FakeHandle) SetFailed(failed bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failed = failed
}

// HCEnabled implements socket.Handle.
func (h *FakeHandle) HCEnabled() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hcEnabled
}

// SetHCEnabled scripts the result of future HCEnabled calls.
func (h *FakeHandle) SetHCEnabled(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hcEnabled = enabled
}

// ReleaseAdditionalReference implements socket.Handle.
func (h *FakeHandle) ReleaseAdditionalReference() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.additionalRefReleased++
}

// ReleaseHCRelatedReference implements socket.Handle.
func (h *FakeHandle) ReleaseHCRelatedReference() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hcRelatedRefReleased++
}

// AdditionalReferenceReleases returns how many times
// ReleaseAdditionalReference has been called.
func (h *FakeHandle) AdditionalReferenceReleases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.additionalRefReleased
}

// HCRelatedReferenceReleases returns how many times
// ReleaseHCRelatedReference has been called.
func (h *FakeHandle) HCRelatedReferenceReleases() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hcRelatedRefReleased
}

// SetPooledSockets scripts the result of future ListPooledSockets calls.
func (h *FakeHandle) SetPooledSockets(ids []socket.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pooled = append([]socket.ID(nil), ids...)
}

// ListPooledSockets implements socket.Handle.
func (h *FakeHandle) ListPooledSockets() ([]socket.ID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]socket.ID(nil), h.pooled...), nil
}

// SetIdleReleaseResult scripts what future ReleaseReferenceIfIdle calls
// return.
func (h *FakeHandle) SetIdleReleaseResult(released bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.idleReleaseResult = released
}

// ReleaseReferenceIfIdle implements socket.Handle.
func (h *FakeHandle) ReleaseReferenceIfIdle(idleSeconds int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releasedIfIdleRequests = append(h.releasedIfIdleRequests, idleSeconds)
	return h.idleReleaseResult
}

// IdleReleaseRequests returns the idleSeconds argument of every past call to
// ReleaseReferenceIfIdle, in order.
func (h *FakeHandle) IdleReleaseRequests() []int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.releasedIfIdleRequests...)
}
