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

import (
	"crypto/tls"
	"sync"
	"sync/atomic"

	"github.com/CodeZHXS/socketmap/socket"
)

var (
	defaultOptionsMu sync.Mutex
	defaultOptions   Options

	globalOnce     sync.Once
	globalInitErr  error
	globalRegistry atomic.Pointer[Registry]
)

// SetDefaultOptions records the Options the process-wide Registry will be
// initialized with, the first time it is needed. It must be called before
// the first call to any package-level convenience function (Insert, Find,
// Remove, List) or to GlobalRegistry; calling it afterward has no effect on
// an already-initialized singleton.
//
// This mirrors the original's flag-driven global configuration: exactly one
// SocketFactory and one set of reloadable parameters back the whole
// process's default map.
func SetDefaultOptions(opts Options) {
	defaultOptionsMu.Lock()
	defer defaultOptionsMu.Unlock()
	defaultOptions = opts
}

// getOrNewGlobalRegistry lazily constructs and initializes the process-wide
// Registry exactly once, using whatever Options were last passed to
// SetDefaultOptions (or the zero value, which will fail Init with
// ErrMissingFactory if no Factory was ever configured).
func getOrNewGlobalRegistry() (*Registry, error) {
	globalOnce.Do(func() {
		defaultOptionsMu.Lock()
		opts := defaultOptions
		defaultOptionsMu.Unlock()

		r := NewRegistry()
		if err := r.Init(opts); err != nil {
			globalInitErr = err
			return
		}
		globalRegistry.Store(r)
	})
	return globalRegistry.Load(), globalInitErr
}

// GlobalRegistry returns the process-wide Registry without side effects: it
// reports ok=false if no earlier package-level Insert has constructed the
// singleton, or if that construction failed. Use this when you want to observe the singleton (e.g. for a health
// check) without accidentally being the call that first constructs it.
//
// Find, Remove, and List are built on this accessor rather than on
// getOrNewGlobalRegistry precisely so that none of them ever triggers
// construction: a lookup, a release, or a listing against a singleton
// nobody has inserted into yet must behave as the empty map it effectively
// is, not as the side effect of materializing one.
func GlobalRegistry() (r *Registry, ok bool) {
	r = globalRegistry.Load()
	return r, r != nil
}

// Insert is the package-level convenience wrapper around
// GlobalRegistry().Insert, initializing the process-wide Registry on first
// use if necessary.
func Insert(key Key, tlsCtx *tls.Config, useRDMA bool, hcOption socket.HealthCheckOption) (socket.ID, error) {
	r, err := getOrNewGlobalRegistry()
	if err != nil {
		return 0, err
	}
	return r.Insert(key, tlsCtx, useRDMA, hcOption)
}

// Find is the package-level convenience wrapper around
// GlobalRegistry().Find. It does not initialize the singleton: if it has
// not been constructed yet, Find reports ErrNotFound rather than Insert's
// ErrMissingFactory.
func Find(key Key) (socket.ID, error) {
	r, ok := GlobalRegistry()
	if !ok {
		return 0, ErrNotFound
	}
	return r.Find(key)
}

// Remove is the package-level convenience wrapper around
// GlobalRegistry().Remove. It does not initialize the singleton: removing
// from an uninitialized registry is a no-op, consistent with Registry.Remove
// being idempotent on an absent key.
func Remove(key Key, expectedID socket.ID) error {
	r, ok := GlobalRegistry()
	if !ok {
		return nil
	}
	r.Remove(key, expectedID)
	return nil
}

// List is the package-level convenience wrapper around GlobalRegistry().List.
// It does not initialize the singleton: an uninitialized registry reports an
// empty list rather than an error.
func List() ([]socket.ID, error) {
	r, ok := GlobalRegistry()
	if !ok {
		return nil, nil
	}
	return r.List(), nil
}
