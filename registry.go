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
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/CodeZHXS/socketmap/internal"
	"github.com/CodeZHXS/socketmap/socket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// defaultMapSizeHint mirrors the original's suggested_map_size default.
const defaultMapSizeHint = 1024

// Options configures a Registry. See Registry.Init.
type Options struct {
	// Factory creates and addresses sockets. Required.
	Factory socket.Factory

	// MapSizeHint is a size hint for the internal map. Zero means "use a
	// reasonable default"; negative is invalid and fails Init with
	// ErrMapInitFailed.
	MapSizeHint int

	// IdleTimeoutSeconds is the idle_timeout_second reloadable parameter:
	// pooled sub-sockets idle for at least this long are released by the
	// Reaper. Non-positive disables idle sweeping. If this setting is
	// dynamic (IsDynamic), the Reaper is started even if its current
	// value is non-positive, since it may become positive later.
	IdleTimeoutSeconds IntSetting

	// DeferCloseSeconds is the defer_close_second reloadable parameter:
	// how long an Entry may sit at ref_count == 0 before the Reaper
	// removes it. Non-positive means immediate removal. Only a running
	// Reaper removes such entries; see IdleTimeoutSeconds for when one runs.
	DeferCloseSeconds IntSetting

	// ReserveOneIdleSocket is the reserve_one_idle_socket reloadable
	// parameter: when sweeping a main socket's pooled sub-sockets for
	// idle release, skip the first one in the list.
	ReserveOneIdleSocket BoolSetting

	// ShowInVars is the show_socketmap_in_vars reloadable parameter:
	// when true, a passive entry-count statistic is exposed (lazily, on
	// the first Insert or Remove call).
	ShowInVars BoolSetting

	// StatsRegisterer is where the passive entry-count gauge is
	// registered when ShowInVars is enabled. Defaults to
	// prometheus.DefaultRegisterer.
	StatsRegisterer prometheus.Registerer

	// Logger receives the teardown-leak diagnostic and swallowed Reaper
	// errors. The zero Logger discards everything, so leaving this unset
	// is safe.
	Logger zerolog.Logger

	// Clock is used for the Reaper's ticking and for no_ref_us
	// timestamps; how long a pooled sub-socket has been idle is judged by
	// its Handle, not by this clock. Defaults to a real wall-clock. Tests can substitute
	// internal/clocktest.NewFakeClock.
	Clock internal.Clock
}

// Registry is a mutex-guarded map from Key to a single, reference-counted
// socket.Handle per key, plus (when configured) a background Reaper that
// releases idle pooled sub-sockets and removes orphaned entries.
//
// The zero value is not usable; construct with NewRegistry and call Init.
type Registry struct {
	factory socket.Factory
	clock   internal.Clock
	logger  zerolog.Logger

	idleTimeout     IntSetting
	deferClose      IntSetting
	reserveOneIdle  BoolSetting
	showInVars      BoolSetting
	statsRegisterer prometheus.Registerer

	exposedInVars atomic.Bool

	mu sync.Mutex
	// +checklocks:mu
	entries map[Key]*singleConnection
	// +checklocks:mu
	initialized bool
	// +checklocks:mu
	closed bool

	reaper *reaper
}

// NewRegistry constructs an uninitialized Registry. Call Init before use.
func NewRegistry() *Registry {
	return &Registry{}
}

// Init configures the Registry. Once a call has succeeded, later calls
// return ErrAlreadyInitialized; a call that fails validation leaves the
// Registry uninitialized.
func (r *Registry) Init(opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.initialized {
		return ErrAlreadyInitialized
	}
	if opts.Factory == nil {
		return ErrMissingFactory
	}

	size := opts.MapSizeHint
	if size < 0 {
		return ErrMapInitFailed
	}
	if size == 0 {
		size = defaultMapSizeHint
	}

	r.factory = opts.Factory
	r.idleTimeout = opts.IdleTimeoutSeconds
	r.deferClose = opts.DeferCloseSeconds
	r.reserveOneIdle = opts.ReserveOneIdleSocket
	r.showInVars = opts.ShowInVars
	r.statsRegisterer = opts.StatsRegisterer
	r.logger = opts.Logger
	r.clock = opts.Clock
	if r.clock == nil {
		r.clock = internal.NewRealClock()
	}
	r.entries = make(map[Key]*singleConnection, size)
	r.initialized = true

	if r.idleTimeout.IsDynamic() || r.idleTimeout.Get() > 0 {
		rp, err := newReaper(r)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReaperStartFailed, err)
		}
		r.reaper = rp
	}
	return nil
}

// Insert returns the socket.ID for key, creating a new socket via the
// configured Factory if none exists yet (or the existing one is
// permanently dead), and incrementing the entry's reference count either
// way. Every successful Insert must be matched by exactly one Remove.
func (r *Registry) Insert(key Key, tlsCtx *tls.Config, useRDMA bool, hcOption socket.HealthCheckOption) (socket.ID, error) {
	r.maybeExposeInVars()

	r.mu.Lock()
	defer r.mu.Unlock()

	if sc, ok := r.entries[key]; ok {
		if !sc.permanentlyDead() {
			sc.refCount++
			return sc.socket.ID(), nil
		}
		// The socket is permanently dead (failed, not health-checked):
		// release its extra reference and fall through to create a
		// replacement. The lock stays held across the factory call
		// below, exactly as across this whole method; see DESIGN.md
		// for why that's deliberate rather than an oversight.
		sc.ref.release(sc.socket)
		delete(r.entries, key)
	}

	id, err := r.factory.CreateSocket(socket.Options{
		RemoteSide:  key.Peer,
		TLSContext:  tlsCtx,
		UseRDMA:     useRDMA,
		HealthCheck: hcOption,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	handle, err := r.factory.Address(id)
	if err != nil {
		return 0, fmt.Errorf("%w: addressing newly created socket %d: %w", ErrInternalInconsistency, id, err)
	}
	if handle.Failed() && !handle.HCEnabled() {
		return 0, fmt.Errorf("%w: socket %d failed immediately after creation without health checking enabled", ErrInternalInconsistency, id)
	}

	r.entries[key] = &singleConnection{
		socket:   handle,
		ref:      refFor(handle),
		refCount: 1,
	}
	return id, nil
}

// Find returns the current socket.ID for key without affecting its
// reference count, or ErrNotFound if no entry exists.
func (r *Registry) Find(key Key) (socket.ID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sc, ok := r.entries[key]
	if !ok {
		return 0, ErrNotFound
	}
	return sc.socket.ID(), nil
}

// Remove relinquishes one reference to key's entry on behalf of the caller
// who previously called Insert and received expectedID. If expectedID no
// longer matches the entry's current socket (it was replaced since the
// caller's Insert), the reference count is not decremented; an entry that
// is already at zero references is still re-stamped or removed as below.
// Pass socket.InvalidID to skip the identity comparison unconditionally.
// That is safe only while the key's socket cannot be replaced between the
// caller's Insert and this Remove, which holds when every socket
// registered under the key has health checking enabled.
//
// Remove is idempotent: removing an absent key does nothing.
func (r *Registry) Remove(key Key, expectedID socket.ID) {
	r.removeInternal(key, expectedID, false)
}

// removeInternal implements both Remove (removeOrphan=false) and the
// Reaper's orphan sweep (removeOrphan=true). When removeOrphan is true, the
// caller already knows ref_count is zero and the defer window has passed
// (or defer is disabled), so the identity comparison and the defer-window
// check are both skipped.
func (r *Registry) removeInternal(key Key, expectedID socket.ID, removeOrphan bool) {
	r.maybeExposeInVars()

	r.mu.Lock()

	sc, ok := r.entries[key]
	if !ok {
		r.mu.Unlock()
		return
	}

	if !removeOrphan && (expectedID == socket.InvalidID || expectedID == sc.socket.ID()) {
		sc.refCount--
	}
	if sc.refCount != 0 {
		r.mu.Unlock()
		return
	}

	deferSeconds := r.deferClose.Get()
	if !removeOrphan && deferSeconds > 0 {
		sc.noRefUs = r.nowMicros()
		r.mu.Unlock()
		return
	}

	delete(r.entries, key)
	handle, ref := sc.socket, sc.ref
	r.mu.Unlock()

	// Per §5, the release happens after the mutex is dropped: it may run
	// an unbounded destructor and must not block other callers.
	ref.release(handle)
}

// List returns a snapshot of every socket.ID currently registered.
func (r *Registry) List() []socket.ID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]socket.ID, 0, len(r.entries))
	for _, sc := range r.entries {
		ids = append(ids, sc.socket.ID())
	}
	return ids
}

// ListEndpoints returns a snapshot of every registered entry's remote-side
// endpoint string, the endpoint-oriented sibling of List.
func (r *Registry) ListEndpoints() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	endpoints := make([]string, 0, len(r.entries))
	for _, sc := range r.entries {
		endpoints = append(endpoints, sc.socket.RemoteSide())
	}
	return endpoints
}

// listOrphans returns every key whose entry has been at ref_count == 0 for
// at least deferUs microseconds.
func (r *Registry) listOrphans(deferUs int64) []Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.nowMicros()
	var out []Key
	for key, sc := range r.entries {
		if sc.refCount == 0 && now-sc.noRefUs >= deferUs {
			out = append(out, key)
		}
	}
	return out
}

// Print writes a one-line debug summary to w, in the form "count=<N>".
func (r *Registry) Print(w io.Writer) {
	r.mu.Lock()
	count := len(r.entries)
	r.mu.Unlock()
	fmt.Fprintf(w, "count=%d", count)
}

// Close stops the Reaper (if running) and joins it, then walks the map,
// logging a diagnostic for every entry that still looks alive (its socket
// isn't permanently dead, or it still has outstanding references) — that
// indicates a caller leaked a reference. It does not forcibly release any
// remaining entries' sockets, matching the original's behavior of only
// diagnosing leaks rather than papering over them.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	rp := r.reaper
	r.mu.Unlock()

	var grp errgroup.Group
	if rp != nil {
		grp.Go(func() error {
			rp.stop()
			return nil
		})
	}
	_ = grp.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for key, sc := range r.entries {
		if !sc.permanentlyDead() || sc.refCount != 0 {
			r.logger.Error().
				Stringer("key", key).
				Uint64("socket_id", uint64(sc.socket.ID())).
				Int("ref_count", sc.refCount).
				Msg("socketmap: entry still referenced at registry teardown; a caller leaked a reference")
		}
	}
	return nil
}

func (r *Registry) nowMicros() int64 {
	return r.clock.Now().UnixMicro()
}
