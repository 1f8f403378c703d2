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
	"sync"
	"time"

	"github.com/CodeZHXS/socketmap/socket"
	"golang.org/x/sync/errgroup"
)

// reaperSweepInterval is how often the reaper wakes up to look for idle
// pooled sub-sockets and orphaned entries. It is not itself reloadable; only
// the thresholds it evaluates against (idle_timeout_second,
// defer_close_second) are.
const reaperSweepInterval = time.Second

// reaper is the background sweeper described in §4.2: on every tick it
// releases idle pooled sub-sockets on every live entry's main socket, then
// removes entries that have sat orphaned past the defer-close window.
type reaper struct {
	registry *Registry

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// newReaper starts a reaper's background goroutine for r. It always
// succeeds in this implementation; the error return exists to satisfy
// ErrReaperStartFailed's documented contract for alternative scheduling
// backends.
func newReaper(r *Registry) (*reaper, error) {
	rp := &reaper{
		registry: r,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go rp.run()
	return rp, nil
}

func (rp *reaper) run() {
	defer close(rp.doneCh)

	ticker := rp.registry.clock.NewTicker(reaperSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rp.stopCh:
			return
		case <-ticker.Chan():
			rp.tick()
		}
	}
}

// stop signals the reaper's goroutine to exit and blocks until it has. It
// is safe to call more than once.
func (rp *reaper) stop() {
	rp.stopOnce.Do(func() {
		close(rp.stopCh)
	})
	<-rp.doneCh
}

// tick performs one sweep: idle pooled-socket release across every live
// entry, then orphan removal for entries past their defer-close window.
func (rp *reaper) tick() {
	rp.sweepIdlePooled()
	rp.sweepOrphans()
}

type liveEntry struct {
	key    Key
	handle socket.Handle
}

// sweepIdlePooled asks every live entry's main socket to release pooled
// sub-sockets that have been idle at least idle_timeout_second, honoring
// reserve_one_idle_socket by skipping the first id in each list. Per-entry
// work fans out concurrently, mirroring the original's per-socket async
// bthread dispatch; a swallowed per-entry error is logged rather than
// aborting the sweep, since one uncooperative socket must not starve the
// rest.
func (rp *reaper) sweepIdlePooled() {
	idleSeconds := rp.registry.idleTimeout.Get()
	if idleSeconds <= 0 {
		return
	}
	reserveOne := rp.registry.reserveOneIdle.Get()

	rp.registry.mu.Lock()
	live := make([]liveEntry, 0, len(rp.registry.entries))
	for key, sc := range rp.registry.entries {
		live = append(live, liveEntry{key: key, handle: sc.socket})
	}
	rp.registry.mu.Unlock()

	var grp errgroup.Group
	for _, entry := range live {
		entry := entry
		grp.Go(func() error {
			rp.sweepOneHandle(entry, idleSeconds, reserveOne)
			return nil
		})
	}
	_ = grp.Wait()
}

// sweepOneHandle addresses every idle-eligible pooled sub-socket on entry's
// main handle and asks each one, individually, to release itself if idle,
// per the reserve_one_idle_socket policy. This mirrors the original's
// Socket::Address(pooled_sockets[i], &s2); s2->ReleaseReferenceIfIdle(...):
// the idle check and release apply to the pooled sub-socket, never to the
// main socket that owns the pool.
func (rp *reaper) sweepOneHandle(entry liveEntry, idleSeconds int, reserveOne bool) {
	pooled, err := entry.handle.ListPooledSockets()
	if err != nil {
		rp.registry.logger.Warn().
			Stringer("key", entry.key).
			Err(err).
			Msg("socketmap: reaper failed to list pooled sockets, skipping")
		return
	}
	if reserveOne && len(pooled) > 0 {
		pooled = pooled[1:]
	}
	for _, pooledID := range pooled {
		pooledHandle, err := rp.registry.factory.Address(pooledID)
		if err != nil {
			rp.registry.logger.Warn().
				Stringer("key", entry.key).
				Uint64("pooled_socket_id", uint64(pooledID)).
				Err(err).
				Msg("socketmap: reaper failed to address pooled socket, skipping")
			continue
		}
		pooledHandle.ReleaseReferenceIfIdle(idleSeconds)
	}
}

// sweepOrphans removes every entry whose ref_count has been zero for at
// least defer_close_second, notifying no one: an orphan by definition has
// no caller left holding it.
func (rp *reaper) sweepOrphans() {
	deferSeconds := rp.registry.deferClose.Get()
	deferUs := int64(deferSeconds) * 1_000_000
	orphans := rp.registry.listOrphans(deferUs)
	for _, key := range orphans {
		rp.registry.removeInternal(key, socket.InvalidID, true)
	}
}
