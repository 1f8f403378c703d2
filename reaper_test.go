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
	"context"
	"testing"
	"time"

	"github.com/CodeZHXS/socketmap/internal/clocktest"
	"github.com/CodeZHXS/socketmap/socket"
	"github.com/CodeZHXS/socketmap/socket/sockettesting"
	"github.com/stretchr/testify/require"
)

func TestReaperStopJoinsBackgroundGoroutine(t *testing.T) {
	t.Parallel()
	fake := clocktest.NewFakeClock()
	factory := sockettesting.NewFakeFactory()
	r := NewRegistry()
	require.NoError(t, r.Init(Options{
		Factory:            factory,
		IdleTimeoutSeconds: StaticInt(5),
		Clock:              fake,
	}))
	require.NotNil(t, r.reaper, "a positive idle timeout must start a reaper")
	t.Cleanup(func() { _ = r.Close() })

	done := make(chan struct{})
	go func() {
		r.reaper.stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("reaper.stop() did not return; background goroutine likely leaked")
	}

	// stop must be idempotent.
	r.reaper.stop()
}

func TestReaperSweepsMultipleEntriesConcurrently(t *testing.T) {
	t.Parallel()
	fake := clocktest.NewFakeClock()
	factory := sockettesting.NewFakeFactory()
	r := NewRegistry()
	require.NoError(t, r.Init(Options{
		Factory:            factory,
		IdleTimeoutSeconds: StaticInt(10),
		Clock:              fake,
	}))
	t.Cleanup(func() { _ = r.Close() })

	var mainIDs, pooledIDs []socket.ID
	for i := 0; i < 8; i++ {
		peer := string(rune('a' + i))
		id, err := r.Insert(Key{Peer: peer}, nil, false, socket.HealthCheckOption{})
		require.NoError(t, err)
		pooledID := socket.ID(1000 + i)
		factory.AddPooledHandle(pooledID, peer)
		factory.Handle(id).SetPooledSockets([]socket.ID{pooledID})
		mainIDs = append(mainIDs, id)
		pooledIDs = append(pooledIDs, pooledID)
	}

	ctx := context.Background()
	require.NoError(t, fake.BlockUntilContext(ctx, 1))
	fake.Advance(time.Second)
	require.NoError(t, fake.BlockUntilContext(ctx, 1))
	// The sweep runs on the reaper goroutine; wait until every pooled socket
	// has been reached.
	require.Eventually(t, func() bool {
		for _, pooledID := range pooledIDs {
			if len(factory.Handle(pooledID).IdleReleaseRequests()) == 0 {
				return false
			}
		}
		return true
	}, 5*time.Second, time.Millisecond)

	for _, id := range mainIDs {
		require.Empty(t, factory.Handle(id).IdleReleaseRequests(),
			"the main socket itself must never be asked to release on an idle sweep")
	}
	for _, pooledID := range pooledIDs {
		require.Len(t, factory.Handle(pooledID).IdleReleaseRequests(), 1)
	}
}

func TestInitSkipsReaperWhenNoSweepingConfigured(t *testing.T) {
	t.Parallel()
	factory := sockettesting.NewFakeFactory()
	r := NewRegistry()
	require.NoError(t, r.Init(Options{Factory: factory}))
	t.Cleanup(func() { _ = r.Close() })
	require.Nil(t, r.reaper, "no reaper should run when idle-timeout is static and non-positive")
}
