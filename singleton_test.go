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
	"testing"

	"github.com/CodeZHXS/socketmap/socket"
	"github.com/CodeZHXS/socketmap/socket/sockettesting"
	"github.com/stretchr/testify/require"
)

// These tests mutate process-wide singleton state and must not run with
// t.Parallel, nor concurrently with each other.

func TestGlobalRegistryUninitializedReportsNotOK(t *testing.T) {
	resetGlobalForTest()
	defer resetGlobalForTest()

	_, ok := GlobalRegistry()
	require.False(t, ok)
}

func TestSetDefaultOptionsThenInsertLazilyConstructsSingleton(t *testing.T) {
	resetGlobalForTest()
	defer resetGlobalForTest()

	factory := sockettesting.NewFakeFactory()
	SetDefaultOptions(Options{Factory: factory})

	id, err := Insert(Key{Peer: "a:1"}, nil, false, socket.HealthCheckOption{})
	require.NoError(t, err)

	r, ok := GlobalRegistry()
	require.True(t, ok)

	foundID, err := r.Find(Key{Peer: "a:1"})
	require.NoError(t, err)
	require.Equal(t, id, foundID)
}

func TestFindRemoveListDoNotInitializeSingleton(t *testing.T) {
	resetGlobalForTest()
	defer resetGlobalForTest()

	_, err := Find(Key{Peer: "a:1"})
	require.ErrorIs(t, err, ErrNotFound,
		"Find must not construct the singleton; an uninitialized registry just has no entries")

	require.NoError(t, Remove(Key{Peer: "a:1"}, socket.InvalidID),
		"Remove against an uninitialized singleton must be a no-op, not an error")

	ids, err := List()
	require.NoError(t, err)
	require.Empty(t, ids)

	_, ok := GlobalRegistry()
	require.False(t, ok, "Find/Remove/List must leave the singleton unconstructed")
}

func TestInsertPropagatesMissingFactoryAndIsSticky(t *testing.T) {
	resetGlobalForTest()
	defer resetGlobalForTest()

	_, err := Insert(Key{Peer: "a:1"}, nil, false, socket.HealthCheckOption{})
	require.ErrorIs(t, err, ErrMissingFactory)

	// The failed initialization attempt must not be retried; it is sticky
	// for the process lifetime, exactly like sync.Once.
	_, err = Insert(Key{Peer: "a:1"}, nil, false, socket.HealthCheckOption{})
	require.ErrorIs(t, err, ErrMissingFactory)
}

func TestPackageLevelRemoveAndList(t *testing.T) {
	resetGlobalForTest()
	defer resetGlobalForTest()

	factory := sockettesting.NewFakeFactory()
	SetDefaultOptions(Options{Factory: factory})

	key := Key{Peer: "a:1"}
	id, err := Insert(key, nil, false, socket.HealthCheckOption{})
	require.NoError(t, err)

	ids, err := List()
	require.NoError(t, err)
	require.Contains(t, ids, id)

	require.NoError(t, Remove(key, id))

	_, err = Find(key)
	require.ErrorIs(t, err, ErrNotFound)
}
