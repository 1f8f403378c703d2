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

// Package socketmap maintains a process's shared registry of connections to
// remote peers: at most one live socket per (peer, signature) Key, shared
// across every caller that asks for it, reference counted so the last
// caller to let go is the one that tears it down.
//
// A Registry is constructed with NewRegistry and configured once with
// Init. Callers obtain a connection with Insert and must eventually call
// Remove exactly once for each successful Insert. Find looks up the current
// socket for a Key without affecting its reference count.
//
// When idle-timeout sweeping is configured (a positive or dynamic
// IdleTimeoutSeconds), a Registry runs a background reaper that
// periodically releases idle pooled sub-sockets and removes entries that
// have sat unreferenced past their defer-close window. Without a reaper,
// entries kept by a positive defer-close window are not removed.
//
// For process-wide use without threading a *Registry through every caller,
// SetDefaultOptions followed by the package-level Insert/Find/Remove/List
// functions lazily construct and share a single process-wide Registry.
package socketmap
