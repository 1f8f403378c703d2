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

import "errors"

//nolint:gochecknoglobals
var (
	// ErrAlreadyInitialized is returned by Init if it is called more than
	// once on the same Registry.
	ErrAlreadyInitialized = errors.New("socketmap: registry already initialized")

	// ErrMissingFactory is returned by Init if Options.Factory is nil.
	ErrMissingFactory = errors.New("socketmap: options must set a Factory")

	// ErrMapInitFailed is returned by Init if the internal map could not
	// be sized as requested.
	ErrMapInitFailed = errors.New("socketmap: failed to size internal map")

	// ErrReaperStartFailed is returned by Init if idle-timeout sweeping
	// was requested but the background reaper could not be started. The
	// goroutine-based reaper in this package has no ordinary failure mode
	// and so never actually returns this; it is kept for parity with the
	// documented error taxonomy and for implementations that plug in a
	// different scheduling primitive.
	ErrReaperStartFailed = errors.New("socketmap: failed to start reaper")

	// ErrCreateFailed wraps a SocketFactory.CreateSocket failure returned
	// by Insert. The underlying cause is wrapped alongside it and can be
	// matched with errors.Is or errors.As.
	ErrCreateFailed = errors.New("socketmap: failed to create socket")

	// ErrInternalInconsistency is returned by Insert when a freshly
	// created socket cannot be addressed, or is already permanently dead
	// (failed with health checking disabled) immediately after creation.
	// Either condition means the SocketFactory violated its contract.
	ErrInternalInconsistency = errors.New("socketmap: internal inconsistency")

	// ErrNotFound is returned by Find when the key has no entry. This is
	// an expected, non-exceptional result.
	ErrNotFound = errors.New("socketmap: key not found")
)
