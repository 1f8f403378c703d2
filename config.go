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

import "sync/atomic"

// IntSetting is a reloadable integer parameter: either a fixed value fixed
// at construction time, or a pointer to a live cell (or an arbitrary getter
// function) that some external dynamic-flag-reload mechanism may mutate at
// any time. The Registry and Reaper always call Get exactly once per
// decision and use that single snapshot, so a value that changes mid
// critical-section cannot produce an inconsistent decision.
//
// The zero value is a static setting of 0.
type IntSetting struct {
	get     func() int
	dynamic bool
}

// StaticInt returns a setting whose value never changes.
func StaticInt(v int) IntSetting {
	return IntSetting{get: func() int { return v }}
}

// DynamicInt returns a setting backed by an atomic cell that some other part
// of the process may update concurrently, e.g. in response to a config
// reload.
func DynamicInt(cell *atomic.Int32) IntSetting {
	return IntSetting{
		get:     func() int { return int(cell.Load()) },
		dynamic: true,
	}
}

// DynamicIntFunc returns a setting backed by an arbitrary getter, for
// integrating with config-reload mechanisms that don't expose a bare
// atomic cell (e.g. a viper-style live config object).
func DynamicIntFunc(get func() int) IntSetting {
	return IntSetting{get: get, dynamic: true}
}

// Get returns the current value of the setting.
func (s IntSetting) Get() int {
	if s.get == nil {
		return 0
	}
	return s.get()
}

// IsDynamic reports whether this setting was constructed from a live
// source, as opposed to a fixed value baked in at construction time. Init
// uses this to decide whether the Reaper must run even though the setting's
// current value happens to be non-positive (it might become positive
// later).
func (s IntSetting) IsDynamic() bool {
	return s.dynamic
}

// BoolSetting is the boolean counterpart to IntSetting, used for
// reserve_one_idle_socket and show_socketmap_in_vars.
//
// The zero value is a static setting of false.
type BoolSetting struct {
	get func() bool
}

// StaticBool returns a setting whose value never changes.
func StaticBool(v bool) BoolSetting {
	return BoolSetting{get: func() bool { return v }}
}

// DynamicBool returns a setting backed by an atomic cell.
func DynamicBool(cell *atomic.Bool) BoolSetting {
	return BoolSetting{get: cell.Load}
}

// DynamicBoolFunc returns a setting backed by an arbitrary getter.
func DynamicBoolFunc(get func() bool) BoolSetting {
	return BoolSetting{get: get}
}

// Get returns the current value of the setting.
func (s BoolSetting) Get() bool {
	if s.get == nil {
		return false
	}
	return s.get()
}
