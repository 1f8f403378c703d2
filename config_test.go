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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntSettingStatic(t *testing.T) {
	t.Parallel()
	s := StaticInt(42)
	assert.Equal(t, 42, s.Get())
	assert.False(t, s.IsDynamic())
}

func TestIntSettingDynamic(t *testing.T) {
	t.Parallel()
	var cell atomic.Int32
	cell.Store(7)
	s := DynamicInt(&cell)
	assert.Equal(t, 7, s.Get())
	assert.True(t, s.IsDynamic())

	cell.Store(99)
	assert.Equal(t, 99, s.Get(), "DynamicInt must reflect concurrent updates to the backing cell")
}

func TestIntSettingDynamicFunc(t *testing.T) {
	t.Parallel()
	n := 3
	s := DynamicIntFunc(func() int { return n })
	assert.Equal(t, 3, s.Get())
	assert.True(t, s.IsDynamic())
	n = 5
	assert.Equal(t, 5, s.Get())
}

func TestIntSettingZeroValue(t *testing.T) {
	t.Parallel()
	var s IntSetting
	assert.Equal(t, 0, s.Get())
	assert.False(t, s.IsDynamic())
}

func TestBoolSettingStatic(t *testing.T) {
	t.Parallel()
	assert.True(t, StaticBool(true).Get())
	assert.False(t, StaticBool(false).Get())
}

func TestBoolSettingDynamic(t *testing.T) {
	t.Parallel()
	var cell atomic.Bool
	s := DynamicBool(&cell)
	assert.False(t, s.Get())
	cell.Store(true)
	assert.True(t, s.Get())
}

func TestBoolSettingZeroValue(t *testing.T) {
	t.Parallel()
	var s BoolSetting
	assert.False(t, s.Get())
}
