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

	"github.com/stretchr/testify/assert"
)

func TestKeyEquality(t *testing.T) {
	t.Parallel()
	a := Key{Peer: "10.0.0.1:8080", Signature: "sig-a"}
	b := Key{Peer: "10.0.0.1:8080", Signature: "sig-a"}
	c := Key{Peer: "10.0.0.1:8080", Signature: "sig-b"}
	d := Key{Peer: "10.0.0.2:8080", Signature: "sig-a"}

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
}

func TestKeyString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "10.0.0.1:8080", Key{Peer: "10.0.0.1:8080"}.String())
	assert.Equal(t, "10.0.0.1:8080#sig", Key{Peer: "10.0.0.1:8080", Signature: "sig"}.String())
}

func TestKeyUsableAsMapKey(t *testing.T) {
	t.Parallel()
	m := map[Key]int{}
	m[Key{Peer: "a"}] = 1
	m[Key{Peer: "a", Signature: "s"}] = 2
	assert.Len(t, m, 2)
	assert.Equal(t, 1, m[Key{Peer: "a"}])
}
