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
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// maybeExposeInVars is the Go-idiomatic analog of brpc's
// ShowSocketMapInBvarIfNeed: on the first call after show_socketmap_in_vars
// becomes (or already is) enabled, it registers a passive gauge reporting
// the current entry count. It is cheap to call on every Insert/Remove, as
// the original does, because the registration itself only ever happens
// once per Registry.
func (r *Registry) maybeExposeInVars() {
	if !r.showInVars.Get() {
		return
	}
	if !r.exposedInVars.CompareAndSwap(false, true) {
		return
	}
	count := r
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "socketmap_entries",
		Help: "Current number of entries in a socketmap.Registry, i.e. distinct live peer connections.",
		ConstLabels: prometheus.Labels{
			"registry": fmt.Sprintf("%p", r),
		},
	}, func() float64 {
		return float64(count.entryCount())
	})
	registerer := r.statsRegisterer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	// Registration failure (e.g. a duplicate collector from a prior
	// Registry at the same pointer address, vanishingly unlikely) is not
	// worth failing Insert/Remove over; the original's bvar exposure is
	// similarly best-effort.
	_ = registerer.Register(gauge)
}

func (r *Registry) entryCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
