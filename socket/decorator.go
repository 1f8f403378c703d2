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

package socket

// WithHealthCheckInterval wraps factory so that every socket it creates has
// its HealthCheck.IntervalSeconds overwritten from interval, read fresh on
// every call to CreateSocket. This is how a process-wide health-check
// interval flag gets forwarded into sockets without baking the flag into
// the registry core itself; it stands in for the kind of global socket
// creator a process otherwise wires up once at startup.
//
// interval is called with no synchronization of its own; pass something
// backed by an atomic read (see IntSetting.Get in the root package) if it
// can change concurrently.
func WithHealthCheckInterval(factory Factory, interval func() int) Factory {
	return &intervalForcingFactory{factory: factory, interval: interval}
}

type intervalForcingFactory struct {
	factory  Factory
	interval func() int
}

func (f *intervalForcingFactory) CreateSocket(opt Options) (ID, error) {
	opt.HealthCheck.IntervalSeconds = f.interval()
	return f.factory.CreateSocket(opt)
}

func (f *intervalForcingFactory) Address(id ID) (Handle, error) {
	return f.factory.Address(id)
}
