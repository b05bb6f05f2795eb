// Copyright (c) 2025-present deep.rent GmbH (https://deep.rent)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package di

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// ids hands out instance ids. It is shared by every provider in the
// process, so ids order creations across containers too.
var ids atomic.Uint64

// instance pairs a value with the id assigned on creation.
type instance[T any] struct {
	value T
	id    uint64
}

// Provider hands out the instance of a binding.
type Provider[T any] interface {
	// Get returns the instance, creating it on first use.
	Get() (T, error)
	// InstanceID returns the creation id, or false if no instance exists.
	InstanceID() (uint64, bool)
}

// Singleton is a Provider that creates its instance at most once.
//
// The first call to Get runs the supplier, assigns the next instance id and
// runs the onCreate hook. Concurrent callers block on a per-provider lock
// until the instance is published and then all observe the same value.
// Calls after that take a lock-free fast path.
//
// A failing supplier or onCreate hook leaves the Singleton empty; the error
// goes to the caller and the next Get tries again. Panics are not recovered.
type Singleton[T any] struct {
	mu        sync.Mutex
	current   atomic.Pointer[instance[T]]
	phase     phase
	supply    Supplier[T]
	onCreate  Hook[T]
	onDestroy Hook[T]
}

// NewSingleton creates a Singleton. Both hooks may be nil.
func NewSingleton[T any](supply Supplier[T], onCreate, onDestroy Hook[T]) *Singleton[T] {
	s := &Singleton[T]{
		supply:    supply,
		onCreate:  onCreate,
		onDestroy: onDestroy,
	}
	s.phase.store(Running)
	return s
}

// Get returns the instance, creating it on first use. It fails with a
// *StateError once the Singleton has been destroyed.
func (s *Singleton[T]) Get() (T, error) {
	if in := s.current.Load(); in != nil {
		return in.value, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in := s.current.Load(); in != nil {
		return in.value, nil
	}

	var zero T
	if err := s.phase.expect("provider", Running); err != nil {
		return zero, err
	}

	v, err := s.supply()
	if err != nil {
		return zero, err
	}
	in := &instance[T]{value: v, id: ids.Add(1)}
	if s.onCreate != nil {
		if err := s.onCreate(v); err != nil {
			return zero, err
		}
	}
	s.current.Store(in)
	return v, nil
}

// Initialize creates the instance right away unless lazy is set.
func (s *Singleton[T]) Initialize(lazy bool) error {
	if lazy {
		return nil
	}
	_, err := s.Get()
	return err
}

// InstanceID returns the creation id of the instance.
func (s *Singleton[T]) InstanceID() (uint64, bool) {
	if in := s.current.Load(); in != nil {
		return in.id, true
	}
	return 0, false
}

// Destroy runs the onDestroy hook on the instance, if any, and discards it.
// The Singleton cannot be used afterwards. Destroy is idempotent and never
// panics: a failing or panicking hook is reported through the returned
// error, and the instance is dropped regardless.
func (s *Singleton[T]) Destroy() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.phase.store(Destroyed)
	in := s.current.Load()
	if in == nil {
		return nil
	}

	defer s.current.Store(nil)
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic during destroy: %v", rec)
		}
	}()

	if s.onDestroy != nil {
		return s.onDestroy(in.value)
	}
	return nil
}
