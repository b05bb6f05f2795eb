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

// Supplier produces an instance.
type Supplier[T any] func() (T, error)

// Interceptor wraps a Supplier. It receives proceed, which replays every
// interceptor registered before it down to the original factory, and
// decides whether and when to call it.
//
//	// Replace the original.
//	func(Supplier[DB]) (DB, error) { return fakeDB{}, nil }
//
//	// Decorate the original.
//	func(proceed Supplier[DB]) (DB, error) {
//		db, err := proceed()
//		return spy(db), err
//	}
type Interceptor[T any] func(proceed Supplier[T]) (T, error)

// Hook observes an instance after creation or before destruction.
type Hook[T any] func(T) error

// Around composes Interceptors. The most recently added one runs first.
// The zero value is an empty chain.
type Around[T any] struct {
	fns []Interceptor[T]
}

// Wrap adds f on top of the chain.
func (a *Around[T]) Wrap(f Interceptor[T]) {
	if f != nil {
		a.fns = append(a.fns, f)
	}
}

// Len returns the number of interceptors.
func (a *Around[T]) Len() int { return len(a.fns) }

// Over returns base wrapped by every interceptor in the chain.
func (a *Around[T]) Over(base Supplier[T]) Supplier[T] {
	s := base
	for _, f := range a.fns {
		proceed := s
		s = func() (T, error) { return f(proceed) }
	}
	return s
}

// Decorator wraps the Hooks registered before it. It receives the instance
// and prev, the chain so far, and decides whether and when to call it.
type Decorator[T any] func(v T, prev Hook[T]) error

// After composes Hooks. Hooks added with Then run after those added before
// them, and the first failing hook stops the chain. The zero value is an
// empty chain.
type After[T any] struct {
	fn Hook[T]
}

// Wrap adds d on top of the chain. prev is never nil.
func (a *After[T]) Wrap(d Decorator[T]) {
	if d == nil {
		return
	}
	prev := a.fn
	if prev == nil {
		prev = func(T) error { return nil }
	}
	a.fn = func(v T) error { return d(v, prev) }
}

// Then appends g to the chain.
func (a *After[T]) Then(g Hook[T]) {
	if g == nil {
		return
	}
	if a.fn == nil {
		a.fn = g
		return
	}
	a.Wrap(func(v T, prev Hook[T]) error {
		if err := prev(v); err != nil {
			return err
		}
		return g(v)
	})
}

// Hook returns the composed chain, or nil if it is empty. Later calls to
// Then do not affect a hook returned earlier.
func (a *After[T]) Hook() Hook[T] { return a.fn }

// Run invokes the chain on v.
func (a *After[T]) Run(v T) error {
	if a.fn == nil {
		return nil
	}
	return a.fn(v)
}
