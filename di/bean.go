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

// Bean is a binding whose instance is computed by a Factory.
//
// A Bean is created once per Container run: eagerly during Container.Start,
// or on the first call to Get if it is lazy. Until the Container starts, its
// factory can be replaced with To, wrapped with Bind, and extended with
// Configure and OnDestroy hooks.
type Bean[T any] struct {
	*binding[T]
}

// NewBean creates an unregistered Bean. It panics if name is empty or
// factory is nil.
func NewBean[T any](name string, factory Factory[T], opts ...BindingOption) *Bean[T] {
	if factory == nil {
		panic("bean factory must not be nil")
	}
	return &Bean[T]{binding: newBinding(name, KindBean, factory, opts)}
}
