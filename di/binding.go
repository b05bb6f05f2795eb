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
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
)

// Kind distinguishes the two sorts of bindings.
type Kind uint8

const (
	KindBean  Kind = iota // Computed by a Factory.
	KindValue             // Read from the Environment.
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	default:
		return "bean"
	}
}

// Factory builds the instance of a Bean. It may resolve other bindings,
// which are created on demand.
type Factory[T any] func(c *Container) (T, error)

// Binding is the untyped view of a Bean or Value as seen by its Container.
// It can only be implemented within this package.
type Binding interface {
	// Name returns the qualified name.
	Name() string
	// Kind tells Beans and Values apart.
	Kind() Kind
	// Type returns the declared type.
	Type() reflect.Type
	// Lazy returns the declared laziness, or nil to inherit the default
	// passed to Container.Start.
	Lazy() *bool
	// State returns the lifecycle state.
	State() State
	// InstanceID returns the creation id of the instance, if there is one.
	InstanceID() (uint64, bool)

	attach(c *Container) error
	start()
	initialize(lazy bool) error
	destroy() error
}

type settings struct {
	lazy     *bool
	secret   bool
	optional bool
	expand   bool
	fallback *string
}

// BindingOption configures a Bean or Value.
type BindingOption func(*settings)

// Lazy overrides the laziness passed to Container.Start for one binding.
func Lazy(lazy bool) BindingOption {
	return func(s *settings) {
		s.lazy = &lazy
	}
}

// Secret redacts a Value in log output. It has no effect on Beans.
func Secret() BindingOption {
	return func(s *settings) {
		s.secret = true
	}
}

// Optional lets a Value resolve to its zero value when it is not configured.
// It has no effect on Beans.
func Optional() BindingOption {
	return func(s *settings) {
		s.optional = true
	}
}

// Default sets the raw string a Value falls back to when it is not
// configured. It is parsed like any configured value. It has no effect on
// Beans.
func Default(v string) BindingOption {
	return func(s *settings) {
		s.fallback = &v
	}
}

// Expand substitutes ${name} references in the raw string of a Value before
// parsing it. It has no effect on Beans.
func Expand() BindingOption {
	return func(s *settings) {
		s.expand = true
	}
}

// binding implements the lifecycle shared by Beans and Values.
type binding[T any] struct {
	name    string
	kind    Kind
	opts    settings
	factory Factory[T]

	mu        sync.Mutex
	phase     phase
	c         *Container
	around    Around[T]
	created   After[T]
	destroyed After[T]
	provider  atomic.Pointer[Singleton[T]]
}

func newBinding[T any](
	name string,
	kind Kind,
	factory Factory[T],
	opts []BindingOption,
) *binding[T] {
	if strings.TrimSpace(name) == "" {
		panic("binding name must not be empty")
	}
	b := &binding[T]{
		name:    name,
		kind:    kind,
		factory: factory,
	}
	for _, opt := range opts {
		opt(&b.opts)
	}
	return b
}

func (b *binding[T]) subject() string {
	return fmt.Sprintf("%s %q", b.kind, b.name)
}

// Name returns the qualified name.
func (b *binding[T]) Name() string { return b.name }

// Kind returns the kind of binding.
func (b *binding[T]) Kind() Kind { return b.kind }

// Type returns the declared type T.
func (b *binding[T]) Type() reflect.Type { return reflect.TypeFor[T]() }

// Lazy returns the declared laziness, or nil to inherit.
func (b *binding[T]) Lazy() *bool {
	if b.opts.lazy == nil {
		return nil
	}
	lazy := *b.opts.lazy
	return &lazy
}

// State returns the lifecycle state.
func (b *binding[T]) State() State { return b.phase.load() }

// InstanceID returns the creation id of the instance, if there is one.
func (b *binding[T]) InstanceID() (uint64, bool) {
	if p := b.provider.Load(); p != nil {
		return p.InstanceID()
	}
	return 0, false
}

// Provider returns the provider backing the binding, or nil before the
// Container has started.
func (b *binding[T]) Provider() Provider[T] {
	if p := b.provider.Load(); p != nil {
		return p
	}
	return nil
}

// Get returns the instance, creating it on first use. It fails with a
// *StateError unless the binding is running.
func (b *binding[T]) Get() (T, error) {
	if err := b.phase.expect(b.subject(), Running); err != nil {
		var zero T
		return zero, err
	}
	return b.provider.Load().Get()
}

// MustGet is like Get but panics on error.
func (b *binding[T]) MustGet() T {
	v, err := b.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Bind registers an Interceptor around the factory. Interceptors added later
// run first. Bind panics with a *StateError once the binding or its
// Container has left the Configurable state.
func (b *binding[T]) Bind(f Interceptor[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustConfigure()
	b.around.Wrap(f)
}

// To replaces the factory with f. The original remains reachable only
// through interceptors registered before. To panics if f is nil.
func (b *binding[T]) To(f Factory[T]) {
	if f == nil {
		panic(fmt.Sprintf("%s: factory must not be nil", b.subject()))
	}
	b.Bind(func(Supplier[T]) (T, error) {
		return f(b.container())
	})
}

// Configure adds a hook that runs once on the new instance, after all hooks
// added before. An error fails the creation. Configure panics with a
// *StateError once the binding or its Container has left the Configurable
// state.
func (b *binding[T]) Configure(h Hook[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustConfigure()
	b.created.Then(h)
}

// OnDestroy adds a hook that runs when the Container stops, after all hooks
// added before. Errors are logged and do not interrupt the shutdown.
func (b *binding[T]) OnDestroy(h Hook[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.mustConfigure()
	b.destroyed.Then(h)
}

func (b *binding[T]) mustConfigure() {
	if err := b.phase.expect(b.subject(), Configurable); err != nil {
		panic(err)
	}
	if b.c != nil {
		if err := b.c.phase.expect("container", Configurable); err != nil {
			panic(err)
		}
	}
}

func (b *binding[T]) container() *Container {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.c
}

// lazy resolves the effective laziness against the container default.
func (b *binding[T]) lazy(def bool) bool {
	if b.opts.lazy != nil {
		return *b.opts.lazy
	}
	return def
}

func (b *binding[T]) attach(c *Container) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.c != nil {
		return fmt.Errorf("%s is already registered", b.subject())
	}
	b.c = c
	return nil
}

func (b *binding[T]) start() {
	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.c
	supply := b.around.Over(func() (T, error) { return b.factory(c) })
	created := b.created.Hook()
	onCreate := func(v T) error {
		c.logger.Debug("Created instance", "binding", b.name, "kind", b.kind.String())
		if created != nil {
			return created(v)
		}
		return nil
	}

	b.provider.Store(NewSingleton(supply, onCreate, b.destroyed.Hook()))
	b.phase.store(Running)
}

func (b *binding[T]) initialize(lazy bool) error {
	return b.provider.Load().Initialize(b.lazy(lazy))
}

func (b *binding[T]) destroy() error {
	defer b.phase.store(Destroyed)
	if p := b.provider.Load(); p != nil {
		return p.Destroy()
	}
	return nil
}
