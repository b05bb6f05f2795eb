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

// Package di wires named, typed bindings into a graph of singletons.
//
// A Bean is computed by a Factory, a Value is read from an env.Environment.
// Both are registered with a Container, which creates them eagerly or on
// first use and destroys them in the reverse order of their creation:
//
//	c := di.New(di.WithEnvironment(environment))
//
//	dsn := di.Inject[string](c, "db.dsn", di.Secret())
//	db := di.Provide(c, "db", func(*di.Container) (*sql.DB, error) {
//		return sql.Open("postgres", dsn.MustGet())
//	})
//	db.OnDestroy((*sql.DB).Close)
//
//	if err := c.Start(false); err != nil {
//		return err
//	}
//	defer c.Stop()
//
// Until Start is called, factories can be replaced with To or wrapped with
// Bind, which is how tests substitute fakes. Creation order is the only
// record of dependencies, so factories must not depend on each other in a
// cycle.
package di

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"github.com/deep-rent/beans/env"
)

// DefaultVersion is reported when no valid version is configured.
const DefaultVersion = "development"

type config struct {
	version string
	env     *env.Environment
	logger  *slog.Logger
}

// Option configures a Container.
type Option func(*config)

// WithVersion sets the application version. It must be a semantic version,
// with or without the leading "v"; anything else is ignored.
func WithVersion(version string) Option {
	return func(cfg *config) {
		v := strings.TrimSpace(version)
		if v != "" && !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			cfg.version = semver.Canonical(v)
		}
	}
}

// WithEnvironment sets the Environment that Values are read from. If not
// set, the Container reads the process environment. A nil value will be
// ignored.
func WithEnvironment(e *env.Environment) Option {
	return func(cfg *config) {
		if e != nil {
			cfg.env = e
		}
	}
}

// WithLogger sets the logger for lifecycle events. If not set, the Container
// defaults to slog.Default(). A nil value will be ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Container owns a set of bindings and drives their lifecycle.
//
// Bindings are registered while the Container is Configurable. Start
// freezes the registry, resolves every Value and creates every eager Bean.
// Stop destroys all instances in the reverse order of their creation. A
// Container runs exactly once; it is safe for concurrent use.
type Container struct {
	version string
	env     *env.Environment
	logger  *slog.Logger

	phase    phase
	mu       sync.Mutex
	names    map[string]Binding
	bindings []Binding
}

// New creates an empty Container with the given options.
func New(opts ...Option) *Container {
	cfg := config{
		version: DefaultVersion,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.env == nil {
		cfg.env = env.New(env.WithSource(
			env.FromEnviron("environment", os.Environ()),
		))
	}
	return &Container{
		version: cfg.version,
		env:     cfg.env,
		logger:  cfg.logger,
		names:   make(map[string]Binding),
	}
}

// Version returns the application version.
func (c *Container) Version() string { return c.version }

// Environment returns the configuration the Container reads Values from.
func (c *Container) Environment() *env.Environment { return c.env }

// Logger returns the logger for lifecycle events.
func (c *Container) Logger() *slog.Logger { return c.logger }

// State returns the lifecycle state.
func (c *Container) State() State { return c.phase.load() }

// Bindings returns the registered bindings in registration order.
func (c *Container) Bindings() []Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.bindings)
}

// Lookup finds a binding by name.
func (c *Container) Lookup(name string) (Binding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.names[name]
	if !ok {
		b, ok = c.names[env.Normalize(name)]
	}
	return b, ok
}

// Register adds b to c and returns it. It panics with a *StateError if c is
// no longer Configurable, and if the name is taken or b belongs to another
// Container.
func Register[B Binding](c *Container, b B) B {
	if err := c.register(b); err != nil {
		panic(err)
	}
	return b
}

func (c *Container) register(b Binding) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.phase.expect("container", Configurable); err != nil {
		return err
	}
	if _, ok := c.names[b.Name()]; ok {
		return fmt.Errorf("binding %q is already registered", b.Name())
	}
	if err := b.attach(c); err != nil {
		return err
	}
	c.names[b.Name()] = b
	c.bindings = append(c.bindings, b)
	return nil
}

// Provide creates a Bean and registers it with c.
func Provide[T any](
	c *Container,
	name string,
	factory Factory[T],
	opts ...BindingOption,
) *Bean[T] {
	return Register(c, NewBean(name, factory, opts...))
}

// Inject creates a Value and registers it with c.
func Inject[T any](c *Container, name string, opts ...BindingOption) *Value[T] {
	return Register(c, NewValue[T](name, opts...))
}

// Use resolves the binding registered under name. It fails if there is no
// such binding or its type is not T.
func Use[T any](c *Container, name string) (T, error) {
	var zero T
	b, ok := c.Lookup(name)
	if !ok {
		return zero, fmt.Errorf("no binding registered for %q", name)
	}
	p, ok := b.(Provider[T])
	if !ok {
		return zero, fmt.Errorf(
			"binding %q provides %v, not %v",
			name, b.Type(), reflect.TypeFor[T](),
		)
	}
	return p.Get()
}

// Req is like Use but panics on error.
func Req[T any](c *Container, name string) T {
	v, err := Use[T](c, name)
	if err != nil {
		panic(err)
	}
	return v
}

// Start moves the Container to Running. It checks every Value, then creates
// every eager Bean in registration order. The lazy flag is the default for
// bindings that do not declare their own laziness.
//
// All missing Values are collected into a single *MissingValuesError before
// any Bean is created. If anything fails, the Container stops itself, so
// instances created so far are destroyed, and returns the error. Start fails
// with a *StateError unless the Container is Configurable.
func (c *Container) Start(lazy bool) error {
	c.mu.Lock()
	if !c.phase.advance(Configurable, Running) {
		c.mu.Unlock()
		return &StateError{
			Subject:  "container",
			Expected: Configurable,
			Actual:   c.phase.load(),
		}
	}
	bindings := slices.Clone(c.bindings)
	c.mu.Unlock()

	for _, b := range bindings {
		b.start()
	}

	if err := c.initialize(bindings, lazy); err != nil {
		c.logger.Error("Failed to start container", "error", err)
		c.Stop()
		return err
	}

	c.logger.Info(
		"Container started",
		"version", c.version,
		"bindings", len(bindings),
	)
	return nil
}

func (c *Container) initialize(bindings []Binding, lazy bool) error {
	var missing []string
	for _, b := range bindings {
		if b.Kind() != KindValue {
			continue
		}
		err := b.initialize(lazy)
		if err == nil {
			continue
		}
		if names, ok := missingNames(err); ok {
			missing = append(missing, names...)
			continue
		}
		return err
	}
	if len(missing) != 0 {
		return &MissingValuesError{Names: missing}
	}

	for _, b := range bindings {
		if b.Kind() != KindBean {
			continue
		}
		if err := b.initialize(lazy); err != nil {
			return fmt.Errorf("failed to create bean %q: %w", b.Name(), err)
		}
	}
	return nil
}

// missingNames extracts the names of unresolved Values from err.
func missingNames(err error) ([]string, bool) {
	var many *MissingValuesError
	if errors.As(err, &many) {
		return many.Names, true
	}
	var one *ValueNotFoundError
	if errors.As(err, &one) {
		return []string{one.Name}, true
	}
	return nil, false
}

// Stop destroys every instance, newest first, and leaves the Container
// Destroyed. Bindings that were never created are retired without running
// any hook. Failing destroy hooks are logged and do not interrupt the
// teardown. A Container that was never started is retired immediately.
// Calling Stop more than once has no effect.
func (c *Container) Stop() {
	c.mu.Lock()
	if c.phase.advance(Configurable, Destroyed) {
		bindings := slices.Clone(c.bindings)
		c.mu.Unlock()
		for _, b := range bindings {
			c.destroy(b)
		}
		c.logger.Info("Container stopped")
		return
	}
	c.mu.Unlock()

	if !c.phase.advance(Running, Destroying) {
		return
	}

	bindings := c.Bindings()
	// Destroy hooks may create instances; each round handles those.
	for c.destroyCreated(bindings) {
	}
	for _, b := range bindings {
		if b.State() != Destroyed {
			c.destroy(b)
		}
	}

	c.phase.store(Destroyed)
	c.logger.Info("Container stopped")
}

// destroyCreated destroys every live instance among bindings, newest first.
// It reports whether there was any.
func (c *Container) destroyCreated(bindings []Binding) bool {
	type created struct {
		b  Binding
		id uint64
	}

	var order []created
	for _, b := range bindings {
		if b.State() == Destroyed {
			continue
		}
		if id, ok := b.InstanceID(); ok {
			order = append(order, created{b: b, id: id})
		}
	}
	slices.SortFunc(order, func(x, y created) int {
		return cmp.Compare(y.id, x.id)
	})

	for _, e := range order {
		c.destroy(e.b)
	}
	return len(order) != 0
}

func (c *Container) destroy(b Binding) {
	if err := b.destroy(); err != nil {
		c.logger.Error(
			"Failed to destroy binding",
			"name", b.Name(),
			"error", err,
		)
		return
	}
	c.logger.Debug("Destroyed binding", "name", b.Name())
}
