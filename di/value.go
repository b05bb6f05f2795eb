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
	"errors"
	"fmt"
	"reflect"

	"github.com/deep-rent/beans/env"
	"github.com/deep-rent/beans/internal/primitive"
	"github.com/deep-rent/beans/log"
)

// Value is a binding whose instance is read from the Environment of its
// Container under the binding name.
//
// Scalar types are parsed from a single entry. Struct types are populated
// field by field with the name as key prefix; see env.Unmarshal for the
// supported tags.
//
// Every Value is checked during Container.Start, lazy or not, so that all
// missing configuration is reported at once in a *MissingValuesError. A lazy
// Value that has been rebound with To or Bind skips this check.
type Value[T any] struct {
	*binding[T]
	parse func(string) (T, error)
}

// NewValue creates an unregistered Value parsed by the built-in rules for T.
// It panics if name is not a valid configuration name or T cannot be parsed.
func NewValue[T any](name string, opts ...BindingOption) *Value[T] {
	if env.IsStruct(reflect.TypeFor[T]()) {
		return newValue[T](name, nil, opts)
	}
	parse, err := primitive.For[T]()
	if err != nil {
		panic(fmt.Sprintf("value %q: %v", name, err))
	}
	return newValue(name, parse, opts)
}

// NewValueFunc creates an unregistered Value converted by parse. It panics
// if name is not a valid configuration name or parse is nil.
func NewValueFunc[T any](
	name string,
	parse func(string) (T, error),
	opts ...BindingOption,
) *Value[T] {
	if parse == nil {
		panic("value parser must not be nil")
	}
	return newValue(name, parse, opts)
}

func newValue[T any](
	name string,
	parse func(string) (T, error),
	opts []BindingOption,
) *Value[T] {
	if err := env.Validate(name); err != nil {
		panic(err)
	}
	v := &Value[T]{parse: parse}
	v.binding = newBinding(env.Normalize(name), KindValue, v.resolve, opts)
	return v
}

// Secret reports whether the Value is redacted in log output.
func (v *Value[T]) Secret() bool { return v.opts.secret }

func (v *Value[T]) initialize(lazy bool) error {
	if !v.lazy(lazy) {
		return v.binding.initialize(false)
	}
	if v.rebound() {
		return nil
	}
	return v.check(v.container())
}

func (v *Value[T]) rebound() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.around.Len() != 0
}

// check verifies that the Value could be resolved without creating it.
func (v *Value[T]) check(c *Container) error {
	if v.parse == nil {
		_, err := v.resolve(c)
		return err
	}
	if _, ok := c.env.Get(v.name); ok || v.opts.fallback != nil || v.opts.optional {
		return nil
	}
	return &ValueNotFoundError{Name: v.name}
}

func (v *Value[T]) resolve(c *Container) (T, error) {
	if v.parse == nil {
		return v.unmarshal(c)
	}

	var zero T
	raw, ok := c.env.Get(v.name)
	switch {
	case ok:
	case v.opts.fallback != nil:
		raw = *v.opts.fallback
	case v.opts.optional:
		c.logger.Debug("Value not configured", "name", v.name)
		return zero, nil
	default:
		return zero, &ValueNotFoundError{Name: v.name}
	}

	if v.opts.expand {
		expanded, err := c.env.Expand(raw)
		if err != nil {
			return zero, v.wrap(err)
		}
		raw = expanded
	}

	t, err := v.parse(raw)
	if err != nil {
		return zero, v.wrap(err)
	}
	c.logger.Debug(
		"Resolved value",
		"name", v.name,
		"value", log.Mask(raw, v.opts.secret),
	)
	return t, nil
}

func (v *Value[T]) unmarshal(c *Container) (T, error) {
	var t T
	target := reflect.ValueOf(&t)
	for target.Elem().Kind() == reflect.Pointer {
		elem := target.Elem()
		elem.Set(reflect.New(elem.Type().Elem()))
		target = elem
	}
	if err := env.Unmarshal(c.env.Get, v.name, target.Interface()); err != nil {
		var zero T
		return zero, v.wrap(err)
	}
	c.logger.Debug(
		"Resolved value",
		"name", v.name,
		"value", log.Mask(t, v.opts.secret),
	)
	return t, nil
}

// wrap turns unresolved references into a *MissingValuesError and
// annotates everything else with the name.
func (v *Value[T]) wrap(err error) error {
	var missing *env.MissingError
	if errors.As(err, &missing) {
		return &MissingValuesError{Names: missing.Names}
	}
	return fmt.Errorf("value %q: %w", v.name, err)
}
