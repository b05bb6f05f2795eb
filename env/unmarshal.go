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

package env

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/deep-rent/beans/internal/primitive"
	"github.com/deep-rent/beans/internal/snake"
	"github.com/deep-rent/beans/internal/tag"
)

// Unmarshal populates the struct pointed to by v with values from lookup.
//
// Every exported field maps to the key <prefix>.<field>, where the field
// name is converted to dotted lowercase (MaxConns becomes max.conns). Nested
// structs extend the prefix with their own key. The `value` struct tag
// adjusts the mapping:
//
//	type Pool struct {
//		URL      string        `value:"url,required"`
//		MaxConns int           `value:",default:10"`
//		Timeout  time.Duration `value:",default:5s"`
//		Hosts    []string      `value:",split:';'"`
//		TLS      TLSConfig     `value:",prefix:'ssl'"`
//		Common   `value:",inline"`
//		Internal int           `value:"-"`
//	}
//
// Fields whose key is absent keep their current value unless a default is
// given. Absent required fields do not stop the walk; all of them are
// reported together in a *MissingError.
func Unmarshal(lookup Lookup, prefix string, v any) error {
	ptr := reflect.ValueOf(v)
	if ptr.Kind() != reflect.Pointer || ptr.IsNil() {
		return errors.New("env: expected a non-nil pointer to a struct")
	}
	val := ptr.Elem()
	if kind := val.Kind(); kind != reflect.Struct {
		return fmt.Errorf("env: expected a pointer to a struct, but got pointer to %v", kind)
	}

	var missing []string
	if err := process(val, prefix, lookup, &missing); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	if len(missing) != 0 {
		return fmt.Errorf("env: %w", &MissingError{Names: missing})
	}
	return nil
}

// IsStruct reports whether t is bound field by field by Unmarshal rather
// than parsed from a single value.
func IsStruct(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && !primitive.Supports(t)
}

func process(rv reflect.Value, prefix string, lookup Lookup, missing *[]string) error {
	rt := rv.Type()
	for i := range rt.NumField() {
		ft := rt.Field(i)
		fv := rv.Field(i)

		if !ft.IsExported() || !fv.CanSet() {
			continue
		}

		raw := ft.Tag.Get("value")
		if raw == "-" {
			continue
		}
		opts, err := tag.Parse(raw)
		if err != nil {
			return fmt.Errorf("failed to parse tag for field %q: %w", ft.Name, err)
		}

		name := opts.Name
		if name == "" {
			name = snake.ToKey(ft.Name)
		}

		if IsStruct(ft.Type) {
			nested := join(prefix, name)
			switch {
			case ft.Anonymous && opts.Inline:
				nested = prefix
			case opts.Prefix != nil:
				nested = join(prefix, *opts.Prefix)
			}
			if err := process(deref(fv), nested, lookup, missing); err != nil {
				return err
			}
			continue
		}

		key := join(prefix, name)
		val, ok := lookup(key)
		if !ok {
			switch {
			case opts.Default != nil:
				val = *opts.Default
			case opts.Required:
				*missing = append(*missing, key)
				continue
			default:
				continue
			}
		}

		if err := primitive.Parse(fv, val, opts.Split); err != nil {
			return fmt.Errorf(
				"error setting field %q from %q: %w",
				ft.Name, key, err,
			)
		}
	}
	return nil
}

// deref follows pointers until it reaches a non-pointer, allocating if nil.
func deref(rv reflect.Value) reflect.Value {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	return rv
}

func join(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + string(Separator) + key
	}
}
