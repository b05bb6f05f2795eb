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

// Package primitive converts configuration strings into Go values using
// reflection. It covers the scalar kinds, time.Duration, time.Time, slices of
// any supported element type, and types implementing encoding.TextUnmarshaler.
package primitive

import (
	"encoding"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// DefaultSeparator splits slice values when no other separator is given.
const DefaultSeparator = ","

var (
	typeTime     = reflect.TypeFor[time.Time]()
	typeDuration = reflect.TypeFor[time.Duration]()
	typeText     = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// Supports reports whether Parse can produce a value of type t.
func Supports(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == typeTime || t == typeDuration || reflect.PointerTo(t).Implements(typeText) {
		return true
	}
	switch t.Kind() {
	case
		reflect.Bool,
		reflect.String,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Float32,
		reflect.Float64,
		reflect.Complex64,
		reflect.Complex128:
		return true
	case reflect.Slice:
		return Supports(t.Elem())
	default:
		return false
	}
}

// Parse converts v to the type of rv and stores the result. Pointers are
// allocated as needed. Slices are split on sep, or on DefaultSeparator if sep
// is empty; a []byte receives the raw string. The caller must ensure that rv
// is settable, or else Parse will panic.
func Parse(rv reflect.Value, v string, sep string) error {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	if !rv.CanSet() {
		panic("primitive: value is not settable")
	}
	if u, ok := rv.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return u.UnmarshalText([]byte(v))
	}
	switch rv.Type() {
	case typeDuration:
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%q is not a duration", v)
		}
		rv.SetInt(int64(d))
		return nil
	case typeTime:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return fmt.Errorf("%q is not an RFC 3339 timestamp", v)
		}
		rv.Set(reflect.ValueOf(t))
		return nil
	}
	switch kind := rv.Kind(); kind {
	case reflect.Bool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%q is not a bool", v)
		}
		rv.SetBool(b)
	case reflect.String:
		rv.SetString(v)
	case
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64:
		b := rv.Type().Bits()
		i, err := strconv.ParseInt(v, 10, b)
		if err != nil {
			return fmt.Errorf("%q is not an int%d", v, b)
		}
		rv.SetInt(i)
	case
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64:
		b := rv.Type().Bits()
		u, err := strconv.ParseUint(v, 10, b)
		if err != nil {
			return fmt.Errorf("%q is not a uint%d", v, b)
		}
		rv.SetUint(u)
	case reflect.Float32, reflect.Float64:
		b := rv.Type().Bits()
		f, err := strconv.ParseFloat(v, b)
		if err != nil {
			return fmt.Errorf("%q is not a float%d", v, b)
		}
		rv.SetFloat(f)
	case reflect.Complex64, reflect.Complex128:
		b := rv.Type().Bits()
		c, err := strconv.ParseComplex(v, b)
		if err != nil {
			return fmt.Errorf("%q is not a complex%d", v, b)
		}
		rv.SetComplex(c)
	case reflect.Slice:
		return parseSlice(rv, v, sep)
	default:
		return fmt.Errorf("unsupported type: %s", rv.Type())
	}
	return nil
}

func parseSlice(rv reflect.Value, v string, sep string) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		rv.SetBytes([]byte(v))
		return nil
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	if strings.TrimSpace(v) == "" {
		rv.Set(reflect.MakeSlice(rv.Type(), 0, 0))
		return nil
	}
	parts := strings.Split(v, sep)
	out := reflect.MakeSlice(rv.Type(), len(parts), len(parts))
	for i, part := range parts {
		if err := Parse(out.Index(i), strings.TrimSpace(part), sep); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	rv.Set(out)
	return nil
}

// For returns a parse function producing values of type T. It returns an
// error if T is not supported.
func For[T any]() (func(string) (T, error), error) {
	if t := reflect.TypeFor[T](); !Supports(t) {
		return nil, fmt.Errorf("unsupported type: %s", t)
	}
	return func(s string) (T, error) {
		var v T
		if err := Parse(reflect.ValueOf(&v).Elem(), s, ""); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}, nil
}
