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

package primitive_test

import (
	"net/netip"
	"reflect"
	"testing"
	"time"

	"github.com/deep-rent/beans/internal/primitive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func settable[T any]() func() reflect.Value {
	return func() reflect.Value {
		var v T
		return reflect.ValueOf(&v).Elem()
	}
}

func TestParse(t *testing.T) {
	type test struct {
		name    string
		setup   func() reflect.Value
		in      string
		wantErr bool
		want    any
	}

	tests := []test{
		{"bool true", settable[bool](), "true", false, true},
		{"bool error", settable[bool](), "not-a-bool", true, nil},
		{"string", settable[string](), "hello world", false, "hello world"},
		{"int", settable[int](), "-123", false, -123},
		{"int8 overflow", settable[int8](), "128", true, nil},
		{"uint8", settable[uint8](), "255", false, uint8(255)},
		{"uint error", settable[uint](), "-1", true, nil},
		{"float64", settable[float64](), "-1.23e4", false, -12300.0},
		{"complex128", settable[complex128](), "-5.5-10.1i", false, complex(-5.5, -10.1)},
		{"duration", settable[time.Duration](), "1m30s", false, 90 * time.Second},
		{"duration error", settable[time.Duration](), "90", true, nil},
		{"time", settable[time.Time](), "2025-01-02T03:04:05Z", false, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"text unmarshaler", settable[netip.Addr](), "10.0.0.1", false, netip.MustParseAddr("10.0.0.1")},
		{"pointer", settable[*int](), "7", false, 7},
		{"int slice", settable[[]int](), "1, 2,3", false, []int{1, 2, 3}},
		{"empty slice", settable[[]string](), " ", false, []string{}},
		{"slice element error", settable[[]int](), "1,x", true, nil},
		{"bytes", settable[[]byte](), "raw", false, []byte("raw")},
		{"unsupported type", settable[struct{}](), "some value", true, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rv := tc.setup()
			err := primitive.Parse(rv, tc.in, "")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			got := rv.Interface()
			if rv.Kind() == reflect.Pointer {
				got = rv.Elem().Interface()
			}
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("custom separator", func(t *testing.T) {
		var v []string
		require.NoError(t, primitive.Parse(reflect.ValueOf(&v).Elem(), "a;b", ";"))
		assert.Equal(t, []string{"a", "b"}, v)
	})

	t.Run("panics on non-settable value", func(t *testing.T) {
		var v int
		rv := reflect.ValueOf(v)
		require.False(t, rv.CanSet())
		assert.Panics(t, func() {
			_ = primitive.Parse(rv, "123", "")
		})
	})
}

func TestSupports(t *testing.T) {
	assert.True(t, primitive.Supports(reflect.TypeFor[string]()))
	assert.True(t, primitive.Supports(reflect.TypeFor[*[]time.Duration]()))
	assert.True(t, primitive.Supports(reflect.TypeFor[netip.Addr]()))
	assert.False(t, primitive.Supports(reflect.TypeFor[struct{ A int }]()))
	assert.False(t, primitive.Supports(reflect.TypeFor[map[string]string]()))
}

func TestFor(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		parse, err := primitive.For[uint16]()
		require.NoError(t, err)

		v, err := parse("8080")
		require.NoError(t, err)
		assert.Equal(t, uint16(8080), v)

		_, err = parse("70000")
		assert.Error(t, err)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := primitive.For[chan int]()
		assert.ErrorContains(t, err, "unsupported type")
	})
}
