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

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deep-rent/beans/config"
	"github.com/deep-rent/beans/env"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		props map[string]string
		rest  []string
	}{
		{
			name:  "empty",
			args:  nil,
			props: map[string]string{},
		},
		{
			name:  "assignment",
			args:  []string{"--server.port=8080", "--db-url=postgres://x?a=b"},
			props: map[string]string{"server.port": "8080", "db.url": "postgres://x?a=b"},
		},
		{
			name:  "separate value",
			args:  []string{"--profiles.active", "dev,local", "serve"},
			props: map[string]string{"profiles.active": "dev,local"},
			rest:  []string{"serve"},
		},
		{
			name:  "switch",
			args:  []string{"--debug", "--verbose", "-x"},
			props: map[string]string{"debug": "true", "verbose": "true"},
			rest:  []string{"-x"},
		},
		{
			name:  "terminator",
			args:  []string{"--a=1", "--", "--b=2", "c"},
			props: map[string]string{"a": "1"},
			rest:  []string{"--b=2", "c"},
		},
		{
			name:  "empty value",
			args:  []string{"--a="},
			props: map[string]string{"a": ""},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			props, rest, err := config.ParseArgs(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.props, props)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestParseArgs_InvalidName(t *testing.T) {
	_, _, err := config.ParseArgs([]string{"--a..b=1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, env.ErrInvalidName)
}

func TestParseArgs_Load(t *testing.T) {
	props, _, err := config.ParseArgs([]string{"--greeting=hi"})
	require.NoError(t, err)

	e, err := config.Load(
		config.WithDir(t.TempDir()),
		config.WithEnviron(nil),
		config.WithProperties(props),
	)
	require.NoError(t, err)
	v, ok := e.Get("GREETING")
	require.True(t, ok)
	assert.Equal(t, "hi", v)
}
