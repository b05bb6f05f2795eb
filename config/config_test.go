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
	"os"
	"path/filepath"
	"testing"

	"github.com/deep-rent/beans/config"
	"github.com/deep-rent/beans/di"
	"github.com/deep-rent/beans/env"
	"github.com/deep-rent/beans/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func get(t *testing.T, e *env.Environment, name string) string {
	t.Helper()
	v, ok := e.Get(name)
	require.True(t, ok, "expected %q to be defined", name)
	return v
}

func TestLoadFile(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "app.yaml", `
server:
  port: 8080
  hosts: [a, b]
  tls: ~
pools:
  - name: primary
  - name: replica
`)
		s, err := config.LoadFile(filepath.Join(dir, "app.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "app.yaml", s.Name())
		assert.Equal(t, []string{
			"pools.0.name",
			"pools.1.name",
			"server.hosts",
			"server.hosts.0",
			"server.hosts.1",
			"server.port",
			"server.tls",
		}, s.Keys())

		v, _ := s.Lookup("server.hosts")
		assert.Equal(t, "a,b", v)
		v, _ = s.Lookup("SERVER_PORT")
		assert.Equal(t, "8080", v)
	})

	t.Run("json", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "app.json", `{"db":{"max-conns":25,"ratio":0.5,"enabled":true}}`)
		s, err := config.LoadFile(filepath.Join(dir, "app.json"))
		require.NoError(t, err)

		v, _ := s.Lookup("db.max.conns")
		assert.Equal(t, "25", v)
		v, _ = s.Lookup("db.ratio")
		assert.Equal(t, "0.5", v)
		v, _ = s.Lookup("db.enabled")
		assert.Equal(t, "true", v)
	})

	t.Run("json integers keep their digits", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "app.json", `{"pool":{"max":10000000,"ids":[1000000,2000000]}}`)
		s, err := config.LoadFile(filepath.Join(dir, "app.json"))
		require.NoError(t, err)

		v, _ := s.Lookup("pool.max")
		assert.Equal(t, "10000000", v)
		v, _ = s.Lookup("pool.ids")
		assert.Equal(t, "1000000,2000000", v)
	})

	t.Run("dotenv", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, ".env", "DB_HOST=localhost\nexport DB_PORT=5432\n")
		s, err := config.LoadFile(filepath.Join(dir, ".env"))
		require.NoError(t, err)
		assert.Equal(t, []string{"db.host", "db.port"}, s.Keys())
	})

	t.Run("invalid key", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "bad.json", `{"a..b": 1}`)
		_, err := config.LoadFile(filepath.Join(dir, "bad.json"))
		assert.ErrorIs(t, err, env.ErrInvalidName)
	})

	t.Run("malformed file", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "bad.json", `{`)
		_, err := config.LoadFile(filepath.Join(dir, "bad.json"))
		assert.ErrorContains(t, err, "failed to decode")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := config.LoadFile("app.ini")
		assert.ErrorContains(t, err, "unsupported file extension")
	})
}

func TestLoad(t *testing.T) {
	setup := func(t *testing.T) string {
		dir := t.TempDir()
		write(t, dir, "application.yaml", "name: default\nport: 80\nlevel: info\nregion: eu\n")
		write(t, dir, "application-dev.yaml", "name: dev\nport: 8080\n")
		write(t, dir, "application-local.json", `{"name":"local","level":"debug"}`)
		return dir
	}

	t.Run("defaults only", func(t *testing.T) {
		e, err := config.Load(config.WithDir(setup(t)), config.WithEnviron(nil))
		require.NoError(t, err)
		assert.Empty(t, e.Profiles())
		assert.Equal(t, "default", get(t, e, "name"))
	})

	t.Run("profiles from environment", func(t *testing.T) {
		e, err := config.Load(
			config.WithDir(setup(t)),
			config.WithEnviron([]string{"PROFILES_ACTIVE=dev, local"}),
		)
		require.NoError(t, err)

		assert.Equal(t, []string{"dev", "local"}, e.Profiles())
		assert.Equal(t, "dev", get(t, e, "name"))
		assert.Equal(t, "8080", get(t, e, "port"))
		assert.Equal(t, "debug", get(t, e, "level"))
		assert.Equal(t, "eu", get(t, e, "region"))
	})

	t.Run("profiles from default file", func(t *testing.T) {
		dir := setup(t)
		write(t, dir, "application.env", "PROFILES_ACTIVE=local\n")
		e, err := config.Load(config.WithDir(dir), config.WithEnviron(nil))
		require.NoError(t, err)
		assert.Equal(t, []string{"local"}, e.Profiles())
		assert.Equal(t, "local", get(t, e, "name"))
	})

	t.Run("explicit profiles win", func(t *testing.T) {
		e, err := config.Load(
			config.WithDir(setup(t)),
			config.WithEnviron([]string{"PROFILES_ACTIVE=dev"}),
			config.WithProfiles("local"),
		)
		require.NoError(t, err)
		assert.Equal(t, []string{"local"}, e.Profiles())
		assert.Equal(t, "local", get(t, e, "name"))
	})

	t.Run("layer precedence", func(t *testing.T) {
		e, err := config.Load(
			config.WithDir(setup(t)),
			config.WithProfiles("dev"),
			config.WithEnviron([]string{"PORT=1", "LEVEL=warn"}),
			config.WithProperties(map[string]string{"port": "2", "region": "us"}),
			config.WithOverrides(map[string]string{"level": "error"}),
		)
		require.NoError(t, err)

		assert.Equal(t, "error", get(t, e, "level"))
		assert.Equal(t, "1", get(t, e, "port"))
		assert.Equal(t, "us", get(t, e, "region"))
		assert.Equal(t, "dev", get(t, e, "name"))

		e.Unset("level")
		assert.Equal(t, "warn", get(t, e, "level"))

		names := make([]string, 0)
		for _, s := range e.Sources() {
			names = append(names, s.Name())
		}
		assert.Equal(t, []string{
			env.OverrideSource,
			config.EnvironmentSource,
			config.PropertiesSource,
			"application-dev.yaml",
			"application.yaml",
		}, names)
	})

	t.Run("custom name", func(t *testing.T) {
		dir := t.TempDir()
		write(t, dir, "service.yml", "name: svc\n")
		e, err := config.Load(config.WithDir(dir), config.WithName("service"), config.WithEnviron(nil))
		require.NoError(t, err)
		assert.Equal(t, "svc", get(t, e, "name"))
	})

	t.Run("invalid override", func(t *testing.T) {
		_, err := config.Load(
			config.WithDir(t.TempDir()),
			config.WithOverrides(map[string]string{"a..b": "x"}),
		)
		assert.ErrorIs(t, err, env.ErrInvalidName)
	})

	t.Run("invalid property", func(t *testing.T) {
		_, err := config.Load(
			config.WithDir(t.TempDir()),
			config.WithProperties(map[string]string{".a": "x"}),
		)
		assert.ErrorIs(t, err, env.ErrInvalidName)
	})
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, config.Split(" a, ,b ,"))
	assert.Nil(t, config.Split(""))
}

func TestLoad_JSONIntegerValue(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "application.json", `{"pool":{"max":10000000}}`)

	e, err := config.Load(config.WithDir(dir), config.WithEnviron(nil))
	require.NoError(t, err)

	c := di.New(di.WithEnvironment(e), di.WithLogger(log.Discard()))
	poolMax := di.Inject[int](c, "pool.max")
	require.NoError(t, c.Start(false))
	t.Cleanup(c.Stop)
	assert.Equal(t, 10000000, poolMax.MustGet())
}

func TestSave(t *testing.T) {
	src, err := env.SourceOf("props", map[string]string{
		"server.port":  "8080",
		"server.hosts": "a,b",
		"debug":        "true",
		"greeting":     "hello world",
	})
	require.NoError(t, err)

	for _, name := range []string{"out.json", "out.yaml", "out.yml", ".env"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, config.Save(path, src))

			back, err := config.LoadFile(path)
			require.NoError(t, err)
			assert.Equal(t, src.Keys(), back.Keys())
			for _, k := range src.Keys() {
				want, _ := src.Lookup(k)
				got, _ := back.Lookup(k)
				assert.Equal(t, want, got, k)
			}
		})
	}

	t.Run("dotenv keys", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.env")
		require.NoError(t, config.Save(path, src))
		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(raw), "SERVER_PORT=8080\n")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		err := config.Save(filepath.Join(t.TempDir(), "out.toml"), src)
		assert.ErrorContains(t, err, `".toml"`)
	})
}
