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

// Package config assembles a layered env.Environment from the process
// environment, explicit properties and configuration files.
//
// Files are looked up in a directory by base name. For the default name
// "application" and the active profiles "dev,local", the layers are, from
// highest to lowest priority:
//
//	overrides
//	process environment
//	properties
//	application-dev.{yaml,yml,json,env}
//	application-local.{yaml,yml,json,env}
//	application.{yaml,yml,json,env}
//
// Missing files are skipped. Nested documents are flattened into dotted
// keys, so {"server": {"port": 80}} defines server.port. Lists of scalars are
// additionally joined with commas under their own key.
//
// The active profiles are read from the key profiles.active (for example the
// environment variable PROFILES_ACTIVE) before any profile file is loaded,
// unless they are given explicitly through WithProfiles.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/deep-rent/beans/codec"
	"github.com/deep-rent/beans/env"
)

const (
	// DefaultName is the default base name of configuration files.
	DefaultName = "application"
	// ProfilesKey holds the comma-separated list of active profiles.
	ProfilesKey = "profiles.active"
)

// Layer names used for the Sources created by Load.
const (
	EnvironmentSource = "environment"
	PropertiesSource  = "properties"
)

// extensions lists the file formats probed for every layer, in priority order.
var extensions = []string{".yaml", ".yml", ".json", ".env"}

type config struct {
	dir        string
	name       string
	environ    []string
	overrides  map[string]string
	properties map[string]string
	profiles   []string
}

// Option configures Load.
type Option func(*config)

// WithDir sets the directory searched for configuration files. Defaults to
// the working directory.
func WithDir(dir string) Option {
	return func(c *config) {
		if dir != "" {
			c.dir = dir
		}
	}
}

// WithName sets the base name of configuration files. Defaults to
// DefaultName.
func WithName(name string) Option {
	return func(c *config) {
		if name = strings.TrimSpace(name); name != "" {
			c.name = name
		}
	}
}

// WithEnviron replaces os.Environ as the source of environment variables.
func WithEnviron(environ []string) Option {
	return func(c *config) {
		c.environ = environ
	}
}

// WithOverrides seeds the override layer of the Environment.
func WithOverrides(values map[string]string) Option {
	return func(c *config) {
		maps.Copy(c.overrides, values)
	}
}

// WithProperties adds a layer between the process environment and the
// configuration files, typically filled from command-line arguments.
func WithProperties(values map[string]string) Option {
	return func(c *config) {
		maps.Copy(c.properties, values)
	}
}

// WithProfiles fixes the active profiles, bypassing ProfilesKey.
func WithProfiles(profiles ...string) Option {
	return func(c *config) {
		c.profiles = append(make([]string, 0, len(profiles)), profiles...)
	}
}

// Load builds the layered Environment.
func Load(opts ...Option) (*env.Environment, error) {
	cfg := config{
		dir:        ".",
		name:       DefaultName,
		environ:    os.Environ(),
		overrides:  make(map[string]string),
		properties: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	environ := env.FromEnviron(EnvironmentSource, cfg.environ)
	props, err := env.SourceOf(PropertiesSource, cfg.properties)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defaults, err := loadLayer(cfg.dir, cfg.name)
	if err != nil {
		return nil, err
	}

	profiles := cfg.profiles
	if profiles == nil {
		pre := env.New(
			env.WithSource(environ, props),
			env.WithSource(defaults...),
		)
		if err := setAll(pre, cfg.overrides); err != nil {
			return nil, err
		}
		if raw, ok := pre.Get(ProfilesKey); ok {
			profiles = Split(raw)
		}
	}

	var layers []*env.Source
	for _, p := range profiles {
		l, err := loadLayer(cfg.dir, cfg.name+"-"+p)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l...)
	}

	e := env.New(
		env.WithSource(environ, props),
		env.WithSource(layers...),
		env.WithSource(defaults...),
		env.WithProfiles(profiles...),
	)
	if err := setAll(e, cfg.overrides); err != nil {
		return nil, err
	}
	return e, nil
}

// Split parses a comma-separated profile list, dropping blanks.
func Split(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setAll(e *env.Environment, values map[string]string) error {
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if err := e.Set(k, values[k]); err != nil {
			return fmt.Errorf("config: override: %w", err)
		}
	}
	return nil
}

func loadLayer(dir, base string) ([]*env.Source, error) {
	var out []*env.Source
	for _, ext := range extensions {
		path := filepath.Join(dir, base+ext)
		s, err := LoadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadFile decodes a single configuration file into a Source named after the
// file. The format is inferred from the extension.
func LoadFile(path string) (*env.Source, error) {
	dec, err := codec.Infer(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := dec.Decode(raw, &tree); err != nil {
		return nil, fmt.Errorf("config: failed to decode %s: %w", path, err)
	}
	s := env.NewSource(filepath.Base(path))
	if err := flatten("", tree, s); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return s, nil
}

// Save writes the entries of s to path in the format inferred from its
// extension. Keys are written flat: dotted for JSON and YAML, upper snake
// case for dotenv. LoadFile reads back the same entries.
func Save(path string, s *env.Source) error {
	enc, err := codec.Infer(path)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	dotenv := strings.EqualFold(filepath.Ext(path), ".env")
	tree := make(map[string]any, s.Len())
	for _, k := range s.Keys() {
		v, _ := s.Lookup(k)
		if dotenv {
			k = strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
		}
		tree[k] = v
	}
	raw, err := enc.Encode(tree)
	if err != nil {
		return fmt.Errorf("config: failed to encode %s: %w", path, err)
	}
	return os.WriteFile(path, raw, 0o644)
}

func flatten(prefix string, v any, s *env.Source) error {
	switch t := v.(type) {
	case map[string]any:
		for k, x := range t {
			if err := flatten(join(prefix, k), x, s); err != nil {
				return err
			}
		}
		return nil
	case map[any]any:
		for k, x := range t {
			if err := flatten(join(prefix, fmt.Sprint(k)), x, s); err != nil {
				return err
			}
		}
		return nil
	case []any:
		scalars := make([]string, 0, len(t))
		for i, x := range t {
			if err := flatten(join(prefix, fmt.Sprint(i)), x, s); err != nil {
				return err
			}
			if scalar(x) {
				scalars = append(scalars, fmt.Sprint(x))
			}
		}
		if len(scalars) == len(t) {
			return s.Set(prefix, strings.Join(scalars, ","))
		}
		return nil
	case nil:
		return s.Set(prefix, "")
	default:
		return s.Set(prefix, fmt.Sprint(t))
	}
}

func scalar(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any, []any:
		return false
	default:
		return true
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
