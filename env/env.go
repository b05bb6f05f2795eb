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

// Package env provides layered, profile-aware resolution of named
// configuration values.
//
// An Environment is an ordered list of Sources. A lookup returns the value of
// the first Source that defines the requested name. The head of the list is a
// mutable override Source; all other Sources are fixed when the Environment
// is created. Typical layering, from highest to lowest priority:
//
//	overrides → process environment → properties → profile files → defaults
//
// Names are compared in normalized form (see Normalize), so an environment
// variable DB_HOST satisfies a lookup for db.host.
//
// # Usage
//
//	e := env.New(
//		env.WithSource(env.FromEnviron("environment", os.Environ())),
//		env.WithProfiles("dev"),
//	)
//	host, ok := e.Get("db.host")
//
// Loading of configuration files into Sources lives in package config.
package env

import (
	"slices"
)

// OverrideSource is the name of the mutable head Source.
const OverrideSource = "overrides"

// Lookup retrieves a raw configuration value by name. It follows the
// signature of os.LookupEnv.
type Lookup func(name string) (string, bool)

type config struct {
	sources  []*Source
	profiles []string
}

// Option configures an Environment.
type Option func(*config)

// WithSource appends sources below those added before. Nil sources are
// ignored.
func WithSource(sources ...*Source) Option {
	return func(c *config) {
		for _, s := range sources {
			if s != nil {
				c.sources = append(c.sources, s)
			}
		}
	}
}

// WithProfiles records the active profiles, in priority order. Empty names
// are dropped.
func WithProfiles(profiles ...string) Option {
	return func(c *config) {
		for _, p := range profiles {
			if p != "" {
				c.profiles = append(c.profiles, p)
			}
		}
	}
}

// Environment resolves configuration names against an ordered list of
// Sources. It is safe for concurrent use.
type Environment struct {
	overrides *Source
	sources   []*Source
	profiles  []string
}

// New creates an Environment with an empty override Source followed by the
// Sources given through options.
func New(opts ...Option) *Environment {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return &Environment{
		overrides: NewSource(OverrideSource),
		sources:   c.sources,
		profiles:  c.profiles,
	}
}

// Get returns the value of name from the first Source that defines it.
func (e *Environment) Get(name string) (string, bool) {
	if v, ok := e.overrides.Lookup(name); ok {
		return v, true
	}
	for _, s := range e.sources {
		if v, ok := s.Lookup(name); ok {
			return v, true
		}
	}
	return "", false
}

// Has reports whether any Source defines name.
func (e *Environment) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Set writes an override that takes precedence over every other Source.
func (e *Environment) Set(name, value string) error {
	return e.overrides.Set(name, value)
}

// Unset removes an override, letting lookups fall through to the remaining
// Sources again.
func (e *Environment) Unset(name string) {
	e.overrides.Unset(name)
}

// Profiles returns the active profiles in priority order.
func (e *Environment) Profiles() []string {
	return slices.Clone(e.profiles)
}

// Sources returns all Sources in lookup order, starting with the overrides.
func (e *Environment) Sources() []*Source {
	return append([]*Source{e.overrides}, e.sources...)
}

// Expand substitutes ${name} references in s with values from e.
func (e *Environment) Expand(s string) (string, error) {
	return Expand(s, e.Get)
}
