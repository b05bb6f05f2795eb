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
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Source is a named mapping from normalized keys to raw string values.
// Names are validated when written and normalized on every access.
// A Source is safe for concurrent use.
type Source struct {
	name   string
	mu     sync.RWMutex
	values map[string]string
}

// NewSource creates an empty Source.
func NewSource(name string) *Source {
	return &Source{
		name:   name,
		values: make(map[string]string),
	}
}

// SourceOf creates a Source holding the given values. It fails on the first
// invalid name, in lexical order.
func SourceOf(name string, values map[string]string) (*Source, error) {
	s := NewSource(name)
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if err := s.Set(k, values[k]); err != nil {
			return nil, fmt.Errorf("env: source %q: %w", name, err)
		}
	}
	return s, nil
}

// FromEnviron creates a Source from entries of the form "key=value", as
// returned by os.Environ. Entries with invalid names are skipped, since the
// process environment routinely contains variables no binding could refer to.
func FromEnviron(name string, environ []string) *Source {
	s := NewSource(name)
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		_ = s.Set(k, v)
	}
	return s
}

// Name returns the name of the source.
func (s *Source) Name() string { return s.name }

// Set stores value under the normalized form of key.
func (s *Source) Set(key, value string) error {
	if err := Validate(key); err != nil {
		return err
	}
	k := Normalize(key)
	s.mu.Lock()
	s.values[k] = value
	s.mu.Unlock()
	return nil
}

// Unset removes key from the source.
func (s *Source) Unset(key string) {
	k := Normalize(key)
	s.mu.Lock()
	delete(s.values, k)
	s.mu.Unlock()
}

// Lookup returns the value stored under key.
func (s *Source) Lookup(key string) (string, bool) {
	k := Normalize(key)
	s.mu.RLock()
	v, ok := s.values[k]
	s.mu.RUnlock()
	return v, ok
}

// Keys returns the normalized keys in lexical order.
func (s *Source) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.values))
}

// Len returns the number of entries.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
