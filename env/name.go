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
	"strings"
	"unicode"
)

// Separator delimits the segments of a normalized name.
const Separator = '.'

// ErrInvalidName is matched by every *InvalidNameError.
var ErrInvalidName = errors.New("invalid name")

// InvalidNameError reports a malformed configuration name.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

// Is reports whether target is ErrInvalidName.
func (e *InvalidNameError) Is(target error) bool { return target == ErrInvalidName }

// Normalize maps a name onto its canonical lookup key. Letters are lowered
// and both underscores and dashes become dots, which makes FOO_BAR, foo.bar
// and Foo-Bar the same key.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch r {
		case '_', '-':
			b.WriteRune(Separator)
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Validate checks that name normalizes to a well-formed key: non-empty, not
// starting or ending with a separator and free of repeated separators.
func Validate(name string) error {
	key := Normalize(name)
	switch {
	case key == "":
		return &InvalidNameError{Name: name, Reason: "empty"}
	case key[0] == Separator, key[len(key)-1] == Separator:
		return &InvalidNameError{Name: name, Reason: "leading or trailing separator"}
	case strings.Contains(key, ".."):
		return &InvalidNameError{Name: name, Reason: "empty segment"}
	}
	for _, r := range key {
		if unicode.IsSpace(r) || r == '=' {
			return &InvalidNameError{Name: name, Reason: fmt.Sprintf("illegal character %q", r)}
		}
	}
	return nil
}
