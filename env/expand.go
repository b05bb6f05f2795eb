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
)

// Expand substitutes configuration references in s.
//
// References take the form ${name} or ${name:fallback}; the fallback is used
// when lookup does not know the name. A literal dollar sign is written as $$.
// A lone dollar sign is kept as is. An unresolved reference without a
// fallback yields a *MissingError.
func Expand(s string, lookup Lookup) (string, error) {
	var b strings.Builder
	b.Grow(len(s))

	var missing []string
	i := 0
	for i < len(s) {
		start := strings.IndexByte(s[i:], '$')
		if start == -1 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+start])
		i += start

		switch {
		case i+1 < len(s) && s[i+1] == '$':
			b.WriteByte('$')
			i += 2

		case i+1 < len(s) && s[i+1] == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end == -1 {
				return "", errors.New("env: syntax error: unmatched '${' in string")
			}
			ref := s[i+2 : i+2+end]
			name, fallback, hasFallback := strings.Cut(ref, ":")
			if v, ok := lookup(name); ok {
				b.WriteString(v)
			} else if hasFallback {
				b.WriteString(fallback)
			} else {
				missing = append(missing, name)
			}
			i += 2 + end + 1

		default:
			b.WriteByte('$')
			i++
		}
	}

	if len(missing) != 0 {
		return "", fmt.Errorf("env: %w", &MissingError{Names: missing})
	}
	return b.String(), nil
}

// MissingError lists names that were required but not defined.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("missing %s", strings.Join(quoteAll(e.Names), ", "))
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = fmt.Sprintf("%q", n)
	}
	return out
}
