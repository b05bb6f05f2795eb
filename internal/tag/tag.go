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

// Package tag parses the `value` struct tag used when binding configuration
// onto structs. A tag holds an optional key followed by comma-separated
// options, which are either flags ("required") or key:value pairs
// ("default:'a,b'"). Option values may be quoted to contain commas.
package tag

import (
	"fmt"
	"strings"
	"unicode"
)

// Tag is the parsed form of a `value` struct tag.
type Tag struct {
	Name     string  // Key override; empty to derive it from the field name.
	Default  *string // Fallback used when the key is absent.
	Prefix   *string // Key prefix override for nested structs.
	Split    string  // Separator for slice values.
	Required bool
	Inline   bool
}

// Parse parses s. It fails on unknown options.
func Parse(s string) (Tag, error) {
	var t Tag
	name, rest, _ := strings.Cut(s, ",")
	t.Name = strings.TrimSpace(name)

	for k, v := range options(rest) {
		switch k {
		case "required":
			t.Required = true
		case "inline":
			t.Inline = true
		case "default":
			t.Default = &v
		case "prefix":
			t.Prefix = &v
		case "split":
			t.Split = v
		case "":
		default:
			return t, fmt.Errorf("unknown tag option: %q", k)
		}
	}
	return t, nil
}

// options yields the key/value pairs in rest, honoring quotes.
func options(rest string) func(yield func(string, string) bool) {
	return func(yield func(string, string) bool) {
		for rest != "" {
			rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
			if rest == "" {
				return
			}

			end := -1
			var q rune
			for i, r := range rest {
				if q != 0 {
					if r == q {
						q = 0
					}
				} else if r == '\'' || r == '"' {
					q = r
				} else if r == ',' {
					end = i
					break
				}
			}

			part := rest
			if end == -1 {
				rest = ""
			} else {
				part, rest = rest[:end], rest[end+1:]
			}

			k, v, _ := strings.Cut(part, ":")
			if !yield(strings.TrimSpace(k), unquote(v)) {
				return
			}
		}
	}
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 {
		if c := s[0]; (c == '"' || c == '\'') && s[len(s)-1] == c {
			return s[1 : len(s)-1]
		}
	}
	return s
}
