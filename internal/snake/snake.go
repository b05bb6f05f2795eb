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

// Package snake derives configuration keys from Go identifiers.
package snake

import (
	"strings"
	"unicode"
)

// ToLower converts a camelCase string to a lowercase snake_case string.
//
// For example, "fooBar" is converted to "foo_bar", and so is "FOOBar". Note
// that digits do not induce transitions, so "foo1" stays "foo1".
func ToLower(s string) string { return transform(s, '_') }

// ToKey converts a camelCase identifier into a dotted configuration key, so
// "MaxIdleConns" becomes "max.idle.conns" and "HTTPProxy" becomes
// "http.proxy". Existing underscores are kept as separators.
func ToKey(s string) string {
	return strings.ReplaceAll(transform(s, '.'), "_", ".")
}

func transform(s string, sep rune) string {
	var b strings.Builder
	b.Grow(len(s) + 5)
	runes := []rune(s)
	for i, r := range runes {
		if i != 0 {
			q := runes[i-1]
			// Lowercase to uppercase ("myVar") or acronym to word ("MYVar").
			if (unicode.IsLower(q) && unicode.IsUpper(r)) ||
				(unicode.IsUpper(q) &&
					unicode.IsUpper(r) &&
					i+1 < len(runes) &&
					unicode.IsLower(runes[i+1])) {
				b.WriteRune(sep)
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
