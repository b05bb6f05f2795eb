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

package config

import (
	"fmt"
	"strings"

	"github.com/deep-rent/beans/env"
)

// ParseArgs extracts properties from command-line arguments for use with
// WithProperties. It accepts "--name=value", "--name value" and the bare
// switch "--name", which stands for "true". Names go through env.Validate.
// Everything else is returned in rest, in order; a "--" argument ends the
// options and the remaining arguments are returned as they are.
func ParseArgs(args []string) (props map[string]string, rest []string, err error) {
	props = make(map[string]string)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "--") || len(arg) == 2 {
			rest = append(rest, arg)
			continue
		}

		name, value, ok := strings.Cut(arg[2:], "=")
		if !ok {
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				value = args[i+1]
				i++
			} else {
				value = "true"
			}
		}
		if err := env.Validate(name); err != nil {
			return nil, nil, fmt.Errorf("config: argument %q: %w", arg, err)
		}
		props[env.Normalize(name)] = value
	}
	return props, rest, nil
}
