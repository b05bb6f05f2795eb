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

package di

import (
	"fmt"
	"strings"
)

// ValueNotFoundError reports a required Value without configuration entry or
// default.
type ValueNotFoundError struct {
	Name string
}

func (e *ValueNotFoundError) Error() string {
	return fmt.Sprintf("no value found for %q", e.Name)
}

// MissingValuesError aggregates every missing Value detected while starting
// a Container.
type MissingValuesError struct {
	Names []string
}

func (e *MissingValuesError) Error() string {
	quoted := make([]string, len(e.Names))
	for i, n := range e.Names {
		quoted[i] = fmt.Sprintf("%q", n)
	}
	return fmt.Sprintf(
		"%d missing value(s): %s",
		len(e.Names), strings.Join(quoted, ", "),
	)
}

// Unwrap exposes one *ValueNotFoundError per missing name.
func (e *MissingValuesError) Unwrap() []error {
	errs := make([]error, len(e.Names))
	for i, n := range e.Names {
		errs[i] = &ValueNotFoundError{Name: n}
	}
	return errs
}
