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
	"errors"
	"fmt"
	"sync/atomic"
)

// State is a lifecycle phase of a Container, a binding or a provider.
// Phases only ever advance.
type State uint32

const (
	// Configurable accepts registrations and rebinding.
	Configurable State = iota
	// Running hands out instances.
	Running
	// Destroying tears instances down.
	Destroying
	// Destroyed is terminal.
	Destroyed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case Configurable:
		return "configurable"
	case Running:
		return "running"
	case Destroying:
		return "destroying"
	case Destroyed:
		return "destroyed"
	default:
		return fmt.Sprintf("state(%d)", uint32(s))
	}
}

// ErrState is matched by every *StateError.
var ErrState = errors.New("state violation")

// StateError reports an operation attempted in the wrong lifecycle state.
// It always indicates a programming error.
type StateError struct {
	Subject  string // What was in the wrong state.
	Expected State
	Actual   State
}

func (e *StateError) Error() string {
	return fmt.Sprintf(
		"%s is %s, expected %s",
		e.Subject, e.Actual, e.Expected,
	)
}

// Is reports whether target is ErrState.
func (e *StateError) Is(target error) bool { return target == ErrState }

// phase is an atomically updated State.
type phase struct {
	v atomic.Uint32
}

func (p *phase) load() State { return State(p.v.Load()) }

func (p *phase) store(s State) { p.v.Store(uint32(s)) }

// advance moves from one state to another if the current state matches.
func (p *phase) advance(from, to State) bool {
	return p.v.CompareAndSwap(uint32(from), uint32(to))
}

// expect narrows the phase to want, or fails with a *StateError naming
// subject.
func (p *phase) expect(subject string, want State) error {
	if got := p.load(); got != want {
		return &StateError{Subject: subject, Expected: want, Actual: got}
	}
	return nil
}
