// go-nfc
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-nfc.
//
// go-nfc is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-nfc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-nfc; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package nfc

import "slices"

// SessionState is the lifecycle state of a controller session
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateInitialized
	StateDiscovering
	StateDeinitialized
)

// String returns the state name
func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateDiscovering:
		return "discovering"
	case StateDeinitialized:
		return "deinitialized"
	default:
		return "invalid"
	}
}

// validTransitions lists the states reachable from each state. Deinitialized
// may start over so a Manager can run more than one session.
var validTransitions = map[SessionState][]SessionState{
	StateUninitialized: {StateInitialized, StateDeinitialized},
	StateInitialized:   {StateDiscovering, StateDeinitialized},
	StateDiscovering:   {StateInitialized, StateDeinitialized},
	StateDeinitialized: {StateInitialized},
}

// CanTransition reports whether moving from s to next is allowed
func (s SessionState) CanTransition(next SessionState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// allowedFrom lists the states each guarded operation may start from
var allowedFrom = map[string][]SessionState{
	opInitialize:       {StateUninitialized, StateDeinitialized},
	opEnableDiscovery:  {StateInitialized},
	opDisableDiscovery: {StateDiscovering},
	opTagIO:            {StateDiscovering},
}

const (
	opInitialize       = "Initialize"
	opEnableDiscovery  = "EnableDiscovery"
	opDisableDiscovery = "DisableDiscovery"
	opDeinitialize     = "Deinitialize"
	opTagIO            = "TagIO"
)

// guard returns a StateError unless the current state allows op
func guard(op string, current SessionState) error {
	allowed, ok := allowedFrom[op]
	if ok && !slices.Contains(allowed, current) {
		return &StateError{Op: op, State: current}
	}
	return nil
}
