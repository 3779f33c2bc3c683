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

import (
	"errors"
	"fmt"
	"time"
)

// Controller errors
var (
	ErrAlreadyInitialized = errors.New("controller already initialized")
	ErrNotInitialized     = errors.New("controller not initialized")
	ErrNotActive          = errors.New("controller is not discovering")
	ErrControllerInUse    = errors.New("controller already in use by another session")
	ErrTagGone            = errors.New("tag is no longer present")
	ErrTimeout            = errors.New("operation timeout")
	ErrIO                 = errors.New("controller I/O failure")
	ErrNotNDEF            = errors.New("tag is not NDEF formatted")
	ErrUnexpectedType     = errors.New("unexpected NDEF friendly type")
)

// Session and configuration errors
var (
	ErrInvalidState    = errors.New("operation not valid in current state")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrSessionActive   = errors.New("a session is already running")
	ErrSessionClosed   = errors.New("session closed")
	ErrSessionPanicked = errors.New("session body panicked")
	ErrBridgeClosed    = errors.New("bridge closed")
)

// ErrorType categorizes errors for retry and recovery decisions
type ErrorType int

const (
	// ErrorTypePermanent indicates an error that won't be fixed by retrying
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient indicates a temporary native failure
	ErrorTypeTransient
	// ErrorTypeTimeout indicates an exchange or wait ran out of time
	ErrorTypeTimeout
	// ErrorTypeTagGone indicates the tag left the field
	ErrorTypeTagGone
	// ErrorTypeState indicates an operation was called in the wrong state
	ErrorTypeState
	// ErrorTypeConfig indicates configuration was rejected before any native call
	ErrorTypeConfig
)

// String returns the error type name
func (t ErrorType) String() string {
	switch t {
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeTagGone:
		return "tag-gone"
	case ErrorTypeState:
		return "state"
	case ErrorTypeConfig:
		return "config"
	default:
		return "unknown"
	}
}

// ControllerError wraps a failure reported by a Controller implementation
type ControllerError struct {
	Err       error
	Op        string
	Type      ErrorType
	Retryable bool
}

func (e *ControllerError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ControllerError) Unwrap() error {
	return e.Err
}

// NewControllerError builds a ControllerError, deriving type and retryability
// from err.
func NewControllerError(op string, err error) *ControllerError {
	errType := GetErrorType(err)
	return &ControllerError{
		Op:        op,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTimeout || errType == ErrorTypeTransient,
	}
}

// NewTagGoneError reports an operation against a departed tag
func NewTagGoneError(op string, h TagHandle) *ControllerError {
	return &ControllerError{
		Op:   op,
		Err:  fmt.Errorf("%w: handle %d", ErrTagGone, h),
		Type: ErrorTypeTagGone,
	}
}

// ConfigError reports configuration rejected before any native call
type ConfigError struct {
	Err   error
	Value any
	Field string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfig, e.Err}
}

// NewConfigError builds a ConfigError for field
func NewConfigError(field string, value any, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Err: err}
}

// StateError reports an operation attempted in a state that does not allow it
type StateError struct {
	Op    string
	State SessionState
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %v (state %s)", e.Op, ErrInvalidState, e.State)
}

func (*StateError) Unwrap() error {
	return ErrInvalidState
}

// BridgeError reports a failed wait for a tag
type BridgeError struct {
	Err     error
	Op      string
	Timeout time.Duration
}

func (e *BridgeError) Error() string {
	if e.Timeout > 0 {
		return fmt.Sprintf("%s: %v after %s", e.Op, e.Err, e.Timeout)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BridgeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is likely to succeed on retry
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var ce *ControllerError
	if errors.As(err, &ce) {
		return ce.Retryable
	}

	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrIO):
		return true
	default:
		return false
	}
}

// GetErrorType returns the error type for categorization
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var ce *ControllerError
	if errors.As(err, &ce) {
		return ce.Type
	}

	switch {
	case errors.Is(err, ErrTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTagGone):
		return ErrorTypeTagGone
	case errors.Is(err, ErrIO):
		return ErrorTypeTransient
	case errors.Is(err, ErrInvalidState), errors.Is(err, ErrAlreadyInitialized),
		errors.Is(err, ErrNotInitialized):
		return ErrorTypeState
	case errors.Is(err, ErrInvalidConfig):
		return ErrorTypeConfig
	default:
		return ErrorTypePermanent
	}
}
