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

// Package transport provides polling helpers shared by the PN532 transports
package transport

import (
	"errors"
	"time"
)

// ErrDeadline is returned by Poll when the deadline passes before the
// operation completes
var ErrDeadline = errors.New("transport: deadline exceeded")

// Attempt is one try of a polled operation.
// done reports whether result is final; a non-nil error stops polling.
type Attempt[T any] func() (result T, done bool, err error)

// Poll runs attempt until it is done, fails or deadline passes, sleeping
// interval between tries. attempt always runs at least once.
func Poll[T any](deadline time.Time, interval time.Duration, attempt Attempt[T]) (T, error) {
	var zero T
	for {
		result, done, err := attempt()
		if err != nil {
			return zero, err
		}
		if done {
			return result, nil
		}
		if !time.Now().Before(deadline) {
			return zero, ErrDeadline
		}
		if interval > 0 {
			time.Sleep(interval)
		}
	}
}

// Retry runs attempt at most maxRetries+1 times. onRetry runs before every
// retry and may abort by returning an error. The final bool is false when
// retries ran out.
func Retry[T any](maxRetries int, onRetry func() error, attempt Attempt[T]) (T, bool, error) {
	var zero T
	for try := 0; ; try++ {
		result, done, err := attempt()
		if err != nil {
			return zero, false, err
		}
		if done {
			return result, true, nil
		}
		if try >= maxRetries {
			return zero, false, nil
		}
		if onRetry != nil {
			if err := onRetry(); err != nil {
				return zero, false, err
			}
		}
	}
}
