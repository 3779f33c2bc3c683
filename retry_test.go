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
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithConfig_SucceedsAfterTimeouts(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithConfig(context.Background(), fastRetry(), func() error {
		attempts++
		if attempts < 3 {
			return NewControllerError("ReadNdef", ErrTimeout)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithConfig_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithConfig(context.Background(), fastRetry(), func() error {
		attempts++
		return ErrNotNDEF
	})
	require.ErrorIs(t, err, ErrNotNDEF)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithConfig_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	attempts := 0
	err := RetryWithConfig(context.Background(), fastRetry(), func() error {
		attempts++
		return ErrTimeout
	})
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithConfig_ContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    time.Second,
		MaxBackoff:        time.Second,
		BackoffMultiplier: 1,
	}

	start := time.Now()
	err := RetryWithConfig(ctx, cfg, func() error { return ErrTimeout })
	require.ErrorIs(t, err, ErrTimeout)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryWithConfig_NilConfig(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	err := RetryWithConfig(context.Background(), nil, func() error { return errBoom })
	require.ErrorIs(t, err, errBoom)
}

func TestRetryConfig_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, DefaultRetryConfig().Validate())

	bad := []*RetryConfig{
		{MaxAttempts: 0, BackoffMultiplier: 1},
		{MaxAttempts: 1, InitialBackoff: -time.Second, BackoffMultiplier: 1},
		{MaxAttempts: 1, BackoffMultiplier: 0},
	}
	for _, cfg := range bad {
		require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	}
}
