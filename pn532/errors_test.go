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

package pn532

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nfc "github.com/ZaparooProject/go-nfc"
)

func TestTransportErrorsRetryable(t *testing.T) {
	t.Parallel()

	retryable := []error{
		ErrTransportTimeout,
		ErrTransportRead,
		ErrTransportWrite,
		ErrCommunicationFailed,
		ErrNoACK,
		ErrFrameCorrupted,
		ErrChecksumMismatch,
		ErrTransportNotReady,
		ErrInvalidResponse,
	}
	for _, err := range retryable {
		assert.True(t, nfc.IsRetryable(err), "%v", err)
		assert.True(t, nfc.IsRetryable(fmt.Errorf("wrapped: %w", err)), "%v", err)
	}

	permanent := []error{
		ErrDataTooLarge,
		ErrTransportClosed,
		ErrDeviceNotFound,
		ErrTargetReleased,
		ErrUnsupportedTag,
		ErrReadOnly,
		ErrMessageTooLarge,
	}
	for _, err := range permanent {
		assert.False(t, nfc.IsRetryable(err), "%v", err)
	}
}

func TestErrTargetReleasedIsTagGone(t *testing.T) {
	t.Parallel()
	require.ErrorIs(t, ErrTargetReleased, nfc.ErrTagGone)
	assert.Equal(t, nfc.ErrorTypeTagGone, nfc.GetErrorType(ErrTargetReleased))
}

func TestTransportError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err       *TransportError
		want      error
		name      string
		message   string
		retryable bool
	}{
		{
			name:      "timeout",
			err:       NewTimeoutError("SendCommand", "/dev/ttyUSB0"),
			want:      nfc.ErrTimeout,
			message:   "SendCommand on /dev/ttyUSB0: transport timeout: operation timeout",
			retryable: true,
		},
		{
			name:      "no ACK",
			err:       NewNoACKError("waitAck", ""),
			want:      ErrNoACK,
			message:   "waitAck: no ACK received: controller I/O failure",
			retryable: true,
		},
		{
			name:      "checksum",
			err:       NewChecksumError("readFrame", "i2c-1"),
			want:      ErrChecksumMismatch,
			retryable: true,
		},
		{
			name:      "not ready",
			err:       NewTransportNotReadyError("waitReady", "i2c-1"),
			want:      nfc.ErrIO,
			retryable: true,
		},
		{
			name: "data too large",
			err:  NewDataTooLargeError("SendCommand", ""),
			want: ErrDataTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.ErrorIs(t, tt.err, tt.want)
			assert.Equal(t, tt.retryable, tt.err.Retryable)
			if tt.message != "" {
				assert.Equal(t, tt.message, tt.err.Error())
			}
		})
	}
}

func TestNewInvalidResponseError(t *testing.T) {
	t.Parallel()
	err := NewInvalidResponseError("READ", "got 4 bytes")
	require.ErrorIs(t, err, ErrInvalidResponse)
	require.ErrorIs(t, err, nfc.ErrIO)
	assert.Contains(t, err.Error(), "got 4 bytes")
}

func TestStatusError(t *testing.T) {
	t.Parallel()

	err := error(&StatusError{Cmd: cmdInDataExchange, Status: 0x2B})
	assert.Equal(t, "command 0x40 failed with status 0x2B (card disappeared)", err.Error())
	require.ErrorIs(t, err, ErrTargetReleased)
	assert.False(t, nfc.IsRetryable(err))

	err = &StatusError{Cmd: cmdInDataExchange, Status: 0x01}
	assert.True(t, nfc.IsRetryable(err))

	err = &StatusError{Cmd: cmdInCommunicateThru, Status: 0x7E}
	require.ErrorIs(t, err, nfc.ErrIO)
	assert.Contains(t, err.Error(), "unknown")
	assert.False(t, errors.Is(err, nfc.ErrTagGone))
}
