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

	nfc "github.com/ZaparooProject/go-nfc"
)

// Transport errors. Those wrapping nfc.ErrTimeout or nfc.ErrIO are retried
// when Config.TransportRetry is set, and again by the session layer.
var (
	ErrTransportTimeout    = fmt.Errorf("transport timeout: %w", nfc.ErrTimeout)
	ErrTransportRead       = fmt.Errorf("transport read failed: %w", nfc.ErrIO)
	ErrTransportWrite      = fmt.Errorf("transport write failed: %w", nfc.ErrIO)
	ErrCommunicationFailed = fmt.Errorf("communication failed: %w", nfc.ErrIO)
	ErrNoACK               = fmt.Errorf("no ACK received: %w", nfc.ErrIO)
	ErrFrameCorrupted      = fmt.Errorf("frame corrupted: %w", nfc.ErrIO)
	ErrChecksumMismatch    = fmt.Errorf("checksum mismatch: %w", nfc.ErrIO)
	ErrTransportNotReady   = fmt.Errorf("device not ready: %w", nfc.ErrIO)
	ErrInvalidResponse     = fmt.Errorf("invalid response: %w", nfc.ErrIO)
	ErrDataTooLarge        = errors.New("data too large for frame")
	ErrTransportClosed     = errors.New("transport closed")
	ErrDeviceNotFound      = errors.New("PN532 device not found")
)

// Tag errors
var (
	ErrTargetReleased   = fmt.Errorf("target released: %w", nfc.ErrTagGone)
	ErrUnsupportedTag   = errors.New("tag is not an NFC Forum Type 2 tag")
	ErrReadOnly         = errors.New("tag is read-only")
	ErrMessageTooLarge  = errors.New("NDEF message does not fit the tag")
	ErrTechnologyNotSet = errors.New("technology mask does not include ISO14443A")
)

// TransportError reports a failure on the link to the PN532
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      nfc.ErrorType
	Retryable bool
}

func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError builds a TransportError of errType
func NewTransportError(op, port string, err error, errType nfc.ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == nfc.ErrorTypeTimeout || errType == nfc.ErrorTypeTransient,
	}
}

// NewTimeoutError reports a command that got no response in time
func NewTimeoutError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportTimeout, nfc.ErrorTypeTimeout)
}

// NewNoACKError reports a command the PN532 did not acknowledge
func NewNoACKError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrNoACK, nfc.ErrorTypeTransient)
}

// NewFrameCorruptedError reports an unparseable response frame
func NewFrameCorruptedError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrFrameCorrupted, nfc.ErrorTypeTransient)
}

// NewChecksumError reports a response frame with a bad checksum
func NewChecksumError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrChecksumMismatch, nfc.ErrorTypeTransient)
}

// NewTransportNotReadyError reports a PN532 that never signalled ready
func NewTransportNotReadyError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrTransportNotReady, nfc.ErrorTypeTransient)
}

// NewDataTooLargeError reports a command too long for a normal frame
func NewDataTooLargeError(op, port string) *TransportError {
	return NewTransportError(op, port, ErrDataTooLarge, nfc.ErrorTypePermanent)
}

// NewInvalidResponseError reports a response that does not match the command
func NewInvalidResponseError(op, detail string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrInvalidResponse, detail)
}

// StatusError is a non-zero status byte returned by an initiator command
type StatusError struct {
	Cmd    byte
	Status byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("command 0x%02X failed with status 0x%02X (%s)", e.Cmd, e.Status, statusText(e.Status))
}

// Unwrap maps the status to the nfc error class
func (e *StatusError) Unwrap() error {
	switch e.Status {
	case 0x01:
		return nfc.ErrTimeout
	case 0x29, 0x2A, 0x2B:
		return ErrTargetReleased
	default:
		return nfc.ErrIO
	}
}

func statusText(status byte) string {
	switch status {
	case 0x01:
		return "timeout"
	case 0x02:
		return "CRC error"
	case 0x03:
		return "parity error"
	case 0x05:
		return "framing error"
	case 0x06:
		return "bit collision"
	case 0x0A:
		return "RF field not switched on"
	case 0x14:
		return "authentication error"
	case 0x27:
		return "command not acceptable in context"
	case 0x29:
		return "target released"
	case 0x2A:
		return "card exchanged"
	case 0x2B:
		return "card disappeared"
	default:
		return "unknown"
	}
}
