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
	"context"
	"time"

	"github.com/rs/zerolog"

	nfc "github.com/ZaparooProject/go-nfc"
)

// Transport moves command frames to a PN532 and returns its replies.
//
// SendCommand returns the reply starting at the response code (cmd+1), with
// the frame identifier stripped. A transport handles ACK, NACK and checksum
// recovery itself.
type Transport interface {
	SendCommand(cmd byte, args []byte) ([]byte, error)
	SetTimeout(timeout time.Duration) error
	IsConnected() bool
	Type() TransportType
	Close() error
}

// TransportType names the physical link to the chip
type TransportType string

const (
	TransportUART TransportType = "uart"
	TransportI2C  TransportType = "i2c"
	// TransportMock is reported by in-memory transports used in tests
	TransportMock TransportType = "mock"
)

// retryTransport resends a command after a retryable failure, for example a
// lost ACK or a reply that kept failing its checksum.
type retryTransport struct {
	Transport
	config *nfc.RetryConfig
	logger zerolog.Logger
}

func newRetryTransport(tr Transport, config *nfc.RetryConfig, logger zerolog.Logger) *retryTransport {
	return &retryTransport{Transport: tr, config: config, logger: logger}
}

func (t *retryTransport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	var (
		resp    []byte
		attempt int
	)
	err := nfc.RetryWithConfig(context.Background(), t.config, func() error {
		attempt++
		var err error
		resp, err = t.Transport.SendCommand(cmd, args)
		if err != nil && nfc.IsRetryable(err) {
			t.logger.Debug().Err(err).
				Uint8("cmd", cmd).
				Int("attempt", attempt).
				Msg("command failed")
		}
		return err
	})
	return resp, err
}
