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

// Package i2c provides a PN532 transport over an I2C bus using periph.io
package i2c

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	nfc "github.com/ZaparooProject/go-nfc"
	"github.com/ZaparooProject/go-nfc/internal/frame"
	"github.com/ZaparooProject/go-nfc/internal/transport"
	"github.com/ZaparooProject/go-nfc/pn532"
)

const (
	// Address is the 7-bit PN532 I2C address
	Address = 0x24

	statusReady = 0x01

	maxClockFreq   = 400 * physic.KiloHertz
	defaultTimeout = time.Second
	ackTimeout     = 50 * time.Millisecond
	pollDelay      = time.Millisecond
	maxNacks       = 3
)

// bus performs one combined write/read transaction with the PN532
type bus interface {
	Tx(w, r []byte) error
}

// Transport implements pn532.Transport over I2C
type Transport struct {
	dev     bus
	closer  io.Closer
	busName string
	timeout time.Duration
	mu      sync.Mutex
}

var _ pn532.Transport = (*Transport)(nil)

// New opens busName (for example "/dev/i2c-1" or "1"; empty selects the
// first bus) and addresses the PN532 at Address
func New(busName string) (*Transport, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}

	b, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("%w: I2C bus %q: %w", pn532.ErrDeviceNotFound, busName, err)
	}
	// Not every adapter supports changing speed
	_ = b.SetSpeed(maxClockFreq)

	return newTransport(&i2c.Dev{Addr: Address, Bus: b}, b, busName), nil
}

func newTransport(dev bus, closer io.Closer, busName string) *Transport {
	return &Transport{
		dev:     dev,
		closer:  closer,
		busName: busName,
		timeout: defaultTimeout,
	}
}

// SendCommand writes a command frame, waits for the ACK and returns the
// response starting at the response code
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil, pn532.ErrTransportClosed
	}

	if err := t.sendFrame(cmd, args); err != nil {
		return nil, err
	}
	if err := t.waitAck(); err != nil {
		return nil, err
	}
	return t.receiveFrame()
}

func (t *Transport) sendFrame(cmd byte, args []byte) error {
	buf := frame.GetBuffer(frame.MaxFrameLength)
	defer frame.PutBuffer(buf)

	out, err := frame.AppendCommand(buf[:0], cmd, args)
	if err != nil {
		return pn532.NewDataTooLargeError("sendFrame", t.busName)
	}
	return t.write(out, "sendFrame")
}

func (t *Transport) write(data []byte, op string) error {
	if err := t.dev.Tx(data, nil); err != nil {
		return pn532.NewTransportError(op, t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), nfc.ErrorTypeTransient)
	}
	return nil
}

// waitReady polls the status byte until the PN532 has data for us. It
// returns false when deadline passes first.
func (t *Transport) waitReady(deadline time.Time) (bool, error) {
	status := frame.GetSmallBuffer(1)
	defer frame.PutBuffer(status)

	_, err := transport.Poll(deadline, pollDelay, func() (struct{}, bool, error) {
		if err := t.read(status, "waitReady"); err != nil {
			return struct{}{}, false, err
		}
		return struct{}{}, status[0]&statusReady != 0, nil
	})
	if errors.Is(err, transport.ErrDeadline) {
		return false, nil
	}
	return err == nil, err
}

// read fills buf, whose first byte is the status byte
func (t *Transport) read(buf []byte, op string) error {
	if err := t.dev.Tx(nil, buf); err != nil {
		return pn532.NewTransportError(op, t.busName,
			fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), nfc.ErrorTypeTransient)
	}
	return nil
}

func (t *Transport) waitAck() error {
	ready, err := t.waitReady(time.Now().Add(min(ackTimeout, t.timeout)))
	if err != nil {
		return err
	}
	if !ready {
		return pn532.NewNoACKError("waitAck", t.busName)
	}

	buf := frame.GetSmallBuffer(1 + len(frame.AckFrame))
	defer frame.PutBuffer(buf)

	if err := t.read(buf, "waitAck"); err != nil {
		return err
	}
	if !frame.IsAck(buf[1:]) {
		return pn532.NewNoACKError("waitAck", t.busName)
	}
	return nil
}

func (t *Transport) receiveFrame() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	// status byte plus the largest normal frame
	buf := frame.GetBuffer(1 + frame.MaxFrameLength)
	defer frame.PutBuffer(buf)

	sendNack := func() error { return t.write(frame.NackFrame, "sendNack") }
	resp, ok, err := transport.Retry(maxNacks, sendNack, func() ([]byte, bool, error) {
		ready, err := t.waitReady(deadline)
		if err != nil {
			return nil, false, err
		}
		if !ready {
			return nil, false, pn532.NewTimeoutError("receiveFrame", t.busName)
		}
		if err := t.read(buf, "receiveFrame"); err != nil {
			return nil, false, err
		}

		payload, _, err := frame.Parse(buf[1:])
		switch {
		case err == nil:
			return append([]byte(nil), payload...), true, nil
		case errors.Is(err, frame.ErrApplicationError):
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName, err, nfc.ErrorTypePermanent)
		case errors.Is(err, frame.ErrDataChecksum), errors.Is(err, frame.ErrLengthChecksum):
			return nil, false, nil
		default:
			return nil, false, pn532.NewTransportError("receiveFrame", t.busName,
				fmt.Errorf("%w: %w", pn532.ErrFrameCorrupted, err), nfc.ErrorTypeTransient)
		}
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pn532.NewChecksumError("receiveFrame", t.busName)
	}

	if err := t.write(frame.AckFrame, "sendAck"); err != nil {
		return nil, err
	}
	return resp, nil
}

// SetTimeout sets the time allowed for one command exchange
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return nfc.NewConfigError("I2C timeout", timeout, errors.New("must be positive"))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close releases the bus. Repeated calls are no-ops.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.dev == nil {
		return nil
	}
	t.dev = nil
	if t.closer == nil {
		return nil
	}
	if err := t.closer.Close(); err != nil {
		return fmt.Errorf("I2C close failed: %w", err)
	}
	return nil
}

// IsConnected returns true until Close
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dev != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportI2C
}

// String returns the bus name
func (t *Transport) String() string {
	return t.busName
}
