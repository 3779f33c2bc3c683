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

// Package uart provides a PN532 transport over a serial port (HSU mode)
package uart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"

	nfc "github.com/ZaparooProject/go-nfc"
	"github.com/ZaparooProject/go-nfc/internal/frame"
	"github.com/ZaparooProject/go-nfc/pn532"
)

const (
	baudRate = 115200

	// readTimeout bounds a single port read; the command timeout bounds the
	// whole exchange
	readTimeout    = 20 * time.Millisecond
	defaultTimeout = time.Second
	ackTimeout     = 100 * time.Millisecond

	// maxNacks is how many corrupted responses are re-requested
	maxNacks = 3

	cmdInListPassiveTarget = 0x4A
)

// wakeUpSequence brings the PN532 out of power down in HSU mode
var wakeUpSequence = []byte{
	0x55, 0x55, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

// port is the part of serial.Port the transport needs
type port interface {
	io.ReadWriteCloser
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Drain() error
}

// Transport implements pn532.Transport over UART
type Transport struct {
	port     port
	portName string
	rx       []byte
	timeout  time.Duration
	mu       sync.Mutex
}

var _ pn532.Transport = (*Transport)(nil)

// New opens portName at 115200 8N1
func New(portName string) (*Transport, error) {
	p, err := serial.Open(portName, &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		if isPortMissing(err) {
			return nil, fmt.Errorf("%w: %s: %w", pn532.ErrDeviceNotFound, portName, err)
		}
		return nil, fmt.Errorf("failed to open UART port %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to set UART read timeout: %w", err)
	}
	return newTransport(p, portName), nil
}

func newTransport(p port, portName string) *Transport {
	return &Transport{
		port:     p,
		portName: portName,
		timeout:  defaultTimeout,
		rx:       make([]byte, 0, frame.MaxFrameLength*2),
	}
}

func isPortMissing(err error) bool {
	var portErr *serial.PortError
	return errors.As(err, &portErr) && portErr.Code() == serial.PortNotFound
}

// SendCommand writes a command frame, waits for the ACK and returns the
// response starting at the response code
func (t *Transport) SendCommand(cmd byte, args []byte) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil, pn532.ErrTransportClosed
	}

	if err := t.sendFrame(cmd, args); err != nil {
		return nil, err
	}
	if err := t.waitAck(); err != nil {
		return nil, err
	}

	resp, err := t.receiveFrame()
	if err != nil {
		// Some firmware never answers InListPassiveTarget when the field
		// is empty
		if cmd == cmdInListPassiveTarget && errors.Is(err, nfc.ErrTimeout) {
			return []byte{cmdInListPassiveTarget + 1, 0x00}, nil
		}
		return nil, err
	}

	if err := t.write(frame.AckFrame, "sendAck"); err != nil {
		return nil, err
	}
	return resp, nil
}

func (t *Transport) sendFrame(cmd byte, args []byte) error {
	buf := frame.GetBuffer(frame.MaxFrameLength)
	defer frame.PutBuffer(buf)

	out := append(buf[:0], wakeUpSequence...)
	out, err := frame.AppendCommand(out, cmd, args)
	if err != nil {
		return pn532.NewDataTooLargeError("sendFrame", t.portName)
	}

	// Stale bytes from an abandoned exchange would be parsed as the response
	t.rx = t.rx[:0]
	if err := t.port.ResetInputBuffer(); err != nil {
		return pn532.NewTransportError("sendFrame", t.portName, err, nfc.ErrorTypeTransient)
	}
	return t.write(out, "sendFrame")
}

func (t *Transport) write(data []byte, op string) error {
	n, err := t.port.Write(data)
	if err != nil {
		return pn532.NewTransportError(op, t.portName,
			fmt.Errorf("%w: %w", pn532.ErrTransportWrite, err), nfc.ErrorTypeTransient)
	}
	if n != len(data) {
		return pn532.NewTransportError(op, t.portName, pn532.ErrTransportWrite, nfc.ErrorTypeTransient)
	}
	if err := t.port.Drain(); err != nil {
		return pn532.NewTransportError(op, t.portName, err, nfc.ErrorTypeTransient)
	}
	return nil
}

// waitAck consumes the ACK frame that precedes every response
func (t *Transport) waitAck() error {
	deadline := time.Now().Add(min(ackTimeout, t.timeout))
	for {
		for len(t.rx) > 0 && !couldBeAck(t.rx) {
			t.consume(1)
		}
		switch {
		case frame.IsAck(t.rx):
			_, consumed, _ := frame.Parse(t.rx)
			t.consume(consumed)
			return nil
		case frame.IsNack(t.rx):
			t.rx = t.rx[:0]
			return pn532.NewNoACKError("waitAck", t.portName)
		}

		if time.Now().After(deadline) {
			return pn532.NewNoACKError("waitAck", t.portName)
		}
		if err := t.fill(); err != nil {
			return err
		}
	}
}

// couldBeAck reports whether buf is zero padding followed by a prefix of an
// ACK or NACK frame
func couldBeAck(buf []byte) bool {
	i := 0
	for i < len(buf) && buf[i] == 0x00 {
		i++
	}
	rest := buf[i:]
	return bytes.HasPrefix(frame.AckFrame[2:], rest) || bytes.HasPrefix(frame.NackFrame[2:], rest) ||
		bytes.HasPrefix(rest, frame.AckFrame[2:]) || bytes.HasPrefix(rest, frame.NackFrame[2:])
}

// receiveFrame reads until one complete information frame is parsed
func (t *Transport) receiveFrame() ([]byte, error) {
	deadline := time.Now().Add(t.timeout)
	nacks := 0

	for {
		payload, consumed, err := frame.Parse(t.rx)
		switch {
		case err == nil:
			resp := append([]byte(nil), payload...)
			t.consume(consumed)
			return resp, nil
		case errors.Is(err, frame.ErrDataChecksum):
			t.consume(consumed)
			if nacks >= maxNacks {
				return nil, pn532.NewChecksumError("receiveFrame", t.portName)
			}
			nacks++
			if err := t.write(frame.NackFrame, "sendNack"); err != nil {
				return nil, err
			}
			continue
		case errors.Is(err, frame.ErrApplicationError):
			t.consume(consumed)
			return nil, pn532.NewTransportError("receiveFrame", t.portName, err, nfc.ErrorTypePermanent)
		case errors.Is(err, frame.ErrAckFrame), errors.Is(err, frame.ErrNackFrame),
			errors.Is(err, frame.ErrLengthChecksum), errors.Is(err, frame.ErrUnexpectedTFI):
			t.consume(consumed)
			continue
		case errors.Is(err, frame.ErrNoStartCode):
			t.rx = t.rx[:0]
		}

		if time.Now().After(deadline) {
			return nil, pn532.NewTimeoutError("receiveFrame", t.portName)
		}
		if err := t.fill(); err != nil {
			return nil, err
		}
	}
}

// fill appends whatever the port returns within one read timeout
func (t *Transport) fill() error {
	buf := frame.GetSmallBuffer(64)
	defer frame.PutBuffer(buf)

	n, err := t.port.Read(buf)
	if err != nil {
		return pn532.NewTransportError("read", t.portName,
			fmt.Errorf("%w: %w", pn532.ErrTransportRead, err), nfc.ErrorTypeTransient)
	}
	if len(t.rx)+n > cap(t.rx) {
		return pn532.NewFrameCorruptedError("read", t.portName)
	}
	t.rx = append(t.rx, buf[:n]...)
	return nil
}

func (t *Transport) consume(n int) {
	t.rx = append(t.rx[:0], t.rx[n:]...)
}

// SetTimeout sets the time allowed for one command exchange
func (t *Transport) SetTimeout(timeout time.Duration) error {
	if timeout <= 0 {
		return nfc.NewConfigError("UART timeout", timeout, errors.New("must be positive"))
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = timeout
	return nil
}

// Close closes the serial port. Repeated calls are no-ops.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	if err != nil {
		return fmt.Errorf("UART close failed: %w", err)
	}
	return nil
}

// IsConnected returns true until Close
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.port != nil
}

// Type returns the transport type
func (*Transport) Type() pn532.TransportType {
	return pn532.TransportUART
}

// String returns the port name
func (t *Transport) String() string {
	return t.portName
}
