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

package testing

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrClosed is returned by a VirtualPN532 after Close
var ErrClosed = errors.New("virtual pn532: closed")

// VirtualPN532 simulates a PN532 behind a transport. SendCommand returns the
// response starting at the response code, like the real transports. It is
// safe for concurrent use.
type VirtualPN532 struct {
	tag        *VirtualTag
	injected   map[byte][]error
	statuses   []byte
	commands   []byte
	timeout    time.Duration
	mu         sync.Mutex
	closed     bool
	selected   bool
	rfFieldOff bool
}

// NewVirtualPN532 creates a simulated reader with an empty field
func NewVirtualPN532() *VirtualPN532 {
	return &VirtualPN532{
		injected: make(map[byte][]error),
		timeout:  time.Second,
	}
}

// SetTag places tag in the field, replacing any previous one
func (v *VirtualPN532) SetTag(tag *VirtualTag) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tag = tag
	v.selected = false
}

// RemoveTag clears the field
func (v *VirtualPN532) RemoveTag() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.tag = nil
	v.selected = false
}

// InjectError makes the next calls of cmd fail with errs, in order
func (v *VirtualPN532) InjectError(cmd byte, errs ...error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.injected[cmd] = append(v.injected[cmd], errs...)
}

// InjectStatus makes the next InDataExchange calls answer with statuses
func (v *VirtualPN532) InjectStatus(statuses ...byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, statuses...)
}

// CommandCount returns how many times cmd was sent
func (v *VirtualPN532) CommandCount(cmd byte) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	n := 0
	for _, c := range v.commands {
		if c == cmd {
			n++
		}
	}
	return n
}

// RFFieldOff reports whether the last RFConfiguration switched the field off
func (v *VirtualPN532) RFFieldOff() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.rfFieldOff
}

// SendCommand processes one command
func (v *VirtualPN532) SendCommand(cmd byte, args []byte) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return nil, ErrClosed
	}
	v.commands = append(v.commands, cmd)

	if errs := v.injected[cmd]; len(errs) > 0 {
		v.injected[cmd] = errs[1:]
		return nil, errs[0]
	}

	switch cmd {
	case CmdGetFirmwareVersion:
		return BuildFirmwareVersionResponse(), nil
	case CmdSAMConfiguration:
		return BuildSAMConfigurationResponse(), nil
	case CmdRFConfiguration:
		if len(args) >= 2 && args[0] == 0x01 {
			v.rfFieldOff = args[1]&0x01 == 0
		}
		return []byte{0x33}, nil
	case CmdInListPassiveTarget:
		return v.listPassiveTarget(), nil
	case CmdInDataExchange:
		return v.dataExchange(args), nil
	case CmdInCommunicateThru:
		return v.communicateThru(args), nil
	case CmdInRelease, CmdInDeselect:
		v.selected = false
		return []byte{cmd + 1, StatusOK}, nil
	default:
		return nil, fmt.Errorf("virtual pn532: unsupported command 0x%02X", cmd)
	}
}

func (v *VirtualPN532) listPassiveTarget() []byte {
	if v.rfFieldOff || v.tag == nil || !v.tag.Present() {
		v.selected = false
		return BuildNoTagResponse()
	}
	v.selected = true
	return BuildTagDetectionResponse(v.tag.UID)
}

func (v *VirtualPN532) dataExchange(args []byte) []byte {
	if len(v.statuses) > 0 {
		status := v.statuses[0]
		v.statuses = v.statuses[1:]
		if status != StatusOK {
			return BuildErrorResponse(CmdInDataExchange, status)
		}
	}

	if len(args) < 2 || args[0] != 0x01 {
		return BuildErrorResponse(CmdInDataExchange, StatusInvalidParam)
	}
	if !v.selected {
		return BuildErrorResponse(CmdInDataExchange, StatusTargetRelease)
	}
	if v.tag == nil || !v.tag.Present() {
		return BuildErrorResponse(CmdInDataExchange, StatusTimeout)
	}

	data := args[1:]
	switch data[0] {
	case TagCmdRead:
		if len(data) != 2 {
			return BuildErrorResponse(CmdInDataExchange, StatusInvalidParam)
		}
		pages, err := v.tag.ReadPages(int(data[1]))
		if err != nil {
			return BuildErrorResponse(CmdInDataExchange, StatusInvalidParam)
		}
		return BuildDataExchangeResponse(pages)
	case TagCmdWrite:
		if len(data) != 2+PageSize {
			return BuildErrorResponse(CmdInDataExchange, StatusInvalidParam)
		}
		if err := v.tag.WritePage(int(data[1]), data[2:]); err != nil {
			return BuildErrorResponse(CmdInDataExchange, StatusInvalidParam)
		}
		return BuildDataExchangeResponse(nil)
	default:
		return BuildErrorResponse(CmdInDataExchange, StatusInvalidParam)
	}
}

func (v *VirtualPN532) communicateThru(args []byte) []byte {
	if v.tag == nil || !v.tag.Present() {
		return []byte{0x43, StatusTimeout}
	}
	if len(args) == 1 && args[0] == TagCmdGetVersion {
		return append([]byte{0x43, StatusOK}, v.tag.GetVersion()...)
	}
	return []byte{0x43, StatusInvalidParam}
}

// SetTimeout records the timeout
func (v *VirtualPN532) SetTimeout(timeout time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.timeout = timeout
	return nil
}

// Timeout returns the last timeout set
func (v *VirtualPN532) Timeout() time.Duration {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timeout
}

// Close closes the virtual device
func (v *VirtualPN532) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	return nil
}

// IsConnected returns true until Close
func (v *VirtualPN532) IsConnected() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return !v.closed
}
