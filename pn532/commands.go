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
	"fmt"
	"sync"
)

// PN532 Command codes
const (
	cmdGetFirmwareVersion  = 0x02
	cmdSamConfiguration    = 0x14
	cmdRFConfiguration     = 0x32
	cmdInDataExchange      = 0x40
	cmdInCommunicateThru   = 0x42
	cmdInListPassiveTarget = 0x4A
	cmdInRelease           = 0x52
)

// RFConfiguration items
const (
	rfItemField      = 0x01
	rfItemMaxRetries = 0x05
)

const (
	// brTy106kbpsTypeA selects ISO14443A in InListPassiveTarget
	brTy106kbpsTypeA = 0x00
	// targetNumber is the logical target used for every exchange
	targetNumber = 0x01
)

// FirmwareVersion is the GetFirmwareVersion response
type FirmwareVersion struct {
	IC       byte
	Version  byte
	Revision byte
	Support  byte
}

func (f FirmwareVersion) String() string {
	return fmt.Sprintf("PN5%02X v%d.%d", f.IC, f.Version, f.Revision)
}

// target is one InListPassiveTarget result
type target struct {
	UID  []byte
	ATQA [2]byte
	SAK  byte
}

// device serializes commands over a transport
type device struct {
	transport Transport
	mu        sync.Mutex
}

// command sends cmd and checks the response code
func (d *device) command(cmd byte, args []byte) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	resp, err := d.transport.SendCommand(cmd, args)
	if err != nil {
		return nil, fmt.Errorf("command 0x%02X: %w", cmd, err)
	}
	if len(resp) == 0 || resp[0] != cmd+1 {
		return nil, NewInvalidResponseError(fmt.Sprintf("command 0x%02X", cmd),
			fmt.Sprintf("unexpected response % X", resp))
	}
	return resp[1:], nil
}

func (d *device) firmwareVersion() (FirmwareVersion, error) {
	resp, err := d.command(cmdGetFirmwareVersion, nil)
	if err != nil {
		return FirmwareVersion{}, err
	}
	if len(resp) < 4 {
		return FirmwareVersion{}, NewInvalidResponseError("GetFirmwareVersion", "response too short")
	}
	return FirmwareVersion{IC: resp[0], Version: resp[1], Revision: resp[2], Support: resp[3]}, nil
}

// samConfiguration selects normal mode with a 1 s virtual card timeout and the
// IRQ pin in use
func (d *device) samConfiguration() error {
	_, err := d.command(cmdSamConfiguration, []byte{0x01, 0x14, 0x01})
	return err
}

// setPassiveRetries bounds how long InListPassiveTarget waits for a target
func (d *device) setPassiveRetries(retries byte) error {
	_, err := d.command(cmdRFConfiguration, []byte{rfItemMaxRetries, 0xFF, 0x01, retries})
	return err
}

func (d *device) setRFField(on bool) error {
	var flags byte
	if on {
		flags = 0x01
	}
	_, err := d.command(cmdRFConfiguration, []byte{rfItemField, flags})
	return err
}

// listPassiveTarget returns the first ISO14443A target, or nil when the field
// is empty
func (d *device) listPassiveTarget() (*target, error) {
	resp, err := d.command(cmdInListPassiveTarget, []byte{0x01, brTy106kbpsTypeA})
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, NewInvalidResponseError("InListPassiveTarget", "missing target count")
	}
	if resp[0] == 0 {
		return nil, nil
	}

	// Tg, ATQA(2), SAK, NFCIDLength, NFCID
	if len(resp) < 6 {
		return nil, NewInvalidResponseError("InListPassiveTarget", "target data too short")
	}
	uidLen := int(resp[5])
	if len(resp) < 6+uidLen {
		return nil, NewInvalidResponseError("InListPassiveTarget", "UID truncated")
	}
	return &target{
		ATQA: [2]byte{resp[2], resp[3]},
		SAK:  resp[4],
		UID:  append([]byte(nil), resp[6:6+uidLen]...),
	}, nil
}

// dataExchange sends data to the selected target and returns its answer
func (d *device) dataExchange(data []byte) ([]byte, error) {
	args := make([]byte, 0, len(data)+1)
	args = append(args, targetNumber)
	args = append(args, data...)

	resp, err := d.command(cmdInDataExchange, args)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, NewInvalidResponseError("InDataExchange", "missing status")
	}
	if status := resp[0] & 0x3F; status != 0 {
		return nil, &StatusError{Cmd: cmdInDataExchange, Status: status}
	}
	return resp[1:], nil
}

// communicateThru sends raw data to the target, bypassing the PN532 protocol
// handling, for commands like GET_VERSION
func (d *device) communicateThru(data []byte) ([]byte, error) {
	resp, err := d.command(cmdInCommunicateThru, data)
	if err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, NewInvalidResponseError("InCommunicateThru", "missing status")
	}
	if status := resp[0] & 0x3F; status != 0 {
		return nil, &StatusError{Cmd: cmdInCommunicateThru, Status: status}
	}
	return resp[1:], nil
}

func (d *device) release() error {
	_, err := d.command(cmdInRelease, []byte{targetNumber})
	return err
}
