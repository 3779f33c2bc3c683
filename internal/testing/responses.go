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

// Command codes understood by VirtualPN532
const (
	CmdGetFirmwareVersion  = 0x02
	CmdSAMConfiguration    = 0x14
	CmdRFConfiguration     = 0x32
	CmdInDataExchange      = 0x40
	CmdInCommunicateThru   = 0x42
	CmdInDeselect          = 0x44
	CmdInListPassiveTarget = 0x4A
	CmdInRelease           = 0x52
)

// Type 2 tag commands carried by InDataExchange and InCommunicateThru
const (
	TagCmdGetVersion = 0x60
	TagCmdRead       = 0x30
	TagCmdWrite      = 0xA2
)

// InDataExchange status bytes
const (
	StatusOK            = 0x00
	StatusTimeout       = 0x01
	StatusInvalidParam  = 0x27
	StatusTargetRelease = 0x29
)

// Common UIDs for testing
var (
	// TestNTAG213UID is a sample NTAG213 UID
	TestNTAG213UID = []byte{0x04, 0xAB, 0xCD, 0xEF, 0x12, 0x34, 0x56}
	// TestNTAG215UID is a sample NTAG215 UID
	TestNTAG215UID = []byte{0x04, 0x5E, 0x21, 0x9A, 0xC2, 0x6B, 0x80}
)

// BuildFirmwareVersionResponse creates a GetFirmwareVersion response:
// IC, Ver, Rev, Support
func BuildFirmwareVersionResponse() []byte {
	return []byte{0x03, 0x32, 0x01, 0x06, 0x07}
}

// BuildSAMConfigurationResponse creates a SAMConfiguration response
func BuildSAMConfigurationResponse() []byte {
	return []byte{0x15}
}

// BuildTagDetectionResponse creates an InListPassiveTarget response for one
// NTAG target
func BuildTagDetectionResponse(uid []byte) []byte {
	response := []byte{0x4B, 0x01, 0x01}
	// ATQA, SAK, UID length and UID
	response = append(response, 0x00, 0x44, 0x00, byte(len(uid)))
	return append(response, uid...)
}

// BuildNoTagResponse creates an empty InListPassiveTarget response
func BuildNoTagResponse() []byte {
	return []byte{0x4B, 0x00}
}

// BuildDataExchangeResponse creates a successful InDataExchange response
func BuildDataExchangeResponse(data []byte) []byte {
	return append([]byte{0x41, StatusOK}, data...)
}

// BuildErrorResponse creates a status-only response for cmd
func BuildErrorResponse(cmd, status byte) []byte {
	return []byte{cmd + 1, status}
}
