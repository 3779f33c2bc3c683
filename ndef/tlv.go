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

package ndef

import (
	"encoding/binary"
	"fmt"
)

// Type 2 tag TLV block types
const (
	TLVNull          byte = 0x00
	TLVLockControl   byte = 0x01
	TLVMemoryControl byte = 0x02
	TLVMessage       byte = 0x03
	TLVTerminator    byte = 0xFE

	tlvLongLength byte = 0xFF
)

// TLVLocation locates an NDEF message TLV inside tag memory.
type TLVLocation struct {
	// Start is the offset of the TLV type byte.
	Start int
	// Offset is the offset of the first message byte.
	Offset int
	// Length is the message length in bytes.
	Length int
}

// TLVOverhead returns the bytes a message of length n needs around it:
// type, length field and terminator.
func TLVOverhead(n int) int {
	if n < int(tlvLongLength) {
		return 3
	}
	return 5
}

// WrapTLV wraps msg in an NDEF message TLV followed by a terminator TLV.
func WrapTLV(msg []byte) []byte {
	out := make([]byte, 0, len(msg)+TLVOverhead(len(msg)))
	out = append(out, TLVMessage)
	if len(msg) < int(tlvLongLength) {
		out = append(out, byte(len(msg)))
	} else {
		//nolint:gosec // Type 2 tag memory is far below 64 KiB
		out = append(out, tlvLongLength, byte(len(msg)>>8), byte(len(msg)))
	}
	out = append(out, msg...)
	return append(out, TLVTerminator)
}

// FindTLV scans tag user memory for the first NDEF message TLV, skipping
// NULL, lock control, memory control and proprietary TLVs.
func FindTLV(data []byte) (TLVLocation, error) {
	off := 0
	for off < len(data) {
		switch t := data[off]; t {
		case TLVNull:
			off++
			continue
		case TLVTerminator:
			return TLVLocation{}, ErrNoTLV
		}

		length, header, err := tlvLength(data, off)
		if err != nil {
			return TLVLocation{}, err
		}
		if data[off] == TLVMessage {
			loc := TLVLocation{Start: off, Offset: off + header, Length: length}
			if loc.Offset+loc.Length > len(data) {
				return TLVLocation{}, fmt.Errorf("%w: message TLV length %d exceeds %d available bytes",
					ErrMalformed, loc.Length, len(data)-loc.Offset)
			}
			return loc, nil
		}
		off += header + length
	}
	return TLVLocation{}, ErrNoTLV
}

// UnwrapTLV returns the NDEF message held in tag user memory.
func UnwrapTLV(data []byte) ([]byte, error) {
	loc, err := FindTLV(data)
	if err != nil {
		return nil, err
	}
	return data[loc.Offset : loc.Offset+loc.Length], nil
}

// tlvLength decodes the length field of the TLV at off and returns the value
// length plus the header size.
func tlvLength(data []byte, off int) (length, header int, err error) {
	if off+1 >= len(data) {
		return 0, 0, fmt.Errorf("%w: TLV at %d has no length", ErrMalformed, off)
	}
	if data[off+1] != tlvLongLength {
		return int(data[off+1]), 2, nil
	}
	if off+3 >= len(data) {
		return 0, 0, fmt.Errorf("%w: TLV at %d has a truncated long length", ErrMalformed, off)
	}
	return int(binary.BigEndian.Uint16(data[off+2 : off+4])), 4, nil
}
