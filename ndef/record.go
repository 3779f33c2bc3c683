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

	gondef "github.com/hsanjuan/go-ndef"
)

// Type Name Format values
const (
	TNFEmpty       byte = 0x00
	TNFWellKnown   byte = 0x01
	TNFMedia       byte = 0x02
	TNFAbsoluteURI byte = 0x03
	TNFExternal    byte = 0x04
	TNFUnknown     byte = 0x05
	TNFUnchanged   byte = 0x06
)

// Record header flags
const (
	flagMB  byte = 0x80
	flagME  byte = 0x40
	flagCF  byte = 0x20
	flagSR  byte = 0x10
	flagIL  byte = 0x08
	tnfMask byte = 0x07
)

// record is one framed NDEF record. Payload aliases the parsed buffer.
type record struct {
	recordType []byte
	id         []byte
	payload    []byte
	tnf        byte
	mb         bool
	me         bool
}

// parseRecord reads the first record of data and returns it with the number
// of bytes consumed. Every length field is bounds checked before use.
func parseRecord(data []byte) (*record, int, error) {
	if len(data) == 0 {
		return nil, 0, ErrEmptyMessage
	}
	if len(data) < 3 {
		return nil, 0, fmt.Errorf("%w: %d byte header", ErrMalformed, len(data))
	}

	flags := data[0]
	if flags&flagCF != 0 {
		return nil, 0, fmt.Errorf("%w: chunked records are not supported", ErrMalformed)
	}
	r := &record{
		tnf: flags & tnfMask,
		mb:  flags&flagMB != 0,
		me:  flags&flagME != 0,
	}
	if r.tnf > TNFUnchanged {
		return nil, 0, fmt.Errorf("%w: reserved TNF %d", ErrMalformed, r.tnf)
	}

	typeLen := int(data[1])
	off := 2

	var payloadLen int
	if flags&flagSR != 0 {
		payloadLen = int(data[off])
		off++
	} else {
		if off+4 > len(data) {
			return nil, 0, fmt.Errorf("%w: truncated payload length", ErrMalformed)
		}
		payloadLen = int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
	}

	var idLen int
	if flags&flagIL != 0 {
		if off >= len(data) {
			return nil, 0, fmt.Errorf("%w: truncated ID length", ErrMalformed)
		}
		idLen = int(data[off])
		off++
	}

	if payloadLen < 0 || off+typeLen+idLen+payloadLen > len(data) {
		return nil, 0, fmt.Errorf("%w: record needs %d bytes, have %d",
			ErrMalformed, off+typeLen+idLen+payloadLen, len(data))
	}

	r.recordType = data[off : off+typeLen]
	off += typeLen
	r.id = data[off : off+idLen]
	off += idLen
	r.payload = data[off : off+payloadLen]
	off += payloadLen

	return r, off, nil
}

// isWellKnown reports whether r is a well-known record of type t.
func (r *record) isWellKnown(t string) bool {
	return r.tnf == TNFWellKnown && string(r.recordType) == t
}

// decodeRecord checks the framing of the first record of data and then
// hands exactly those bytes to go-ndef.
func decodeRecord(data []byte) (*record, *gondef.Record, error) {
	r, n, err := parseRecord(data)
	if err != nil {
		return nil, nil, err
	}
	rec := &gondef.Record{}
	if _, err := rec.Unmarshal(data[:n]); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return r, rec, nil
}
