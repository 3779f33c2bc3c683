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
	"fmt"

	gondef "github.com/hsanjuan/go-ndef"
	"github.com/hsanjuan/go-ndef/types/wkt/uri"
)

const uriRecordType = "U"

// EncodeURI encodes a single URI record into a new message of the given
// capacity.
func EncodeURI(value string, capacity int) (*Message, error) {
	m, err := NewMessage(capacity)
	if err != nil {
		return nil, err
	}

	data, err := gondef.NewMessageFromRecords(gondef.NewURIRecord(value)).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal URI record: %w", err)
	}
	if err := m.Set(data); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeURI returns the URI carried by the first record of m. Both well-known
// URI records and absolute-URI records are accepted.
func DecodeURI(m *Message) (string, error) {
	r, rec, err := decodeRecord(m.Bytes())
	if err != nil {
		return "", err
	}

	switch {
	case r.isWellKnown(uriRecordType):
		if len(r.payload) == 0 {
			return "", fmt.Errorf("%w: empty URI payload", ErrMalformed)
		}
		if _, ok := uri.URIProtocols[r.payload[0]]; !ok {
			return "", fmt.Errorf("%w: reserved URI identifier code 0x%02X", ErrMalformed, r.payload[0])
		}
		payload, err := rec.Payload()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		return payload.String(), nil
	case rec.TNF() == gondef.AbsoluteURI:
		return rec.Type(), nil
	default:
		return "", fmt.Errorf("%w: TNF %d type %q", ErrNotURIRecord, r.tnf, r.recordType)
	}
}
