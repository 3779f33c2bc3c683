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
	"github.com/hsanjuan/go-ndef/types/media"
)

// EncodeMIME encodes a single media-type record into a new message of the
// given capacity.
func EncodeMIME(mimeType string, payload []byte, capacity int) (*Message, error) {
	if mimeType == "" || len(mimeType) > 0xFF {
		return nil, fmt.Errorf("%w: media type length %d", ErrNotMIMERecord, len(mimeType))
	}
	m, err := NewMessage(capacity)
	if err != nil {
		return nil, err
	}

	data, err := gondef.NewMessageFromRecords(gondef.NewMediaRecord(mimeType, payload)).Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal media record: %w", err)
	}
	if err := m.Set(data); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeMIME returns the media type and a copy of the payload of the first
// record of m.
func DecodeMIME(m *Message) (string, []byte, error) {
	r, rec, err := decodeRecord(m.Bytes())
	if err != nil {
		return "", nil, err
	}
	if rec.TNF() != gondef.MediaType {
		return "", nil, fmt.Errorf("%w: TNF %d type %q", ErrNotMIMERecord, r.tnf, r.recordType)
	}
	payload, err := rec.Payload()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	mp, ok := payload.(*media.Payload)
	if !ok {
		return "", nil, fmt.Errorf("%w: payload type %T", ErrNotMIMERecord, payload)
	}
	return mp.MimeType, mp.Payload, nil
}
