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
	"unicode/utf8"

	gondef "github.com/hsanjuan/go-ndef"
	"golang.org/x/text/encoding/unicode"
)

const (
	// MaxLanguageCodeLength is the largest language code the status byte can describe.
	MaxLanguageCodeLength = 0x3F

	textRecordType = "T"

	statusUTF16      byte = 0x80
	statusLangLenMsk byte = 0x3F
)

// TextRecord is the decoded payload of a well-known text record.
type TextRecord struct {
	Language string
	Text     string
}

// EncodeText encodes a single text record into a new message of the given
// capacity.
func EncodeText(lang, text string, capacity int) (*Message, error) {
	m, err := NewMessage(capacity)
	if err != nil {
		return nil, err
	}
	if err := m.EncodeText(lang, text); err != nil {
		return nil, err
	}
	return m, nil
}

// EncodeText replaces the content of m with a single text record. On error m
// is left untouched.
func (m *Message) EncodeText(lang, text string) error {
	if err := validateLanguageCode(lang); err != nil {
		return err
	}
	if !utf8.ValidString(text) {
		return ErrInvalidText
	}

	data, err := gondef.NewTextMessage(text, lang).Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal text record: %w", err)
	}
	return m.Set(data)
}

func validateLanguageCode(lang string) error {
	if len(lang) > MaxLanguageCodeLength {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidLanguageCode, len(lang), MaxLanguageCodeLength)
	}
	for i := 0; i < len(lang); i++ {
		if c := lang[i]; c < 0x21 || c > 0x7E {
			return fmt.Errorf("%w: byte 0x%02X at %d is not printable ASCII", ErrInvalidLanguageCode, c, i)
		}
	}
	return nil
}

// DecodeText decodes the first record of m as a text record. The decoded
// UTF-8 text must fit in maxOutputLength bytes.
func DecodeText(m *Message, maxOutputLength int) (TextRecord, error) {
	r, _, err := parseRecord(m.Bytes())
	if err != nil {
		return TextRecord{}, err
	}
	if !r.isWellKnown(textRecordType) {
		return TextRecord{}, fmt.Errorf("%w: TNF %d type %q", ErrNotTextRecord, r.tnf, r.recordType)
	}
	return decodeTextPayload(r.payload, maxOutputLength)
}

func decodeTextPayload(payload []byte, maxOutputLength int) (TextRecord, error) {
	if len(payload) == 0 {
		return TextRecord{}, fmt.Errorf("%w: empty text payload", ErrMalformed)
	}

	status := payload[0]
	langLen := int(status & statusLangLenMsk)
	if langLen > len(payload)-1 {
		return TextRecord{}, fmt.Errorf("%w: language length %d exceeds remaining %d bytes",
			ErrMalformed, langLen, len(payload)-1)
	}

	lang := string(payload[1 : 1+langLen])
	raw := payload[1+langLen:]

	var text []byte
	if status&statusUTF16 != 0 {
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return TextRecord{}, fmt.Errorf("%w: invalid UTF-16 text: %w", ErrMalformed, err)
		}
		text = decoded
	} else {
		text = raw
	}

	if len(text) > maxOutputLength {
		return TextRecord{}, fmt.Errorf("%w: text is %d bytes, output holds %d",
			ErrOutputTooSmall, len(text), maxOutputLength)
	}

	return TextRecord{Language: lang, Text: string(text)}, nil
}
