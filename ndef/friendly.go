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
	gondef "github.com/hsanjuan/go-ndef"
)

// FriendlyType classifies the content of an NDEF message the way the native
// NFC stack reports it on read. Values match the native enum.
type FriendlyType int

const (
	FriendlyTypeOther FriendlyType = iota
	FriendlyTypeURL
	FriendlyTypeHandoverSelect
	FriendlyTypeHandoverRequest
	FriendlyTypeText
)

// String returns the friendly type name
func (f FriendlyType) String() string {
	switch f {
	case FriendlyTypeOther:
		return "other"
	case FriendlyTypeURL:
		return "url"
	case FriendlyTypeHandoverSelect:
		return "handover-select"
	case FriendlyTypeHandoverRequest:
		return "handover-request"
	case FriendlyTypeText:
		return "text"
	default:
		return "unknown"
	}
}

// Classify returns the friendly type of the first record in data. Anything
// that does not parse as NDEF is FriendlyTypeOther.
func Classify(data []byte) FriendlyType {
	r, _, err := parseRecord(data)
	if err != nil {
		return FriendlyTypeOther
	}
	return classifyRecord(r.tnf, string(r.recordType))
}

func classifyRecord(tnf byte, recordType string) FriendlyType {
	switch tnf {
	case gondef.NFCForumWellKnownType:
		switch recordType {
		case textRecordType:
			return FriendlyTypeText
		case uriRecordType:
			return FriendlyTypeURL
		case "Hs":
			return FriendlyTypeHandoverSelect
		case "Hr":
			return FriendlyTypeHandoverRequest
		}
	case gondef.AbsoluteURI:
		return FriendlyTypeURL
	}
	return FriendlyTypeOther
}
