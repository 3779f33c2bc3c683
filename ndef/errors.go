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

import "errors"

// Encode errors
var (
	ErrBufferTooSmall      = errors.New("ndef: buffer too small")
	ErrInvalidLanguageCode = errors.New("ndef: invalid language code")
	ErrInvalidText         = errors.New("ndef: text is not valid UTF-8")
	ErrInvalidCapacity     = errors.New("ndef: invalid capacity")
)

// Decode errors
var (
	ErrNotTextRecord  = errors.New("ndef: not a text record")
	ErrNotURIRecord   = errors.New("ndef: not a URI record")
	ErrNotMIMERecord  = errors.New("ndef: not a MIME record")
	ErrOutputTooSmall = errors.New("ndef: output too small")
	ErrMalformed      = errors.New("ndef: malformed record")
	ErrEmptyMessage   = errors.New("ndef: empty message")
)

// TLV errors
var (
	ErrNoTLV = errors.New("ndef: no NDEF message TLV found")
)
