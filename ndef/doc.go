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

// Package ndef encodes and decodes NFC Data Exchange Format messages held in
// fixed-capacity buffers.
//
// Text records are framed by hand so the encoder can guarantee that a failed
// encode never writes into the destination. URI and media records are built
// with github.com/hsanjuan/go-ndef. The package also carries the Type 2 tag
// TLV helpers used to place a message in tag memory.
//
// Basic usage:
//
//	msg, err := ndef.EncodeText("en", "Hello", 100)
//	if err != nil {
//		return err
//	}
//	rec, err := ndef.DecodeText(msg, 100)
//
// All functions are stateless and safe for concurrent use. A *Message is not
// synchronized and must not be mutated from two goroutines at once.
package ndef
