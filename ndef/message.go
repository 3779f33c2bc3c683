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

import "fmt"

// Message is an encoded NDEF message held in a fixed-capacity buffer.
//
// The occupied length never exceeds the capacity. Operations that would
// overflow the buffer fail and leave the message unchanged.
type Message struct {
	buf    []byte
	length int
}

// NewMessage allocates an empty message with the given capacity.
func NewMessage(capacity int) (*Message, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}
	return &Message{buf: make([]byte, capacity)}, nil
}

// MessageFromBytes wraps a copy of data. Capacity and length both equal len(data).
func MessageFromBytes(data []byte) *Message {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Message{buf: buf, length: len(buf)}
}

// Bytes returns the occupied part of the buffer. The slice aliases the
// message and is only valid until the next mutation.
func (m *Message) Bytes() []byte {
	return m.buf[:m.length]
}

// Len returns the occupied length in bytes.
func (m *Message) Len() int {
	return m.length
}

// Cap returns the declared capacity in bytes.
func (m *Message) Cap() int {
	return len(m.buf)
}

// Buffer exposes the full-capacity backing buffer, for reads that fill it in
// place. Call SetLen afterwards to record how much was written.
func (m *Message) Buffer() []byte {
	return m.buf
}

// SetLen records the occupied length after an in-place fill.
func (m *Message) SetLen(n int) error {
	if n < 0 || n > len(m.buf) {
		return fmt.Errorf("%w: length %d, capacity %d", ErrBufferTooSmall, n, len(m.buf))
	}
	m.length = n
	return nil
}

// Set replaces the message content with a copy of data.
func (m *Message) Set(data []byte) error {
	if len(data) > len(m.buf) {
		return fmt.Errorf("%w: need %d bytes, capacity %d", ErrBufferTooSmall, len(data), len(m.buf))
	}
	copy(m.buf, data)
	if m.length > len(data) {
		clear(m.buf[len(data):m.length])
	}
	m.length = len(data)
	return nil
}

// Reset empties the message without changing its capacity.
func (m *Message) Reset() {
	clear(m.buf[:m.length])
	m.length = 0
}

// String implements fmt.Stringer
func (m *Message) String() string {
	return fmt.Sprintf("ndef.Message{len=%d cap=%d % X}", m.length, len(m.buf), m.Bytes())
}
