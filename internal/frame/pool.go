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

package frame

import "sync"

const smallBufferSize = 16

var (
	framePool = sync.Pool{New: func() any {
		buf := make([]byte, MaxFrameLength)
		return &buf
	}}
	smallPool = sync.Pool{New: func() any {
		buf := make([]byte, smallBufferSize)
		return &buf
	}}
)

// GetBuffer returns a zeroed buffer of length size from the pool
func GetBuffer(size int) []byte {
	if size > MaxFrameLength {
		return make([]byte, size)
	}
	buf := *framePool.Get().(*[]byte)
	buf = buf[:size]
	clear(buf)
	return buf
}

// GetSmallBuffer returns a zeroed buffer for ACK and status reads
func GetSmallBuffer(size int) []byte {
	if size > smallBufferSize {
		return GetBuffer(size)
	}
	buf := *smallPool.Get().(*[]byte)
	buf = buf[:size]
	clear(buf)
	return buf
}

// PutBuffer returns a buffer obtained from GetBuffer or GetSmallBuffer
func PutBuffer(buf []byte) {
	switch cap(buf) {
	case MaxFrameLength:
		buf = buf[:cap(buf)]
		framePool.Put(&buf)
	case smallBufferSize:
		buf = buf[:cap(buf)]
		smallPool.Put(&buf)
	}
}
