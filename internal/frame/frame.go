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

import (
	"bytes"
	"errors"
)

// Frame errors. Transports translate these into their own error types.
var (
	ErrDataTooLarge     = errors.New("frame: data too large for normal frame")
	ErrNoStartCode      = errors.New("frame: start code not found")
	ErrIncomplete       = errors.New("frame: incomplete")
	ErrLengthChecksum   = errors.New("frame: length checksum mismatch")
	ErrDataChecksum     = errors.New("frame: data checksum mismatch")
	ErrApplicationError = errors.New("frame: PN532 reported an application error")
	ErrUnexpectedTFI    = errors.New("frame: unexpected frame identifier")
	ErrAckFrame         = errors.New("frame: ACK frame")
	ErrNackFrame        = errors.New("frame: NACK frame")
)

// AppendCommand appends a normal information frame carrying cmd and args to
// dst and returns the extended buffer.
func AppendCommand(dst []byte, cmd byte, args []byte) ([]byte, error) {
	dataLen := 2 + len(args)
	if dataLen > MaxNormalDataLength {
		return dst, ErrDataTooLarge
	}

	dst = append(dst, Preamble, StartCode1, StartCode2, byte(dataLen), CalculateLengthChecksum(byte(dataLen)))
	dst = append(dst, HostToPn532, cmd)
	dst = append(dst, args...)

	dcs := CalculateDataChecksum(HostToPn532, append([]byte{cmd}, args...))
	return append(dst, dcs, Postamble), nil
}

// IsAck reports whether buf starts with an ACK frame, ignoring leading zeros
func IsAck(buf []byte) bool {
	return bytes.HasPrefix(trimLeadingZeros(buf), AckFrame[1:])
}

// IsNack reports whether buf starts with a NACK frame
func IsNack(buf []byte) bool {
	return bytes.HasPrefix(trimLeadingZeros(buf), NackFrame[1:])
}

// trimLeadingZeros keeps one zero before the 0xFF of the start code
func trimLeadingZeros(buf []byte) []byte {
	i := 0
	for i < len(buf)-1 && buf[i] == 0x00 && buf[i+1] == 0x00 {
		i++
	}
	return buf[i:]
}

// Parse decodes the first information frame in buf.
//
// The returned payload starts at the response code, with the TFI stripped,
// and aliases buf. consumed is the number of bytes up to and including the
// postamble position. ErrIncomplete means more bytes are needed. ACK and
// NACK frames are reported as ErrAckFrame and ErrNackFrame with consumed set
// so the caller can skip them.
func Parse(buf []byte) (payload []byte, consumed int, err error) {
	start := bytes.Index(buf, []byte{StartCode1, StartCode2})
	if start < 0 {
		if len(buf) > 0 && buf[len(buf)-1] == StartCode1 {
			return nil, 0, ErrIncomplete
		}
		return nil, 0, ErrNoStartCode
	}

	off := start + 2
	if len(buf) < off+2 {
		return nil, 0, ErrIncomplete
	}

	length, lcs := buf[off], buf[off+1]
	switch {
	case length == 0x00 && lcs == 0xFF:
		return nil, min(off+3, len(buf)), ErrAckFrame
	case length == 0xFF && lcs == 0x00:
		return nil, min(off+3, len(buf)), ErrNackFrame
	case length+lcs != 0:
		return nil, off + 2, ErrLengthChecksum
	}

	body := off + 2
	end := body + int(length) + 1 // includes DCS
	if len(buf) < end {
		return nil, 0, ErrIncomplete
	}

	consumed = end + 1
	if consumed > len(buf) {
		consumed = len(buf)
	}

	if ValidateChecksum(buf[body:end]) {
		return nil, consumed, ErrDataChecksum
	}

	switch buf[body] {
	case Pn532ToHost:
		return buf[body+1 : end-1], consumed, nil
	case ErrorTFI:
		return nil, consumed, ErrApplicationError
	default:
		return nil, consumed, ErrUnexpectedTFI
	}
}
