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

package pn532

import (
	"errors"
	"fmt"

	nfc "github.com/ZaparooProject/go-nfc"
	"github.com/ZaparooProject/go-nfc/ndef"
)

// Type 2 tag commands and layout
const (
	t2CmdRead       = 0x30
	t2CmdWrite      = 0xA2
	t2CmdGetVersion = 0x60

	t2PageSize      = 4
	t2ReadSize      = 16
	t2CCPage        = 3
	t2UserStartPage = 4

	ccMagic   = 0xE1
	ccVersion = 0x10
)

// ccSizeByStorage maps the GET_VERSION storage size byte to the CC data area
// size byte (data area = size * 8)
var ccSizeByStorage = map[byte]byte{
	0x0B: 0x06, // MIFARE Ultralight EV1 / NTAG210
	0x0E: 0x10, // NTAG212
	0x0F: 0x12, // NTAG213
	0x11: 0x3E, // NTAG215
	0x13: 0x6D, // NTAG216
}

// capabilityContainer is the CC held in page 3
type capabilityContainer [4]byte

func (cc capabilityContainer) valid() bool {
	return cc[0] == ccMagic && cc[1]>>4 == ccVersion>>4
}

// dataAreaSize is the user memory size in bytes
func (cc capabilityContainer) dataAreaSize() int {
	return int(cc[2]) * 8
}

func (cc capabilityContainer) blank() bool {
	return cc == capabilityContainer{}
}

func (cc capabilityContainer) writable() bool {
	return cc[3]&0x0F == 0
}

// maxMessageLength is the longest message that fits the data area with its
// TLV framing
func (cc capabilityContainer) maxMessageLength() int {
	size := cc.dataAreaSize()
	if n := size - ndef.TLVOverhead(size-3); n > 0 {
		return n
	}
	return 0
}

// type2 runs NDEF operations on the selected Type 2 tag
type type2 struct {
	dev *device
}

func (t type2) readPages(page int) ([]byte, error) {
	data, err := t.dev.dataExchange([]byte{t2CmdRead, byte(page)})
	if err != nil {
		return nil, err
	}
	if len(data) < t2ReadSize {
		return nil, NewInvalidResponseError("READ", fmt.Sprintf("got %d bytes", len(data)))
	}
	return data[:t2ReadSize], nil
}

func (t type2) writePage(page int, data []byte) error {
	cmd := make([]byte, 0, 2+t2PageSize)
	cmd = append(cmd, t2CmdWrite, byte(page))
	cmd = append(cmd, data...)
	_, err := t.dev.dataExchange(cmd)
	return err
}

func (t type2) readCC() (capabilityContainer, error) {
	data, err := t.readPages(t2CCPage)
	if err != nil {
		return capabilityContainer{}, err
	}
	var cc capabilityContainer
	copy(cc[:], data[:t2PageSize])
	return cc, nil
}

// storageSize returns the GET_VERSION storage size byte
func (t type2) storageSize() (byte, error) {
	data, err := t.dev.communicateThru([]byte{t2CmdGetVersion})
	if err != nil {
		return 0, err
	}
	if len(data) < 8 {
		return 0, NewInvalidResponseError("GET_VERSION", fmt.Sprintf("got %d bytes", len(data)))
	}
	return data[6], nil
}

// locate reads user memory until the NDEF message TLV is complete
func (t type2) locate(cc capabilityContainer) (ndef.TLVLocation, []byte, error) {
	size := cc.dataAreaSize()
	mem := make([]byte, 0, size+t2ReadSize)

	for page := t2UserStartPage; len(mem) < size; page += t2ReadSize / t2PageSize {
		chunk, err := t.readPages(page)
		if err != nil {
			return ndef.TLVLocation{}, nil, err
		}
		mem = append(mem, chunk...)
		if len(mem) > size {
			mem = mem[:size]
		}

		loc, err := ndef.FindTLV(mem)
		if err == nil {
			return loc, mem, nil
		}
		if !errors.Is(err, ndef.ErrMalformed) && !errors.Is(err, ndef.ErrNoTLV) {
			return ndef.TLVLocation{}, nil, err
		}
		if len(mem) >= size {
			return ndef.TLVLocation{}, nil, err
		}
	}
	return ndef.TLVLocation{}, nil, ndef.ErrNoTLV
}

func (t type2) probe() (nfc.NdefInfo, error) {
	cc, err := t.readCC()
	if err != nil {
		return nfc.NdefInfo{}, err
	}
	if !cc.valid() {
		return nfc.NdefInfo{}, nil
	}

	loc, _, err := t.locate(cc)
	switch {
	case errors.Is(err, ndef.ErrNoTLV), errors.Is(err, ndef.ErrMalformed):
		return nfc.NdefInfo{MaxLength: cc.maxMessageLength(), Writable: cc.writable()}, nil
	case err != nil:
		return nfc.NdefInfo{}, err
	}

	return nfc.NdefInfo{
		IsNdef:        true,
		CurrentLength: loc.Length,
		MaxLength:     cc.maxMessageLength(),
		Writable:      cc.writable(),
	}, nil
}

func (t type2) read(buf []byte) (int, nfc.FriendlyType, error) {
	cc, err := t.readCC()
	if err != nil {
		return 0, nfc.FriendlyTypeOther, err
	}
	if !cc.valid() {
		return 0, nfc.FriendlyTypeOther, nfc.ErrNotNDEF
	}

	loc, mem, err := t.locate(cc)
	if err != nil {
		return 0, nfc.FriendlyTypeOther, fmt.Errorf("%w: %w", nfc.ErrNotNDEF, err)
	}
	msg := mem[loc.Offset : loc.Offset+loc.Length]
	return copy(buf, msg), ndef.Classify(msg), nil
}

// write stores msg in a message TLV starting at the first user page
func (t type2) write(msg []byte) error {
	cc, err := t.readCC()
	if err != nil {
		return err
	}
	if !cc.valid() {
		return nfc.ErrNotNDEF
	}
	if !cc.writable() {
		return ErrReadOnly
	}

	tlv := ndef.WrapTLV(msg)
	if len(tlv) > cc.dataAreaSize() {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrMessageTooLarge, len(msg), cc.maxMessageLength())
	}
	return t.writeUser(tlv)
}

func (t type2) writeUser(data []byte) error {
	if pad := len(data) % t2PageSize; pad != 0 {
		data = append(data, make([]byte, t2PageSize-pad)...)
	}
	for i := 0; i < len(data); i += t2PageSize {
		page := t2UserStartPage + i/t2PageSize
		if err := t.writePage(page, data[i:i+t2PageSize]); err != nil {
			return fmt.Errorf("write page %d: %w", page, err)
		}
	}
	return nil
}

// format writes a capability container when the tag has none, then an empty
// NDEF message
func (t type2) format() error {
	cc, err := t.readCC()
	if err != nil {
		return err
	}

	switch {
	case cc.valid():
		if !cc.writable() {
			return ErrReadOnly
		}
	case cc.blank():
		storage, err := t.storageSize()
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnsupportedTag, err)
		}
		size, ok := ccSizeByStorage[storage]
		if !ok {
			return fmt.Errorf("%w: storage size 0x%02X", ErrUnsupportedTag, storage)
		}
		if err := t.writePage(t2CCPage, []byte{ccMagic, ccVersion, size, 0x00}); err != nil {
			return fmt.Errorf("write capability container: %w", err)
		}
	default:
		// CC bits are one-time programmable
		return fmt.Errorf("%w: capability container % X", ErrUnsupportedTag, cc[:])
	}

	return t.writeUser([]byte{ndef.TLVMessage, 0x00, ndef.TLVTerminator})
}
