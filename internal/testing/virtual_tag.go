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

// Package testing provides simulated PN532 hardware for unit tests
package testing

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/ZaparooProject/go-nfc/ndef"
)

// Type 2 tag geometry
const (
	PageSize      = 4
	ReadPageCount = 4
	UserStartPage = 4
	ccPage        = 3
)

// NTAG variants the virtual tag can emulate
const (
	TypeNTAG213 = "NTAG213"
	TypeNTAG215 = "NTAG215"
	TypeNTAG216 = "NTAG216"
)

var (
	errTagAbsent    = errors.New("virtual tag: not present")
	errPageRange    = errors.New("virtual tag: page out of range")
	errPageReadOnly = errors.New("virtual tag: page is read-only")
)

type ntagLayout struct {
	totalPages  int
	userEnd     int // first page after user memory
	ccSize      byte
	storageSize byte
}

var layouts = map[string]ntagLayout{
	TypeNTAG213: {totalPages: 45, userEnd: 40, ccSize: 0x12, storageSize: 0x0F},
	TypeNTAG215: {totalPages: 135, userEnd: 130, ccSize: 0x3E, storageSize: 0x11},
	TypeNTAG216: {totalPages: 231, userEnd: 226, ccSize: 0x6D, storageSize: 0x13},
}

// VirtualTag is a simulated NTAG21x with page based memory. It is safe for
// concurrent use.
type VirtualTag struct {
	Type   string
	UID    []byte
	memory []byte
	layout ntagLayout

	mu       sync.Mutex
	present  bool
	readOnly bool
}

// NewVirtualNTAG213 creates a factory formatted NTAG213 holding an empty
// NDEF message
func NewVirtualNTAG213(uid []byte) *VirtualTag {
	return NewVirtualNTAG(TypeNTAG213, uid, true)
}

// NewBlankNTAG213 creates an NTAG213 with no capability container
func NewBlankNTAG213(uid []byte) *VirtualTag {
	return NewVirtualNTAG(TypeNTAG213, uid, false)
}

// NewVirtualNTAG creates a tag of the given variant. Unknown variants fall
// back to NTAG213.
func NewVirtualNTAG(tagType string, uid []byte, formatted bool) *VirtualTag {
	layout, ok := layouts[tagType]
	if !ok {
		tagType = TypeNTAG213
		layout = layouts[tagType]
	}
	if uid == nil {
		uid = TestNTAG213UID
	}

	tag := &VirtualTag{
		Type:    tagType,
		UID:     append([]byte(nil), uid...),
		memory:  make([]byte, layout.totalPages*PageSize),
		layout:  layout,
		present: true,
	}
	copy(tag.memory, uid)

	if formatted {
		copy(tag.memory[ccPage*PageSize:], []byte{0xE1, 0x10, layout.ccSize, 0x00})
		copy(tag.memory[UserStartPage*PageSize:], []byte{ndef.TLVMessage, 0x00, ndef.TLVTerminator})
	}
	return tag
}

// GetUIDString returns the UID as a hex string
func (v *VirtualTag) GetUIDString() string {
	return hex.EncodeToString(v.UID)
}

// UserPages returns the number of user memory pages
func (v *VirtualTag) UserPages() int {
	return v.layout.userEnd - UserStartPage
}

// ReadPages returns the 16 bytes starting at page, rolling over to page 0
// past the end of memory the way NTAG READ does.
func (v *VirtualTag) ReadPages(page int) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.present {
		return nil, errTagAbsent
	}
	if page < 0 || page >= v.layout.totalPages {
		return nil, fmt.Errorf("%w: %d", errPageRange, page)
	}

	out := make([]byte, 0, ReadPageCount*PageSize)
	for i := range ReadPageCount {
		p := (page + i) % v.layout.totalPages
		out = append(out, v.memory[p*PageSize:(p+1)*PageSize]...)
	}
	return out, nil
}

// WritePage writes one page. The capability container page is one-time
// programmable, so written bits are ORed in.
func (v *VirtualTag) WritePage(page int, data []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.present {
		return errTagAbsent
	}
	if len(data) != PageSize {
		return fmt.Errorf("virtual tag: page write needs %d bytes, got %d", PageSize, len(data))
	}
	if page < 2 || page >= v.layout.userEnd {
		return fmt.Errorf("%w: %d", errPageRange, page)
	}
	if v.readOnly && page >= ccPage {
		return fmt.Errorf("%w: %d", errPageReadOnly, page)
	}

	dst := v.memory[page*PageSize : (page+1)*PageSize]
	if page == ccPage {
		for i := range dst {
			dst[i] |= data[i]
		}
		return nil
	}
	copy(dst, data)
	return nil
}

// GetVersion returns the NTAG GET_VERSION response
func (v *VirtualTag) GetVersion() []byte {
	return []byte{0x00, 0x04, 0x04, 0x02, 0x01, 0x00, v.layout.storageSize, 0x03}
}

// SetNDEF stores msg in an NDEF message TLV in user memory
func (v *VirtualTag) SetNDEF(msg []byte) error {
	tlv := ndef.WrapTLV(msg)

	v.mu.Lock()
	defer v.mu.Unlock()

	user := v.memory[UserStartPage*PageSize : v.layout.userEnd*PageSize]
	if len(tlv) > len(user) {
		return fmt.Errorf("virtual tag: %d byte message does not fit %s", len(msg), v.Type)
	}
	clear(user)
	copy(user, tlv)
	return nil
}

// SetNDEFText stores a single text record
func (v *VirtualTag) SetNDEFText(lang, text string) error {
	msg, err := ndef.EncodeText(lang, text, v.UserPages()*PageSize)
	if err != nil {
		return fmt.Errorf("virtual tag: %w", err)
	}
	return v.SetNDEF(msg.Bytes())
}

// NDEF returns the stored NDEF message
func (v *VirtualTag) NDEF() ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	msg, err := ndef.UnwrapTLV(v.memory[UserStartPage*PageSize : v.layout.userEnd*PageSize])
	if err != nil {
		return nil, fmt.Errorf("virtual tag: %w", err)
	}
	return append([]byte(nil), msg...), nil
}

// CapabilityContainer returns the four CC bytes
func (v *VirtualTag) CapabilityContainer() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]byte(nil), v.memory[ccPage*PageSize:(ccPage+1)*PageSize]...)
}

// SetReadOnly write protects user memory and sets the CC access byte
func (v *VirtualTag) SetReadOnly(readOnly bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.readOnly = readOnly
	if readOnly {
		v.memory[ccPage*PageSize+3] = 0x0F
	} else {
		v.memory[ccPage*PageSize+3] = 0x00
	}
}

// Present reports whether the tag is in the field
func (v *VirtualTag) Present() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.present
}

// Remove takes the tag out of the field
func (v *VirtualTag) Remove() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = false
}

// Insert puts the tag back into the field
func (v *VirtualTag) Insert() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.present = true
}
