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

package nfc

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-nfc/ndef"
)

// Controller is the capability contract of a native NFC controller stack.
//
// Implementations deliver tag callbacks on a goroutine they own. Callers hold
// one Controller per physical reader and normally reach it only through a
// Manager, which enforces the lifecycle ordering.
type Controller interface {
	// Initialize powers up the controller. Calling it twice without a
	// Deinitialize in between fails with ErrAlreadyInitialized.
	Initialize() error

	// Deinitialize releases all native resources. Repeated calls are no-ops.
	Deinitialize() error

	// RegisterTagCallback installs the arrival and departure callbacks.
	RegisterTagCallback(cb TagCallback)

	// EnableDiscovery starts polling for tags. Requires Initialize.
	EnableDiscovery(cfg DiscoveryConfig) error

	// DisableDiscovery stops polling for tags.
	DisableDiscovery() error

	// IsActive reports whether the controller is powered and discovering.
	IsActive() bool

	// IsNdef probes the tag for NDEF formatting and the stored message length.
	IsNdef(h TagHandle) (NdefInfo, error)

	// FormatTag prepares the tag to hold an NDEF message.
	FormatTag(h TagHandle) error

	// ReadNdef reads the stored NDEF message into buf, reading at most
	// len(buf) bytes, and returns the number of bytes read.
	ReadNdef(h TagHandle, buf []byte) (int, FriendlyType, error)

	// WriteNdef replaces the stored NDEF message.
	WriteNdef(h TagHandle, msg []byte) error
}

// TagCallback holds the functions a Controller invokes on tag events. They run
// on the controller's own goroutine and must return promptly.
type TagCallback struct {
	OnArrival   func(TagInfo)
	OnDeparture func(TagHandle)
}

// TagHandle identifies a tag while it stays in the field
type TagHandle uint32

// MaxUIDLength is the longest UID kept in a TagInfo
const MaxUIDLength = 10

// TagInfo is an immutable snapshot of a tag taken when it arrived
type TagInfo struct {
	DetectedAt time.Time
	uid        []byte
	Technology Technology
	Handle     TagHandle
}

// NewTagInfo copies uid into a new snapshot. UIDs longer than MaxUIDLength are
// truncated.
func NewTagInfo(h TagHandle, tech Technology, uid []byte) TagInfo {
	if len(uid) > MaxUIDLength {
		uid = uid[:MaxUIDLength]
	}
	cp := make([]byte, len(uid))
	copy(cp, uid)
	return TagInfo{
		Handle:     h,
		Technology: tech,
		uid:        cp,
		DetectedAt: time.Now(),
	}
}

// UID returns a copy of the tag UID
func (t TagInfo) UID() []byte {
	cp := make([]byte, len(t.uid))
	copy(cp, t.uid)
	return cp
}

// UIDString returns the UID as a lowercase hex string
func (t TagInfo) UIDString() string {
	return hex.EncodeToString(t.uid)
}

// String implements fmt.Stringer
func (t TagInfo) String() string {
	return fmt.Sprintf("tag %s (%s, handle %d)", t.UIDString(), t.Technology, t.Handle)
}

// NdefInfo describes the NDEF state of a tag. It is stale after any write.
type NdefInfo struct {
	CurrentLength int
	MaxLength     int
	IsNdef        bool
	Writable      bool
}

// FriendlyType classifies NDEF content returned by a read
type FriendlyType = ndef.FriendlyType

// Friendly type values, re-exported from the ndef package
const (
	FriendlyTypeOther           = ndef.FriendlyTypeOther
	FriendlyTypeURL             = ndef.FriendlyTypeURL
	FriendlyTypeHandoverSelect  = ndef.FriendlyTypeHandoverSelect
	FriendlyTypeHandoverRequest = ndef.FriendlyTypeHandoverRequest
	FriendlyTypeText            = ndef.FriendlyTypeText
)
