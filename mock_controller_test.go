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
	"sync"

	"github.com/ZaparooProject/go-nfc/ndef"
)

type mockTag struct {
	data     []byte
	maxLen   int
	ndef     bool
	readOnly bool
}

// mockController is an in-memory Controller that records every call
type mockController struct {
	tags map[TagHandle]*mockTag
	cb   TagCallback

	initErr    error
	enableErr  error
	disableErr error
	deinitErr  error
	// ioErrs are returned, in order, by the next tag I/O calls
	ioErrs []error

	calls []string
	mu    sync.Mutex

	inactive    bool
	initialized bool
	discovering bool
}

func newMockController() *mockController {
	return &mockController{tags: make(map[TagHandle]*mockTag)}
}

func (c *mockController) record(call string) {
	c.calls = append(c.calls, call)
}

func (c *mockController) count(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, got := range c.calls {
		if got == call {
			n++
		}
	}
	return n
}

func (c *mockController) callLog() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *mockController) addTag(h TagHandle, tag *mockTag) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[h] = tag
}

func (c *mockController) tagData(h TagHandle) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.tags[h].data...)
}

func (c *mockController) failNextIO(errs ...error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ioErrs = append(c.ioErrs, errs...)
}

func (c *mockController) nextIOErr() error {
	if len(c.ioErrs) == 0 {
		return nil
	}
	err := c.ioErrs[0]
	c.ioErrs = c.ioErrs[1:]
	return err
}

// arrive fires the arrival callback the way a native stack would
func (c *mockController) arrive(h TagHandle, uid ...byte) TagInfo {
	info := NewTagInfo(h, TechnologyMifareUltralight, uid)
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb.OnArrival != nil {
		cb.OnArrival(info)
	}
	return info
}

func (c *mockController) depart(h TagHandle) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb.OnDeparture != nil {
		cb.OnDeparture(h)
	}
}

func (c *mockController) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Initialize")
	if c.initErr != nil {
		return c.initErr
	}
	if c.initialized {
		return ErrAlreadyInitialized
	}
	c.initialized = true
	return nil
}

func (c *mockController) Deinitialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("Deinitialize")
	c.initialized = false
	c.discovering = false
	return c.deinitErr
}

func (c *mockController) RegisterTagCallback(cb TagCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("RegisterTagCallback")
	c.cb = cb
}

func (c *mockController) EnableDiscovery(DiscoveryConfig) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("EnableDiscovery")
	if c.enableErr != nil {
		return c.enableErr
	}
	if !c.initialized {
		return ErrNotInitialized
	}
	c.discovering = true
	return nil
}

func (c *mockController) DisableDiscovery() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("DisableDiscovery")
	c.discovering = false
	return c.disableErr
}

func (c *mockController) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized && c.discovering && !c.inactive
}

func (c *mockController) IsNdef(h TagHandle) (NdefInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("IsNdef")
	if err := c.nextIOErr(); err != nil {
		return NdefInfo{}, err
	}
	tag, ok := c.tags[h]
	if !ok {
		return NdefInfo{}, ErrTagGone
	}
	if !tag.ndef {
		return NdefInfo{}, nil
	}
	return NdefInfo{
		IsNdef:        true,
		CurrentLength: len(tag.data),
		MaxLength:     tag.maxLen,
		Writable:      !tag.readOnly,
	}, nil
}

func (c *mockController) FormatTag(h TagHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("FormatTag")
	if err := c.nextIOErr(); err != nil {
		return err
	}
	tag, ok := c.tags[h]
	if !ok {
		return ErrTagGone
	}
	tag.ndef = true
	tag.data = nil
	return nil
}

func (c *mockController) ReadNdef(h TagHandle, buf []byte) (int, FriendlyType, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("ReadNdef")
	if err := c.nextIOErr(); err != nil {
		return 0, FriendlyTypeOther, err
	}
	tag, ok := c.tags[h]
	if !ok {
		return 0, FriendlyTypeOther, ErrTagGone
	}
	if !tag.ndef {
		return 0, FriendlyTypeOther, ErrNotNDEF
	}
	n := copy(buf, tag.data)
	return n, ndef.Classify(tag.data), nil
}

func (c *mockController) WriteNdef(h TagHandle, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record("WriteNdef")
	if err := c.nextIOErr(); err != nil {
		return err
	}
	tag, ok := c.tags[h]
	if !ok {
		return ErrTagGone
	}
	if !tag.ndef {
		return ErrNotNDEF
	}
	if tag.readOnly {
		return ErrIO
	}
	tag.data = append([]byte(nil), msg...)
	return nil
}
