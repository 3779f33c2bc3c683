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

package libnfcnci

import (
	"sync"

	nfc "github.com/ZaparooProject/go-nfc"
)

// fakeNative stands in for the native library. Return codes are set per
// test; tag content is a single in-memory message.
type fakeNative struct {
	mu    sync.Mutex
	calls []string

	initRC, deinitRC int
	ndefRC           int
	formatRC         int
	writeRC          int
	readRC           int // used instead of the message length when non-zero
	friendly         int
	info             nfc.NdefInfo
	message          []byte
	active           bool
	// silent keeps isActive false after enableDiscovery
	silent bool

	discoveryArgs [4]int
	// onEnable runs after enableDiscovery, like a tag already in the field
	onEnable func()
}

func (f *fakeNative) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeNative) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeNative) initialize() int {
	f.record("initialize")
	return f.initRC
}

func (f *fakeNative) deinitialize() int {
	f.record("deinitialize")
	return f.deinitRC
}

func (f *fakeNative) registerCallbacks() { f.record("registerCallbacks") }

func (f *fakeNative) enableDiscovery(mask, mode, hostRouting, restart int) {
	f.record("enableDiscovery")
	f.mu.Lock()
	f.discoveryArgs = [4]int{mask, mode, hostRouting, restart}
	f.active = !f.silent
	hook := f.onEnable
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func (f *fakeNative) disableDiscovery() {
	f.record("disableDiscovery")
	f.mu.Lock()
	f.active = false
	f.mu.Unlock()
}

func (f *fakeNative) isActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeNative) isNdef(uint32) (int, nfc.NdefInfo) {
	f.record("isNdef")
	f.mu.Lock()
	defer f.mu.Unlock()
	info := f.info
	info.CurrentLength = len(f.message)
	return f.ndefRC, info
}

func (f *fakeNative) formatTag(uint32) int {
	f.record("formatTag")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.formatRC == 0 {
		f.ndefRC = 1
		f.message = nil
	}
	return f.formatRC
}

func (f *fakeNative) readNdef(_ uint32, buf []byte) (int, int) {
	f.record("readNdef")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readRC != 0 {
		return f.readRC, f.friendly
	}
	return copy(buf, f.message), f.friendly
}

func (f *fakeNative) writeNdef(_ uint32, msg []byte) int {
	f.record("writeNdef")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeRC == 0 {
		f.message = append([]byte(nil), msg...)
	}
	return f.writeRC
}
