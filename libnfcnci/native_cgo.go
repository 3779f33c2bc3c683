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

//go:build linux && cgo && libnfcnci

package libnfcnci

/*
#cgo LDFLAGS: -lnfc_nci_linux
#include <stdlib.h>
#include <linux_nfc_api.h>

void registerTagCallbacks(void);
*/
import "C"

import (
	"unsafe"

	nfc "github.com/ZaparooProject/go-nfc"
)

type cgoNative struct{}

func openNative() (native, error) {
	return cgoNative{}, nil
}

func (cgoNative) initialize() int {
	return int(C.nfcManager_doInitialize())
}

func (cgoNative) deinitialize() int {
	return int(C.nfcManager_doDeinitialize())
}

func (cgoNative) registerCallbacks() {
	C.registerTagCallbacks()
}

func (cgoNative) enableDiscovery(mask, mode, hostRouting, restart int) {
	C.nfcManager_enableDiscovery(C.int(mask), C.int(mode), C.int(hostRouting), C.int(restart))
}

func (cgoNative) disableDiscovery() {
	C.nfcManager_disableDiscovery()
}

func (cgoNative) isActive() bool {
	return C.nfcManager_isNfcActive() == 1
}

func (cgoNative) isNdef(h uint32) (int, nfc.NdefInfo) {
	var info C.ndef_info_t
	rc := C.nfcTag_isNdef(C.uint(h), &info)
	return int(rc), nfc.NdefInfo{
		CurrentLength: int(info.current_ndef_length),
		MaxLength:     int(info.max_ndef_length),
		Writable:      info.is_writable != 0,
	}
}

func (cgoNative) formatTag(h uint32) int {
	return int(C.nfcTag_formatTag(C.uint(h)))
}

func (cgoNative) readNdef(h uint32, buf []byte) (int, int) {
	if len(buf) == 0 {
		return 0, int(nfc.FriendlyTypeOther)
	}
	var friendly C.nfc_friendly_type_t
	n := C.nfcTag_readNdef(C.uint(h), (*C.uchar)(unsafe.Pointer(&buf[0])), C.uint(len(buf)), &friendly)
	return int(n), int(friendly)
}

func (cgoNative) writeNdef(h uint32, msg []byte) int {
	var p *C.uchar
	if len(msg) > 0 {
		p = (*C.uchar)(unsafe.Pointer(&msg[0]))
	}
	return int(C.nfcTag_writeNdef(C.uint(h), p, C.uint(len(msg))))
}

//export goTagArrival
func goTagArrival(info *C.nfc_tag_info_t) {
	c := active.Load()
	if c == nil || info == nil {
		return
	}
	n := min(int(info.uid_length), len(info.uid))
	uid := C.GoBytes(unsafe.Pointer(&info.uid[0]), C.int(n))
	c.handleArrival(nfc.NewTagInfo(nfc.TagHandle(info.handle), technology(int(info.technology)), uid))
}

//export goTagDeparture
func goTagDeparture() {
	if c := active.Load(); c != nil {
		c.handleDeparture()
	}
}
