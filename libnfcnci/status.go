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
	"errors"
	"fmt"

	nfc "github.com/ZaparooProject/go-nfc"
)

// ErrUnavailable is returned by New when the package was built without the
// native binding.
var ErrUnavailable = errors.New("libnfc-nci support not compiled in (build with -tags libnfcnci)")

// ResultError is a non-zero result code from a native call
type ResultError struct {
	Call string
	Code int
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("%s returned %d", e.Call, e.Code)
}

// Unwrap maps every native failure to nfc.ErrIO. The library does not tell
// timeouts from other transceive failures.
func (*ResultError) Unwrap() error {
	return nfc.ErrIO
}

// checkResult converts a native return code, where zero means success
func checkResult(call string, rc int) error {
	if rc == 0 {
		return nil
	}
	return nfc.NewControllerError(call, &ResultError{Call: call, Code: rc})
}

// ndefResult interprets nfcTag_isNdef: 1 formatted, 0 not formatted, anything
// else a failure.
func ndefResult(rc int, info nfc.NdefInfo) (nfc.NdefInfo, error) {
	switch rc {
	case 1:
		info.IsNdef = true
		return info, nil
	case 0:
		return nfc.NdefInfo{}, nil
	default:
		return nfc.NdefInfo{}, nfc.NewControllerError("nfcTag_isNdef",
			&ResultError{Call: "nfcTag_isNdef", Code: rc})
	}
}

// technology maps a native target type, passing unknown values through as
// TechnologyUnknown.
func technology(v int) nfc.Technology {
	switch t := nfc.Technology(v); t {
	case nfc.TechnologyISO14443A, nfc.TechnologyISO14443B, nfc.TechnologyFelica,
		nfc.TechnologyISO15693, nfc.TechnologyISODep, nfc.TechnologyKovioBarcode,
		nfc.TechnologyMifareClassic, nfc.TechnologyMifareUltralight:
		return t
	default:
		return nfc.TechnologyUnknown
	}
}

func friendlyType(v int) nfc.FriendlyType {
	switch t := nfc.FriendlyType(v); t {
	case nfc.FriendlyTypeURL, nfc.FriendlyTypeHandoverSelect,
		nfc.FriendlyTypeHandoverRequest, nfc.FriendlyTypeText:
		return t
	default:
		return nfc.FriendlyTypeOther
	}
}

func boolArg(b bool) int {
	if b {
		return 1
	}
	return 0
}
