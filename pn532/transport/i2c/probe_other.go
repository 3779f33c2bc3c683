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

//go:build !linux

package i2c

import (
	"errors"
)

// ErrUnsupportedPlatform is returned by bus discovery outside Linux
var ErrUnsupportedPlatform = errors.New("I2C bus discovery is only supported on Linux")

// ListBuses is not supported on this platform
func ListBuses() ([]string, error) {
	return nil, ErrUnsupportedPlatform
}

// Probe is not supported on this platform
func Probe(string) error {
	return ErrUnsupportedPlatform
}
