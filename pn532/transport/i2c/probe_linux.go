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

//go:build linux

package i2c

import (
	"fmt"
	"path/filepath"
	"sort"

	"golang.org/x/sys/unix"

	"github.com/ZaparooProject/go-nfc/pn532"
)

const (
	ioctlI2CSlave = 0x0703
	ioctlI2CFuncs = 0x0705
	i2cFuncI2C    = 0x00000001
)

// ListBuses returns the /dev/i2c-* adapters that support plain I2C
// transfers
func ListBuses() ([]string, error) {
	matches, err := filepath.Glob("/dev/i2c-*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan for I2C buses: %w", err)
	}

	buses := make([]string, 0, len(matches))
	for _, path := range matches {
		fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
		if err != nil {
			continue
		}
		funcs, err := unix.IoctlGetUint32(fd, ioctlI2CFuncs)
		_ = unix.Close(fd)
		if err != nil || funcs&i2cFuncI2C == 0 {
			continue
		}
		buses = append(buses, path)
	}
	sort.Strings(buses)
	return buses, nil
}

// Probe checks whether a device answers at Address on busPath. It reads
// the status byte only, so it does not disturb a PN532 mid-exchange.
func Probe(busPath string) error {
	fd, err := unix.Open(busPath, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", pn532.ErrDeviceNotFound, busPath, err)
	}
	defer func() { _ = unix.Close(fd) }()

	if err := unix.IoctlSetInt(fd, ioctlI2CSlave, Address); err != nil {
		return fmt.Errorf("failed to select address 0x%02X on %s: %w", Address, busPath, err)
	}

	status := make([]byte, 1)
	if _, err := unix.Read(fd, status); err != nil {
		return fmt.Errorf("%w: no answer at 0x%02X on %s: %w", pn532.ErrDeviceNotFound, Address, busPath, err)
	}
	return nil
}
