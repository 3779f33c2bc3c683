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
	"errors"
	"fmt"
	"strings"
)

// TechnologyMask selects the tag technologies polled during discovery. Bit
// values are the native NFA technology mask values.
type TechnologyMask uint32

const (
	TechnologyMaskA        TechnologyMask = 0x01
	TechnologyMaskB        TechnologyMask = 0x02
	TechnologyMaskF        TechnologyMask = 0x04
	TechnologyMaskISO15693 TechnologyMask = 0x08
	TechnologyMaskBPrime   TechnologyMask = 0x10
	TechnologyMaskKovio    TechnologyMask = 0x20
	TechnologyMaskAActive  TechnologyMask = 0x40
	TechnologyMaskFActive  TechnologyMask = 0x80

	// DefaultTechnologyMask polls every supported technology
	DefaultTechnologyMask = TechnologyMaskA | TechnologyMaskB | TechnologyMaskF |
		TechnologyMaskISO15693 | TechnologyMaskBPrime | TechnologyMaskKovio |
		TechnologyMaskAActive | TechnologyMaskFActive
)

var technologyMaskNames = []struct {
	name string
	bit  TechnologyMask
}{
	{"A", TechnologyMaskA},
	{"B", TechnologyMaskB},
	{"F", TechnologyMaskF},
	{"ISO15693", TechnologyMaskISO15693},
	{"B'", TechnologyMaskBPrime},
	{"Kovio", TechnologyMaskKovio},
	{"A-active", TechnologyMaskAActive},
	{"F-active", TechnologyMaskFActive},
}

// Has reports whether every bit of other is set in m
func (m TechnologyMask) Has(other TechnologyMask) bool {
	return m&other == other
}

// Validate rejects empty masks and bits outside the known technologies
func (m TechnologyMask) Validate() error {
	if m == 0 {
		return NewConfigError("technology mask", m, errors.New("no technology selected"))
	}
	if m&^DefaultTechnologyMask != 0 {
		return NewConfigError("technology mask", m,
			fmt.Errorf("unknown bits 0x%X", uint32(m&^DefaultTechnologyMask)))
	}
	return nil
}

// String returns the technologies in the mask joined by "|"
func (m TechnologyMask) String() string {
	if m == 0 {
		return "none"
	}
	var parts []string
	for _, tn := range technologyMaskNames {
		if m&tn.bit != 0 {
			parts = append(parts, tn.name)
		}
	}
	if rest := m &^ DefaultTechnologyMask; rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// Technology is the tag type reported on arrival, using the native target
// type numbers.
type Technology int

const (
	TechnologyUnknown          Technology = -1
	TechnologyISO14443A        Technology = 1
	TechnologyISO14443B        Technology = 2
	TechnologyFelica           Technology = 3
	TechnologyISO15693         Technology = 4
	TechnologyISODep           Technology = 5
	TechnologyKovioBarcode     Technology = 10
	TechnologyMifareClassic    Technology = 11
	TechnologyMifareUltralight Technology = 12
)

// String returns the technology name
func (t Technology) String() string {
	switch t {
	case TechnologyISO14443A:
		return "ISO14443-3A"
	case TechnologyISO14443B:
		return "ISO14443-3B"
	case TechnologyFelica:
		return "FeliCa"
	case TechnologyISO15693:
		return "ISO15693"
	case TechnologyISODep:
		return "ISO14443-4"
	case TechnologyKovioBarcode:
		return "Kovio"
	case TechnologyMifareClassic:
		return "MIFARE Classic"
	case TechnologyMifareUltralight:
		return "MIFARE Ultralight"
	default:
		return "unknown"
	}
}

// DiscoveryMode is the native reader mode byte passed to discovery
type DiscoveryMode byte

const (
	// DiscoveryModeDefault lets the controller also act as a card emulator
	DiscoveryModeDefault DiscoveryMode = 0x00
	// DiscoveryModeReaderOnly polls for tags only
	DiscoveryModeReaderOnly DiscoveryMode = 0x01
)

// DiscoveryConfig holds the arguments of Controller.EnableDiscovery
type DiscoveryConfig struct {
	TechnologyMask    TechnologyMask
	Mode              DiscoveryMode
	EnableHostRouting bool
	Restart           bool
}

// DefaultDiscoveryConfig polls all technologies in reader-only mode
func DefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		TechnologyMask: DefaultTechnologyMask,
		Mode:           DiscoveryModeReaderOnly,
	}
}

// Validate checks the mask and mode before any native call
func (c DiscoveryConfig) Validate() error {
	if err := c.TechnologyMask.Validate(); err != nil {
		return err
	}
	if c.Mode != DiscoveryModeDefault && c.Mode != DiscoveryModeReaderOnly {
		return NewConfigError("discovery mode", c.Mode, fmt.Errorf("unsupported mode 0x%02X", byte(c.Mode)))
	}
	return nil
}
