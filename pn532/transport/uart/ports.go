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

package uart

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.bug.st/serial/enumerator"
)

// usbBridges are USB serial adapters commonly wired to PN532 boards, keyed
// by VID:PID
var usbBridges = map[string]string{
	"1A86:7523": "CH340",
	"1A86:55D4": "CH9102",
	"10C4:EA60": "CP210x",
	"0403:6001": "FT232R",
	"0403:6015": "FT231X",
	"067B:2303": "PL2303",
}

// PortInfo describes a serial port that may host a PN532
type PortInfo struct {
	Name         string
	VIDPID       string
	Product      string
	SerialNumber string
	// Bridge names a known USB serial adapter chip
	Bridge string
	IsUSB  bool
}

// ListOptions filters the ports returned by ListPorts
type ListOptions struct {
	// IgnorePaths are port names to skip, compared case-insensitively
	IgnorePaths []string
	// Blocklist holds VID:PID pairs of USB devices that must not be probed
	Blocklist []string
}

// ListPorts enumerates serial ports, known USB serial bridges first
func ListPorts(opts ListOptions) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return filterPorts(details, opts), nil
}

func filterPorts(details []*enumerator.PortDetails, opts ListOptions) []PortInfo {
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil || isPathIgnored(d.Name, opts.IgnorePaths) {
			continue
		}

		info := PortInfo{Name: d.Name, IsUSB: d.IsUSB}
		if d.IsUSB {
			info.VIDPID = strings.ToUpper(d.VID + ":" + d.PID)
			info.Product = d.Product
			info.SerialNumber = d.SerialNumber
			info.Bridge = usbBridges[info.VIDPID]
			if isBlocked(info.VIDPID, opts.Blocklist) {
				continue
			}
		}
		ports = append(ports, info)
	}

	slices.SortStableFunc(ports, func(a, b PortInfo) int {
		switch {
		case a.Bridge != "" && b.Bridge == "":
			return -1
		case a.Bridge == "" && b.Bridge != "":
			return 1
		default:
			return 0
		}
	})
	return ports
}

// isBlocked checks vidpid against the blocklist, ignoring case
func isBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.TrimSpace(vidpid)
	for _, blocked := range blocklist {
		if strings.EqualFold(vidpid, strings.TrimSpace(blocked)) {
			return true
		}
	}
	return false
}

// isPathIgnored compares cleaned paths case-insensitively so COM ports and
// device nodes both match
func isPathIgnored(name string, ignorePaths []string) bool {
	if name == "" {
		return false
	}
	cleaned := filepath.Clean(name)
	for _, ignored := range ignorePaths {
		if ignored == "" {
			continue
		}
		if strings.EqualFold(cleaned, filepath.Clean(ignored)) {
			return true
		}
	}
	return false
}
