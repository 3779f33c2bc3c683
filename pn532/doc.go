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

// Package pn532 implements nfc.Controller on top of an NXP PN532 reader.
//
// The controller polls for ISO14443A targets with InListPassiveTarget on its
// own goroutine and reports arrivals and departures through the registered
// nfc.TagCallback. NDEF operations target NFC Forum Type 2 tags (NTAG21x and
// MIFARE Ultralight) using READ and WRITE commands carried by
// InDataExchange.
//
// A transport moves frames to the chip. See the uart and i2c packages under
// pn532/transport:
//
//	tr, err := uart.New("/dev/ttyUSB0")
//	if err != nil {
//		return err
//	}
//	ctrl, err := pn532.New(tr, pn532.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	defer ctrl.Close()
//
//	err = nfc.RunSession(ctrl, nil, func(s *nfc.Session) error {
//		tag, err := s.WaitForTag(10 * time.Second)
//		if err != nil {
//			return err
//		}
//		return s.WriteText(tag, "en", "Hello")
//	})
package pn532
