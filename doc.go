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

/*
Package nfc drives a callback-based NFC controller through a safe session
lifecycle and reads and writes NDEF messages on the tags it finds.

A Controller is the capability contract of a native NFC stack. Two backends
live in this module:
  - pn532: an NXP PN532 reader over UART or I2C (see pn532/transport)
  - libnfcnci: the NXP linux_libnfc-nci stack, built with -tags libnfcnci

A Manager owns one Controller and runs one session at a time. Tag arrivals
are handed from the controller goroutine to the session body through a
Bridge that buffers at most one arrival. A newer tag overwrites an older
unconsumed one.

Basic Usage:

	tr, err := uart.New("/dev/ttyUSB0")
	if err != nil {
		return err
	}
	ctrl, err := pn532.New(tr)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	err = nfc.RunSession(ctrl, nil, func(s *nfc.Session) error {
		tag, err := s.WaitForTag(5 * time.Second)
		if err != nil {
			return err
		}
		if _, err := s.EnsureNdef(tag); err != nil {
			return err
		}
		if err := s.WriteText(tag, "en", "Hello"); err != nil {
			return err
		}
		rec, err := s.ReadText(tag)
		if err != nil {
			return err
		}
		fmt.Println(rec.Text)
		return nil
	})

The session always disables discovery and deinitializes the controller on
exit, including when the body returns an error or panics.

Errors

Controller failures are reported as *ControllerError and wrap one of the
sentinel errors (ErrTagGone, ErrTimeout, ErrIO and others). Use IsRetryable
and GetErrorType to classify them. Configuration is validated before any
native call and rejected with *ConfigError, which matches ErrInvalidConfig.
*/
package nfc
