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

package pn532

import (
	"errors"
	"time"

	nfc "github.com/ZaparooProject/go-nfc"
)

// Config contains the polling and command settings of a Controller
type Config struct {
	// TransportRetry retries commands that failed on the link. Nil disables
	// transport retries.
	TransportRetry *nfc.RetryConfig
	// PollInterval is the delay between InListPassiveTarget polls
	PollInterval time.Duration
	// CommandTimeout is the transport read timeout
	CommandTimeout time.Duration
	// RemovalThreshold is the number of consecutive empty polls after which
	// the current tag is reported as departed
	RemovalThreshold int
	// PassiveRetries is MxRtyPassiveActivation, the number of activation
	// retries per poll. 0xFF retries forever and must not be used.
	PassiveRetries byte
}

// DefaultConfig returns the default backend configuration
func DefaultConfig() *Config {
	return &Config{
		TransportRetry:   nfc.DefaultRetryConfig(),
		PollInterval:     100 * time.Millisecond,
		CommandTimeout:   time.Second,
		RemovalThreshold: 3,
		PassiveRetries:   0x01,
	}
}

// Validate checks the configuration. Errors are *nfc.ConfigError values.
func (c *Config) Validate() error {
	switch {
	case c == nil:
		return nfc.NewConfigError("pn532 config", nil, errors.New("config is nil"))
	case c.PollInterval <= 0:
		return nfc.NewConfigError("poll interval", c.PollInterval, errors.New("must be positive"))
	case c.CommandTimeout <= 0:
		return nfc.NewConfigError("command timeout", c.CommandTimeout, errors.New("must be positive"))
	case c.RemovalThreshold < 1:
		return nfc.NewConfigError("removal threshold", c.RemovalThreshold, errors.New("must be at least 1"))
	case c.PassiveRetries == 0xFF:
		return nfc.NewConfigError("passive retries", c.PassiveRetries, errors.New("infinite retries block polling"))
	}
	if c.TransportRetry != nil {
		if err := c.TransportRetry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	if c.TransportRetry != nil {
		retry := *c.TransportRetry
		clone.TransportRetry = &retry
	}
	return &clone
}
