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
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTagWaitTimeout is how long WaitForTag blocks when no timeout is given
	DefaultTagWaitTimeout = 5 * time.Second
	// DefaultBufferCapacity is the encode buffer size for writes to tags that
	// report no maximum length
	DefaultBufferCapacity = 100
)

// Config contains the settings of a Manager
type Config struct {
	// Logger receives session and bridge logs
	Logger zerolog.Logger
	// Retry configures retries of timed out tag operations
	Retry *RetryConfig
	// Discovery is passed to Controller.EnableDiscovery
	Discovery DiscoveryConfig
	// TagWaitTimeout is used by Session.WaitForTag when called with zero
	TagWaitTimeout time.Duration
	// BufferCapacity is the NDEF encode buffer size for writes when the tag
	// does not report a maximum length
	BufferCapacity int
}

// DefaultConfig returns the default session configuration
func DefaultConfig() *Config {
	return &Config{
		Logger:         zerolog.Nop(),
		Retry:          DefaultRetryConfig(),
		Discovery:      DefaultDiscoveryConfig(),
		TagWaitTimeout: DefaultTagWaitTimeout,
		BufferCapacity: DefaultBufferCapacity,
	}
}

// Validate checks the configuration. Errors are *ConfigError values.
func (c *Config) Validate() error {
	if c == nil {
		return NewConfigError("config", nil, errors.New("config is nil"))
	}
	if err := c.Discovery.Validate(); err != nil {
		return err
	}
	if c.TagWaitTimeout <= 0 {
		return NewConfigError("tag wait timeout", c.TagWaitTimeout, errors.New("must be positive"))
	}
	if c.BufferCapacity <= 0 {
		return NewConfigError("buffer capacity", c.BufferCapacity, errors.New("must be positive"))
	}
	if c.Retry != nil {
		if err := c.Retry.Validate(); err != nil {
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
	if c.Retry != nil {
		retry := *c.Retry
		clone.Retry = &retry
	}
	return &clone
}
