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
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Controller
type Option func(*Controller) error

// WithConfig replaces the whole configuration
func WithConfig(config *Config) Option {
	return func(c *Controller) error {
		if config != nil {
			c.config = config.Clone()
		}
		return nil
	}
}

// WithPollInterval sets the delay between polls
func WithPollInterval(interval time.Duration) Option {
	return func(c *Controller) error {
		c.config.PollInterval = interval
		return nil
	}
}

// WithRemovalThreshold sets how many empty polls mark a tag as departed
func WithRemovalThreshold(polls int) Option {
	return func(c *Controller) error {
		c.config.RemovalThreshold = polls
		return nil
	}
}

// WithTimeout sets the transport command timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) error {
		c.config.CommandTimeout = timeout
		return nil
	}
}

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) error {
		c.logger = logger
		return nil
	}
}
