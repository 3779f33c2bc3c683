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
	"time"

	"github.com/rs/zerolog"
)

// Option is a functional option for configuring a Manager
type Option func(*Manager) error

// WithConfig replaces the whole configuration
func WithConfig(config *Config) Option {
	return func(m *Manager) error {
		if config == nil {
			return nil
		}
		m.config = config.Clone()
		return nil
	}
}

// WithDiscovery sets the discovery arguments
func WithDiscovery(cfg DiscoveryConfig) Option {
	return func(m *Manager) error {
		m.config.Discovery = cfg
		return nil
	}
}

// WithTechnologyMask sets the polled technologies
func WithTechnologyMask(mask TechnologyMask) Option {
	return func(m *Manager) error {
		m.config.Discovery.TechnologyMask = mask
		return nil
	}
}

// WithTagWaitTimeout sets the default WaitForTag timeout
func WithTagWaitTimeout(timeout time.Duration) Option {
	return func(m *Manager) error {
		m.config.TagWaitTimeout = timeout
		return nil
	}
}

// WithBufferCapacity sets the NDEF encode buffer size
func WithBufferCapacity(capacity int) Option {
	return func(m *Manager) error {
		m.config.BufferCapacity = capacity
		return nil
	}
}

// WithRetryConfig sets the retry configuration for tag operations
func WithRetryConfig(config *RetryConfig) Option {
	return func(m *Manager) error {
		m.config.Retry = config
		return nil
	}
}

// WithMaxRetries sets the maximum number of attempts for tag operations
func WithMaxRetries(maxAttempts int) Option {
	return func(m *Manager) error {
		if m.config.Retry == nil {
			m.config.Retry = DefaultRetryConfig()
		}
		m.config.Retry.MaxAttempts = maxAttempts
		return nil
	}
}

// WithLogger sets the logger used by the manager and its bridge
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) error {
		m.config.Logger = logger
		return nil
	}
}
