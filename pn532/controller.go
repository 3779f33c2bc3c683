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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	nfc "github.com/ZaparooProject/go-nfc"
)

// Controller implements nfc.Controller for a PN532 reader.
//
// All transport commands are serialized. Tag callbacks run on the poll
// goroutine started by EnableDiscovery.
type Controller struct {
	transport Transport
	dev       *device
	config    *Config
	logger    zerolog.Logger

	// mu guards the fields below
	mu          sync.Mutex
	callback    nfc.TagCallback
	current     *presentTag
	stop        chan struct{}
	done        chan struct{}
	firmware    FirmwareVersion
	nextHandle  nfc.TagHandle
	initialized bool
	discovering bool

	pollCycles  atomic.Uint64
	pollErrors  atomic.Uint64
	arrivals    atomic.Uint64
	departures  atomic.Uint64
	lastLatency atomic.Int64
}

var _ nfc.Controller = (*Controller)(nil)

// New creates a controller for the PN532 behind transport
func New(transport Transport, opts ...Option) (*Controller, error) {
	if transport == nil {
		return nil, nfc.NewConfigError("transport", nil, errors.New("transport is nil"))
	}

	c := &Controller{
		transport: transport,
		config:    DefaultConfig(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply controller option: %w", err)
		}
	}
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	c.logger = c.logger.With().
		Str("backend", "pn532").
		Str("transport", string(transport.Type())).
		Logger()

	var tr Transport = transport
	if c.config.TransportRetry != nil {
		tr = newRetryTransport(transport, c.config.TransportRetry, c.logger)
	}
	c.dev = &device{transport: tr}

	return c, nil
}

// Config returns a copy of the controller configuration
func (c *Controller) Config() *Config {
	return c.config.Clone()
}

// Firmware returns the firmware version read by Initialize
func (c *Controller) Firmware() FirmwareVersion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.firmware
}

// Initialize wakes the PN532, reads its firmware version and configures the
// SAM and RF retries
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nfc.ErrAlreadyInitialized
	}
	if !c.transport.IsConnected() {
		return ErrTransportClosed
	}
	if err := c.transport.SetTimeout(c.config.CommandTimeout); err != nil {
		return fmt.Errorf("failed to set transport timeout: %w", err)
	}

	fw, err := c.dev.firmwareVersion()
	if err != nil {
		return fmt.Errorf("failed to get firmware version: %w", err)
	}
	if err := c.dev.samConfiguration(); err != nil {
		return fmt.Errorf("failed to configure SAM: %w", err)
	}
	if err := c.dev.setPassiveRetries(c.config.PassiveRetries); err != nil {
		return fmt.Errorf("failed to set passive retries: %w", err)
	}

	c.firmware = fw
	c.initialized = true
	c.logger.Info().Stringer("firmware", fw).Msg("PN532 initialized")
	return nil
}

// Deinitialize stops polling and switches the RF field off. Repeated calls
// are no-ops. The transport stays open; see Close.
func (c *Controller) Deinitialize() error {
	c.stopPolling()

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return nil
	}
	c.initialized = false

	if err := c.dev.setRFField(false); err != nil {
		return fmt.Errorf("failed to switch RF field off: %w", err)
	}
	c.logger.Debug().Msg("PN532 deinitialized")
	return nil
}

// Close deinitializes the controller and closes the transport
func (c *Controller) Close() error {
	deinitErr := c.Deinitialize()
	if err := c.transport.Close(); err != nil {
		return errors.Join(deinitErr, fmt.Errorf("failed to close transport: %w", err))
	}
	return deinitErr
}

// RegisterTagCallback installs the arrival and departure callbacks
func (c *Controller) RegisterTagCallback(cb nfc.TagCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
}

// EnableDiscovery switches the RF field on and starts polling. Only
// ISO14443A targets are polled, so the mask must include it. When polling is
// already running it is restarted if cfg.Restart is set.
func (c *Controller) EnableDiscovery(cfg nfc.DiscoveryConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.TechnologyMask.Has(nfc.TechnologyMaskA) {
		return nfc.NewConfigError("technology mask", cfg.TechnologyMask, ErrTechnologyNotSet)
	}

	c.mu.Lock()
	initialized, running := c.initialized, c.discovering
	c.mu.Unlock()

	if !initialized {
		return nfc.ErrNotInitialized
	}
	if running {
		if !cfg.Restart {
			return nil
		}
		c.stopPolling()
	}

	if err := c.dev.setRFField(true); err != nil {
		return fmt.Errorf("failed to switch RF field on: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	c.discovering = true
	go c.pollLoop(c.stop, c.done)

	c.logger.Debug().
		Dur("interval", c.config.PollInterval).
		Int("removal_threshold", c.config.RemovalThreshold).
		Msg("polling started")
	return nil
}

// DisableDiscovery stops polling. A tag still present is reported as
// departed.
func (c *Controller) DisableDiscovery() error {
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()

	if !initialized {
		return nfc.ErrNotInitialized
	}
	c.stopPolling()
	return nil
}

// IsActive reports whether the controller is initialized and polling
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initialized && c.discovering && c.transport.IsConnected()
}

// tag returns the Type 2 operations for h while it is the present tag
func (c *Controller) tag(h nfc.TagHandle) (type2, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		return type2{}, nfc.ErrNotInitialized
	}
	if c.current == nil || c.current.info.Handle != h {
		return type2{}, fmt.Errorf("%w: handle %d", nfc.ErrTagGone, h)
	}
	if c.current.info.Technology != nfc.TechnologyMifareUltralight {
		return type2{}, fmt.Errorf("%w: %s", ErrUnsupportedTag, c.current.info.Technology)
	}
	return type2{dev: c.dev}, nil
}

// IsNdef probes the capability container and the message TLV. Tags that
// are not Type 2 are reported as not NDEF.
func (c *Controller) IsNdef(h nfc.TagHandle) (nfc.NdefInfo, error) {
	t, err := c.tag(h)
	if errors.Is(err, ErrUnsupportedTag) {
		return nfc.NdefInfo{}, nil
	}
	if err != nil {
		return nfc.NdefInfo{}, err
	}

	info, err := t.probe()
	if err != nil {
		return nfc.NdefInfo{}, fmt.Errorf("failed to probe NDEF: %w", err)
	}
	return info, nil
}

// FormatTag writes a capability container if needed and an empty message
func (c *Controller) FormatTag(h nfc.TagHandle) error {
	t, err := c.tag(h)
	if err != nil {
		return err
	}
	if err := t.format(); err != nil {
		return fmt.Errorf("failed to format tag: %w", err)
	}
	c.logger.Info().Uint32("handle", uint32(h)).Msg("tag formatted")
	return nil
}

// ReadNdef reads at most len(buf) bytes of the stored message
func (c *Controller) ReadNdef(h nfc.TagHandle, buf []byte) (int, nfc.FriendlyType, error) {
	t, err := c.tag(h)
	if err != nil {
		return 0, nfc.FriendlyTypeOther, err
	}
	n, friendly, err := t.read(buf)
	if err != nil {
		return 0, nfc.FriendlyTypeOther, fmt.Errorf("failed to read NDEF: %w", err)
	}
	return n, friendly, nil
}

// WriteNdef replaces the stored message
func (c *Controller) WriteNdef(h nfc.TagHandle, msg []byte) error {
	t, err := c.tag(h)
	if err != nil {
		return err
	}
	if err := t.write(msg); err != nil {
		return fmt.Errorf("failed to write NDEF: %w", err)
	}
	c.logger.Debug().Uint32("handle", uint32(h)).Int("bytes", len(msg)).Msg("NDEF written")
	return nil
}
