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

package libnfcnci

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	nfc "github.com/ZaparooProject/go-nfc"
)

// native is the subset of the linux_libnfc-nci API the controller drives
type native interface {
	initialize() int
	deinitialize() int
	registerCallbacks()
	enableDiscovery(mask, mode, hostRouting, restart int)
	disableDiscovery()
	isActive() bool
	isNdef(h uint32) (int, nfc.NdefInfo)
	formatTag(h uint32) int
	readNdef(h uint32, buf []byte) (int, int)
	writeNdef(h uint32, msg []byte) int
}

var (
	claimed atomic.Bool
	active  atomic.Pointer[Controller]
)

// claim makes c the receiver of native callbacks
func claim(c *Controller) error {
	if !claimed.CompareAndSwap(false, true) {
		return nfc.ErrControllerInUse
	}
	active.Store(c)
	return nil
}

func release(c *Controller) {
	if active.CompareAndSwap(c, nil) {
		claimed.Store(false)
	}
}

// Option is a functional option for configuring a Controller
type Option func(*Controller)

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// Controller implements nfc.Controller over libnfc-nci
type Controller struct {
	lib    native
	logger zerolog.Logger

	// ops serializes native calls once callbacks are registered
	ops sync.Mutex

	// mu guards the fields below and is never held across a native call
	// that could wait on the callback thread
	mu          sync.Mutex
	callback    nfc.TagCallback
	current     nfc.TagHandle
	present     bool
	initialized bool
	discovering bool
	closed      bool
}

var _ nfc.Controller = (*Controller)(nil)

// New opens the process-wide controller. A second New before Close fails
// with nfc.ErrControllerInUse.
func New(opts ...Option) (*Controller, error) {
	lib, err := openNative()
	if err != nil {
		return nil, err
	}
	c := newController(lib, opts...)
	if err := claim(c); err != nil {
		return nil, err
	}
	return c, nil
}

func newController(lib native, opts ...Option) *Controller {
	c := &Controller{
		lib:    lib,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("backend", "libnfcnci").Logger()
	return c
}

// Initialize starts the NFC stack and installs the native tag callbacks
func (c *Controller) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nfc.ErrNotInitialized
	}
	if c.initialized {
		return nfc.ErrAlreadyInitialized
	}
	if err := checkResult("nfcManager_doInitialize", c.lib.initialize()); err != nil {
		return err
	}
	c.lib.registerCallbacks()
	c.initialized = true
	c.logger.Debug().Msg("nfc stack initialized")
	return nil
}

// Deinitialize stops discovery and shuts the NFC stack down. It is a no-op
// when the controller is not initialized.
func (c *Controller) Deinitialize() error {
	c.mu.Lock()
	if !c.initialized {
		c.mu.Unlock()
		return nil
	}
	c.initialized = false
	c.mu.Unlock()

	c.stopDiscovery()

	c.ops.Lock()
	defer c.ops.Unlock()
	if err := checkResult("nfcManager_doDeinitialize", c.lib.deinitialize()); err != nil {
		return err
	}
	c.logger.Debug().Msg("nfc stack deinitialized")
	return nil
}

// Close deinitializes the stack and lets another Controller be opened
func (c *Controller) Close() error {
	err := c.Deinitialize()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	release(c)
	return err
}

// RegisterTagCallback installs the arrival and departure callbacks
func (c *Controller) RegisterTagCallback(cb nfc.TagCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callback = cb
}

// EnableDiscovery starts polling with the given technologies and mode
func (c *Controller) EnableDiscovery(cfg nfc.DiscoveryConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return nfc.ErrNotInitialized
	}

	c.ops.Lock()
	c.lib.enableDiscovery(int(cfg.TechnologyMask), int(cfg.Mode),
		boolArg(cfg.EnableHostRouting), boolArg(cfg.Restart))
	c.ops.Unlock()

	c.mu.Lock()
	c.discovering = true
	c.mu.Unlock()
	c.logger.Debug().
		Stringer("technologies", cfg.TechnologyMask).
		Uint8("mode", uint8(cfg.Mode)).
		Msg("discovery enabled")
	return nil
}

// DisableDiscovery stops polling. A tag still in the field is reported as
// departed.
func (c *Controller) DisableDiscovery() error {
	c.mu.Lock()
	initialized := c.initialized
	c.mu.Unlock()
	if !initialized {
		return nfc.ErrNotInitialized
	}
	c.stopDiscovery()
	return nil
}

// stopDiscovery disables native polling if it is running and reports a
// present tag as departed. Native calls happen without mu held.
func (c *Controller) stopDiscovery() {
	c.mu.Lock()
	discovering := c.discovering
	c.discovering = false
	h, had := c.current, c.present
	c.present = false
	cb := c.callback
	c.mu.Unlock()

	if discovering {
		c.ops.Lock()
		c.lib.disableDiscovery()
		c.ops.Unlock()
		c.logger.Debug().Msg("discovery disabled")
	}
	if had && cb.OnDeparture != nil {
		cb.OnDeparture(h)
	}
}

// IsActive reports whether the stack is up and discovering
func (c *Controller) IsActive() bool {
	c.mu.Lock()
	running := c.initialized && c.discovering
	c.mu.Unlock()
	return running && c.lib.isActive()
}

// handleArrival runs on the native callback thread
func (c *Controller) handleArrival(info nfc.TagInfo) {
	c.mu.Lock()
	previous, replaced := c.current, c.present
	c.current = info.Handle
	c.present = true
	cb := c.callback
	c.mu.Unlock()

	c.logger.Debug().Stringer("tag", info).Msg("tag arrival")

	// The stack does not always report a departure between two tags.
	if replaced && previous != info.Handle && cb.OnDeparture != nil {
		cb.OnDeparture(previous)
	}
	if cb.OnArrival != nil {
		cb.OnArrival(info)
	}
}

// handleDeparture runs on the native callback thread. The library does not
// say which tag left, so the current one is assumed.
func (c *Controller) handleDeparture() {
	c.mu.Lock()
	h, had := c.current, c.present
	c.present = false
	cb := c.callback
	c.mu.Unlock()

	if !had {
		return
	}
	c.logger.Debug().Uint32("handle", uint32(h)).Msg("tag departure")
	if cb.OnDeparture != nil {
		cb.OnDeparture(h)
	}
}

// lockTag takes the ops lock after checking h is the tag in the field
func (c *Controller) lockTag(op string, h nfc.TagHandle) error {
	c.mu.Lock()
	initialized, live := c.initialized, c.present && c.current == h
	c.mu.Unlock()

	if !initialized {
		return nfc.ErrNotInitialized
	}
	if !live {
		return nfc.NewTagGoneError(op, h)
	}
	c.ops.Lock()
	return nil
}

// IsNdef probes the tag for an NDEF message
func (c *Controller) IsNdef(h nfc.TagHandle) (nfc.NdefInfo, error) {
	if err := c.lockTag("IsNdef", h); err != nil {
		return nfc.NdefInfo{}, err
	}
	defer c.ops.Unlock()

	info, err := ndefResult(c.lib.isNdef(uint32(h)))
	if err != nil {
		return nfc.NdefInfo{}, fmt.Errorf("failed to probe tag: %w", err)
	}
	return info, nil
}

// FormatTag NDEF-formats the tag
func (c *Controller) FormatTag(h nfc.TagHandle) error {
	if err := c.lockTag("FormatTag", h); err != nil {
		return err
	}
	defer c.ops.Unlock()

	if err := checkResult("nfcTag_formatTag", c.lib.formatTag(uint32(h))); err != nil {
		return fmt.Errorf("failed to format tag: %w", err)
	}
	return nil
}

// ReadNdef reads at most len(buf) bytes of the stored message
func (c *Controller) ReadNdef(h nfc.TagHandle, buf []byte) (int, nfc.FriendlyType, error) {
	if err := c.lockTag("ReadNdef", h); err != nil {
		return 0, nfc.FriendlyTypeOther, err
	}
	defer c.ops.Unlock()

	n, ft := c.lib.readNdef(uint32(h), buf)
	if n < 0 {
		return 0, nfc.FriendlyTypeOther, fmt.Errorf("failed to read NDEF: %w",
			checkResult("nfcTag_readNdef", n))
	}
	return min(n, len(buf)), friendlyType(ft), nil
}

// WriteNdef replaces the stored message
func (c *Controller) WriteNdef(h nfc.TagHandle, msg []byte) error {
	if err := c.lockTag("WriteNdef", h); err != nil {
		return err
	}
	defer c.ops.Unlock()

	if err := checkResult("nfcTag_writeNdef", c.lib.writeNdef(uint32(h), msg)); err != nil {
		return fmt.Errorf("failed to write NDEF: %w", err)
	}
	return nil
}
