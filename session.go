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
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-nfc/ndef"
)

// Manager owns the lifecycle of one Controller.
//
// Tag operations are only reachable through the Session passed to the body of
// RunSession, after the controller has been initialized and discovery
// enabled. Whatever the body does, including panicking, the controller is
// deinitialized exactly once before RunSession returns.
type Manager struct {
	controller Controller
	config     *Config
	logger     zerolog.Logger

	// mu serializes state transitions
	mu      sync.Mutex
	state   SessionState
	running atomic.Bool
}

// NewManager creates a manager for controller
func NewManager(controller Controller, opts ...Option) (*Manager, error) {
	if controller == nil {
		return nil, NewConfigError("controller", nil, errors.New("controller is nil"))
	}

	m := &Manager{
		controller: controller,
		config:     DefaultConfig(),
		state:      StateUninitialized,
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("failed to apply manager option: %w", err)
		}
	}
	m.logger = m.config.Logger.With().Str("component", "nfc").Logger()

	return m, nil
}

// RunSession creates a Manager for controller and runs one session. A nil
// config uses DefaultConfig.
func RunSession(controller Controller, config *Config, body func(*Session) error) error {
	m, err := NewManager(controller, WithConfig(config))
	if err != nil {
		return err
	}
	return m.RunSession(body)
}

// State returns the current lifecycle state
func (m *Manager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Config returns a copy of the manager configuration
func (m *Manager) Config() *Config {
	return m.config.Clone()
}

// RunSession initializes the controller, enables discovery and runs body.
//
// Configuration is validated before any controller call. On every exit path
// the bridge is closed, discovery disabled and the controller deinitialized
// once, leaving the manager in StateDeinitialized. A panic in body is
// recovered and returned as an error wrapping ErrSessionPanicked.
func (m *Manager) RunSession(body func(*Session) error) (err error) {
	if body == nil {
		return NewConfigError("session body", nil, errors.New("body is nil"))
	}
	if err := m.config.Validate(); err != nil {
		return err
	}
	if !m.running.CompareAndSwap(false, true) {
		return ErrSessionActive
	}
	defer m.running.Store(false)

	ctx, cancel := context.WithCancel(context.Background())
	session := &Session{
		manager: m,
		bridge:  NewBridge(WithBridgeLogger(m.logger)),
		ctx:     ctx,
	}

	// owned is cleared when Initialize reports that another session
	// already holds the controller. Teardown must leave it running.
	owned := true
	defer func() {
		cancel()
		if teardownErr := m.teardown(session, owned); teardownErr != nil {
			if err == nil {
				err = teardownErr
			} else {
				m.logger.Warn().Err(teardownErr).Msg("teardown failed after session error")
			}
		}
	}()

	if err := m.initialize(); err != nil {
		owned = !heldElsewhere(err)
		m.logger.Error().Err(err).Msg("session setup failed")
		return err
	}
	if err := m.startDiscovery(session.bridge); err != nil {
		m.logger.Error().Err(err).Msg("session setup failed")
		return err
	}

	return m.runBody(session, body)
}

func (m *Manager) startDiscovery(bridge *Bridge) error {
	bridge.RegisterArrivalHandler(m.controller)

	if err := m.enableDiscovery(m.config.Discovery); err != nil {
		return err
	}
	if !m.controller.IsActive() {
		return NewControllerError(opEnableDiscovery, ErrNotActive)
	}
	return nil
}

// heldElsewhere reports an Initialize failure meaning the controller belongs
// to another session
func heldElsewhere(err error) bool {
	return errors.Is(err, ErrAlreadyInitialized) || errors.Is(err, ErrInvalidState)
}

// moveLocked applies a state change checked against the transition table
func (m *Manager) moveLocked(op string, next SessionState) error {
	if !m.state.CanTransition(next) {
		return &StateError{Op: op, State: m.state}
	}
	m.state = next
	return nil
}

func (m *Manager) runBody(s *Session, body func(*Session) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().Interface("panic", r).Msg("session body panicked")
			err = fmt.Errorf("%w: %v", ErrSessionPanicked, r)
		}
	}()
	return body(s)
}

func (m *Manager) initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := guard(opInitialize, m.state); err != nil {
		return err
	}
	if err := m.controller.Initialize(); err != nil {
		return wrapControllerError(opInitialize, err)
	}
	m.logger.Debug().Msg("controller initialized")
	return m.moveLocked(opInitialize, StateInitialized)
}

func (m *Manager) enableDiscovery(cfg DiscoveryConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := guard(opEnableDiscovery, m.state); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := m.controller.EnableDiscovery(cfg); err != nil {
		return wrapControllerError(opEnableDiscovery, err)
	}
	m.logger.Debug().Stringer("technologies", cfg.TechnologyMask).Msg("discovery enabled")
	return m.moveLocked(opEnableDiscovery, StateDiscovering)
}

func (m *Manager) disableDiscovery() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := guard(opDisableDiscovery, m.state); err != nil {
		return err
	}
	if err := m.controller.DisableDiscovery(); err != nil {
		return wrapControllerError(opDisableDiscovery, err)
	}
	return m.moveLocked(opDisableDiscovery, StateInitialized)
}

// teardown runs once per session, on every path. A controller this session
// does not own is left alone.
func (m *Manager) teardown(s *Session, owned bool) error {
	s.close()

	if !owned {
		m.logger.Debug().Msg("controller held by another session, skipping deinitialize")
		return nil
	}

	if m.State() == StateDiscovering {
		if err := m.disableDiscovery(); err != nil {
			m.logger.Warn().Err(err).Msg("failed to disable discovery")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.controller.Deinitialize()
	if m.state.CanTransition(StateDeinitialized) {
		m.state = StateDeinitialized
	}

	stats := s.bridge.Stats()
	m.logger.Debug().
		Uint64("arrivals", stats.Arrivals).
		Uint64("dropped", stats.Dropped).
		Msg("controller deinitialized")

	if err != nil {
		return wrapControllerError(opDeinitialize, err)
	}
	return nil
}

func wrapControllerError(op string, err error) error {
	var ce *ControllerError
	if errors.As(err, &ce) {
		return err
	}
	var se *StateError
	if errors.As(err, &se) {
		return err
	}
	return NewControllerError(op, err)
}

// Session is the handle a RunSession body uses to wait for tags and perform
// NDEF I/O. It is only valid inside the body.
type Session struct {
	manager *Manager
	bridge  *Bridge
	ctx     context.Context

	// mu serializes controller access
	mu      sync.Mutex
	held    TagInfo
	holding bool
	closed  bool
}

func (s *Session) close() {
	s.bridge.Close()
	s.mu.Lock()
	s.closed = true
	s.holding = false
	s.mu.Unlock()
}

// State returns the manager lifecycle state
func (s *Session) State() SessionState {
	return s.manager.State()
}

// TagPresent reports whether the last tag returned by WaitForTag is still in
// the field
func (s *Session) TagPresent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.holding && s.bridge.IsLive(s.held.Handle)
}

// BridgeStats returns the arrival counters of this session
func (s *Session) BridgeStats() BridgeStats {
	return s.bridge.Stats()
}

// WaitForTag blocks until a tag arrives or timeout elapses. A zero timeout
// uses the configured TagWaitTimeout. Timeouts are recoverable; call again to
// keep waiting.
func (s *Session) WaitForTag(timeout time.Duration) (TagInfo, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return TagInfo{}, ErrSessionClosed
	}

	if timeout == 0 {
		timeout = s.manager.config.TagWaitTimeout
	}

	info, err := s.bridge.WaitForTag(timeout)
	if err != nil {
		return TagInfo{}, err
	}

	s.mu.Lock()
	s.held = info
	s.holding = true
	s.mu.Unlock()

	s.manager.logger.Debug().Stringer("tag", info).Msg("tag delivered")
	return info, nil
}

// do runs a tag operation with liveness checks and retries
func (s *Session) do(op string, h TagHandle, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if err := guard(opTagIO, s.manager.State()); err != nil {
		return err
	}

	return RetryWithConfig(s.ctx, s.manager.config.Retry, func() error {
		if !s.bridge.IsLive(h) {
			return NewTagGoneError(op, h)
		}
		if err := fn(); err != nil {
			s.manager.logger.Debug().Err(err).Str("op", op).Uint32("handle", uint32(h)).Msg("tag operation failed")
			return wrapControllerError(op, err)
		}
		return nil
	})
}

// IsNdef probes the tag for NDEF formatting
func (s *Session) IsNdef(tag TagInfo) (NdefInfo, error) {
	var info NdefInfo
	err := s.do("IsNdef", tag.Handle, func() error {
		var err error
		info, err = s.manager.controller.IsNdef(tag.Handle)
		return err
	})
	return info, err
}

// FormatTag prepares the tag to hold an NDEF message
func (s *Session) FormatTag(tag TagInfo) error {
	return s.do("FormatTag", tag.Handle, func() error {
		return s.manager.controller.FormatTag(tag.Handle)
	})
}

// ReadNdef reads the stored message into msg, up to its capacity
func (s *Session) ReadNdef(tag TagInfo, msg *ndef.Message) (FriendlyType, error) {
	var friendly FriendlyType
	err := s.do("ReadNdef", tag.Handle, func() error {
		n, ft, err := s.manager.controller.ReadNdef(tag.Handle, msg.Buffer())
		if err != nil {
			return err
		}
		if err := msg.SetLen(n); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
		friendly = ft
		return nil
	})
	return friendly, err
}

// WriteNdef replaces the stored message. Any NdefInfo obtained earlier is
// stale afterwards.
func (s *Session) WriteNdef(tag TagInfo, msg *ndef.Message) error {
	return s.do("WriteNdef", tag.Handle, func() error {
		return s.manager.controller.WriteNdef(tag.Handle, msg.Bytes())
	})
}

// EnsureNdef probes the tag and formats it when it is not NDEF yet
func (s *Session) EnsureNdef(tag TagInfo) (NdefInfo, error) {
	info, err := s.IsNdef(tag)
	if err != nil {
		return NdefInfo{}, err
	}
	if info.IsNdef {
		return info, nil
	}

	s.manager.logger.Info().Stringer("tag", tag).Msg("tag is not NDEF, formatting")
	if err := s.FormatTag(tag); err != nil {
		return NdefInfo{}, err
	}

	info, err = s.IsNdef(tag)
	if err != nil {
		return NdefInfo{}, err
	}
	if !info.IsNdef {
		return NdefInfo{}, NewControllerError("EnsureNdef", ErrNotNDEF)
	}
	return info, nil
}

// encodeCapacity asks the tag for the largest message it can store. Tags
// that report no maximum get Config.BufferCapacity.
func (s *Session) encodeCapacity(tag TagInfo) (int, error) {
	info, err := s.IsNdef(tag)
	if err != nil {
		return 0, err
	}
	if info.MaxLength > 0 {
		return info.MaxLength, nil
	}
	return s.manager.config.BufferCapacity, nil
}

// WriteText encodes a text record sized to the tag and writes it
func (s *Session) WriteText(tag TagInfo, lang, text string) error {
	capacity, err := s.encodeCapacity(tag)
	if err != nil {
		return err
	}
	msg, err := ndef.EncodeText(lang, text, capacity)
	if err != nil {
		return fmt.Errorf("failed to encode text: %w", err)
	}
	return s.WriteNdef(tag, msg)
}

// ReadText re-probes the tag, reads the stored message and decodes it as a
// text record
func (s *Session) ReadText(tag TagInfo) (ndef.TextRecord, error) {
	msg, err := s.readExpecting(tag, FriendlyTypeText)
	if err != nil {
		return ndef.TextRecord{}, err
	}
	rec, err := ndef.DecodeText(msg, msg.Len())
	if err != nil {
		return ndef.TextRecord{}, fmt.Errorf("failed to decode text: %w", err)
	}
	return rec, nil
}

// WriteURI encodes a URI record and writes it to the tag
func (s *Session) WriteURI(tag TagInfo, uri string) error {
	capacity, err := s.encodeCapacity(tag)
	if err != nil {
		return err
	}
	msg, err := ndef.EncodeURI(uri, capacity)
	if err != nil {
		return fmt.Errorf("failed to encode URI: %w", err)
	}
	return s.WriteNdef(tag, msg)
}

// ReadURI re-probes the tag, reads the stored message and decodes it as a URI
func (s *Session) ReadURI(tag TagInfo) (string, error) {
	msg, err := s.readExpecting(tag, FriendlyTypeURL)
	if err != nil {
		return "", err
	}
	uri, err := ndef.DecodeURI(msg)
	if err != nil {
		return "", fmt.Errorf("failed to decode URI: %w", err)
	}
	return uri, nil
}

// readExpecting reads the whole stored message, sized by a fresh probe
func (s *Session) readExpecting(tag TagInfo, want FriendlyType) (*ndef.Message, error) {
	info, err := s.IsNdef(tag)
	if err != nil {
		return nil, err
	}
	if !info.IsNdef {
		return nil, NewControllerError("ReadNdef", ErrNotNDEF)
	}

	msg, err := ndef.NewMessage(info.CurrentLength)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate read buffer: %w", err)
	}
	friendly, err := s.ReadNdef(tag, msg)
	if err != nil {
		return nil, err
	}
	if friendly != want {
		return nil, fmt.Errorf("%w: got %s, want %s", ErrUnexpectedType, friendly, want)
	}
	return msg, nil
}
