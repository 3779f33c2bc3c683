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
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// BridgeStats counts the events a Bridge has seen
type BridgeStats struct {
	Arrivals   uint64
	Departures uint64
	Delivered  uint64
	Dropped    uint64
}

// Bridge hands tag arrivals from a controller callback goroutine to one
// application goroutine.
//
// At most one arrival is buffered. A newer arrival overwrites an unconsumed
// one, so consumers see the most recent tag and may miss earlier ones. The
// callbacks never block.
type Bridge struct {
	logger    zerolog.Logger
	slot      chan TagInfo
	closed    chan struct{}
	closeOnce sync.Once

	// mu guards current and live, and makes each callback's handoff atomic
	// with respect to the other callback.
	mu      sync.Mutex
	current TagInfo
	live    bool

	arrivals   atomic.Uint64
	departures atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
}

// BridgeOption configures a Bridge
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the bridge logger
func WithBridgeLogger(logger zerolog.Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// NewBridge creates an empty bridge
func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{
		logger: zerolog.Nop(),
		slot:   make(chan TagInfo, 1),
		closed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RegisterArrivalHandler installs the bridge callbacks on the controller
func (b *Bridge) RegisterArrivalHandler(c Controller) {
	c.RegisterTagCallback(TagCallback{
		OnArrival:   b.handleArrival,
		OnDeparture: b.handleDeparture,
	})
}

func (b *Bridge) isClosed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// handleArrival runs on the controller goroutine
func (b *Bridge) handleArrival(info TagInfo) {
	b.arrivals.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isClosed() {
		return
	}

	b.current = info
	b.live = true

	for {
		select {
		case b.slot <- info:
			b.logger.Debug().Stringer("tag", info).Msg("tag arrived")
			return
		default:
		}

		select {
		case old := <-b.slot:
			b.dropped.Add(1)
			b.logger.Debug().
				Uint32("dropped_handle", uint32(old.Handle)).
				Uint32("handle", uint32(info.Handle)).
				Msg("unconsumed tag arrival overwritten")
		default:
		}
	}
}

// handleDeparture runs on the controller goroutine
func (b *Bridge) handleDeparture(h TagHandle) {
	b.departures.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current.Handle == h {
		b.live = false
	}

	// A buffered arrival for the departed tag must not be delivered.
	select {
	case pending := <-b.slot:
		if pending.Handle != h {
			b.slot <- pending
		}
	default:
	}

	b.logger.Debug().Uint32("handle", uint32(h)).Msg("tag departed")
}

// WaitForTag blocks until a tag arrives or timeout elapses. A timeout error
// is never returned before the full timeout has passed. A timeout of zero or
// less only checks for an already buffered arrival.
func (b *Bridge) WaitForTag(timeout time.Duration) (TagInfo, error) {
	if b.isClosed() {
		return TagInfo{}, &BridgeError{Op: "WaitForTag", Err: ErrBridgeClosed}
	}

	if timeout <= 0 {
		select {
		case info := <-b.slot:
			b.delivered.Add(1)
			return info, nil
		default:
			return TagInfo{}, &BridgeError{Op: "WaitForTag", Err: ErrTimeout}
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case info := <-b.slot:
		b.delivered.Add(1)
		return info, nil
	case <-b.closed:
		return TagInfo{}, &BridgeError{Op: "WaitForTag", Err: ErrBridgeClosed}
	case <-timer.C:
		return TagInfo{}, &BridgeError{Op: "WaitForTag", Err: ErrTimeout, Timeout: timeout}
	}
}

// IsLive reports whether h is the most recent tag and has not departed
func (b *Bridge) IsLive(h TagHandle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live && b.current.Handle == h
}

// Current returns the most recent tag while it is still present
func (b *Bridge) Current() (TagInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.live
}

// Stats returns a snapshot of the event counters
func (b *Bridge) Stats() BridgeStats {
	return BridgeStats{
		Arrivals:   b.arrivals.Load(),
		Departures: b.departures.Load(),
		Delivered:  b.delivered.Load(),
		Dropped:    b.dropped.Load(),
	}
}

// Close wakes any waiter and invalidates the current tag. Later callbacks are
// ignored. Close is idempotent.
func (b *Bridge) Close() {
	b.closeOnce.Do(func() {
		close(b.closed)
		b.mu.Lock()
		b.live = false
		b.mu.Unlock()
	})
}
