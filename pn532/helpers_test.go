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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	nfc "github.com/ZaparooProject/go-nfc"
	vt "github.com/ZaparooProject/go-nfc/internal/testing"
)

// virtualTransport adapts a VirtualPN532 to Transport
type virtualTransport struct {
	*vt.VirtualPN532
}

func (virtualTransport) Type() TransportType {
	return TransportMock
}

func newVirtualTransport() (*vt.VirtualPN532, Transport) {
	dev := vt.NewVirtualPN532()
	return dev, virtualTransport{dev}
}

func fastRetry() *nfc.RetryConfig {
	return &nfc.RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1,
	}
}

func fastConfig() *Config {
	cfg := DefaultConfig()
	cfg.TransportRetry = fastRetry()
	cfg.PollInterval = 5 * time.Millisecond
	cfg.RemovalThreshold = 2
	return cfg
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *vt.VirtualPN532) {
	t.Helper()
	dev, tr := newVirtualTransport()
	ctrl, err := New(tr, append([]Option{WithConfig(fastConfig())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })
	return ctrl, dev
}

// tagEvents collects controller callbacks on channels
type tagEvents struct {
	arrivals   chan nfc.TagInfo
	departures chan nfc.TagHandle
}

func watch(ctrl *Controller) *tagEvents {
	ev := &tagEvents{
		arrivals:   make(chan nfc.TagInfo, 16),
		departures: make(chan nfc.TagHandle, 16),
	}
	ctrl.RegisterTagCallback(nfc.TagCallback{
		OnArrival:   func(info nfc.TagInfo) { ev.arrivals <- info },
		OnDeparture: func(h nfc.TagHandle) { ev.departures <- h },
	})
	return ev
}

func (ev *tagEvents) nextArrival(t *testing.T) nfc.TagInfo {
	t.Helper()
	select {
	case info := <-ev.arrivals:
		return info
	case <-time.After(time.Second):
		require.FailNow(t, "no tag arrival")
		return nfc.TagInfo{}
	}
}

func (ev *tagEvents) nextDeparture(t *testing.T) nfc.TagHandle {
	t.Helper()
	select {
	case h := <-ev.departures:
		return h
	case <-time.After(time.Second):
		require.FailNow(t, "no tag departure")
		return 0
	}
}
