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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-nfc/ndef"
)

var testUID = []byte{0x04, 0x3A, 0x91, 0x62, 0x5C, 0x2B, 0x80}

func fastRetry() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        time.Millisecond,
		BackoffMultiplier: 1,
	}
}

func newTestManager(t *testing.T, c *mockController, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithRetryConfig(fastRetry())}, opts...)
	m, err := NewManager(c, opts...)
	require.NoError(t, err)
	return m
}

func TestRunSession_HelloRust(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(7, &mockTag{maxLen: 137})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		assert.Equal(t, StateDiscovering, s.State())

		c.arrive(7, testUID...)
		tag, err := s.WaitForTag(time.Second)
		require.NoError(t, err)
		assert.Equal(t, TagHandle(7), tag.Handle)
		assert.Equal(t, "043a91625c2b80", tag.UIDString())

		info, err := s.EnsureNdef(tag)
		require.NoError(t, err)
		assert.True(t, info.IsNdef)
		assert.Equal(t, 137, info.MaxLength)

		require.NoError(t, s.WriteText(tag, "en", "Hello rust!"))

		rec, err := s.ReadText(tag)
		require.NoError(t, err)
		assert.Equal(t, "en", rec.Language)
		assert.Equal(t, "Hello rust!", rec.Text)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, StateDeinitialized, m.State())
	assert.Equal(t, 1, c.count("Initialize"))
	assert.Equal(t, 1, c.count("FormatTag"))
	assert.Equal(t, 1, c.count("Deinitialize"))

	want, err := ndef.EncodeText("en", "Hello rust!", DefaultBufferCapacity)
	require.NoError(t, err)
	assert.Equal(t, want.Bytes(), c.tagData(7))
}

func TestRunSession_CallOrder(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	require.NoError(t, m.RunSession(func(*Session) error { return nil }))

	assert.Equal(t, []string{
		"Initialize",
		"RegisterTagCallback",
		"EnableDiscovery",
		"DisableDiscovery",
		"Deinitialize",
	}, c.callLog())
}

func TestRunSession_DeinitializesOnce(t *testing.T) {
	t.Parallel()

	errBody := errors.New("body failed")

	tests := []struct {
		setup      func(c *mockController)
		body       func(*Session) error
		wantErr    error
		name       string
		wantEnable int
	}{
		{
			name:       "body error",
			body:       func(*Session) error { return errBody },
			wantErr:    errBody,
			wantEnable: 1,
		},
		{
			name:       "body panic",
			body:       func(*Session) error { panic("boom") },
			wantErr:    ErrSessionPanicked,
			wantEnable: 1,
		},
		{
			name:       "initialize failure",
			setup:      func(c *mockController) { c.initErr = ErrIO },
			body:       func(*Session) error { return nil },
			wantErr:    ErrIO,
			wantEnable: 0,
		},
		{
			name:       "enable discovery failure",
			setup:      func(c *mockController) { c.enableErr = ErrIO },
			body:       func(*Session) error { return nil },
			wantErr:    ErrIO,
			wantEnable: 1,
		},
		{
			name:       "controller not active",
			setup:      func(c *mockController) { c.inactive = true },
			body:       func(*Session) error { return nil },
			wantErr:    ErrNotActive,
			wantEnable: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newMockController()
			if tt.setup != nil {
				tt.setup(c)
			}
			m := newTestManager(t, c)

			err := m.RunSession(tt.body)
			require.ErrorIs(t, err, tt.wantErr)

			assert.Equal(t, 1, c.count("Deinitialize"))
			assert.Equal(t, tt.wantEnable, c.count("EnableDiscovery"))
			assert.Equal(t, StateDeinitialized, m.State())
		})
	}
}

func TestRunSession_BodyNotRunOnSetupFailure(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.initErr = ErrIO
	m := newTestManager(t, c)

	ran := false
	err := m.RunSession(func(*Session) error {
		ran = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, ran)

	var ce *ControllerError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Initialize", ce.Op)
}

func TestRunSession_InvalidConfigMakesNoNativeCalls(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opt  Option
		name string
	}{
		{name: "empty technology mask", opt: WithTechnologyMask(0)},
		{name: "unknown technology bits", opt: WithTechnologyMask(0x100)},
		{name: "negative wait timeout", opt: WithTagWaitTimeout(-time.Second)},
		{name: "zero buffer capacity", opt: WithBufferCapacity(0)},
		{name: "zero retry attempts", opt: WithMaxRetries(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := newMockController()
			m := newTestManager(t, c, tt.opt)

			err := m.RunSession(func(*Session) error { return nil })
			require.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Empty(t, c.callLog())
			assert.Equal(t, StateUninitialized, m.State())
		})
	}
}

func TestRunSession_DeinitializeErrorReported(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.deinitErr = ErrIO
	m := newTestManager(t, c)

	err := m.RunSession(func(*Session) error { return nil })
	require.ErrorIs(t, err, ErrIO)
	assert.Equal(t, StateDeinitialized, m.State())
}

func TestRunSession_BodyErrorWinsOverDeinitializeError(t *testing.T) {
	t.Parallel()

	errBody := errors.New("body failed")
	c := newMockController()
	c.deinitErr = ErrIO
	m := newTestManager(t, c)

	err := m.RunSession(func(*Session) error { return errBody })
	require.ErrorIs(t, err, errBody)
	assert.NotErrorIs(t, err, ErrIO)
}

func TestRunSession_NestedSessionRejected(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	err := m.RunSession(func(*Session) error {
		return m.RunSession(func(*Session) error { return nil })
	})
	require.ErrorIs(t, err, ErrSessionActive)
	assert.Equal(t, 1, c.count("Initialize"))
	assert.Equal(t, 1, c.count("Deinitialize"))
}

func TestRunSession_ManagerReusable(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	for range 2 {
		require.NoError(t, m.RunSession(func(*Session) error { return nil }))
	}
	assert.Equal(t, 2, c.count("Initialize"))
	assert.Equal(t, 2, c.count("Deinitialize"))
}

func TestRunSession_PackageLevel(t *testing.T) {
	t.Parallel()

	c := newMockController()
	err := RunSession(c, nil, func(s *Session) error {
		assert.Equal(t, StateDiscovering, s.State())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, c.count("Deinitialize"))
}

func TestRunSession_SecondSessionLeavesControllerRunning(t *testing.T) {
	t.Parallel()

	c := newMockController()

	inBody := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan error, 1)
	go func() {
		firstDone <- RunSession(c, nil, func(*Session) error {
			close(inBody)
			<-release
			return nil
		})
	}()
	<-inBody

	ran := false
	err := RunSession(c, nil, func(*Session) error {
		ran = true
		return nil
	})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.False(t, ran)

	assert.True(t, c.IsActive())
	assert.Zero(t, c.count("Deinitialize"))
	assert.Equal(t, 1, c.count("RegisterTagCallback"))

	close(release)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, c.count("Deinitialize"))
	assert.False(t, c.IsActive())
}

func TestRunSession_NilArguments(t *testing.T) {
	t.Parallel()

	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	c := newMockController()
	m := newTestManager(t, c)
	require.ErrorIs(t, m.RunSession(nil), ErrInvalidConfig)
	assert.Empty(t, c.callLog())
}

func TestManager_EnableDiscoveryBeforeInitialize(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	err := m.enableDiscovery(DefaultDiscoveryConfig())
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, ErrorTypeState, GetErrorType(err))
	assert.Zero(t, c.count("EnableDiscovery"))
	assert.Equal(t, StateUninitialized, m.State())
}

func TestManager_DisableDiscoveryWhenNotDiscovering(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)
	require.NoError(t, m.initialize())

	err := m.disableDiscovery()
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Zero(t, c.count("DisableDiscovery"))

	err = m.initialize()
	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, 1, c.count("Initialize"))
}

func TestSession_WaitForTagTimeout(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	const timeout = 40 * time.Millisecond
	err := m.RunSession(func(s *Session) error {
		start := time.Now()
		_, err := s.WaitForTag(timeout)
		elapsed := time.Since(start)

		require.ErrorIs(t, err, ErrTimeout)
		assert.GreaterOrEqual(t, elapsed, timeout)
		assert.True(t, IsRetryable(err))

		// Still usable after a timeout
		c.arrive(3, 0x01)
		tag, err := s.WaitForTag(timeout)
		require.NoError(t, err)
		assert.Equal(t, TagHandle(3), tag.Handle)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_WaitForTagDefaultTimeout(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c, WithTagWaitTimeout(20*time.Millisecond))

	err := m.RunSession(func(s *Session) error {
		_, err := s.WaitForTag(0)
		return err
	})

	var be *BridgeError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 20*time.Millisecond, be.Timeout)
}

func TestSession_LatestArrivalWins(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		c.arrive(1, 0xAA)
		c.arrive(2, 0xBB)

		tag, err := s.WaitForTag(time.Second)
		require.NoError(t, err)
		assert.Equal(t, TagHandle(2), tag.Handle)
		assert.Equal(t, []byte{0xBB}, tag.UID())

		_, err = s.WaitForTag(10 * time.Millisecond)
		require.ErrorIs(t, err, ErrTimeout)

		stats := s.BridgeStats()
		assert.Equal(t, uint64(2), stats.Arrivals)
		assert.Equal(t, uint64(1), stats.Dropped)
		assert.Equal(t, uint64(1), stats.Delivered)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_ArrivalFromAnotherGoroutine(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		done := make(chan struct{})
		go func() {
			defer close(done)
			time.Sleep(10 * time.Millisecond)
			c.arrive(9, 0x09)
		}()

		tag, err := s.WaitForTag(time.Second)
		<-done
		require.NoError(t, err)
		assert.Equal(t, TagHandle(9), tag.Handle)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_DepartureInvalidatesHandle(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(4, &mockTag{ndef: true, maxLen: 48})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		c.arrive(4, 0x04)
		tag, err := s.WaitForTag(time.Second)
		require.NoError(t, err)
		assert.True(t, s.TagPresent())

		c.depart(4)
		assert.False(t, s.TagPresent())

		_, err = s.IsNdef(tag)
		require.ErrorIs(t, err, ErrTagGone)
		assert.Equal(t, ErrorTypeTagGone, GetErrorType(err))
		assert.Zero(t, c.count("IsNdef"))

		err = s.WriteText(tag, "en", "gone")
		require.ErrorIs(t, err, ErrTagGone)
		assert.Zero(t, c.count("WriteNdef"))
		return nil
	})
	require.NoError(t, err)
}

func TestSession_DepartureDropsPendingArrival(t *testing.T) {
	t.Parallel()

	c := newMockController()
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		c.arrive(5, 0x05)
		c.depart(5)

		_, err := s.WaitForTag(10 * time.Millisecond)
		require.ErrorIs(t, err, ErrTimeout)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_RetriesTimeouts(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(1, &mockTag{ndef: true, maxLen: 48})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(1, 0x01)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		c.failNextIO(ErrTimeout)
		info, err := s.IsNdef(tag)
		require.NoError(t, err)
		assert.True(t, info.IsNdef)
		assert.Equal(t, 2, c.count("IsNdef"))

		c.failNextIO(ErrTimeout, ErrTimeout, ErrTimeout)
		_, err = s.IsNdef(tag)
		require.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, 5, c.count("IsNdef"))
		return nil
	})
	require.NoError(t, err)
}

func TestSession_PermanentErrorsNotRetried(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(1, &mockTag{ndef: true, maxLen: 48})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(1, 0x01)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		c.failNextIO(ErrNotNDEF)
		err = s.FormatTag(tag)
		require.ErrorIs(t, err, ErrNotNDEF)
		assert.Equal(t, 1, c.count("FormatTag"))

		var ce *ControllerError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "FormatTag", ce.Op)
		assert.False(t, ce.Retryable)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_URIRoundTrip(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(2, &mockTag{ndef: true, maxLen: 137})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(2, 0x02)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		require.NoError(t, s.WriteURI(tag, "https://zaparoo.org/docs"))

		uri, err := s.ReadURI(tag)
		require.NoError(t, err)
		assert.Equal(t, "https://zaparoo.org/docs", uri)

		_, err = s.ReadText(tag)
		require.ErrorIs(t, err, ErrUnexpectedType)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_ReadTextNotNdef(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(2, &mockTag{})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(2, 0x02)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		_, err = s.ReadText(tag)
		require.ErrorIs(t, err, ErrNotNDEF)
		assert.Zero(t, c.count("ReadNdef"))
		return nil
	})
	require.NoError(t, err)
}

func TestSession_WriteTextTooLarge(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(2, &mockTag{ndef: true, maxLen: 48})
	m := newTestManager(t, c, WithBufferCapacity(1024))

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(2, 0x02)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		err = s.WriteText(tag, "en", strings.Repeat("x", 60))
		require.ErrorIs(t, err, ndef.ErrBufferTooSmall)
		assert.Zero(t, c.count("WriteNdef"))
		return nil
	})
	require.NoError(t, err)
}

func TestSession_WriteSizedToTag(t *testing.T) {
	t.Parallel()

	text := strings.Repeat("a", 200)

	c := newMockController()
	c.addTag(3, &mockTag{ndef: true, maxLen: 496})
	m := newTestManager(t, c)

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(3, 0x03)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		require.NoError(t, s.WriteText(tag, "en", text))
		rec, err := s.ReadText(tag)
		require.NoError(t, err)
		assert.Equal(t, text, rec.Text)

		uri := "https://zaparoo.org/" + text
		require.NoError(t, s.WriteURI(tag, uri))
		got, err := s.ReadURI(tag)
		require.NoError(t, err)
		assert.Equal(t, uri, got)
		return nil
	})
	require.NoError(t, err)
}

func TestSession_WriteFallsBackToBufferCapacity(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(2, &mockTag{ndef: true})
	m := newTestManager(t, c, WithBufferCapacity(16))

	err := m.RunSession(func(s *Session) error {
		tag := c.arrive(2, 0x02)
		_, err := s.WaitForTag(time.Second)
		require.NoError(t, err)

		require.NoError(t, s.WriteText(tag, "en", "short"))

		err = s.WriteText(tag, "en", "this text does not fit in sixteen bytes")
		require.ErrorIs(t, err, ndef.ErrBufferTooSmall)
		assert.Equal(t, 1, c.count("WriteNdef"))
		return nil
	})
	require.NoError(t, err)
}

func TestSession_ClosedAfterReturn(t *testing.T) {
	t.Parallel()

	c := newMockController()
	c.addTag(1, &mockTag{ndef: true, maxLen: 48})
	m := newTestManager(t, c)

	var (
		escaped *Session
		tag     TagInfo
	)
	err := m.RunSession(func(s *Session) error {
		escaped = s
		tag = c.arrive(1, 0x01)
		_, err := s.WaitForTag(time.Second)
		return err
	})
	require.NoError(t, err)

	_, err = escaped.WaitForTag(time.Millisecond)
	require.ErrorIs(t, err, ErrSessionClosed)

	_, err = escaped.IsNdef(tag)
	require.ErrorIs(t, err, ErrSessionClosed)
	assert.False(t, escaped.TagPresent())
	assert.Zero(t, c.count("IsNdef"))

	// Late callbacks from the native stack are ignored
	c.arrive(1, 0x01)
	assert.False(t, escaped.TagPresent())
	assert.Equal(t, uint64(1), escaped.BridgeStats().Delivered)
}
