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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nfc "github.com/ZaparooProject/go-nfc"
	vt "github.com/ZaparooProject/go-nfc/internal/testing"
	"github.com/ZaparooProject/go-nfc/ndef"
)

// selectTag places tag in the field and selects it
func selectTag(t *testing.T, tag *vt.VirtualTag) (type2, *vt.VirtualPN532) {
	t.Helper()
	dev, tr := newVirtualTransport()
	dev.SetTag(tag)
	d := &device{transport: tr}
	tgt, err := d.listPassiveTarget()
	require.NoError(t, err)
	require.NotNil(t, tgt)
	return type2{dev: d}, dev
}

func TestCapabilityContainer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		cc       capabilityContainer
		valid    bool
		blank    bool
		writable bool
		size     int
		maxLen   int
	}{
		{name: "NTAG213", cc: capabilityContainer{0xE1, 0x10, 0x12, 0x00}, valid: true, writable: true, size: 144, maxLen: 141},
		{name: "NTAG215", cc: capabilityContainer{0xE1, 0x10, 0x3E, 0x00}, valid: true, writable: true, size: 496, maxLen: 491},
		{name: "read-only", cc: capabilityContainer{0xE1, 0x10, 0x12, 0x0F}, valid: true, size: 144, maxLen: 141},
		{name: "minor version", cc: capabilityContainer{0xE1, 0x11, 0x06, 0x00}, valid: true, writable: true, size: 48, maxLen: 45},
		{name: "blank", cc: capabilityContainer{}, blank: true, writable: true},
		{name: "wrong magic", cc: capabilityContainer{0xE2, 0x10, 0x12, 0x00}, writable: true, size: 144, maxLen: 141},
		{name: "wrong major version", cc: capabilityContainer{0xE1, 0x20, 0x12, 0x00}, writable: true, size: 144, maxLen: 141},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.valid, tt.cc.valid())
			assert.Equal(t, tt.blank, tt.cc.blank())
			assert.Equal(t, tt.writable, tt.cc.writable())
			assert.Equal(t, tt.size, tt.cc.dataAreaSize())
			assert.Equal(t, tt.maxLen, tt.cc.maxMessageLength())
		})
	}
}

func TestType2_Probe(t *testing.T) {
	t.Parallel()

	t.Run("formatted NTAG213", func(t *testing.T) {
		t.Parallel()
		tag, _ := selectTag(t, vt.NewVirtualNTAG213(nil))
		info, err := tag.probe()
		require.NoError(t, err)
		assert.Equal(t, nfc.NdefInfo{IsNdef: true, MaxLength: 141, Writable: true}, info)
	})

	t.Run("formatted NTAG215", func(t *testing.T) {
		t.Parallel()
		tag, _ := selectTag(t, vt.NewVirtualNTAG(vt.TypeNTAG215, vt.TestNTAG215UID, true))
		info, err := tag.probe()
		require.NoError(t, err)
		assert.True(t, info.IsNdef)
		assert.Equal(t, 491, info.MaxLength)
	})

	t.Run("blank", func(t *testing.T) {
		t.Parallel()
		tag, _ := selectTag(t, vt.NewBlankNTAG213(nil))
		info, err := tag.probe()
		require.NoError(t, err)
		assert.Equal(t, nfc.NdefInfo{}, info)
	})

	t.Run("text message", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewVirtualNTAG213(nil)
		require.NoError(t, vtag.SetNDEFText("en", "Hello rust!"))
		stored, err := vtag.NDEF()
		require.NoError(t, err)

		tag, _ := selectTag(t, vtag)
		info, err := tag.probe()
		require.NoError(t, err)
		assert.True(t, info.IsNdef)
		assert.Equal(t, len(stored), info.CurrentLength)
	})

	t.Run("read-only", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewVirtualNTAG213(nil)
		vtag.SetReadOnly(true)
		tag, _ := selectTag(t, vtag)
		info, err := tag.probe()
		require.NoError(t, err)
		assert.True(t, info.IsNdef)
		assert.False(t, info.Writable)
	})
}

func TestType2_Read(t *testing.T) {
	t.Parallel()

	vtag := vt.NewVirtualNTAG213(nil)
	require.NoError(t, vtag.SetNDEFText("en", "Hello rust!"))
	stored, err := vtag.NDEF()
	require.NoError(t, err)
	tag, _ := selectTag(t, vtag)

	buf := make([]byte, 64)
	n, friendly, err := tag.read(buf)
	require.NoError(t, err)
	assert.Equal(t, stored, buf[:n])
	assert.Equal(t, nfc.FriendlyTypeText, friendly)

	short := make([]byte, 4)
	n, _, err = tag.read(short)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, stored[:4], short)
}

func TestType2_ReadBlank(t *testing.T) {
	t.Parallel()
	tag, _ := selectTag(t, vt.NewBlankNTAG213(nil))
	_, _, err := tag.read(make([]byte, 16))
	require.ErrorIs(t, err, nfc.ErrNotNDEF)
}

func TestType2_Write(t *testing.T) {
	t.Parallel()

	t.Run("spans several reads", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewVirtualNTAG213(nil)
		tag, _ := selectTag(t, vtag)

		msg, err := ndef.EncodeURI("https://zaparoo.org/docs/getting-started/launching-games", 128)
		require.NoError(t, err)
		require.NoError(t, tag.write(msg.Bytes()))

		stored, err := vtag.NDEF()
		require.NoError(t, err)
		assert.Equal(t, msg.Bytes(), stored)

		info, err := tag.probe()
		require.NoError(t, err)
		assert.Equal(t, msg.Len(), info.CurrentLength)
	})

	t.Run("exactly full", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewVirtualNTAG213(nil)
		tag, _ := selectTag(t, vtag)

		msg := bytes.Repeat([]byte{0xAA}, 141)
		require.NoError(t, tag.write(msg))
		stored, err := vtag.NDEF()
		require.NoError(t, err)
		assert.Equal(t, msg, stored)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()
		tag, _ := selectTag(t, vt.NewVirtualNTAG213(nil))
		err := tag.write(bytes.Repeat([]byte{0xAA}, 142))
		require.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("read-only", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewVirtualNTAG213(nil)
		vtag.SetReadOnly(true)
		tag, _ := selectTag(t, vtag)
		require.ErrorIs(t, tag.write([]byte{0xD0, 0x00, 0x00}), ErrReadOnly)
	})

	t.Run("not formatted", func(t *testing.T) {
		t.Parallel()
		tag, _ := selectTag(t, vt.NewBlankNTAG213(nil))
		require.ErrorIs(t, tag.write([]byte{0xD0, 0x00, 0x00}), nfc.ErrNotNDEF)
	})
}

func TestType2_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		vtag   *vt.VirtualTag
		name   string
		wantCC []byte
	}{
		{name: "blank NTAG213", vtag: vt.NewBlankNTAG213(nil), wantCC: []byte{0xE1, 0x10, 0x12, 0x00}},
		{name: "blank NTAG215", vtag: vt.NewVirtualNTAG(vt.TypeNTAG215, nil, false), wantCC: []byte{0xE1, 0x10, 0x3E, 0x00}},
		{name: "blank NTAG216", vtag: vt.NewVirtualNTAG(vt.TypeNTAG216, nil, false), wantCC: []byte{0xE1, 0x10, 0x6D, 0x00}},
		{name: "already formatted", vtag: vt.NewVirtualNTAG213(nil), wantCC: []byte{0xE1, 0x10, 0x12, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tag, _ := selectTag(t, tt.vtag)
			require.NoError(t, tag.format())
			assert.Equal(t, tt.wantCC, tt.vtag.CapabilityContainer())

			stored, err := tt.vtag.NDEF()
			require.NoError(t, err)
			assert.Empty(t, stored)

			info, err := tag.probe()
			require.NoError(t, err)
			assert.True(t, info.IsNdef)
			assert.Zero(t, info.CurrentLength)
		})
	}
}

func TestType2_FormatRejects(t *testing.T) {
	t.Parallel()

	t.Run("read-only", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewVirtualNTAG213(nil)
		vtag.SetReadOnly(true)
		tag, _ := selectTag(t, vtag)
		require.ErrorIs(t, tag.format(), ErrReadOnly)
	})

	t.Run("foreign capability container", func(t *testing.T) {
		t.Parallel()
		vtag := vt.NewBlankNTAG213(nil)
		require.NoError(t, vtag.WritePage(3, []byte{0x12, 0x00, 0x00, 0x00}))
		tag, _ := selectTag(t, vtag)
		require.ErrorIs(t, tag.format(), ErrUnsupportedTag)
	})
}

func TestType2_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		want   error
		name   string
		status byte
	}{
		{name: "timeout", status: vt.StatusTimeout, want: nfc.ErrTimeout},
		{name: "target released", status: 0x29, want: nfc.ErrTagGone},
		{name: "card exchanged", status: 0x2A, want: ErrTargetReleased},
		{name: "card disappeared", status: 0x2B, want: nfc.ErrTagGone},
		{name: "invalid parameter", status: vt.StatusInvalidParam, want: nfc.ErrIO},
		{name: "CRC error", status: 0x02, want: nfc.ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tag, dev := selectTag(t, vt.NewVirtualNTAG213(nil))
			dev.InjectStatus(tt.status)

			_, err := tag.probe()
			require.ErrorIs(t, err, tt.want)

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.status, statusErr.Status)
		})
	}
}

func TestType2_TagRemoved(t *testing.T) {
	t.Parallel()
	vtag := vt.NewVirtualNTAG213(nil)
	tag, _ := selectTag(t, vtag)
	vtag.Remove()

	_, err := tag.probe()
	require.ErrorIs(t, err, nfc.ErrTimeout)
	assert.True(t, nfc.IsRetryable(err))
}
