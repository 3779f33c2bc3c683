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
	"time"

	nfc "github.com/ZaparooProject/go-nfc"
)

// PollStats tracks poll loop activity
type PollStats struct {
	Cycles      uint64
	Errors      uint64
	Arrivals    uint64
	Departures  uint64
	LastLatency time.Duration
}

// presentTag is the tag currently in the field
type presentTag struct {
	uid    []byte
	info   nfc.TagInfo
	misses int
}

// Stats returns a snapshot of the poll counters
func (c *Controller) Stats() PollStats {
	return PollStats{
		Cycles:      c.pollCycles.Load(),
		Errors:      c.pollErrors.Load(),
		Arrivals:    c.arrivals.Load(),
		Departures:  c.departures.Load(),
		LastLatency: time.Duration(c.lastLatency.Load()),
	}
}

func (c *Controller) pollLoop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		c.pollOnce()

		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

// pollOnce runs one detection cycle and fires callbacks outside the lock
func (c *Controller) pollOnce() {
	start := time.Now()
	tgt, err := c.dev.listPassiveTarget()
	c.pollCycles.Add(1)
	c.lastLatency.Store(int64(time.Since(start)))

	if err != nil {
		c.pollErrors.Add(1)
		c.logger.Debug().Err(err).Msg("poll failed")
		tgt = nil
	}

	arrived, departed, cb := c.updatePresence(tgt)

	if departed != nil {
		c.departures.Add(1)
		c.logger.Debug().Stringer("tag", departed).Msg("tag departed")
		if cb.OnDeparture != nil {
			cb.OnDeparture(departed.Handle)
		}
	}
	if arrived != nil {
		c.arrivals.Add(1)
		c.logger.Debug().Stringer("tag", arrived).Msg("tag arrived")
		if cb.OnArrival != nil {
			cb.OnArrival(*arrived)
		}
	}
}

// updatePresence applies one poll result. A different UID counts as the old
// tag departing and a new one arriving.
func (c *Controller) updatePresence(tgt *target) (arrived, departed *nfc.TagInfo, cb nfc.TagCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb = c.callback

	if tgt == nil {
		if c.current == nil {
			return nil, nil, cb
		}
		c.current.misses++
		if c.current.misses < c.config.RemovalThreshold {
			return nil, nil, cb
		}
		gone := c.current.info
		c.current = nil
		return nil, &gone, cb
	}

	if c.current != nil {
		if bytes.Equal(c.current.uid, tgt.UID) {
			c.current.misses = 0
			return nil, nil, cb
		}
		gone := c.current.info
		departed = &gone
	}

	c.nextHandle++
	info := nfc.NewTagInfo(c.nextHandle, technologyFromSAK(tgt.SAK), tgt.UID)
	c.current = &presentTag{info: info, uid: tgt.UID}
	return &info, departed, cb
}

// stopPolling stops the poll goroutine and reports a still present tag as
// departed
func (c *Controller) stopPolling() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.discovering = false
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done

	c.mu.Lock()
	gone := c.current
	c.current = nil
	cb := c.callback
	c.mu.Unlock()

	if gone == nil {
		return
	}
	if err := c.dev.release(); err != nil {
		c.logger.Debug().Err(err).Msg("failed to release target")
	}
	c.departures.Add(1)
	if cb.OnDeparture != nil {
		cb.OnDeparture(gone.info.Handle)
	}
}

// technologyFromSAK classifies an ISO14443A target by its SAK byte
func technologyFromSAK(sak byte) nfc.Technology {
	switch {
	case sak&0x20 != 0:
		return nfc.TechnologyISODep
	case sak == 0x00:
		return nfc.TechnologyMifareUltralight
	case sak == 0x08, sak == 0x09, sak == 0x18, sak == 0x88:
		return nfc.TechnologyMifareClassic
	default:
		return nfc.TechnologyISO14443A
	}
}
