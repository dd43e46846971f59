// Seacap
// Copyright (c) 2026 The Seacap Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Seacap.
//
// Seacap is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Seacap is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Seacap.  If not, see <http://www.gnu.org/licenses/>.

// Package capture drives one acquisition run: polling the meter until
// it answers, collecting its dump until the line goes quiet, and
// persisting the extracted payload.
package capture

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// commandLines are the two wake/request commands the meter expects,
// CRLF-terminated, always sent in this order.
var commandLines = [][]byte{
	[]byte("SYST:REM\r\n"),
	[]byte("MEM:DATA? ALL\r\n"),
}

type linkWriter interface {
	Write(p []byte) error
}

// Poller re-sends the request commands while the meter stays silent.
// It measures the period from the previous send, not wall-clock ticks,
// and stops permanently once the collector sees the first byte.
type Poller struct {
	link     linkWriter
	clock    clockwork.Clock
	lastSend time.Time
	period   time.Duration
	sends    int
	stopped  bool
}

func NewPoller(link linkWriter, clock clockwork.Clock, period time.Duration) *Poller {
	return &Poller{
		link:   link,
		clock:  clock,
		period: period,
	}
}

// SendDue writes both command lines if a full period has elapsed since
// the previous send (the first send is immediately due). Send failures
// are logged, not fatal: the read side decides link liveness.
func (p *Poller) SendDue() {
	if p.stopped {
		return
	}
	if !p.lastSend.IsZero() && p.clock.Since(p.lastSend) < p.period {
		return
	}

	for _, line := range commandLines {
		if err := p.link.Write(line); err != nil {
			log.Warn().Err(err).Msg("failed to send request command")
		}
	}

	p.lastSend = p.clock.Now()
	p.sends++
	log.Debug().Msgf("sent data request (attempt %d)", p.sends)
}

// Stop permanently disables sending. Never undone within a run.
func (p *Poller) Stop() {
	p.stopped = true
}

// Stopped reports whether the poller has been stopped.
func (p *Poller) Stopped() bool {
	return p.stopped
}

// Sends returns how many request rounds were sent.
func (p *Poller) Sends() int {
	return p.sends
}
