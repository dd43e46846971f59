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

package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrCaptureIncomplete is returned when collection went active but the
// buffer ended up unusable. Callers treat it like a missing frame.
var ErrCaptureIncomplete = errors.New("capture ended with an empty buffer")

type linkPort interface {
	Write(p []byte) error
	ReadAvailable() ([]byte, error)
}

type collectorState int

const (
	stateIdle collectorState = iota
	stateActive
	stateDone
)

// Collector runs the quiet-window state machine over one link. The
// poller's periodic send and the read loop are interleaved in a single
// control loop, so at most one write is in flight and the poller can
// never send after the first byte arrives.
//
// Idle has no timeout: the machine waits indefinitely for the operator
// to trigger transmission on the meter. The protocol has no terminator,
// so completion is inferred purely from silence; the quiet window must
// outlast the meter's internal pauses between chunks.
type Collector struct {
	link     linkPort
	poller   *Poller
	clock    clockwork.Clock
	progress *Progress
	out      io.Writer
	quiet    time.Duration
}

func NewCollector(
	link linkPort,
	poller *Poller,
	clock clockwork.Clock,
	quiet time.Duration,
	progress *Progress,
	out io.Writer,
) *Collector {
	if out == nil {
		out = io.Discard
	}
	return &Collector{
		link:     link,
		poller:   poller,
		clock:    clock,
		quiet:    quiet,
		progress: progress,
		out:      out,
	}
}

// Run blocks until the transmission completes and returns the raw
// capture buffer. The buffer only ever grows; extraction downstream is
// a pure transform of it. Loop pacing comes from the link's bounded
// read timeout, so no call blocks indefinitely and the poll timer is
// re-checked on a steady cadence.
func (c *Collector) Run(ctx context.Context) ([]byte, error) {
	var (
		buf      []byte
		state    = stateIdle
		lastData time.Time
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("capture canceled: %w", err)
		}

		if state == stateIdle {
			c.poller.SendDue()
		}

		chunk, err := c.link.ReadAvailable()
		if err != nil {
			return nil, fmt.Errorf("capture read failed: %w", err)
		}

		if len(chunk) > 0 {
			if state == stateIdle {
				state = stateActive
				c.poller.Stop()
				log.Info().Msg("first byte received, locking capture")
				fmt.Fprintln(c.out, "Data detected, capturing...")
			}
			buf = append(buf, chunk...)
			lastData = c.clock.Now()
			if c.progress != nil {
				c.progress.Feed(chunk)
			}
			continue
		}

		if state == stateActive && c.clock.Since(lastData) >= c.quiet {
			state = stateDone
			if c.progress != nil {
				c.progress.Flush()
			}
			log.Info().Msgf("no data for %s, transmission complete (%d bytes)",
				c.quiet, len(buf))
			fmt.Fprintf(c.out, "No data for %s, assuming transmission complete.\n", c.quiet)
			if len(buf) == 0 {
				return nil, ErrCaptureIncomplete
			}
			return buf, nil
		}
	}
}
