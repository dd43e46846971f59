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
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/seaward-tools/seacap/pkg/config"
	"github.com/seaward-tools/seacap/pkg/device"
	"github.com/seaward-tools/seacap/pkg/extract"
	"github.com/seaward-tools/seacap/pkg/link"
	"github.com/spf13/afero"
)

// Session threads one run's state through each stage: candidate,
// active link, capture buffer, payload. It owns exactly one open link
// and closes it on every path out.
type Session struct {
	Cfg         *config.Instance
	Enumerator  link.Enumerator
	Confirmer   device.Confirmer
	PortFactory link.PortFactory
	Clock       clockwork.Clock
	Fs          afero.Fs
	Out         io.Writer
	Matcher     extract.Matcher
	// DevicePath skips enumeration and confirmation when set.
	DevicePath string
	// Wait enables the hot-plug loop when nothing is attached.
	Wait bool
}

// Run executes the fixed sequence: enumerate, select, capture, extract,
// save. Returns the written file path.
func (s *Session) Run(ctx context.Context) (string, error) {
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	out := s.Out
	if out == nil {
		out = io.Discard
	}
	matcher := s.Matcher
	if matcher == nil {
		start, stop := s.Cfg.FramePatterns()
		if start != nil && stop != nil {
			matcher = extract.NewCompiledMatcher(start, stop)
		} else {
			matcher = extract.NewSeawardMatcher()
		}
	}

	path := s.DevicePath
	if path == "" {
		vid, pid := s.Cfg.PreferredSignature()
		selector := &device.Selector{
			Enumerator: s.Enumerator,
			Confirmer:  s.Confirmer,
			Signature:  device.Signature{VID: vid, PID: pid},
			Clock:      clock,
			Out:        out,
			Wait:       s.Wait,
		}

		candidate, err := selector.Select(ctx)
		if err != nil {
			return "", err
		}

		label := strings.TrimSpace(candidate.Manufacturer + " " + candidate.Product)
		if label == "" {
			label = candidate.Path
		}
		fmt.Fprintf(out, "\n%s selected\n", label)
		path = candidate.Path
	}

	activeLink, err := link.Open(path, s.Cfg.BaudRate(), s.Cfg.ReadTimeout(), s.PortFactory)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := activeLink.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close link")
		}
	}()

	fmt.Fprintf(out, "\nListener armed on %s\n", path)
	fmt.Fprintln(out, "\nOn the Seaward meter:")
	fmt.Fprintln(out, "  Power on: press and hold Riso + Mode")
	fmt.Fprintln(out, "  Start transmit: press and hold Folder/Recall")
	fmt.Fprintln(out)

	poller := NewPoller(activeLink, clock, s.Cfg.PollPeriod())
	progress := NewProgress(out)
	collector := NewCollector(activeLink, poller, clock, s.Cfg.QuietWindow(), progress, out)

	buf, err := collector.Run(ctx)
	if err != nil {
		if errors.Is(err, ErrCaptureIncomplete) {
			return "", extract.ErrNoFrameDetected
		}
		return "", err
	}

	payload, err := extract.Extract(buf, matcher)
	if err != nil {
		// raw buffer is discarded; nothing is written on failure
		return "", err
	}

	writer := NewWriter(s.Fs, s.Cfg.CaptureDir(), clock)
	outPath, err := writer.Write(payload)
	if err != nil {
		return "", err
	}

	log.Info().Msgf("capture saved: %s (%d bytes)", outPath, len(payload))
	fmt.Fprintf(out, "\nSaved CSV: %s\n", outPath)

	return outPath, nil
}
