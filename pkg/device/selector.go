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

// Package device ranks enumerated serial adapters and walks the
// operator through confirming one as the meter link.
package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/seaward-tools/seacap/pkg/link"
)

var (
	// ErrNoDeviceFound is returned when enumeration finds nothing.
	ErrNoDeviceFound = errors.New("no USB serial device found")
	// ErrNoDeviceConfirmed is returned when the operator rejects every
	// candidate.
	ErrNoDeviceConfirmed = errors.New("no device confirmed as the meter")
)

// Signature is the USB VID:PID pair of the adapter offered first.
type Signature struct {
	VID string
	PID string
}

// Rank stably reorders candidates so all signature matches precede
// non-matches, preserving enumeration order within each group.
func Rank(candidates []link.Candidate, sig Signature) []link.Candidate {
	ranked := make([]link.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MatchesSignature(sig.VID, sig.PID) &&
			!ranked[j].MatchesSignature(sig.VID, sig.PID)
	})
	return ranked
}

// Confirmer asks the operator to accept or reject a candidate.
type Confirmer interface {
	Confirm(link.Candidate) (bool, error)
}

// Selector iterates ranked candidates until one is confirmed.
type Selector struct {
	Enumerator link.Enumerator
	Confirmer  Confirmer
	Clock      clockwork.Clock
	Out        io.Writer
	Signature  Signature
	// Wait enables the hot-plug loop: when enumeration finds nothing,
	// keep polling until a device appears instead of failing.
	Wait bool
}

// Select runs one selection round. An empty enumeration fails with
// ErrNoDeviceFound (unless Wait is set); rejecting every candidate
// fails with ErrNoDeviceConfirmed.
func (s *Selector) Select(ctx context.Context) (link.Candidate, error) {
	clock := s.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	candidates, err := s.Enumerator.List()
	if err != nil {
		return link.Candidate{}, fmt.Errorf("failed to list candidates: %w", err)
	}

	if len(candidates) == 0 {
		if !s.Wait {
			return link.Candidate{}, ErrNoDeviceFound
		}
		return s.waitForDevice(ctx, clock, nil)
	}

	rejected := make(map[string]bool, len(candidates))
	for _, c := range Rank(candidates, s.Signature) {
		ok, err := s.Confirmer.Confirm(c)
		if err != nil {
			return link.Candidate{}, fmt.Errorf("confirmation failed: %w", err)
		}
		if ok {
			log.Info().Msgf("confirmed device: %s (%s:%s)", c.Path, c.VID, c.PID)
			return c, nil
		}
		rejected[c.Key()] = true
		log.Debug().Msgf("rejected device: %s", c.Path)
	}

	return link.Candidate{}, ErrNoDeviceConfirmed
}

// waitForDevice polls the enumerator once a second until a not-yet-seen
// candidate is confirmed. Rejected devices are remembered and never
// re-offered.
func (s *Selector) waitForDevice(
	ctx context.Context,
	clock clockwork.Clock,
	rejected map[string]bool,
) (link.Candidate, error) {
	if rejected == nil {
		rejected = make(map[string]bool)
	}

	fmt.Fprintln(s.Out, "Waiting for a USB serial device to appear...")

	seen := make(map[string]bool)
	for {
		if err := ctx.Err(); err != nil {
			return link.Candidate{}, fmt.Errorf("device wait canceled: %w", err)
		}

		candidates, err := s.Enumerator.List()
		if err != nil {
			return link.Candidate{}, fmt.Errorf("failed to list candidates: %w", err)
		}

		fresh := make([]link.Candidate, 0, len(candidates))
		for _, c := range candidates {
			if !seen[c.Key()] && !rejected[c.Key()] {
				fresh = append(fresh, c)
			}
			seen[c.Key()] = true
		}

		for _, c := range Rank(fresh, s.Signature) {
			ok, err := s.Confirmer.Confirm(c)
			if err != nil {
				return link.Candidate{}, fmt.Errorf("confirmation failed: %w", err)
			}
			if ok {
				log.Info().Msgf("confirmed device: %s (%s:%s)", c.Path, c.VID, c.PID)
				return c, nil
			}
			rejected[c.Key()] = true
			fmt.Fprintln(s.Out, "Okay, ignoring this device. Still listening...")
		}

		clock.Sleep(time.Second)
	}
}
