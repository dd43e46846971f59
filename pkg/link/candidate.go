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

// Package link owns the serial side of a capture run: enumerating
// attached adapters and driving the single open meter connection.
package link

import (
	"fmt"
	"strings"
)

// Candidate is a detected serial adapter with its USB descriptor
// metadata, not yet confirmed as the instrument link. Immutable; lives
// for one selection round.
type Candidate struct {
	Path         string
	Description  string
	Manufacturer string
	Product      string
	SerialNumber string
	VID          string
	PID          string
}

// Key identifies a candidate across enumeration rounds, for remembering
// rejected devices during hot-plug waits.
func (c Candidate) Key() string {
	if c.SerialNumber != "" {
		return c.Path + ":" + c.SerialNumber
	}
	return c.Path
}

// MatchesSignature reports whether the candidate carries the given
// VID:PID pair. Comparison is case-insensitive and tolerates a 0x
// prefix on either side.
func (c Candidate) MatchesSignature(vid, pid string) bool {
	return normalizeID(c.VID) == normalizeID(vid) &&
		normalizeID(c.PID) == normalizeID(pid)
}

func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "0x")
}

// Describe returns the multi-line descriptor block shown to the
// operator before confirmation. Empty fields are omitted.
func (c Candidate) Describe() string {
	var sb strings.Builder
	sb.WriteString("Detected serial device:\n")
	writeField := func(name, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "  %-13s: %s\n", name, value)
		}
	}
	writeField("Device", c.Path)
	writeField("Description", c.Description)
	writeField("Manufacturer", c.Manufacturer)
	writeField("Product", c.Product)
	writeField("SerialNumber", c.SerialNumber)
	if c.VID != "" || c.PID != "" {
		fmt.Fprintf(&sb, "  %-13s: %s:%s\n", "VID:PID", c.VID, c.PID)
	}
	return sb.String()
}
