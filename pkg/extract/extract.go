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

// Package extract finds the vendor data block inside a raw capture
// buffer. It is transport-layer hygiene only: boundary detection and
// line-ending normalization, never content transformation.
package extract

import (
	"bytes"
	"errors"
	"strings"
)

// ErrNoFrameDetected is returned when no line in the capture matches
// the record shape. The buffer is discarded; nothing is written.
var ErrNoFrameDetected = errors.New("no data frame detected in capture")

// Matcher decides which lines belong to the vendor data block. The
// vendor grammar is treated as opaque: Start marks the first line of a
// block and Member any line that continues it.
type Matcher interface {
	Start(line string) bool
	Member(line string) bool
}

// Normalize rewrites every CRLF pair and lone CR as a single LF, so
// block detection only ever reasons about LF-delimited lines. Applied
// uniformly before detection; idempotent.
func Normalize(buf []byte) []byte {
	out := bytes.ReplaceAll(buf, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(out, []byte("\r"), []byte("\n"))
}

// Extract normalizes the capture buffer and returns the contiguous run
// of lines bounded by the matcher: the first Start line through the
// last consecutive Member line. Surrounding noise is discarded; block
// content passes through byte-for-byte apart from the line-ending
// normalization. The input buffer is never mutated.
func Extract(buf []byte, m Matcher) ([]byte, error) {
	lines := strings.Split(string(Normalize(buf)), "\n")

	start := -1
	for i, line := range lines {
		if m.Start(line) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, ErrNoFrameDetected
	}

	end := start
	for i := start + 1; i < len(lines); i++ {
		if !m.Member(lines[i]) {
			break
		}
		end = i
	}

	return []byte(strings.Join(lines[start:end+1], "\n")), nil
}
