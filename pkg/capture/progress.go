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
	"fmt"
	"io"
	"regexp"
	"strings"
)

var (
	progressMetaRe    = regexp.MustCompile(`(?i)^\s*serial\s*no\s*,`)
	progressHeaderRe  = regexp.MustCompile(`(?i)^\s*index\s*,`)
	progressReadingRe = regexp.MustCompile(`^\s*\d+\s*,`)
)

// Progress is a streaming observer of the capture: it recognizes the
// meter's metadata line, column header, and numbered readings as they
// arrive, and reports them to the operator. It never alters the
// capture buffer.
type Progress struct {
	out         io.Writer
	serial      string
	fileVersion string
	pending     []byte
	readings    int
	totalBytes  int
	sawMeta     bool
	sawHeader   bool
}

func NewProgress(out io.Writer) *Progress {
	if out == nil {
		out = io.Discard
	}
	return &Progress{out: out}
}

// Feed consumes a raw chunk, assembling lines across chunk boundaries.
func (p *Progress) Feed(chunk []byte) {
	p.totalBytes += len(chunk)
	p.pending = append(p.pending, chunk...)

	for {
		nl := -1
		for i, b := range p.pending {
			if b == '\n' {
				nl = i
				break
			}
		}
		if nl == -1 {
			return
		}
		raw := p.pending[:nl+1]
		p.handleLine(raw)
		p.pending = p.pending[nl+1:]
	}
}

// Flush processes any trailing partial line once the capture is done.
func (p *Progress) Flush() {
	if len(p.pending) > 0 {
		p.handleLine(p.pending)
		p.pending = nil
	}
	if p.readings > 0 {
		fmt.Fprintf(p.out, "Total readings: %d (%d bytes)\n", p.readings, p.totalBytes)
	}
}

func (p *Progress) handleLine(raw []byte) {
	s := strings.Trim(strings.ReplaceAll(string(raw), "\r", ""), "\n")
	if strings.TrimSpace(s) == "" {
		return
	}

	switch {
	case !p.sawMeta && progressMetaRe.MatchString(s):
		p.sawMeta = true
		p.parseMeta(s)
		if p.serial != "" {
			fmt.Fprintf(p.out, "Meter serial number: %s\n", p.serial)
		}
		if p.fileVersion != "" {
			fmt.Fprintf(p.out, "File version: %s\n", p.fileVersion)
		}
	case p.sawMeta && !p.sawHeader && progressHeaderRe.MatchString(s):
		p.sawHeader = true
		fmt.Fprintf(p.out, "Downloading: %s\n", s)
	case p.sawHeader && progressReadingRe.MatchString(s):
		p.readings++
		fmt.Fprintf(p.out, "%4d bytes received: reading %d\n", len(raw), p.readings)
	}
}

// parseMeta pulls key,value pairs out of the metadata line, e.g.
// "Serial no,70123456,FileVersion,1.3".
func (p *Progress) parseMeta(s string) {
	toks := strings.Split(s, ",")
	for i := 0; i < len(toks)-1; i++ {
		key := strings.ToLower(strings.TrimSpace(toks[i]))
		val := strings.TrimSpace(toks[i+1])
		if strings.HasPrefix(key, "serial") {
			p.serial = val
		}
		if strings.HasPrefix(key, "fileversion") {
			p.fileVersion = val
		}
	}
}

// Readings returns how many reading lines were observed.
func (p *Progress) Readings() int {
	return p.readings
}

// TotalBytes returns the raw byte count fed so far.
func (p *Progress) TotalBytes() int {
	return p.totalBytes
}

// SerialNumber returns the meter serial parsed from the metadata line,
// if seen.
func (p *Progress) SerialNumber() string {
	return p.serial
}

// FileVersion returns the dump file version, if seen.
func (p *Progress) FileVersion() string {
	return p.fileVersion
}
