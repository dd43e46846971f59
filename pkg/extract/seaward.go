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

package extract

import (
	"fmt"
	"regexp"
)

// RecordMatcher bounds a block with two patterns: start matches the
// block's first line, stop matches the first line after it. Everything
// between is a member.
type RecordMatcher struct {
	start *regexp.Regexp
	stop  *regexp.Regexp
}

func NewRecordMatcher(startPat, stopPat string) (*RecordMatcher, error) {
	start, err := regexp.Compile(startPat)
	if err != nil {
		return nil, fmt.Errorf("invalid start pattern: %w", err)
	}
	stop, err := regexp.Compile(stopPat)
	if err != nil {
		return nil, fmt.Errorf("invalid stop pattern: %w", err)
	}
	return &RecordMatcher{start: start, stop: stop}, nil
}

// NewCompiledMatcher wraps already-compiled patterns, e.g. from the
// config instance.
func NewCompiledMatcher(start, stop *regexp.Regexp) *RecordMatcher {
	return &RecordMatcher{start: start, stop: stop}
}

func (m *RecordMatcher) Start(line string) bool {
	return m.start.MatchString(line)
}

func (m *RecordMatcher) Member(line string) bool {
	return !m.stop.MatchString(line)
}

// NewSeawardMatcher matches the Seaward 200/210 CSV dump: the block
// starts at the "Serial no," metadata line and runs until a blank line
// or the --END-- sentinel.
func NewSeawardMatcher() *RecordMatcher {
	m, err := NewRecordMatcher(
		`(?i)^\s*serial\s*no\s*,`,
		`^\s*$|^\s*--END--`,
	)
	if err != nil {
		panic(err)
	}
	return m
}
