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

package device

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/seaward-tools/seacap/pkg/link"
)

// PromptConfirmer asks an interactive yes/no question per candidate.
// Empty input defaults to yes. Input is injected so tests never touch a
// real terminal.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{
		in:  bufio.NewReader(in),
		out: out,
	}
}

func (p *PromptConfirmer) Confirm(c link.Candidate) (bool, error) {
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, c.Describe())
	fmt.Fprint(p.out, "\nIs this your Seaward meter? [Y/n]: ")

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AssumeYes confirms every candidate without prompting, for scripted
// runs (-yes flag).
type AssumeYes struct{}

func (AssumeYes) Confirm(link.Candidate) (bool, error) {
	return true, nil
}
