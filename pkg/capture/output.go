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
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
)

// outputStampFormat produces seaward_2026_08_26_153045.csv style names.
const outputStampFormat = "2006_01_02_150405"

// Writer persists an extracted payload under the capture directory.
// The filesystem is injectable so tests write to memory. Writer is only
// invoked after a successful extraction; no partial file ever exists.
type Writer struct {
	fs    afero.Fs
	clock clockwork.Clock
	dir   string
}

func NewWriter(fs afero.Fs, dir string, clock clockwork.Clock) *Writer {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Writer{fs: fs, dir: dir, clock: clock}
}

// Write creates the capture directory if absent and writes the payload
// bytes unchanged to a timestamped CSV file. Returns the file path.
func (w *Writer) Write(payload []byte) (string, error) {
	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create capture directory: %w", err)
	}

	name := fmt.Sprintf("seaward_%s.csv", w.clock.Now().Format(outputStampFormat))
	path := filepath.Join(w.dir, name)

	if err := afero.WriteFile(w.fs, path, payload, 0o644); err != nil {
		return "", fmt.Errorf("failed to write capture file: %w", err)
	}

	return path, nil
}
