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
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_TimestampedName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	stamp := time.Date(2026, 8, 26, 15, 30, 45, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(stamp)

	w := NewWriter(fs, "captures", clock)
	path, err := w.Write([]byte("Serial no,1\n1,PAT,PASS"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("captures", "seaward_2026_08_26_153045.csv"), path)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "Serial no,1\n1,PAT,PASS", string(data))
}

func TestWriter_CreatesDirectory(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := NewWriter(fs, filepath.Join("deep", "nested", "captures"), clockwork.NewFakeClock())

	path, err := w.Write([]byte("x"))
	require.NoError(t, err)

	exists, err := afero.DirExists(fs, filepath.Join("deep", "nested", "captures"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.Exists(fs, path)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestWriter_PayloadUnchanged(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	w := NewWriter(fs, "captures", clockwork.NewFakeClock())

	// no trailing newline is appended, no bytes are altered
	payload := []byte("Serial no,1\r\nodd bytes \x01\x02")
	path, err := w.Write(payload)
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestWriter_DirectoryError(t *testing.T) {
	t.Parallel()

	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	w := NewWriter(fs, "captures", clockwork.NewFakeClock())

	_, err := w.Write([]byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capture directory")
}
