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
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/seaward-tools/seacap/pkg/config"
	"github.com/seaward-tools/seacap/pkg/device"
	"github.com/seaward-tools/seacap/pkg/extract"
	"github.com/seaward-tools/seacap/pkg/link"
	"github.com/seaward-tools/seacap/pkg/link/testutils"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Instance {
	t.Helper()
	t.Setenv(config.CfgEnv, filepath.Join(t.TempDir(), "config.toml"))
	cfg, err := config.NewConfig(t.TempDir(), config.BaseDefaults)
	require.NoError(t, err)
	return cfg
}

// meterReadFunc scripts a full acquisition as seen through the port's
// bounded reads: silence while the operator fumbles with the meter, the
// dump in two chunks, then silence until the quiet window closes. Each
// empty read advances the fake clock the way a real read timeout
// advances wall time.
func meterReadFunc(clock *clockwork.FakeClock, dump []byte) func(p []byte) (int, error) {
	half := len(dump) / 2
	calls := 0
	return func(p []byte) (int, error) {
		calls++
		switch {
		case calls <= 10:
			clock.Advance(100 * time.Millisecond)
			return 0, nil
		case calls == 11:
			return copy(p, dump[:half]), nil
		case calls == 12:
			return copy(p, dump[half:]), nil
		default:
			clock.Advance(500 * time.Millisecond)
			return 0, nil
		}
	}
}

func TestSession_EndToEnd(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC))
	fs := afero.NewMemMapFs()
	out := &bytes.Buffer{}

	dump := []byte("Serial no,70123456,FileVersion,1.3\r\n" +
		"Index,Description,Result\r\n1,PAT,PASS\r\n2,PAT,PASS\r\n")

	mockPort := testutils.NewMockSerialPort()
	mockPort.ReadFunc = meterReadFunc(clock, dump)

	var openedPath string
	var openedMode *serial.Mode
	factory := func(path string, mode *serial.Mode) (link.SerialPort, error) {
		openedPath = path
		openedMode = mode
		return mockPort, nil
	}

	session := &Session{
		Cfg: testConfig(t),
		Enumerator: &testutils.MockEnumerator{Lists: [][]link.Candidate{{
			{
				Path:    "/dev/ttyUSB0",
				Product: "CP2102 USB to UART Bridge Controller",
				VID:     "10C4",
				PID:     "EA60",
			},
		}}},
		Confirmer:   device.AssumeYes{},
		PortFactory: factory,
		Clock:       clock,
		Fs:          fs,
		Out:         out,
	}

	path, err := session.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", openedPath)
	require.NotNil(t, openedMode)
	assert.Equal(t, 9600, openedMode.BaudRate)
	assert.True(t, mockPort.IsClosed())

	// one initial request round plus one resend before the meter answered
	writes := mockPort.Writes()
	require.Len(t, writes, 4)
	assert.Equal(t, "SYST:REM\r\n", string(writes[0]))
	assert.Equal(t, "MEM:DATA? ALL\r\n", string(writes[1]))

	assert.True(t, strings.HasPrefix(filepath.Base(path), "seaward_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))
	assert.Equal(t, "captures", filepath.Dir(path))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t,
		"Serial no,70123456,FileVersion,1.3\n"+
			"Index,Description,Result\n1,PAT,PASS\n2,PAT,PASS",
		string(data))

	entries, err := afero.ReadDir(fs, "captures")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "exactly one capture file per run")

	s := out.String()
	assert.Contains(t, s, "CP2102 USB to UART Bridge Controller selected")
	assert.Contains(t, s, "Listener armed on /dev/ttyUSB0")
	assert.Contains(t, s, "Data detected, capturing...")
	assert.Contains(t, s, "Meter serial number: 70123456")
	assert.Contains(t, s, "Saved CSV: "+path)
}

func TestSession_DevicePathSkipsSelection(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := afero.NewMemMapFs()

	dump := []byte("Serial no,1\r\n1,PAT,PASS\r\n")
	mockPort := testutils.NewMockSerialPort()
	mockPort.ReadFunc = meterReadFunc(clock, dump)

	var openedPath string
	factory := func(path string, _ *serial.Mode) (link.SerialPort, error) {
		openedPath = path
		return mockPort, nil
	}

	session := &Session{
		Cfg:         testConfig(t),
		PortFactory: factory,
		Clock:       clock,
		Fs:          fs,
		DevicePath:  "/dev/ttyUSB9",
	}

	_, err := session.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB9", openedPath)
}

func TestSession_NoFrameInCapture(t *testing.T) {
	clock := clockwork.NewFakeClock()
	fs := afero.NewMemMapFs()

	// the meter answered, but nothing resembling a record block
	dump := []byte("garbage noise\r\nmore garbage\r\n")
	mockPort := testutils.NewMockSerialPort()
	mockPort.ReadFunc = meterReadFunc(clock, dump)

	factory := func(_ string, _ *serial.Mode) (link.SerialPort, error) {
		return mockPort, nil
	}

	session := &Session{
		Cfg:         testConfig(t),
		PortFactory: factory,
		Clock:       clock,
		Fs:          fs,
		DevicePath:  "/dev/ttyUSB0",
	}

	_, err := session.Run(context.Background())
	require.ErrorIs(t, err, extract.ErrNoFrameDetected)

	// nothing is written on failure
	exists, err := afero.DirExists(fs, "captures")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSession_SelectionRejected(t *testing.T) {
	session := &Session{
		Cfg: testConfig(t),
		Enumerator: &testutils.MockEnumerator{Lists: [][]link.Candidate{{
			{Path: "/dev/ttyUSB0", VID: "10C4", PID: "EA60"},
		}}},
		Confirmer: rejectAll{},
		Fs:        afero.NewMemMapFs(),
	}

	_, err := session.Run(context.Background())
	require.ErrorIs(t, err, device.ErrNoDeviceConfirmed)
}

type rejectAll struct{}

func (rejectAll) Confirm(_ link.Candidate) (bool, error) {
	return false, nil
}
