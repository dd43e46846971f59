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

// Package testutils provides mock serial ports and enumerators for
// driving capture runs without hardware.
package testutils

import (
	"errors"
	"time"

	"github.com/seaward-tools/seacap/pkg/helpers/syncutil"
	"github.com/seaward-tools/seacap/pkg/link"
)

// MockSerialPort is a mock implementation of the serial port interface.
// Reads come from ReadFunc if set, otherwise from ReadData; writes are
// recorded for assertion.
type MockSerialPort struct {
	ReadError  error
	CloseError error
	TimeoutErr error
	ReadFunc   func(p []byte) (n int, err error)
	ReadData   []byte
	ReadIndex  int
	writes     [][]byte
	Closed     bool
	mu         syncutil.RWMutex // protects Closed, writes
}

// NewMockSerialPort creates a new mock serial port for testing.
func NewMockSerialPort() *MockSerialPort {
	return &MockSerialPort{}
}

// Read supports custom read functions, error injection, and buffered
// data reading.
func (m *MockSerialPort) Read(p []byte) (n int, err error) {
	m.mu.RLock()
	closed := m.Closed
	m.mu.RUnlock()

	if closed {
		return 0, errors.New("port closed")
	}

	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}

	if m.ReadError != nil {
		return 0, m.ReadError
	}

	if m.ReadIndex >= len(m.ReadData) {
		// simulate a read timeout with no data
		return 0, nil
	}

	n = copy(p, m.ReadData[m.ReadIndex:])
	m.ReadIndex += n
	return n, nil
}

// Write records the written bytes.
func (m *MockSerialPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return 0, errors.New("port closed")
	}
	w := make([]byte, len(p))
	copy(w, p)
	m.writes = append(m.writes, w)
	return len(p), nil
}

// Writes returns a copy of all recorded writes in order.
func (m *MockSerialPort) Writes() [][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	writes := make([][]byte, len(m.writes))
	copy(writes, m.writes)
	return writes
}

// Close marks the port closed.
func (m *MockSerialPort) Close() error {
	m.mu.Lock()
	m.Closed = true
	closeError := m.CloseError
	m.mu.Unlock()
	return closeError
}

// SetReadTimeout returns TimeoutErr if set.
func (m *MockSerialPort) SetReadTimeout(_ time.Duration) error {
	return m.TimeoutErr
}

// IsClosed returns true if the port has been closed (thread-safe).
func (m *MockSerialPort) IsClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Closed
}

// MockEnumerator returns scripted candidate lists, one per call; the
// last list repeats once the script is exhausted.
type MockEnumerator struct {
	Lists [][]link.Candidate
	Err   error
	calls int
}

func (m *MockEnumerator) List() ([]link.Candidate, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Lists) == 0 {
		return nil, nil
	}
	i := m.calls
	if i >= len(m.Lists) {
		i = len(m.Lists) - 1
	}
	m.calls++
	return m.Lists[i], nil
}
