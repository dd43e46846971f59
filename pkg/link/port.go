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

package link

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
)

// ErrLinkUnavailable is returned when the confirmed device cannot be
// opened. There is no retry at this layer; the operator reconnects the
// meter and reruns.
var ErrLinkUnavailable = errors.New("serial link unavailable")

// readBufferSize matches the meter's largest observed burst with room
// to spare.
const readBufferSize = 4096

// SerialPort defines the port operations the link needs (for mocking
// in tests).
type SerialPort interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
	SetReadTimeout(t time.Duration) error
}

// PortFactory creates a serial port connection.
type PortFactory func(path string, mode *serial.Mode) (SerialPort, error)

// DefaultPortFactory opens a real serial port. DTR and RTS are lowered
// best-effort after open: the meter's bridge misbehaves with either
// line asserted, but not every adapter supports clearing them.
func DefaultPortFactory(path string, mode *serial.Mode) (SerialPort, error) {
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetDTR(false); err != nil {
		log.Debug().Err(err).Msg("could not lower DTR")
	}
	if err := port.SetRTS(false); err != nil {
		log.Debug().Err(err).Msg("could not lower RTS")
	}

	return port, nil
}

// Link is the single open, framed serial connection in use for the
// current run. Exactly one Link exists per run; it is exclusively owned
// by the capture session.
type Link struct {
	port SerialPort
	path string
	buf  []byte
}

// Open opens the confirmed candidate's device path at the meter's fixed
// framing (9600-8-N-1 by default; baud is configurable) and arms the
// bounded read timeout. Any failure is ErrLinkUnavailable and fatal to
// the run.
func Open(path string, baud int, readTimeout time.Duration, factory PortFactory) (*Link, error) {
	if factory == nil {
		factory = DefaultPortFactory
	}

	port, err := factory(path, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf(
			"%w: %s: %v (if this is a permission error, add your user to the dialout or uucp group)",
			ErrLinkUnavailable, path, err,
		)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		if closeErr := port.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close serial port")
		}
		return nil, fmt.Errorf("%w: %s: failed to set read timeout: %v",
			ErrLinkUnavailable, path, err)
	}

	log.Info().Msgf("opened serial link: %s (%d baud)", path, baud)

	return &Link{
		port: port,
		path: path,
		buf:  make([]byte, readBufferSize),
	}, nil
}

// Write sends bytes to the meter.
func (l *Link) Write(p []byte) error {
	if _, err := l.port.Write(p); err != nil {
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	return nil
}

// ReadAvailable performs one bounded read and returns zero or more
// bytes. A timeout with no data is a normal polling cycle, not an
// error: it returns (nil, nil).
func (l *Link) ReadAvailable() ([]byte, error) {
	n, err := l.port.Read(l.buf)
	if err != nil {
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	chunk := make([]byte, n)
	copy(chunk, l.buf[:n])
	return chunk, nil
}

// Path returns the device path the link was opened on.
func (l *Link) Path() string {
	return l.path
}

// Close releases the port. Safe to call once per run end.
func (l *Link) Close() error {
	if l.port == nil {
		return nil
	}
	if err := l.port.Close(); err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}
