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
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// Enumerator lists attached serial-capable devices. It may be called
// repeatedly; the hot-plug wait loop polls it once a second.
type Enumerator interface {
	List() ([]Candidate, error)
}

// USBEnumerator enumerates ports via the OS USB descriptor tables.
type USBEnumerator struct{}

func (USBEnumerator) List() ([]Candidate, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}

	candidates := make([]Candidate, 0, len(ports))
	for _, p := range ports {
		c := Candidate{
			Path:         p.Name,
			Product:      p.Product,
			Description:  p.Product,
			SerialNumber: p.SerialNumber,
			VID:          p.VID,
			PID:          p.PID,
		}
		if !isUSBSerial(c, p.IsUSB) {
			continue
		}
		candidates = append(candidates, c)
	}

	return candidates, nil
}

// isUSBSerial filters out onboard UARTs and other non-USB ports that
// cannot be the meter's CP2102 bridge.
func isUSBSerial(c Candidate, isUSB bool) bool {
	if isUSB || (c.VID != "" && c.PID != "") {
		return true
	}
	path := strings.ToLower(c.Path)
	if strings.HasPrefix(path, "/dev/ttyusb") || strings.HasPrefix(path, "/dev/ttyacm") {
		return true
	}
	desc := strings.ToUpper(c.Description + " " + c.Product)
	return strings.Contains(desc, "USB")
}
