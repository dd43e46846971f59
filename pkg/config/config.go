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

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
	"github.com/seaward-tools/seacap/pkg/helpers/syncutil"
)

const (
	SchemaVersion = 1
	CfgEnv        = "SEACAP_CFG"
	CfgFile       = "config.toml"
)

type Values struct {
	Serial       Serial  `toml:"serial,omitempty"`
	Capture      Capture `toml:"capture,omitempty"`
	Format       Format  `toml:"format,omitempty"`
	DeviceID     string  `toml:"device_id,omitempty"`
	ConfigSchema int     `toml:"config_schema"`
	DebugLogging bool    `toml:"debug_logging"`
}

// Serial holds the adapter signature and framing for the meter link.
type Serial struct {
	// Preferred USB adapter signature. The Seaward 200/210 ships with a
	// Silicon Labs CP2102 bridge (10C4:EA60).
	PreferredVID string `toml:"preferred_vid"`
	PreferredPID string `toml:"preferred_pid"`
	BaudRate     int    `toml:"baud_rate"`
}

// Capture holds the polling and quiet-window timings.
type Capture struct {
	Dir           string `toml:"dir"`
	PollPeriodMS  int    `toml:"poll_period_ms"`
	QuietWindowMS int    `toml:"quiet_window_ms"`
	ReadTimeoutMS int    `toml:"read_timeout_ms"`
}

// Format holds the record-shape patterns used to bound the data block
// inside the captured stream. The defaults match the Seaward CSV dump;
// they are configurable because the exact vendor grammar varies between
// firmware revisions.
type Format struct {
	StartPattern string `toml:"start_pattern"`
	StopPattern  string `toml:"stop_pattern"`
	startRe      *regexp.Regexp
	stopRe       *regexp.Regexp
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Serial: Serial{
		PreferredVID: "10C4",
		PreferredPID: "EA60",
		BaudRate:     9600,
	},
	Capture: Capture{
		Dir:           "captures",
		PollPeriodMS:  1000,
		QuietWindowMS: 5000,
		ReadTimeoutMS: 100,
	},
	Format: Format{
		StartPattern: `(?i)^\s*serial\s*no\s*,`,
		StopPattern:  `^\s*$|^\s*--END--`,
	},
}

type Instance struct {
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	if cfg.DeviceID() == "" {
		cfg.mu.Lock()
		cfg.vals.DeviceID = uuid.NewString()
		cfg.mu.Unlock()
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top so fields
	// not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	c.vals = newVals

	// compile record-shape patterns up front so a bad pattern fails the
	// run at startup, not after a capture
	c.vals.Format.startRe, err = regexp.Compile(c.vals.Format.StartPattern)
	if err != nil {
		return fmt.Errorf("invalid start pattern: %w", err)
	}
	c.vals.Format.stopRe, err = regexp.Compile(c.vals.Format.StopPattern)
	if err != nil {
		return fmt.Errorf("invalid stop pattern: %w", err)
	}

	return nil
}

func (c *Instance) Save() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DeviceID
}

// PreferredSignature returns the VID:PID pair of the adapter that should
// be offered to the operator first.
func (c *Instance) PreferredSignature() (vid, pid string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.PreferredVID, c.vals.Serial.PreferredPID
}

func (c *Instance) BaudRate() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Serial.BaudRate
}

func (c *Instance) PollPeriod() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Capture.PollPeriodMS) * time.Millisecond
}

func (c *Instance) QuietWindow() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Capture.QuietWindowMS) * time.Millisecond
}

func (c *Instance) ReadTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.vals.Capture.ReadTimeoutMS) * time.Millisecond
}

func (c *Instance) CaptureDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Capture.Dir
}

func (c *Instance) SetCaptureDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Capture.Dir = dir
}

// FramePatterns returns the compiled record-shape patterns. Both are
// non-nil after a successful Load.
func (c *Instance) FramePatterns() (start, stop *regexp.Regexp) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Format.startRe, c.vals.Format.stopRe
}
