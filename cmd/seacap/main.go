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

// Seacap captures a measurement dump from a serial-attached Seaward
// 200/210 PAT meter and saves it as a CSV file.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/seaward-tools/seacap/pkg/capture"
	"github.com/seaward-tools/seacap/pkg/config"
	"github.com/seaward-tools/seacap/pkg/device"
	"github.com/seaward-tools/seacap/pkg/helpers"
	"github.com/seaward-tools/seacap/pkg/link"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	showVersion := flag.Bool(
		"version",
		false,
		"print version and exit",
	)
	debugMode := flag.Bool(
		"debug",
		false,
		"enable debug logging to stderr",
	)
	devicePath := flag.String(
		"device",
		"",
		"open this serial device directly, skipping detection",
	)
	waitMode := flag.Bool(
		"wait",
		false,
		"wait for a device to be plugged in if none is attached",
	)
	assumeYes := flag.Bool(
		"yes",
		false,
		"confirm the first matching device without prompting",
	)
	captureDir := flag.String(
		"dir",
		"",
		"directory to save captures in (default from config)",
	)
	flag.Parse()

	if *showVersion {
		_, _ = fmt.Printf("%s v%s\n", config.AppName, config.AppVersion)
		return nil
	}

	if err := helpers.EnsureDirectories(); err != nil {
		return err
	}

	var logWriters []io.Writer
	if *debugMode {
		logWriters = append(logWriters, os.Stderr)
	}
	if err := helpers.InitLogging(logWriters); err != nil {
		return err
	}

	cfg, err := config.NewConfig(helpers.ConfigDir(), config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *debugMode || cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if *captureDir != "" {
		cfg.SetCaptureDir(*captureDir)
	}

	log.Info().Msgf("%s v%s starting (device id %s)",
		config.AppName, config.AppVersion, cfg.DeviceID())

	var confirmer device.Confirmer = device.NewPromptConfirmer(os.Stdin, os.Stdout)
	if *assumeYes {
		confirmer = device.AssumeYes{}
	}

	session := &capture.Session{
		Cfg:        cfg,
		Enumerator: link.USBEnumerator{},
		Confirmer:  confirmer,
		Out:        os.Stdout,
		DevicePath: *devicePath,
		Wait:       *waitMode,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := session.Run(ctx); err != nil {
		log.Error().Err(err).Msg("capture failed")
		return err
	}

	return nil
}
