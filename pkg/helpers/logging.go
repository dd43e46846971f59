package helpers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFile = "seacap.log"
	appDir  = "seacap"
)

// ConfigDir returns the directory holding the user config file.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, appDir)
}

// StateDir returns the directory holding logs and other run state.
func StateDir() string {
	return filepath.Join(xdg.StateHome, appDir)
}

// EnsureDirectories creates the config and state directories if missing.
func EnsureDirectories() error {
	for _, dir := range []string{ConfigDir(), StateDir()} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// InitLogging sets up the global logger writing to a rotating file in the
// state dir, plus any extra writers (e.g. stderr in debug mode).
func InitLogging(writers []io.Writer) error {
	err := os.MkdirAll(StateDir(), 0o750)
	if err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	logWriters := []io.Writer{&lumberjack.Logger{
		Filename:   filepath.Join(StateDir(), logFile),
		MaxSize:    1,
		MaxBackups: 2,
	}}

	if len(writers) > 0 {
		logWriters = append(logWriters, writers...)
	}

	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	log.Logger = log.Output(io.MultiWriter(logWriters...)).
		With().Timestamp().Caller().Logger()

	return nil
}
