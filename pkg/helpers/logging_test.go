package helpers

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "cfg"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(t.TempDir(), "state"))
	xdg.Reload()

	assert.Equal(t, "seacap", filepath.Base(ConfigDir()))
	assert.Equal(t, "seacap", filepath.Base(StateDir()))
	assert.NotEqual(t, ConfigDir(), StateDir())

	require.NoError(t, EnsureDirectories())
	assert.DirExists(t, ConfigDir())
	assert.DirExists(t, StateDir())
}

func TestInitLogging(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	xdg.Reload()

	buf := &bytes.Buffer{}
	require.NoError(t, InitLogging([]io.Writer{buf}))

	log.Info().Msg("logging initialized")
	assert.Contains(t, buf.String(), "logging initialized")
}
