package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adrg/xdg"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), CONFIG_FILE_NAME)
	require.NoError(t, os.WriteFile(path, []byte(content), CONFIG_FILE_PERM))
	return path
}

func TestLoad(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("full file", func(t *testing.T) {
		path := writeConfig(t, `
world: the_nether
data-file: data/programs.kv
programs-dir: /srv/programs
tick-interval: 1s
log-level: debug
log-format: json
max-call-depth: 20
max-statements-per-tick: 1000
metrics-address: localhost:9100
show-error-messages: false
show-script-logs: false
autosave-delay: ""
`)
		config, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "the_nether", config.World)
		assert.Equal(t, filepath.Join(filepath.Dir(path), "data", "programs.kv"), config.DataFile)
		assert.Equal(t, "/srv/programs", config.ProgramsDir)
		assert.Equal(t, "localhost:9100", config.MetricsAddress)
		assert.False(t, config.ShowErrorMessages)
		assert.False(t, config.ShowScriptLogs)

		tick, err := config.Tick()
		require.NoError(t, err)
		assert.Equal(t, time.Second, tick)

		autosave, err := config.Autosave()
		require.NoError(t, err)
		assert.Zero(t, autosave)

		level, err := config.Level()
		require.NoError(t, err)
		assert.Equal(t, zerolog.DebugLevel, level)

		managerConfig := config.ManagerConfig()
		assert.Equal(t, "the_nether", managerConfig.World)
		assert.Equal(t, 20, managerConfig.MaxCallDepth)
		assert.Equal(t, 1000, managerConfig.MaxStatementsPerTick)
	})

	t.Run("absent fields keep their default value", func(t *testing.T) {
		path := writeConfig(t, "data-file: programs.kv\n")
		config, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, core.DEFAULT_WORLD_NAME, config.World)
		assert.Equal(t, DEFAULT_TICK_INTERVAL.String(), config.TickInterval)
		assert.Equal(t, core.DEFAULT_MAX_CALL_DEPTH, config.MaxCallDepth)
		assert.True(t, config.ShowErrorMessages)
		assert.Equal(t, filepath.Join(filepath.Dir(path), PROGRAMS_DIR_NAME), config.ProgramsDir)
	})

	t.Run("invalid values", func(t *testing.T) {
		for _, content := range []string{
			"tick-interval: 0s",
			"tick-interval: soon",
			"log-level: loud",
			"log-format: xml",
			"world: My World",
			"max-call-depth: -1",
			"autosave-delay: -1s",
			"unknown-field: 1",
			"world: [",
		} {
			_, err := Load(writeConfig(t, "data-file: programs.kv\n"+content+"\n"))
			assert.ErrorIs(t, err, ErrInvalidConfig, content)
		}
	})
}

func TestLoadMissingFile(t *testing.T) {
	dataHome := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dataHome)
	xdg.Reload()
	defer xdg.Reload()

	config, err := Load(filepath.Join(t.TempDir(), CONFIG_FILE_NAME))
	require.NoError(t, err)

	assert.Equal(t, Default().World, config.World)
	assert.Equal(t, filepath.Join(dataHome, DATA_FILE_RELPATH), config.DataFile)
	assert.Equal(t, filepath.Join(dataHome, APP_NAME, PROGRAMS_DIR_NAME), config.ProgramsDir)
}

func TestWrite(t *testing.T) {
	testconfig.AllowParallelization(t)

	path := filepath.Join(t.TempDir(), "nested", CONFIG_FILE_NAME)
	config := Default()
	config.World = "end"
	config.DataFile = "/tmp/programs.kv"
	require.NoError(t, config.Write(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "end", loaded.World)
	assert.Equal(t, "/tmp/programs.kv", loaded.DataFile)
}
