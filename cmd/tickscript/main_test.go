package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/filekv"
	"github.com/inoxlang/tickscript/internal/hosttypes"
	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMain(t *testing.T, args ...string) (exitCode int, stdout string, stderr string) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	exitCode = _main(context.Background(), append([]string{COMMAND_NAME}, args...), strings.NewReader(""), out, errOut)
	return exitCode, out.String(), errOut.String()
}

func TestSubcommands(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("help", func(t *testing.T) {
		for _, args := range [][]string{{"help"}, {"-h"}, {"--help"}} {
			exitCode, stdout, _ := runMain(t, args...)
			assert.Zero(t, exitCode)
			assert.Equal(t, CMD_HELP, stdout)
		}
	})

	t.Run("subcommand help", func(t *testing.T) {
		exitCode, stdout, _ := runMain(t, "help", RUN_SUBCMD)
		assert.Zero(t, exitCode)
		assert.Contains(t, stdout, SUBCOMMAND_DESCRIPTION_MAP[RUN_SUBCMD])
		assert.Contains(t, stdout, "-ticks")
	})

	t.Run("unknown command", func(t *testing.T) {
		exitCode, _, stderr := runMain(t, "jump")
		assert.Equal(t, ERROR_STATUS_CODE, exitCode)
		assert.Contains(t, stderr, "unknown command 'jump'")
	})

	t.Run("run then dump", func(t *testing.T) {
		configPath := writeConfigFile(t, testConfig(t))

		exitCode, stdout, stderr := runMain(t, RUN_SUBCMD, "-config", configPath, "-ticks", "3", "-save", "counter", "a")
		require.Zero(t, exitCode, stderr)
		assert.Contains(t, stdout, "counter is waiting after 3 tick(s)")

		exitCode, stdout, stderr = runMain(t, DUMP_SUBCMD, "-config", configPath)
		require.Zero(t, exitCode, stderr)
		assert.Contains(t, stdout, `Name: "counter"`)
		assert.Contains(t, stdout, `Status: "waiting"`)
		assert.Contains(t, stdout, `Value: "3"`)
		assert.Contains(t, stdout, `"a"`)

		//the program is already loaded in the saved world.
		exitCode, _, stderr = runMain(t, RUN_SUBCMD, "-config", configPath, "counter")
		assert.Equal(t, ERROR_STATUS_CODE, exitCode)
		assert.Contains(t, stderr, core.ErrProgramAlreadyLoaded.Error())
	})

	t.Run("run a failing program", func(t *testing.T) {
		configPath := writeConfigFile(t, testConfig(t))

		exitCode, _, stderr := runMain(t, RUN_SUBCMD, "-config", configPath, "failing")
		assert.Equal(t, ERROR_STATUS_CODE, exitCode)
		assert.Contains(t, stderr, "[failing] undefined_variable at 1:5")
	})

	t.Run("world flag", func(t *testing.T) {
		configPath := writeConfigFile(t, testConfig(t))

		exitCode, _, stderr := runMain(t, RUN_SUBCMD, "-config", configPath, "-world", "Bad World", "counter")
		assert.Equal(t, ERROR_STATUS_CODE, exitCode)
		assert.Contains(t, stderr, core.ErrInvalidWorldName.Error())

		exitCode, stdout, _ := runMain(t, DUMP_SUBCMD, "-config", configPath, "-world", "the_end")
		assert.Zero(t, exitCode)
		assert.Contains(t, stdout, "no saved programs in world the_end")
	})

	t.Run("console reads commands from the input", func(t *testing.T) {
		cfg := testConfig(t)
		configPath := writeConfigFile(t, cfg)

		out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
		input := strings.NewReader("load counter\nrun counter\nquit\n")
		exitCode := _main(context.Background(), []string{COMMAND_NAME, CONSOLE_SUBCMD, "-config", configPath}, input, out, errOut)
		require.Zero(t, exitCode, errOut.String())
		assert.Contains(t, out.String(), "loaded counter")

		store, err := filekv.OpenSingleFileKV(filekv.KvStoreConfig{Path: cfg.DataFile})
		require.NoError(t, err)
		defer store.Close()
		stored, err := store.LoadWorld(cfg.World)
		require.NoError(t, err)
		assert.Len(t, stored, 1)
	})
}

func TestDumpWorldWithEntities(t *testing.T) {
	testconfig.AllowParallelization(t)

	cfg := testConfig(t)
	h, err := openHost(cfg, &bytes.Buffer{})
	require.NoError(t, err)

	e := h.entities.Spawn("bob")
	p, err := h.manager.LoadProgram("counter", "", false, nil)
	require.NoError(t, err)
	require.NoError(t, h.manager.RunProgram("counter"))
	h.manager.AdvanceAll()
	require.NoError(t, p.SetVariable("x", e, true))
	require.NoError(t, h.manager.Save())

	out := &bytes.Buffer{}
	require.NoError(t, DumpWorld(h.store, cfg.World, out))
	require.NoError(t, h.Close())

	//the names of entities are not saved.
	assert.Contains(t, out.String(), e.ID.String())
	assert.NotContains(t, out.String(), "bob")

	_, err = placeholderEntities{}.ResolveObject("block", e.ID.String())
	assert.ErrorIs(t, err, hosttypes.ErrUnknownObjectType)
}
