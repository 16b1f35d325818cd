package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/rs/zerolog"
)

const (
	APP_NAME = "tickscript"

	CONFIG_FILE_NAME    = "config.yaml"
	CONFIG_FILE_RELPATH = APP_NAME + "/" + CONFIG_FILE_NAME
	DATA_FILE_RELPATH   = APP_NAME + "/programs.kv"
	PROGRAMS_DIR_NAME   = "programs"

	CONFIG_FILE_PERM = 0o600
	DATA_DIR_PERM    = 0o700

	DEFAULT_TICK_INTERVAL = 50 * time.Millisecond
	DEFAULT_LOG_LEVEL     = "info"

	CONSOLE_LOG_FORMAT = "console"
	JSON_LOG_FORMAT    = "json"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the configuration of the command line interface, it is read from a YAML file.
// Fields that are absent from the file keep their default value.
type Config struct {
	World string `yaml:"world"`

	//bbolt file the programs are saved to, defaults to $XDG_DATA_HOME/tickscript/programs.kv.
	DataFile string `yaml:"data-file"`

	//directory containing the module files, defaults to the programs directory next to the data file.
	ProgramsDir string `yaml:"programs-dir"`

	//duration of a tick, for example 50ms or 1s.
	TickInterval string `yaml:"tick-interval"`

	LogLevel  string `yaml:"log-level"`
	LogFormat string `yaml:"log-format"`

	MaxCallDepth         int `yaml:"max-call-depth"`
	MaxStatementsPerTick int `yaml:"max-statements-per-tick"`

	//address of the HTTP server exposing the Prometheus metrics, no server is started if empty.
	MetricsAddress string `yaml:"metrics-address"`

	//if false error reports only show the error key and position.
	ShowErrorMessages bool `yaml:"show-error-messages"`

	//if false the logs of the log function are dropped.
	ShowScriptLogs bool `yaml:"show-script-logs"`

	//delay between the last change of a world and its automatic save, 0 disables automatic saves.
	AutosaveDelay string `yaml:"autosave-delay"`
}

func Default() Config {
	return Config{
		World:             core.DEFAULT_WORLD_NAME,
		TickInterval:      DEFAULT_TICK_INTERVAL.String(),
		LogLevel:          DEFAULT_LOG_LEVEL,
		LogFormat:         CONSOLE_LOG_FORMAT,
		MaxCallDepth:      core.DEFAULT_MAX_CALL_DEPTH,
		ShowErrorMessages: true,
		ShowScriptLogs:    true,
		AutosaveDelay:     "5s",
	}
}

// DefaultPath searches for the configuration file in the XDG config directories, if there is none
// it returns the path the file should be created at.
func DefaultPath() (string, error) {
	path, err := xdg.SearchConfigFile(CONFIG_FILE_RELPATH)
	if err == nil {
		return path, nil
	}
	return xdg.ConfigFile(CONFIG_FILE_RELPATH)
}

// Load reads the configuration file at path (DefaultPath() if empty), a missing file results in the default
// configuration. Relative paths are resolved against the directory of the file.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	config := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, err
	default:
		if err := Parse(data, &config); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
		config.resolvePaths(filepath.Dir(path))
	}

	if err := config.setDefaultPaths(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Parse decodes YAML data on top of the values already in config and validates the result.
func Parse(data []byte, config *Config) error {
	if err := yaml.UnmarshalWithOptions(data, config, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return config.Validate()
}

func (c Config) Validate() error {
	if err := core.CheckWorldName(c.World); err != nil {
		return fmt.Errorf("%w: world: %w", ErrInvalidConfig, err)
	}
	if _, err := c.Tick(); err != nil {
		return err
	}
	if _, err := c.Autosave(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.LogFormat != CONSOLE_LOG_FORMAT && c.LogFormat != JSON_LOG_FORMAT {
		return fmt.Errorf("%w: log-format should be %s or %s", ErrInvalidConfig, CONSOLE_LOG_FORMAT, JSON_LOG_FORMAT)
	}
	if c.MaxCallDepth < 0 || c.MaxStatementsPerTick < 0 {
		return fmt.Errorf("%w: limits should be positive", ErrInvalidConfig)
	}
	return nil
}

func (c Config) Tick() (time.Duration, error) {
	d, err := time.ParseDuration(c.TickInterval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: tick-interval should be a positive duration: %q", ErrInvalidConfig, c.TickInterval)
	}
	return d, nil
}

// Autosave returns the autosave delay, 0 if automatic saves are disabled.
func (c Config) Autosave() (time.Duration, error) {
	if c.AutosaveDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.AutosaveDelay)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: autosave-delay should be a duration: %q", ErrInvalidConfig, c.AutosaveDelay)
	}
	return d, nil
}

func (c Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return level, nil
}

func (c *Config) resolvePaths(dir string) {
	if c.DataFile != "" && !filepath.IsAbs(c.DataFile) {
		c.DataFile = filepath.Join(dir, c.DataFile)
	}
	if c.ProgramsDir != "" && !filepath.IsAbs(c.ProgramsDir) {
		c.ProgramsDir = filepath.Join(dir, c.ProgramsDir)
	}
}

func (c *Config) setDefaultPaths() error {
	if c.DataFile == "" {
		path, err := xdg.DataFile(DATA_FILE_RELPATH)
		if err != nil {
			return err
		}
		c.DataFile = path
	}
	if c.ProgramsDir == "" {
		c.ProgramsDir = filepath.Join(filepath.Dir(c.DataFile), PROGRAMS_DIR_NAME)
	}
	return nil
}

// ManagerConfig returns the limits of the program manager, the other fields are set by the caller.
func (c Config) ManagerConfig() core.ProgramManagerConfig {
	return core.ProgramManagerConfig{
		World:                c.World,
		MaxCallDepth:         c.MaxCallDepth,
		MaxStatementsPerTick: c.MaxStatementsPerTick,
	}
}

// Write writes the configuration to path in YAML, the parent directories are created if needed.
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), DATA_DIR_PERM); err != nil {
		return err
	}
	return os.WriteFile(path, data, CONFIG_FILE_PERM)
}
