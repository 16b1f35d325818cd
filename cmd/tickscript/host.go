package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/hashicorp/go-multierror"
	"github.com/inoxlang/tickscript/internal/config"
	"github.com/inoxlang/tickscript/internal/core"
	"github.com/inoxlang/tickscript/internal/filekv"
	"github.com/inoxlang/tickscript/internal/hack"
	"github.com/inoxlang/tickscript/internal/hosttypes"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const (
	MODULE_CACHE_SIZE       = 50
	METRICS_ENDPOINT        = "/metrics"
	SERVER_SHUTDOWN_TIMEOUT = 2 * time.Second
)

// A host owns everything a world needs to run outside of the runtime: the program store, the module files,
// the live entities and the metrics server.
type host struct {
	config   config.Config
	logger   zerolog.Logger
	store    *filekv.SingleFileKV
	entities *hosttypes.EntityRegistry
	worlds   *core.Worlds
	manager  *core.ProgramManager

	metricsServer *http.Server
}

// newLogger creates the logger of the CLI, logs of the log function are dropped if the configuration hides them.
func newLogger(cfg config.Config, out io.Writer) (zerolog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return zerolog.Nop(), err
	}

	if cfg.LogFormat == config.CONSOLE_LOG_FORMAT {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    !config.SHOULD_COLORIZE,
			TimeFormat: time.TimeOnly,
		}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()

	if !cfg.ShowScriptLogs {
		logger = logger.Hook(zerolog.HookFunc(func(e *zerolog.Event, level zerolog.Level, message string) {
			src, ok := hack.GetLogEventStringFieldValue(e, core.QUOTED_SOURCE_LOG_FIELD_NAME)
			if ok && src == core.SCRIPT_LOG_SRC {
				e.Discard()
			}
		}))
	}
	return logger, nil
}

// openHost opens the store and restores the programs of the configured world. Programs that cannot be restored
// are reported but do not prevent the host from starting.
func openHost(cfg config.Config, logOut io.Writer) (*host, error) {
	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.ProgramsDir, config.DATA_DIR_PERM); err != nil {
		return nil, err
	}

	store, err := filekv.OpenSingleFileKV(filekv.KvStoreConfig{
		Path:   cfg.DataFile,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}

	h := &host{
		config:   cfg,
		logger:   logger,
		store:    store,
		entities: hosttypes.NewEntityRegistry(),
		worlds:   core.NewWorlds(),
	}

	var metrics *core.Metrics
	if cfg.MetricsAddress != "" {
		registry := prometheus.NewRegistry()
		metrics, err = core.NewMetrics(registry)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := h.startMetricsServer(registry); err != nil {
			store.Close()
			return nil, err
		}
	}

	managerConfig := cfg.ManagerConfig()
	managerConfig.Loader = core.NewFileLoader(osfs.New(cfg.ProgramsDir), nil, MODULE_CACHE_SIZE)
	managerConfig.Store = store
	managerConfig.Resolver = h.entities
	managerConfig.Logger = logger
	managerConfig.Metrics = metrics

	manager, err := core.NewProgramManager(managerConfig)
	if err != nil {
		logger.Err(err).Msg("some programs could not be restored")
	}
	h.manager = manager

	if err := h.worlds.Add(manager); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

func (h *host) startMetricsServer(registry *prometheus.Registry) error {
	listener, err := net.Listen("tcp", h.config.MetricsAddress)
	if err != nil {
		return fmt.Errorf("failed to start the metrics server: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle(METRICS_ENDPOINT, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	h.metricsServer = &http.Server{Handler: mux}

	go func() {
		err := h.metricsServer.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Err(err).Msg("metrics server stopped")
		}
	}()

	h.logger.Info().Str("address", listener.Addr().String()).Msg("metrics server started")
	return nil
}

// Close stops the metrics server and closes the store, it does not save the programs.
func (h *host) Close() error {
	var result error

	if h.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), SERVER_SHUTDOWN_TIMEOUT)
		defer cancel()
		if err := h.metricsServer.Shutdown(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := h.store.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result
}
