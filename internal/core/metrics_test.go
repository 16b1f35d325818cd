package core

import (
	"testing"

	"github.com/inoxlang/tickscript/internal/testconfig"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	testconfig.AllowParallelization(t)

	t.Run("collectors are updated by the manager", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		metrics, err := NewMetrics(registry)
		require.NoError(t, err)

		manager := newTestManager(t, ModuleMap{
			"main":   newModule(declare(1, "x", intLit(1)), declare(2, "y", intLit(2))),
			"broken": newModule(expr(1, ref("undefined"))),
		}, func(config *ProgramManagerConfig) {
			config.Metrics = metrics
		})

		for _, name := range []string{"main", "broken"} {
			_, err := manager.LoadProgram(name, "", false, nil)
			require.NoError(t, err)
			require.NoError(t, manager.RunProgram(name))
		}
		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.programsLoaded.WithLabelValues(DEFAULT_WORLD_NAME)))

		reports := manager.AdvanceAll()
		require.Len(t, reports, 1)
		manager.AdvanceAll()

		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.ticksTotal.WithLabelValues(DEFAULT_WORLD_NAME)))
		assert.Equal(t, float64(3), testutil.ToFloat64(metrics.statementsTotal))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.errorsTotal.WithLabelValues(DEFAULT_WORLD_NAME, "undefined_variable")))

		require.NoError(t, manager.UnloadProgram("broken"))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.programsLoaded.WithLabelValues(DEFAULT_WORLD_NAME)))

		count, err := testutil.GatherAndCount(registry, "tickscript_tick_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("collectors cannot be registered twice", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		_, err := NewMetrics(registry)
		require.NoError(t, err)

		_, err = NewMetrics(registry)
		assert.Error(t, err)
	})

	t.Run("nil metrics", func(t *testing.T) {
		var metrics *Metrics
		assert.NotPanics(t, func() {
			metrics.statementExecuted()
			metrics.setLoadedPrograms(DEFAULT_WORLD_NAME, 1)
		})
	})
}
