package testconfig

import (
	"os"
	"testing"
)

const PARALLEL_TESTS_ENV_VAR = "TICKSCRIPT_PARALLEL_TESTS"

var (
	//tests of the same package run in parallel if the variable is set to 1.
	PARALLELIZE_SAME_PKG_TESTS = os.Getenv(PARALLEL_TESTS_ENV_VAR) == "1"
)

func AllowParallelization(t *testing.T) {
	if PARALLELIZE_SAME_PKG_TESTS {
		t.Parallel()
	}
}
