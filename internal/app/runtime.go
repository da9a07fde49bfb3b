// Package app assembles the POS configuration service: configuration,
// logging, the middleware stack and the API router.
package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

const testModeEnv = "ODYSSEY_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeInit sync.Once
)

func readTestMode() bool {
	on, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(testModeEnv)))
	return err == nil && on
}

// InTestMode reports whether the binary runs under tests, in which case main
// skips connecting to Postgres and Redis.
func InTestMode() bool {
	testModeInit.Do(func() { testMode.Store(readTestMode()) })
	return testMode.Load()
}

// RefreshTestMode re-reads ODYSSEY_TEST_MODE.
func RefreshTestMode() {
	testModeInit.Do(func() {})
	testMode.Store(readTestMode())
}
