package app

import (
	"os"
	"sync/atomic"
)

// testModeEnv is set by the testing package so test binaries that link main
// never open sockets or database pools.
const testModeEnv = "ACCOUNTS_TEST_MODE"

var testMode atomic.Bool

func init() {
	RefreshTestMode()
}

// InTestMode reports whether runtime side effects should be skipped.
func InTestMode() bool {
	return testMode.Load()
}

// RefreshTestMode re-reads the flag after the environment changed.
func RefreshTestMode() {
	testMode.Store(os.Getenv(testModeEnv) == "1")
}
