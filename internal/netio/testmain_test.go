package netio_test

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain checks for goroutine leaks after all netio tests complete: the
// receiver must not strand its per-listener goroutines on shutdown.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
