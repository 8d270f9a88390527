package config

import (
	"os"
	"testing"
)

// unsetForTest removes key for the rest of the test. t.Setenv must have been
// called for key first so the original value is restored on cleanup.
func unsetForTest(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("unsetting %s: %v", key, err)
	}
}
