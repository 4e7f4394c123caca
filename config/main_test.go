package config

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

// TestMain pins the package to the test environment. A DATABASE_URL that is not
// a throwaway SQLite file is refused so Load can never point a test at shared data.
func TestMain(m *testing.M) {
	if env := os.Getenv("GO_ENV"); env != "" && env != "test" {
		fmt.Fprintf(os.Stderr, "SAFETY CHECK FAILED: config tests need GO_ENV=test, got %q\n", env)
		os.Exit(1)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && !strings.HasPrefix(url, "sqlite:") {
		fmt.Fprintln(os.Stderr, "SAFETY CHECK FAILED: unset DATABASE_URL or use a sqlite: URL when running config tests")
		os.Exit(1)
	}
	os.Setenv("GO_ENV", "test")

	os.Exit(m.Run())
}
