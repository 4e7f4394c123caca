package testutil

import (
	"os"
	"strings"
	"testing"
)

// RequireTestEnvironment fails the test unless GO_ENV is "test" and DATABASE_URL,
// when set, names a SQLite database. Suites that wipe tables call it first.
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Fatalf("SAFETY CHECK FAILED: tests must run with GO_ENV=test, current GO_ENV=%q", env)
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && !strings.HasPrefix(url, "sqlite:") {
		t.Fatalf("SAFETY CHECK FAILED: DATABASE_URL %s is not a sqlite database", maskDatabaseURL(url))
	}
}

// MustSetTestEnvironment sets GO_ENV to test for the duration of t
// and then applies RequireTestEnvironment.
func MustSetTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	RequireTestEnvironment(t)
}

// maskDatabaseURL hides the credentials part of a database URL
func maskDatabaseURL(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "(unparseable)"
	}
	if _, host, ok := strings.Cut(rest, "@"); ok {
		return scheme + "://***@" + host
	}
	return url
}
