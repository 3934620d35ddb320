package git

import (
	"os"
	"testing"
)

// TestMain enables the commit safety check for the whole package.
func TestMain(m *testing.M) {
	os.Setenv("GO_TEST_ENV", "1")
	code := m.Run()
	os.Unsetenv("GO_TEST_ENV")
	os.Exit(code)
}
