package gitutil

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateRepoPath checks a path before it is handed to git as a working directory.
func ValidateRepoPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("path cannot be empty")
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("path must be absolute: %s", path)
	}
	if strings.ContainsAny(path, "\x00\n\r") {
		return fmt.Errorf("path contains control characters: %q", path)
	}
	return nil
}
