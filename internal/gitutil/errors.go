package gitutil

import (
	"errors"
	"fmt"

	"github.com/samzong/aicommiter/internal/gitcmd"
)

// WrapGitError builds an error message that prefers git stderr output when present.
func WrapGitError(action string, err error) error {
	var cmdErr *gitcmd.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Stderr != "" {
		return fmt.Errorf("%s: %s: %w", action, cmdErr.Stderr, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}
