// Package workflow turns a file save into a suggested commit.
package workflow

import (
	"context"

	"github.com/samzong/aicommiter/internal/llm"
)

// GitClient abstracts git operations for testability.
type GitClient interface {
	IsRepository(ctx context.Context, path string) bool
	TopLevel(ctx context.Context, path string) (string, error)
	WorkingDiff(ctx context.Context, path string) (string, bool)
	AddAll(ctx context.Context, root string) error
	Commit(ctx context.Context, root, message string, args ...string) error
	Push(ctx context.Context, root string) error
}

// Suggester abstracts the LLM call for testability.
type Suggester interface {
	Suggest(ctx context.Context, diff string) (llm.Suggestion, error)
}
