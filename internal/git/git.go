package git

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/samzong/aicommiter/internal/gitcmd"
	"github.com/samzong/aicommiter/internal/gitutil"
)

// topLevelTTL bounds how long a resolved repository root is reused.
const topLevelTTL = 30 * time.Second

// ErrUnsafeTestRepository is returned by Commit when tests run against a real repository.
var ErrUnsafeTestRepository = errors.New("SAFETY: refusing to commit in a non-temporary repository during tests")

// Options configures a Client.
type Options struct {
	Verbose bool
	Logger  io.Writer
	NoCache bool
}

// Client runs the git operations behind a save event.
type Client struct {
	runner    gitcmd.Runner
	toplevels *ttlcache.Cache[string, string]
	closeOnce sync.Once
}

// NewClient builds a git client.
func NewClient(opts Options) *Client {
	c := &Client{
		runner: gitcmd.Runner{Verbose: opts.Verbose, Logger: opts.Logger},
	}
	if !opts.NoCache {
		c.toplevels = ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](topLevelTTL),
			ttlcache.WithDisableTouchOnHit[string, string](),
		)
		go c.toplevels.Start()
	}
	return c
}

// Close stops the cache expiration loop. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.toplevels != nil {
			c.toplevels.Stop()
		}
	})
}

// IsRepository reports whether path lies inside a git working tree.
// Every failure is reported as false.
func (c *Client) IsRepository(ctx context.Context, path string) bool {
	dir := filepath.Dir(path)
	if gitutil.ValidateRepoPath(dir) != nil {
		return false
	}
	result, err := c.runner.WithDir(dir).Run(ctx, "rev-parse", "--is-inside-work-tree")
	if err != nil {
		return false
	}
	return result.StdoutString(true) == "true"
}

// TopLevel resolves the repository root containing path.
func (c *Client) TopLevel(ctx context.Context, path string) (string, error) {
	dir := filepath.Dir(path)
	if err := gitutil.ValidateRepoPath(dir); err != nil {
		return "", err
	}
	if c.toplevels != nil {
		if item := c.toplevels.Get(dir); item != nil {
			return item.Value(), nil
		}
	}

	result, err := c.runner.WithDir(dir).Run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", gitutil.WrapGitError("failed to resolve repository root", err)
	}
	root := filepath.Clean(result.StdoutString(true))
	if root == "." {
		return "", errors.New("git returned an empty repository root")
	}

	if c.toplevels != nil {
		c.toplevels.Set(dir, root, ttlcache.DefaultTTL)
	}
	return root, nil
}

// WorkingDiff returns the repository-wide unstaged diff for the repository
// containing path. ok is false when git fails or the diff is empty.
func (c *Client) WorkingDiff(ctx context.Context, path string) (diff string, ok bool) {
	root, err := c.TopLevel(ctx, path)
	if err != nil {
		return "", false
	}
	result, err := c.runner.WithDir(root).Run(ctx, "diff")
	if err != nil {
		return "", false
	}
	diff = result.StdoutString(false)
	if diff == "" {
		return "", false
	}
	return diff, true
}

// AddAll stages every change under root.
func (c *Client) AddAll(ctx context.Context, root string) error {
	if err := gitutil.ValidateRepoPath(root); err != nil {
		return err
	}
	if _, err := c.runner.WithDir(root).Run(ctx, "add", "."); err != nil {
		return gitutil.WrapGitError("git add failed", err)
	}
	return nil
}

// Commit records the staged changes under root with message.
func (c *Client) Commit(ctx context.Context, root, message string, args ...string) error {
	if err := gitutil.ValidateRepoPath(root); err != nil {
		return err
	}
	if os.Getenv("GO_TEST_ENV") == "1" && !isTemporaryPath(root) {
		return ErrUnsafeTestRepository
	}
	commitArgs := append([]string{"commit", "-m", message}, args...)
	if _, err := c.runner.WithDir(root).Run(ctx, commitArgs...); err != nil {
		return gitutil.WrapGitError("git commit failed", err)
	}
	return nil
}

// Push pushes the current branch of root to its upstream.
func (c *Client) Push(ctx context.Context, root string) error {
	if err := gitutil.ValidateRepoPath(root); err != nil {
		return err
	}
	if _, err := c.runner.WithDir(root).Run(ctx, "push"); err != nil {
		return gitutil.WrapGitError("git push failed", err)
	}
	return nil
}

func isTemporaryPath(path string) bool {
	tmp, err := filepath.EvalSymlinks(os.TempDir())
	if err != nil {
		tmp = os.TempDir()
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		resolved = path
	}
	rel, err := filepath.Rel(tmp, resolved)
	return err == nil && !strings.HasPrefix(rel, "..")
}
