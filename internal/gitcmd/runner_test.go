package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func TestResultStrings(t *testing.T) {
	r := Result{Stdout: []byte("  out \n"), Stderr: []byte("\terr\n")}
	assert.Equal(t, "out", r.StdoutString(true))
	assert.Equal(t, "  out \n", r.StdoutString(false))
	assert.Equal(t, "err", r.StderrString(true))
	assert.Equal(t, "\terr\n", r.StderrString(false))
}

func TestRun_Success(t *testing.T) {
	requireGit(t)

	result, err := Runner{}.Run(context.Background(), "--version")
	require.NoError(t, err)
	assert.Contains(t, result.StdoutString(true), "git version")
}

func TestRun_NonZeroExit(t *testing.T) {
	requireGit(t)

	dir := t.TempDir()
	t.Setenv("GIT_CEILING_DIRECTORIES", dir)

	_, err := Runner{Dir: dir}.Run(context.Background(), "rev-parse", "--is-inside-work-tree")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, dir, cmdErr.Dir)
	assert.Equal(t, []string{"rev-parse", "--is-inside-work-tree"}, cmdErr.Args)
	assert.NotEmpty(t, cmdErr.Stderr)
	assert.Greater(t, cmdErr.ExitCode(), 0)
	assert.Contains(t, err.Error(), "git rev-parse --is-inside-work-tree")
}

func TestRun_SpawnFailure(t *testing.T) {
	_, err := Runner{Binary: "aicommiter-no-such-binary"}.Run(context.Background(), "status")
	require.Error(t, err)

	var cmdErr *CommandError
	require.True(t, errors.As(err, &cmdErr))
	assert.Equal(t, -1, cmdErr.ExitCode())
	assert.ErrorIs(t, err, exec.ErrNotFound)
}

func TestRun_VerboseLogsQuotedCommand(t *testing.T) {
	requireGit(t)

	var logBuf bytes.Buffer
	r := Runner{Verbose: true, Logger: &logBuf}
	_, _ = r.Run(context.Background(), "--version")
	assert.Equal(t, "Running: git --version\n", logBuf.String())
}

func TestRunWithWriters(t *testing.T) {
	requireGit(t)

	var out bytes.Buffer
	err := Runner{}.RunWithWriters(context.Background(), &out, nil, "--version")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "git version")
}

func TestWithDir(t *testing.T) {
	base := Runner{Verbose: true}
	bound := base.WithDir("/repo")
	assert.Equal(t, "/repo", bound.Dir)
	assert.Equal(t, "", base.Dir)
	assert.True(t, bound.Verbose)
}

func TestQuoteCommand(t *testing.T) {
	tests := []struct {
		name string
		argv []string
		want string
	}{
		{name: "plain", argv: []string{"git", "diff"}, want: "git diff"},
		{name: "spaces", argv: []string{"git", "commit", "-m", "fix parser"}, want: "git commit -m 'fix parser'"},
		{name: "dollar", argv: []string{"git", "commit", "-m", "$HOME"}, want: "git commit -m '$HOME'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteCommand(tt.argv))
		})
	}
}
