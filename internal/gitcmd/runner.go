package gitcmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Runner executes git commands with shared logging and output handling.
// Arguments are always passed as a vector; nothing is interpolated into a shell.
type Runner struct {
	Verbose bool
	Dir     string
	Env     []string
	Logger  io.Writer
	// Binary overrides the git executable, mainly for tests.
	Binary string
}

// Result contains captured stdout/stderr for a git command.
type Result struct {
	Stdout []byte
	Stderr []byte
}

func (r Result) StdoutString(trim bool) string {
	output := string(r.Stdout)
	if trim {
		return strings.TrimSpace(output)
	}
	return output
}

func (r Result) StderrString(trim bool) string {
	output := string(r.Stderr)
	if trim {
		return strings.TrimSpace(output)
	}
	return output
}

// CommandError reports a git command that could not be spawned or exited non-zero.
type CommandError struct {
	Dir    string
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s", strings.Join(e.Args, " "))
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %s: %v", msg, e.Stderr, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit code, or -1 when the process never ran.
func (e *CommandError) ExitCode() int {
	var exitErr *exec.ExitError
	if errors.As(e.Err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func (r Runner) withDefaults() Runner {
	if r.Logger == nil {
		r.Logger = os.Stderr
	}
	if r.Binary == "" {
		r.Binary = "git"
	}
	return r
}

func (r Runner) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	if r.Dir != "" {
		cmd.Dir = r.Dir
	}
	if len(r.Env) > 0 {
		cmd.Env = append(os.Environ(), r.Env...)
	}
	return cmd
}

func (r Runner) log(args []string) {
	if !r.Verbose {
		return
	}
	fmt.Fprintf(r.Logger, "Running: %s\n", QuoteCommand(append([]string{r.Binary}, args...)))
}

// WithDir returns a copy of the runner bound to dir.
func (r Runner) WithDir(dir string) Runner {
	r.Dir = dir
	return r
}

// Run executes a git command and captures stdout/stderr.
func (r Runner) Run(ctx context.Context, args ...string) (Result, error) {
	r = r.withDefaults()
	r.log(args)
	cmd := r.command(ctx, args...)

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	result := Result{Stdout: outBuf.Bytes(), Stderr: errBuf.Bytes()}
	if err != nil {
		return result, &CommandError{
			Dir:    r.Dir,
			Args:   append([]string(nil), args...),
			Stderr: result.StderrString(true),
			Err:    err,
		}
	}
	return result, nil
}

// RunWithWriters executes a git command, streaming output to the given writers.
func (r Runner) RunWithWriters(ctx context.Context, stdout io.Writer, stderr io.Writer, args ...string) error {
	r = r.withDefaults()
	r.log(args)
	cmd := r.command(ctx, args...)
	if stdout != nil {
		cmd.Stdout = stdout
	}
	if stderr != nil {
		cmd.Stderr = stderr
	}

	if err := cmd.Run(); err != nil {
		return &CommandError{Dir: r.Dir, Args: append([]string(nil), args...), Err: err}
	}
	return nil
}

// QuoteCommand renders argv as a bash command line, quoting each word as needed.
func QuoteCommand(argv []string) string {
	words := make([]string, 0, len(argv))
	for _, arg := range argv {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = fmt.Sprintf("%q", arg)
		}
		words = append(words, quoted)
	}
	return strings.Join(words, " ")
}
