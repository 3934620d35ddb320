package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/samzong/aicommiter/internal/credential"
	"github.com/samzong/aicommiter/internal/ui"
	"github.com/samzong/aicommiter/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	hookFlags saveFlags
	hookCmd   = &cobra.Command{
		Use:   "hook <file>",
		Short: "Handle a single save event for a file",
		Long: `Handle one save event, for editors that run a command after writing a file.

Example Vim autocmd:

  autocmd BufWritePost * silent !aicommiter hook --choice commit %:p &`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			return runHook(args[0])
		},
	}
)

func init() {
	hookFlags.register(hookCmd)
	rootCmd.AddCommand(hookCmd)
}

func runHook(file string) error {
	path, err := filepath.Abs(file)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", file, err)
	}

	notifier := ui.NewConsole(errWriter())
	store := credential.NewConfigStore()
	if err := activate(store, notifier); err != nil {
		return err
	}

	orchestrator, closeGit, err := buildOrchestrator(&hookFlags, store, notifier)
	if err != nil {
		return err
	}
	defer closeGit()

	outcome, err := orchestrator.HandleSave(cmdCtx, path)
	if verbose {
		fmt.Fprintf(errWriter(), "Outcome: %s\n", outcome)
	}
	if err != nil {
		return &outcomeError{outcome: outcome, err: err}
	}
	return nil
}

// outcomeError reports a failed save without repeating the message the
// notifier already showed.
type outcomeError struct {
	outcome workflow.Outcome
	err     error
}

func (e *outcomeError) Error() string {
	return fmt.Sprintf("save handling failed (%s)", e.outcome)
}

func (e *outcomeError) Unwrap() error {
	return e.err
}
