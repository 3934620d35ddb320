package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samzong/aicommiter/internal/credential"
	"github.com/samzong/aicommiter/internal/ui"
	"github.com/samzong/aicommiter/internal/watcher"
	"github.com/spf13/cobra"
)

var (
	watchFlags  saveFlags
	watchIgnore []string
	watchCmd    = &cobra.Command{
		Use:   "watch [dir...]",
		Short: "Watch directories and suggest a commit after every save",
		Args:  cobra.ArbitraryArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			if len(args) == 0 {
				args = []string{"."}
			}
			return runWatch(args)
		},
	}
)

func init() {
	watchFlags.register(watchCmd)
	watchCmd.Flags().StringSliceVar(&watchIgnore, "ignore", watcher.DefaultIgnore,
		"File name patterns that never count as saves")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(dirs []string) error {
	notifier := ui.NewConsole(errWriter())
	store := credential.NewConfigStore()
	if err := activate(store, notifier); err != nil {
		return err
	}

	orchestrator, closeGit, err := buildOrchestrator(&watchFlags, store, notifier)
	if err != nil {
		return err
	}
	defer closeGit()

	logger := newLogger(errWriter())
	w, err := watcher.New(func(ctx context.Context, path string) {
		outcome, err := orchestrator.HandleSave(ctx, path)
		logger.Debug("save event", "path", path, "outcome", outcome.String(), "error", err)
	}, watcher.Options{Ignore: watchIgnore, Logger: logger})
	if err != nil {
		return err
	}

	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	fmt.Fprintf(errWriter(), "Watching %d directories for saves. Press Ctrl+C to stop.\n", len(w.WatchList()))
	logger.Info("watching", slog.Any("roots", dirs))
	return w.Run(cmdCtx)
}
