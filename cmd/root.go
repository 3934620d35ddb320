package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/samzong/aicommiter/internal/config"
	"github.com/samzong/aicommiter/internal/credential"
	"github.com/samzong/aicommiter/internal/git"
	"github.com/samzong/aicommiter/internal/llm"
	"github.com/samzong/aicommiter/internal/ui"
	"github.com/samzong/aicommiter/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	verbose   bool
	configErr error
	cmdCtx    = context.Background()
	rootCmd   = &cobra.Command{
		Use:   "aicommiter",
		Short: "aicommiter - AI commit suggestions on save",
		Long: `aicommiter watches file saves, asks an LLM whether the current git diff ` +
			`is worth committing, and offers to commit (and push) with the suggested message.`,
		Version: fmt.Sprintf("%s (built at %s)", Version, BuildTime),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// saveFlags are shared by the commands that handle save events.
type saveFlags struct {
	dryRun   bool
	noVerify bool
	choice   string
	timeout  int
	plain    bool
}

func (f *saveFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "Show the suggested commit without running git")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "Skip pre-commit hooks")
	cmd.Flags().StringVar(&f.choice, "choice", "",
		"Answer suggestions without prompting: commit, push or dismiss")
	cmd.Flags().IntVar(&f.timeout, "timeout", -1,
		"Timeout in seconds for the LLM request (0 disables, default from config)")
	cmd.Flags().BoolVar(&f.plain, "plain", false, "Use a one-line prompt instead of the selection menu")
}

func Execute() error {
	return rootCmd.ExecuteContext(cmdCtx)
}

// SetContext sets the context used for command execution.
func SetContext(ctx context.Context) {
	cmdCtx = ctx
}

// RootCmd returns the root command, for documentation generation.
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Configuration file path (default is $XDG_CONFIG_HOME/aicommiter/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Show debug logs and git commands")
}

func initConfig() {
	configErr = config.InitConfig(cfgFile)
}

func requireConfig() error {
	if configErr != nil {
		return fmt.Errorf("configuration error: %w", configErr)
	}
	return nil
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func requestTimeout(cfg *config.Config, flagSeconds int) time.Duration {
	seconds := cfg.Timeout
	if flagSeconds >= 0 {
		seconds = flagSeconds
	}
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// activate prompts for the API key when none is stored yet.
func activate(store credential.Store, notifier ui.Notifier) error {
	_, err := credential.Ensure(store, ui.SecretReader{In: os.Stdin, Out: errWriter()}, notifier)
	return err
}

// buildOrchestrator wires the save workflow. The returned func releases the
// git client's cache.
func buildOrchestrator(flags *saveFlags, store credential.Store, notifier ui.Notifier) (*workflow.Orchestrator, func(), error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, nil, err
	}

	var prompter workflow.Prompter = &workflow.InteractivePrompter{
		ErrWriter: errWriter(),
		Stdin:     os.Stdin,
		Menu:      !flags.plain,
	}
	if flags.choice != "" {
		choice, err := workflow.ParseChoice(flags.choice)
		if err != nil {
			return nil, nil, err
		}
		prompter = workflow.FixedPrompter{Choice: choice}
	}

	logger := newLogger(errWriter())
	gitClient := git.NewClient(git.Options{Verbose: verbose, Logger: errWriter()})
	llmClient := llm.NewClient(llm.Options{
		Model:   cfg.Model,
		APIBase: cfg.APIBase,
		Timeout: requestTimeout(cfg, flags.timeout),
		Store:   store,
	})

	return workflow.NewOrchestrator(gitClient, llmClient, prompter, notifier, workflow.Options{
		DryRun:        flags.dryRun,
		NoVerify:      flags.noVerify,
		SpinnerWriter: os.Stderr,
		Logger:        logger,
	}), gitClient.Close, nil
}
