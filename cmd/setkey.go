package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samzong/aicommiter/internal/config"
	"github.com/samzong/aicommiter/internal/credential"
	"github.com/samzong/aicommiter/internal/llm"
	"github.com/samzong/aicommiter/internal/ui"
	"github.com/spf13/cobra"
)

var (
	setKeyFromStdin bool
	setKeyCheck     bool
	setKeyCmd       = &cobra.Command{
		Use:   "set-key",
		Short: "Set or replace the OpenAI API key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := requireConfig(); err != nil {
				return err
			}
			return runSetKey(os.Stdin, credential.NewConfigStore(), ui.NewConsole(errWriter()))
		},
	}

	testLLMConnection = func(store credential.Store) error {
		cfg, err := config.GetConfig()
		if err != nil {
			return err
		}
		client := llm.NewClient(llm.Options{
			Model:   cfg.Model,
			APIBase: cfg.APIBase,
			Timeout: requestTimeout(cfg, -1),
			Store:   store,
		})
		return client.TestConnection(cmdCtx)
	}
)

func init() {
	setKeyCmd.Flags().BoolVar(&setKeyFromStdin, "stdin", false, "Read the key from standard input")
	setKeyCmd.Flags().BoolVar(&setKeyCheck, "check", false, "Send a test request after saving the key")
	rootCmd.AddCommand(setKeyCmd)
}

func runSetKey(in io.Reader, store credential.Store, notifier ui.Notifier) error {
	var (
		saved bool
		err   error
	)
	if setKeyFromStdin {
		saved, err = credential.Prompt(store, stdinSecret{in: in}, notifier)
	} else {
		saved, err = credential.Prompt(store, ui.SecretReader{In: in, Out: errWriter()}, notifier)
	}
	if err != nil || !saved || !setKeyCheck {
		return err
	}

	fmt.Fprintln(outWriter(), "Testing API connection...")
	if err := testLLMConnection(store); err != nil {
		fmt.Fprintf(outWriter(), "Connection test failed: %v\n", err)
		return fmt.Errorf("connection test failed: %w", err)
	}
	fmt.Fprintln(outWriter(), "Connection test succeeded.")
	return nil
}

// stdinSecret reads the key from a pipe without printing a prompt.
type stdinSecret struct {
	in io.Reader
}

func (s stdinSecret) PromptSecret(string) (string, error) {
	line, err := bufio.NewReader(s.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
