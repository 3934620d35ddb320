package credential

import (
	"fmt"
	"strings"

	"github.com/samzong/aicommiter/internal/ui"
)

const (
	keyPrompt      = "Enter your OpenAI API key (sk-XXXXXX): "
	savedMessage   = "API key successfully saved."
	missingWarning = "No API key provided. aicommiter will not suggest commits."
)

// SecretPrompter reads a masked single line from the user.
type SecretPrompter interface {
	PromptSecret(prompt string) (string, error)
}

// Prompt asks for a key and stores it. An empty answer only warns.
// It reports whether a key was stored.
func Prompt(store Store, prompter SecretPrompter, notifier ui.Notifier) (bool, error) {
	key, err := prompter.PromptSecret(keyPrompt)
	if err != nil {
		return false, fmt.Errorf("failed to read API key: %w", err)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		notifier.Warn(missingWarning)
		return false, nil
	}
	if err := store.Set(key); err != nil {
		return false, err
	}
	notifier.Info(savedMessage)
	return true, nil
}

// Ensure prompts only when no key is stored yet.
func Ensure(store Store, prompter SecretPrompter, notifier ui.Notifier) (bool, error) {
	if _, ok := store.Get(); ok {
		return true, nil
	}
	return Prompt(store, prompter, notifier)
}
