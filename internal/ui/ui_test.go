package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	c.Info("API key successfully saved.")
	c.Warn("No API key provided.")
	c.Error("Failed to execute git command.")

	assert.Equal(t,
		"API key successfully saved.\nWarning: No API key provided.\nError: Failed to execute git command.\n",
		buf.String())
}

func TestSecretReader_Piped(t *testing.T) {
	var out bytes.Buffer
	r := SecretReader{In: strings.NewReader("  sk-piped  \nignored\n"), Out: &out}

	secret, err := r.PromptSecret("Key: ")
	require.NoError(t, err)
	assert.Equal(t, "sk-piped", secret)
	assert.Equal(t, "Key: ", out.String())
}

func TestSecretReader_EOFWithoutNewline(t *testing.T) {
	r := SecretReader{In: strings.NewReader("sk-last"), Out: &bytes.Buffer{}}

	secret, err := r.PromptSecret("Key: ")
	require.NoError(t, err)
	assert.Equal(t, "sk-last", secret)
}

func TestSecretReader_Empty(t *testing.T) {
	r := SecretReader{In: strings.NewReader(""), Out: &bytes.Buffer{}}

	secret, err := r.PromptSecret("Key: ")
	require.NoError(t, err)
	assert.Empty(t, secret)
}

func TestSpinner_DisabledWithoutTerminal(t *testing.T) {
	sp := NewSpinnerTo(&bytes.Buffer{}, "Waiting...")
	assert.False(t, sp.Enabled())
	assert.NotPanics(t, func() {
		sp.Start()
		sp.Stop()
	})
}
