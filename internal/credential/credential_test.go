package credential

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/samzong/aicommiter/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrompter struct {
	answer string
	err    error
	calls  int
}

func (p *stubPrompter) PromptSecret(string) (string, error) {
	p.calls++
	return p.answer, p.err
}

type recordingNotifier struct {
	infos  []string
	warns  []string
	errors []string
}

func (n *recordingNotifier) Info(msg string)  { n.infos = append(n.infos, msg) }
func (n *recordingNotifier) Warn(msg string)  { n.warns = append(n.warns, msg) }
func (n *recordingNotifier) Error(msg string) { n.errors = append(n.errors, msg) }

func newFileStore(t *testing.T) (*ConfigStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: gpt-4o-mini\n"), 0600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())
	return NewConfigStoreWith(v), path
}

func TestConfigStore_GetSet(t *testing.T) {
	store, path := newFileStore(t)

	_, ok := store.Get()
	assert.False(t, ok)

	require.NoError(t, store.Set("  sk-first  "))
	key, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "sk-first", key)

	require.NoError(t, store.Set("sk-second"))
	key, _ = store.Get()
	assert.Equal(t, "sk-second", key)

	reloaded := viper.New()
	reloaded.SetConfigFile(path)
	require.NoError(t, reloaded.ReadInConfig())
	assert.Equal(t, "sk-second", reloaded.GetString(config.APIKeyKey))
	assert.Equal(t, "gpt-4o-mini", reloaded.GetString("model"))
}

func TestConfigStore_RejectsEmpty(t *testing.T) {
	store, _ := newFileStore(t)
	assert.Error(t, store.Set("   "))
}

func TestConfigStore_ConcurrentSet(t *testing.T) {
	store, _ := newFileStore(t)

	var wg sync.WaitGroup
	for _, key := range []string{"sk-a", "sk-b", "sk-c"} {
		wg.Add(1)
		go func(k string) {
			defer wg.Done()
			assert.NoError(t, store.Set(k))
		}(key)
	}
	wg.Wait()

	key, ok := store.Get()
	assert.True(t, ok)
	assert.Contains(t, []string{"sk-a", "sk-b", "sk-c"}, key)
}

func TestMemory(t *testing.T) {
	m := NewMemory("")
	_, ok := m.Get()
	assert.False(t, ok)

	require.NoError(t, m.Set("sk-mem"))
	key, ok := m.Get()
	assert.True(t, ok)
	assert.Equal(t, "sk-mem", key)
	assert.Error(t, m.Set(""))
}

func TestEnsure(t *testing.T) {
	t.Run("existing key never prompts", func(t *testing.T) {
		p := &stubPrompter{answer: "sk-new"}
		n := &recordingNotifier{}
		ok, err := Ensure(NewMemory("sk-old"), p, n)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 0, p.calls)
	})

	t.Run("missing key is prompted and stored", func(t *testing.T) {
		store := NewMemory("")
		p := &stubPrompter{answer: "sk-new\n"}
		n := &recordingNotifier{}
		ok, err := Ensure(store, p, n)
		require.NoError(t, err)
		assert.True(t, ok)
		key, _ := store.Get()
		assert.Equal(t, "sk-new", key)
		assert.Equal(t, []string{savedMessage}, n.infos)
	})

	t.Run("empty answer warns", func(t *testing.T) {
		store := NewMemory("")
		n := &recordingNotifier{}
		ok, err := Ensure(store, &stubPrompter{answer: ""}, n)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, []string{missingWarning}, n.warns)
		_, stored := store.Get()
		assert.False(t, stored)
	})

	t.Run("prompt failure", func(t *testing.T) {
		_, err := Ensure(NewMemory(""), &stubPrompter{err: errors.New("closed")}, &recordingNotifier{})
		assert.ErrorContains(t, err, "failed to read API key")
	})
}

func TestPrompt_OverwritesExistingKey(t *testing.T) {
	store := NewMemory("sk-old")
	ok, err := Prompt(store, &stubPrompter{answer: "sk-new"}, &recordingNotifier{})
	require.NoError(t, err)
	assert.True(t, ok)
	key, _ := store.Get()
	assert.Equal(t, "sk-new", key)
}

func TestConfigStore_SetDoesNotPersistEnvironment(t *testing.T) {
	store, path := newFileStore(t)
	t.Setenv("AICOMMITER_MODEL", "env-model")
	store.v.SetEnvPrefix(config.EnvPrefix)
	store.v.AutomaticEnv()
	require.Equal(t, "env-model", store.v.GetString("model"))

	require.NoError(t, store.Set("sk-typed"))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "sk-typed")
	assert.Contains(t, string(content), "gpt-4o-mini")
	assert.NotContains(t, string(content), "env-model")
}
