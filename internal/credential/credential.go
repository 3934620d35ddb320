// Package credential persists the API key used for suggestion requests.
package credential

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/samzong/aicommiter/internal/config"
	"github.com/spf13/viper"
)

// Store reads and writes the single API key. Get never prompts.
type Store interface {
	Get() (string, bool)
	Set(key string) error
}

// ConfigStore keeps the key in the aicommiter config file.
type ConfigStore struct {
	v  *viper.Viper
	mu sync.Mutex
}

// NewConfigStore returns a store backed by the global viper instance,
// which must already be initialised with config.InitConfig.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{v: viper.GetViper()}
}

// NewConfigStoreWith returns a store backed by v.
func NewConfigStoreWith(v *viper.Viper) *ConfigStore {
	return &ConfigStore{v: v}
}

func (s *ConfigStore) Get() (string, bool) {
	key := strings.TrimSpace(s.v.GetString(config.APIKeyKey))
	return key, key != ""
}

// Set stores key and writes the config file. Concurrent calls are last-write-wins.
func (s *ConfigStore) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := config.WriteValues(s.v.ConfigFileUsed(), map[string]interface{}{config.APIKeyKey: key}); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	s.v.Set(config.APIKeyKey, key)
	return nil
}

// Memory is a process-local Store.
type Memory struct {
	mu  sync.RWMutex
	key string
}

func NewMemory(key string) *Memory {
	return &Memory{key: strings.TrimSpace(key)}
}

func (m *Memory) Get() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.key, m.key != ""
}

func (m *Memory) Set(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("API key cannot be empty")
	}
	m.mu.Lock()
	m.key = key
	m.mu.Unlock()
	return nil
}
