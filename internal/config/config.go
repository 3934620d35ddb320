package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Config is the aicommiter configuration.
type Config struct {
	Model   string `mapstructure:"model"`
	APIKey  string `mapstructure:"api_key"`
	APIBase string `mapstructure:"api_base"`
	Timeout int    `mapstructure:"timeout"`
}

const (
	DefaultModel      = "gpt-4o-mini"
	DefaultAPIBase    = "https://api.openai.com/v1"
	DefaultTimeout    = 0
	DefaultConfigName = "config"
	DefaultConfigDir  = "aicommiter"
	EnvPrefix         = "AICOMMITER"

	// APIKeyKey is the single key the credential is stored under.
	APIKeyKey = "api_key"
)

var (
	// pending holds values set since the last SaveConfig.
	pendingMu sync.Mutex
	pending   = make(map[string]interface{})
)

var suggestedModels = []string{
	"gpt-4o-mini",
	"gpt-4o",
	"gpt-4.1-mini",
}

// ConfigPath returns the default config file path, honouring XDG_CONFIG_HOME.
func ConfigPath() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to find home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, DefaultConfigDir, DefaultConfigName+".yaml"), nil
}

// InitConfig loads cfgFile (or the default path), creating it when missing.
func InitConfig(cfgFile string) error {
	configPath := cfgFile
	if configPath == "" {
		var err error
		configPath, err = ConfigPath()
		if err != nil {
			return err
		}
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	viper.SetDefault("model", DefaultModel)
	viper.SetDefault(APIKeyKey, "")
	viper.SetDefault("api_base", DefaultAPIBase)
	viper.SetDefault("timeout", DefaultTimeout)

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read configuration file: %w", err)
		}
		if err := writeNewConfig(configPath); err != nil {
			return err
		}
	}

	return restrictPermissions(configPath)
}

func writeNewConfig(configPath string) error {
	return WriteValues(configPath, map[string]interface{}{
		"model":    DefaultModel,
		APIKeyKey:  "",
		"api_base": DefaultAPIBase,
		"timeout":  DefaultTimeout,
	})
}

// WriteValues merges values into the YAML file at configPath. The file is
// rewritten from its own contents only, so values that came from the
// environment are never persisted.
func WriteValues(configPath string, values map[string]interface{}) error {
	if configPath == "" {
		return errors.New("no configuration file in use")
	}

	fv := viper.New()
	fv.SetConfigFile(configPath)
	fv.SetConfigType("yaml")
	if err := fv.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read configuration file: %w", err)
		}
	}
	for key, value := range values {
		fv.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create configuration directory: %w", err)
	}
	if err := fv.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return restrictPermissions(configPath)
}

// The file holds the API key.
func restrictPermissions(configPath string) error {
	info, err := os.Stat(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat configuration file: %w", err)
	}
	if info.Mode().Perm() == 0600 {
		return nil
	}
	if err := os.Chmod(configPath, 0600); err != nil {
		return fmt.Errorf("failed to restrict configuration file permissions: %w", err)
	}
	return nil
}

// GetConfig returns the current configuration.
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	return cfg, nil
}

// MustGetConfig returns the current configuration or the defaults when it cannot be parsed.
func MustGetConfig() *Config {
	cfg, err := GetConfig()
	if err != nil {
		return &Config{Model: DefaultModel, APIBase: DefaultAPIBase}
	}
	return cfg
}

// SetConfigValue sets a value in memory; call SaveConfig to persist it.
func SetConfigValue(key string, value interface{}) {
	viper.Set(key, value)

	pendingMu.Lock()
	defer pendingMu.Unlock()
	pending[key] = value
}

// SaveConfig writes the values set with SetConfigValue to the config file.
func SaveConfig() error {
	pendingMu.Lock()
	defer pendingMu.Unlock()

	if err := WriteValues(viper.ConfigFileUsed(), pending); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	clear(pending)
	return nil
}

// IsValidModel reports whether model is usable. Any non-empty name is accepted.
func IsValidModel(model string) bool {
	return strings.TrimSpace(model) != ""
}

// GetSuggestedModels returns the models shown as hints.
func GetSuggestedModels() []string {
	return suggestedModels
}

// Keys lists the keys accepted by `aicommiter config set`.
func Keys() []string {
	return []string{"model", "api_base", "timeout"}
}
