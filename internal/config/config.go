// Package config loads txtshelf configuration from defaults, a YAML file
// and TXTSHELF_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/jackzampolin/txtshelf/internal/patterns"
	"github.com/jackzampolin/txtshelf/internal/pipeline"
	"github.com/jackzampolin/txtshelf/internal/providers"
)

// EnvPrefix prefixes environment overrides, e.g. TXTSHELF_LLM_ENABLED.
const EnvPrefix = "TXTSHELF"

// ErrInvalidKey is returned when a config key contains invalid characters.
var ErrInvalidKey = errors.New("invalid config key")

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	v         *viper.Viper
	config    *Config
	callbacks []func(*Config)
	logger    *slog.Logger
}

// NewManager creates a new config manager and loads initial config. When
// cfgFile is empty, config.yaml is searched in the working directory and
// then in homeDir.
func NewManager(cfgFile, homeDir string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
		logger:    slog.Default(),
	}

	if err := cm.initViper(cfgFile, homeDir); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// SetLogger sets the logger used for reload messages.
func (cm *Manager) SetLogger(logger *slog.Logger) {
	if logger != nil {
		cm.logger = logger
	}
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile, homeDir string) error {
	v := cm.v
	for _, e := range DefaultEntries() {
		v.SetDefault(e.Key, e.Value)
	}

	// Environment variables with TXTSHELF_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if homeDir != "" {
			v.AddConfigPath(homeDir)
		}
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the file the configuration was read from, if any.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// Settings returns every resolved setting keyed by its dotted name.
func (cm *Manager) Settings() map[string]any {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	out := make(map[string]any)
	for _, k := range cm.v.AllKeys() {
		out[k] = cm.v.Get(k)
	}
	return out
}

// Set changes one key and writes the configuration to path, or to the file
// it was loaded from when path is empty.
func (cm *Manager) Set(key string, value any, path string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if path == "" {
		path = cm.v.ConfigFileUsed()
	}
	if path == "" {
		return fmt.Errorf("no config file to write, run config init first")
	}

	cm.mu.Lock()
	cm.v.Set(key, value)
	cfg, err := cm.load()
	if err == nil {
		cm.config = cfg
	}
	cm.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := cm.v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cm.mu.Lock()
		cfg, err := cm.load()
		if err != nil {
			cm.mu.Unlock()
			cm.logger.Warn("ignoring invalid config change", "file", e.Name, "error", err)
			return
		}
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		cm.logger.Info("config reloaded", "file", e.Name)
		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// ValidateKey checks if a config key contains only allowed characters.
// Valid keys contain: letters, digits, dots, underscores, and hyphens.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	for i, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.' && r != '_' && r != '-' {
			return fmt.Errorf("%w: invalid character %q at position %d", ErrInvalidKey, r, i)
		}
	}
	// Don't allow keys starting or ending with dots
	if key[0] == '.' || key[len(key)-1] == '.' {
		return fmt.Errorf("%w: key cannot start or end with a dot", ErrInvalidKey)
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envRef.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToPipelineConfig returns the immutable parser configuration for a run.
func (c *Config) ToPipelineConfig() pipeline.Config {
	p := c.Parser
	return pipeline.Config{
		MinChapterLength:           p.MinChapterLength,
		MinSectionLength:           p.MinSectionLength,
		MaxTitleLength:             p.MaxTitleLength,
		EnableChapterValidation:    p.EnableChapterValidation,
		EnableLengthValidation:     p.EnableLengthValidation,
		SkipTOCRemoval:             p.SkipTOCRemoval,
		TOCDetectionScoreThreshold: p.TOCDetectionScoreThreshold,
		TOCMaxScanLines:            p.TOCMaxScanLines,
		ChapterConfidenceThreshold: p.ChapterConfidenceThreshold,
		LLMConfidenceThreshold:     c.LLM.ConfidenceThreshold,
		LLMTOCDetectionThreshold:   c.LLM.TOCDetectionThreshold,
		LLMNoTOCThreshold:          c.LLM.NoTOCThreshold,
		EnableTitleEnhancement:     p.EnableTitleEnhancement,
		TitleBatchSize:             c.LLM.TitleBatchSize,
		DocType:                    c.LLM.DocType,
		Custom: patterns.Custom{
			Volume:          append([]string(nil), p.Patterns.Volume...),
			Chapter:         append([]string(nil), p.Patterns.Chapter...),
			Section:         append([]string(nil), p.Patterns.Section...),
			SpecialChapters: append([]string(nil), p.Patterns.SpecialChapters...),
			Ignore:          append([]string(nil), p.Patterns.Ignore...),
		},
	}
}

// ToProviderRegistryConfig converts the config to a format suitable for providers.Registry.
// It resolves all ${ENV_VAR} references in API keys.
func (c *Config) ToProviderRegistryConfig() map[string]providers.LLMProviderConfig {
	cfg := make(map[string]providers.LLMProviderConfig, len(c.LLM.Providers))
	for name, llm := range c.LLM.Providers {
		cfg[name] = providers.LLMProviderConfig{
			Type:            llm.Type,
			BaseURL:         llm.BaseURL,
			Model:           llm.Model,
			APIKey:          ResolveEnvVars(llm.APIKey),
			RateLimit:       llm.RateLimit,
			MaxRetries:      llm.MaxRetries,
			RetryDelay:      llm.RetryDelay,
			Timeout:         llm.Timeout,
			InputCostPer1M:  llm.InputCostPer1M,
			OutputCostPer1M: llm.OutputCostPer1M,
		}
	}
	return cfg
}

// Timeout returns the request timeout of the selected provider.
func (c *Config) Timeout() time.Duration {
	return c.LLM.Providers[c.LLM.Provider].Timeout
}

// WriteDefault writes the default configuration to the specified path.
// Keys keep the order of DefaultEntries.
func WriteDefault(path string) error {
	root := yaml.MapSlice{}
	for _, e := range DefaultEntries() {
		value := e.Value
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		root = insert(root, strings.Split(e.Key, "."), value)
	}
	data, err := yaml.Marshal(root)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# txtshelf configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export OPENAI_API_KEY=xxx
# Any key can be overridden with TXTSHELF_<SECTION>_<KEY>, e.g. TXTSHELF_LLM_ENABLED=true

`)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, append(header, data...), 0o644)
}

// insert places value under the nested path, keeping insertion order.
func insert(m yaml.MapSlice, path []string, value any) yaml.MapSlice {
	for i := range m {
		if m[i].Key != path[0] {
			continue
		}
		if len(path) > 1 {
			child, _ := m[i].Value.(yaml.MapSlice)
			m[i].Value = insert(child, path[1:], value)
		} else {
			m[i].Value = value
		}
		return m
	}
	if len(path) == 1 {
		return append(m, yaml.MapItem{Key: path[0], Value: value})
	}
	return append(m, yaml.MapItem{Key: path[0], Value: insert(nil, path[1:], value)})
}
