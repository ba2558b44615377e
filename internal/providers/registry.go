package providers

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Registry holds LLM clients by name. It supports config-driven
// instantiation and hot-reload, and provides thread-safe access.
type Registry struct {
	mu         sync.RWMutex
	llmClients map[string]LLMClient
	configs    map[string]LLMProviderConfig
	logger     *slog.Logger
}

// NewRegistry creates a new empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		llmClients: make(map[string]LLMClient),
		configs:    make(map[string]LLMProviderConfig),
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// RegisterLLM registers an LLM client by name.
func (r *Registry) RegisterLLM(name string, client LLMClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.llmClients[name] = client
	r.logger.Debug("registered LLM client", "name", name)
}

// GetLLM returns an LLM client by name.
func (r *Registry) GetLLM(name string) (LLMClient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.llmClients[name]
	if !ok {
		return nil, fmt.Errorf("LLM client not found: %s", name)
	}
	return client, nil
}

// ListLLM returns all registered LLM client names, sorted.
func (r *Registry) ListLLM() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.llmClients))
	for name := range r.llmClients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LLMProviderConfig describes one client to build, with a resolved API key.
type LLMProviderConfig struct {
	Type       string // "openai" or "mock"
	BaseURL    string
	Model      string
	APIKey     string
	RateLimit  float64 // requests per second
	MaxRetries int
	RetryDelay time.Duration
	Timeout    time.Duration

	InputCostPer1M  float64
	OutputCostPer1M float64
}

// Reload brings the registry in line with cfgs. Clients whose settings
// changed are rebuilt and clients no longer configured are removed.
func (r *Registry) Reload(cfgs map[string]LLMProviderConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for name, cfg := range cfgs {
		if existing, ok := r.configs[name]; ok && existing == cfg {
			continue
		}
		client, err := createLLMClient(cfg, r.logger)
		if err != nil {
			r.logger.Warn("skipping LLM provider", "name", name, "error", err)
			continue
		}
		_, updated := r.llmClients[name]
		r.llmClients[name] = client
		r.configs[name] = cfg
		if updated {
			r.logger.Info("updated LLM client", "name", name, "type", cfg.Type)
		} else {
			r.logger.Debug("registered LLM client", "name", name, "type", cfg.Type)
		}
	}
	for name := range r.llmClients {
		if _, ok := cfgs[name]; !ok {
			delete(r.llmClients, name)
			delete(r.configs, name)
			r.logger.Info("unregistered LLM client", "name", name)
		}
	}
}

// NewRegistryFromConfig creates a registry with the configured clients.
func NewRegistryFromConfig(cfgs map[string]LLMProviderConfig, logger *slog.Logger) *Registry {
	r := NewRegistry()
	if logger != nil {
		r.logger = logger
	}
	r.Reload(cfgs)
	return r
}

func createLLMClient(cfg LLMProviderConfig, logger *slog.Logger) (LLMClient, error) {
	switch cfg.Type {
	case OpenAIName, "":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs an API key or a base URL")
		}
		return NewOpenAIClient(OpenAIConfig{
			APIKey:          cfg.APIKey,
			BaseURL:         cfg.BaseURL,
			Model:           cfg.Model,
			RateLimit:       cfg.RateLimit,
			MaxRetries:      cfg.MaxRetries,
			RetryDelay:      cfg.RetryDelay,
			Timeout:         cfg.Timeout,
			InputCostPer1M:  cfg.InputCostPer1M,
			OutputCostPer1M: cfg.OutputCostPer1M,
			Logger:          logger,
		}), nil
	case MockClientName:
		return NewMockClient(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
