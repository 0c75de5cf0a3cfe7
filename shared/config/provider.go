package config

import (
	"fmt"
	"sync"
)

// Provider owns the process configuration. Use GetProvider for the shared
// instance; NewProvider exists for tests that need isolation.
type Provider struct {
	config *Config
	envDir string
	mu     sync.RWMutex
	loaded bool
}

var (
	instance *Provider
	once     sync.Once
)

// GetProvider returns the process-wide provider.
func GetProvider() *Provider {
	once.Do(func() {
		instance = NewProvider("")
	})
	return instance
}

// NewProvider returns a provider that looks for .env files in envDir. An
// empty envDir means the working directory.
func NewProvider(envDir string) *Provider {
	if envDir != "" && envDir[len(envDir)-1] != '/' {
		envDir += "/"
	}
	return &Provider{envDir: envDir}
}

// Load reads and validates the configuration once. Later calls are no-ops.
func (p *Provider) Load() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded {
		return nil
	}

	cfg, err := p.read()
	if err != nil {
		return err
	}

	p.config = cfg
	p.loaded = true
	return nil
}

// MustLoad is Load for startup code where a bad environment is fatal.
func (p *Provider) MustLoad() {
	if err := p.Load(); err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
}

func (p *Provider) Get() (*Config, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.loaded || p.config == nil {
		return nil, fmt.Errorf("configuration not loaded; call Load() first")
	}
	return p.config, nil
}

func (p *Provider) MustGet() *Config {
	cfg, err := p.Get()
	if err != nil {
		panic(fmt.Sprintf("failed to get configuration: %v", err))
	}
	return cfg
}

// Reload re-reads the environment, keeping the previous configuration when
// the new one is invalid.
func (p *Provider) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cfg, err := p.read()
	if err != nil {
		return err
	}

	p.config = cfg
	p.loaded = true
	return nil
}

func (p *Provider) IsLoaded() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loaded
}

func (p *Provider) read() (*Config, error) {
	if err := loadEnvFiles(p.envDir); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}

	cfg, err := parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
