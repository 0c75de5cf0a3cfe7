// Package storage builds the configured ObjectStorage adapter and keeps one
// instance per process.
package storage

import (
	"context"
	"fmt"
	"sync"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	"bingads-extractor/shared/storage/types"
)

// Factory creates an adapter from the storage configuration.
type Factory func(ctx context.Context, cfg *config.StorageConfig, logger observability.Logger, metrics observability.Metrics) (types.ObjectStorage, error)

type Provider struct {
	storage     types.ObjectStorage
	factories   map[string]Factory
	mu          sync.RWMutex
	initialized bool
}

var (
	instance *Provider
	once     sync.Once
)

// GetProvider returns the process-wide provider with the built-in adapters.
func GetProvider() *Provider {
	once.Do(func() {
		instance = NewProvider(defaultFactories())
	})
	return instance
}

// NewProvider returns a provider with the given adapter factories, keyed by
// adapter name.
func NewProvider(factories map[string]Factory) *Provider {
	return &Provider{factories: factories}
}

// Initialize creates the adapter named by cfg.Storage.Adapter. Later calls
// are no-ops.
func (p *Provider) Initialize(ctx context.Context, cfg *config.Config, logger observability.Logger, metrics observability.Metrics) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}

	factory, ok := p.factories[cfg.Storage.Adapter]
	if !ok {
		return fmt.Errorf("unsupported storage adapter: %q", cfg.Storage.Adapter)
	}

	s, err := factory(ctx, &cfg.Storage, logger, metrics)
	if err != nil {
		return fmt.Errorf("failed to create %s storage: %w", cfg.Storage.Adapter, err)
	}

	p.storage = WithPrefix(s, cfg.Storage.Prefix)
	p.initialized = true

	logger.Info(ctx, "storage initialized", observability.Fields{
		"adapter": cfg.Storage.Adapter,
		"target":  cfg.Storage.BucketOrPath,
	})
	return nil
}

func (p *Provider) GetStorage() (types.ObjectStorage, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.initialized || p.storage == nil {
		return nil, fmt.Errorf("storage not initialized; call Initialize() first")
	}
	return p.storage, nil
}

func (p *Provider) MustGetStorage() types.ObjectStorage {
	s, err := p.GetStorage()
	if err != nil {
		panic(fmt.Sprintf("failed to get storage: %v", err))
	}
	return s
}

func (p *Provider) IsInitialized() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.initialized
}

// Reset drops the adapter so the next Initialize builds a new one.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.storage = nil
	p.initialized = false
}
