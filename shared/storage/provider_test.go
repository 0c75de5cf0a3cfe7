package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bingads-extractor/shared/config"
	"bingads-extractor/shared/observability"
	mockObservability "bingads-extractor/shared/observability/mocks"
	mockStorage "bingads-extractor/shared/storage/mocks"
	"bingads-extractor/shared/storage/types"
)

func stubFactory(s types.ObjectStorage, err error) Factory {
	return func(context.Context, *config.StorageConfig, observability.Logger, observability.Metrics) (types.ObjectStorage, error) {
		return s, err
	}
}

func TestGetProvider_Singleton(t *testing.T) {
	assert.Same(t, GetProvider(), GetProvider())
}

func TestProvider_Initialize(t *testing.T) {
	tests := []struct {
		name          string
		adapter       string
		factoryErr    error
		expectedError string
	}{
		{name: "known adapter", adapter: "memory"},
		{name: "unsupported adapter", adapter: "gcs", expectedError: "unsupported storage adapter"},
		{name: "factory failure", adapter: "memory", factoryErr: errors.New("bucket missing"), expectedError: "failed to create memory storage: bucket missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := new(mockStorage.MockObjectStorage)
			provider := NewProvider(map[string]Factory{"memory": stubFactory(backend, tt.factoryErr)})

			cfg := config.DefaultConfig()
			cfg.Storage.Adapter = tt.adapter

			err := provider.Initialize(context.Background(), cfg, mockObservability.NewNopLogger(), mockObservability.NewNopMetrics())

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.False(t, provider.IsInitialized())
				_, getErr := provider.GetStorage()
				assert.Error(t, getErr)
				return
			}

			require.NoError(t, err)
			assert.True(t, provider.IsInitialized())
			assert.Same(t, backend, provider.MustGetStorage())
		})
	}
}

func TestProvider_InitializeIdempotent(t *testing.T) {
	calls := 0
	provider := NewProvider(map[string]Factory{
		"memory": func(context.Context, *config.StorageConfig, observability.Logger, observability.Metrics) (types.ObjectStorage, error) {
			calls++
			return new(mockStorage.MockObjectStorage), nil
		},
	})
	cfg := config.DefaultConfig()
	cfg.Storage.Adapter = "memory"

	logger := mockObservability.NewNopLogger()
	metrics := mockObservability.NewNopMetrics()
	require.NoError(t, provider.Initialize(context.Background(), cfg, logger, metrics))
	require.NoError(t, provider.Initialize(context.Background(), cfg, logger, metrics))
	assert.Equal(t, 1, calls)

	provider.Reset()
	assert.False(t, provider.IsInitialized())
	assert.Panics(t, func() { provider.MustGetStorage() })
}

func TestProvider_InitializeAppliesPrefix(t *testing.T) {
	backend := new(mockStorage.MockObjectStorage)
	backend.On("Put", mock.Anything, "", "runs/cfg-1/Entities.csv", mock.Anything, mock.Anything).Return(nil)

	provider := NewProvider(map[string]Factory{"memory": stubFactory(backend, nil)})
	cfg := config.DefaultConfig()
	cfg.Storage.Adapter = "memory"
	cfg.Storage.Prefix = "/runs/cfg-1/"

	require.NoError(t, provider.Initialize(context.Background(), cfg, mockObservability.NewNopLogger(), mockObservability.NewNopMetrics()))

	s := provider.MustGetStorage()
	require.NoError(t, s.Put(context.Background(), "", "Entities.csv", bytes.NewReader(nil), types.ObjectMetadata{}))
	backend.AssertExpectations(t)
}

func TestWithPrefix(t *testing.T) {
	backend := new(mockStorage.MockObjectStorage)
	assert.Same(t, backend, WithPrefix(backend, ""))
	assert.Same(t, backend, WithPrefix(backend, "/"))

	s := WithPrefix(backend, "exports")
	ctx := context.Background()

	backend.On("Exists", ctx, "b", "exports/a.csv").Return(true, nil)
	backend.On("Delete", ctx, "b", "exports/a.csv").Return(nil)
	backend.On("Get", ctx, "b", "exports/a.csv").Return(nil, types.ErrObjectNotFound)
	backend.On("List", ctx, "b", "exports/123").Return([]types.ObjectInfo{
		{Key: "exports/123/a.csv"},
		{Key: "exports/123/a.csv.manifest"},
	}, nil)

	ok, err := s.Exists(ctx, "b", "a.csv")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.Delete(ctx, "b", "a.csv"))

	_, err = s.Get(ctx, "b", "a.csv")
	assert.ErrorIs(t, err, types.ErrObjectNotFound)

	objects, err := s.List(ctx, "b", "123")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "123/a.csv", objects[0].Key)
	assert.Equal(t, "123/a.csv.manifest", objects[1].Key)

	backend.AssertExpectations(t)
}
