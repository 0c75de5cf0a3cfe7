// Package mocks provides a testify mock of types.ObjectStorage.
package mocks

import (
	"context"
	"io"

	"bingads-extractor/shared/storage/types"

	"github.com/stretchr/testify/mock"
)

type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Put(ctx context.Context, bucket, key string, reader io.Reader, metadata types.ObjectMetadata) error {
	args := m.Called(ctx, bucket, key, reader, metadata)
	return args.Error(0)
}

func (m *MockObjectStorage) Get(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, bucket, key)
	if rc, ok := args.Get(0).(io.ReadCloser); ok {
		return rc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockObjectStorage) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func (m *MockObjectStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	args := m.Called(ctx, bucket, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStorage) List(ctx context.Context, bucket, prefix string) ([]types.ObjectInfo, error) {
	args := m.Called(ctx, bucket, prefix)
	if objects, ok := args.Get(0).([]types.ObjectInfo); ok {
		return objects, args.Error(1)
	}
	return nil, args.Error(1)
}
