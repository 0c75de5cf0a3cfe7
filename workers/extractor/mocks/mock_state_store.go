package mocks

import (
	"context"

	"bingads-extractor/workers/extractor/internal/state"

	"github.com/stretchr/testify/mock"
)

// MockStateStore is a mock state.Store.
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Load(ctx context.Context) (state.State, error) {
	args := m.Called(ctx)
	return args.Get(0).(state.State), args.Error(1)
}

func (m *MockStateStore) Save(ctx context.Context, s state.State) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
