package mocks

import (
	"bingads-extractor/shared/observability/types"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Logger(component string) types.Logger {
	args := m.Called(component)
	if l, ok := args.Get(0).(types.Logger); ok {
		return l
	}
	return nil
}

func (m *MockProvider) Metrics(component string) types.Metrics {
	args := m.Called(component)
	if mt, ok := args.Get(0).(types.Metrics); ok {
		return mt
	}
	return nil
}

func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}

// NewNopProvider returns a MockProvider whose loggers and metrics accept every call.
func NewNopProvider() *MockProvider {
	m := &MockProvider{}
	m.On("Logger", mock.Anything).Return(NewNopLogger()).Maybe()
	m.On("Metrics", mock.Anything).Return(NewNopMetrics()).Maybe()
	m.On("Close").Return(nil).Maybe()
	return m
}
