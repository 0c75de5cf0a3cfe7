// Package mocks provides testify mocks of the extractor's collaborators.
package mocks

import (
	"context"

	"bingads-extractor/workers/extractor/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockJob is a mock remote job.
type MockJob struct {
	mock.Mock
}

func (m *MockJob) Kind() domain.Kind {
	args := m.Called()
	return args.Get(0).(domain.Kind)
}

func (m *MockJob) Submit(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockJob) Poll(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockJob) Download(ctx context.Context, dir, name string) (string, error) {
	args := m.Called(ctx, dir, name)
	return args.String(0), args.Error(1)
}

// NewMockJob returns a MockJob of kind.
func NewMockJob(kind domain.Kind) *MockJob {
	m := &MockJob{}
	m.On("Kind").Return(kind).Maybe()
	return m
}
