package mocks

import (
	"github.com/stretchr/testify/mock"
)

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordSuccess(operationType string) {
	m.Called(operationType)
}

func (m *MockMetrics) RecordError(operationType string, errorType string) {
	m.Called(operationType, errorType)
}

func (m *MockMetrics) RecordDuration(operation string, duration float64) {
	m.Called(operation, duration)
}

func (m *MockMetrics) RecordFileSize(fileType string, bytes int64) {
	m.Called(fileType, bytes)
}

func (m *MockMetrics) StartOperation(operation string) {
	m.Called(operation)
}

func (m *MockMetrics) EndOperation(operation string) {
	m.Called(operation)
}

// NewNopMetrics returns a MockMetrics that accepts every call.
func NewNopMetrics() *MockMetrics {
	m := &MockMetrics{}
	m.On("RecordSuccess", mock.Anything).Maybe()
	m.On("RecordError", mock.Anything, mock.Anything).Maybe()
	m.On("RecordDuration", mock.Anything, mock.Anything).Maybe()
	m.On("RecordFileSize", mock.Anything, mock.Anything).Maybe()
	m.On("StartOperation", mock.Anything).Maybe()
	m.On("EndOperation", mock.Anything).Maybe()
	return m
}
