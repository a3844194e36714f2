package testutil

import (
	"context"
	"time"

	"github.com/poyrazK/dnsq/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockTransport implements ports.Transport for testing.
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Send(_ context.Context, data []byte) error {
	args := m.Called(data)
	return args.Error(0)
}

func (m *MockTransport) Receive(_ context.Context, timeout time.Duration) ([]byte, error) {
	args := m.Called(timeout)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockTransport) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockHistory implements ports.HistoryRecorder for testing.
type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) Record(_ context.Context, result *domain.LookupResult) error {
	args := m.Called(result)
	return args.Error(0)
}

func (m *MockHistory) Recent(_ context.Context, n int64) ([]domain.LookupResult, error) {
	args := m.Called(n)
	res, _ := args.Get(0).([]domain.LookupResult)
	return res, args.Error(1)
}
