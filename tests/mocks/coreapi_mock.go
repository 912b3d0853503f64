package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCoreAPIClient is a mock implementation of the coreapi.Client interface.
type MockCoreAPIClient struct {
	mock.Mock
}

// Login mocks the Login method.
func (m *MockCoreAPIClient) Login(ctx context.Context, username, password string) error {
	args := m.Called(ctx, username, password)
	return args.Error(0)
}

// RegisterBinary mocks the RegisterBinary method.
func (m *MockCoreAPIClient) RegisterBinary(ctx context.Context, payload []byte) ([]byte, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// PollBinary mocks the PollBinary method.
func (m *MockCoreAPIClient) PollBinary(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// PostValues mocks the PostValues method.
func (m *MockCoreAPIClient) PostValues(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// PostPowerData mocks the PostPowerData method.
func (m *MockCoreAPIClient) PostPowerData(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// ReportProduction mocks the ReportProduction method.
func (m *MockCoreAPIClient) ReportProduction(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// ReportConsumption mocks the ReportConsumption method.
func (m *MockCoreAPIClient) ReportConsumption(ctx context.Context, payload []byte) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

// FetchBuildingTable mocks the FetchBuildingTable method.
func (m *MockCoreAPIClient) FetchBuildingTable(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
