package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/gridlab/board-agent/pkg/identity"
)

// MockBoardInfo is a mock implementation of the identity.BoardInfoInterface.
type MockBoardInfo struct {
	mock.Mock
}

// LoadBoardInfo mocks the LoadBoardInfo method.
func (m *MockBoardInfo) LoadBoardInfo() error {
	args := m.Called()
	return args.Error(0)
}

// SaveBoardID mocks the SaveBoardID method.
func (m *MockBoardInfo) SaveBoardID(boardID uint32) error {
	args := m.Called(boardID)
	return args.Error(0)
}

// GetBoardID mocks the GetBoardID method.
func (m *MockBoardInfo) GetBoardID() uint32 {
	args := m.Called()
	return args.Get(0).(uint32)
}

// GetBoardIdentity mocks the GetBoardIdentity method.
func (m *MockBoardInfo) GetBoardIdentity() *identity.Identity {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*identity.Identity)
}
