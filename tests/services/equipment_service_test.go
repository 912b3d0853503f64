package services

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gridlab/board-agent/internal/models"
	"github.com/gridlab/board-agent/internal/protocol"
	"github.com/gridlab/board-agent/internal/services"
	"github.com/gridlab/board-agent/tests/mocks"
)

// TestEquipmentService_ReportsInitialTopology tests that both equipment
// frames go out at start.
func TestEquipmentService_ReportsInitialTopology(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()

	var producedPayload, consumedPayload []byte
	mockClient.On("ReportProduction", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			producedPayload = args.Get(1).([]byte)
		})
	mockClient.On("ReportConsumption", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			consumedPayload = args.Get(1).([]byte)
		})

	topology := services.Topology{
		Plants: []models.ProductionReport{
			{PlantID: 11, SetPower: 1500.5},
			{PlantID: 12, SetPower: 800.0},
		},
		Consumers: []uint32{21, 22, 23},
	}

	e := services.NewEquipmentService(topology, mockClient, logger)

	// Execute; the initial report happens synchronously in Start.
	err := e.Start()
	assert.NoError(t, err)

	// Assert
	plants, err := protocol.UnpackConnectedProduction(producedPayload)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, uint32(11), plants[0].PlantID)
	assert.InDelta(t, 1500.5, plants[0].SetPower, 0.001)

	consumers, err := protocol.UnpackConnectedConsumption(consumedPayload)
	require.NoError(t, err)
	assert.Equal(t, []uint32{21, 22, 23}, consumers)

	// Cleanup
	err = e.Stop()
	assert.NoError(t, err)
}

// TestEquipmentService_ReportsTopologyChange tests that SetTopology pushes a
// fresh report.
func TestEquipmentService_ReportsTopologyChange(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()

	reports := make(chan []byte, 4)
	mockClient.On("ReportProduction", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			reports <- args.Get(1).([]byte)
		})
	mockClient.On("ReportConsumption", mock.Anything, mock.Anything).Return(nil)

	e := services.NewEquipmentService(services.Topology{}, mockClient, logger)

	err := e.Start()
	assert.NoError(t, err)
	<-reports // initial report

	// Execute
	e.SetTopology(services.Topology{
		Plants: []models.ProductionReport{{PlantID: 31, SetPower: 250.0}},
	})

	// Assert
	select {
	case payload := <-reports:
		plants, err := protocol.UnpackConnectedProduction(payload)
		require.NoError(t, err)
		require.Len(t, plants, 1)
		assert.Equal(t, uint32(31), plants[0].PlantID)
	case <-time.After(1 * time.Second):
		t.Fatal("topology change was not reported within a second")
	}

	// Cleanup
	err = e.Stop()
	assert.NoError(t, err)
}

// TestEquipmentService_Lifecycle tests the start and stop guards.
func TestEquipmentService_Lifecycle(t *testing.T) {
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()

	mockClient.On("ReportProduction", mock.Anything, mock.Anything).Return(nil)
	mockClient.On("ReportConsumption", mock.Anything, mock.Anything).Return(nil)

	e := services.NewEquipmentService(services.Topology{Consumers: []uint32{1}}, mockClient, logger)

	err := e.Start()
	assert.NoError(t, err)

	err = e.Start()
	assert.Error(t, err)
	assert.Equal(t, "equipment service is already running", err.Error())

	err = e.Stop()
	assert.NoError(t, err)

	err = e.Stop()
	assert.Error(t, err)
	assert.Equal(t, "equipment service is not running", err.Error())
}
