package services

import (
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/models"
	"github.com/gridlab/board-agent/internal/protocol"
	"github.com/gridlab/board-agent/internal/services"
	"github.com/gridlab/board-agent/tests/mocks"
)

// buildPollBody assembles a poll response: the fixed status frame followed by
// the coefficient payload.
func buildPollBody(t *testing.T, status models.PollStatus, set models.CoefficientSet) []byte {
	t.Helper()

	buf := make([]byte, protocol.PollStatusSize)
	binary.BigEndian.PutUint32(buf[0:4], status.Round)
	binary.BigEndian.PutUint32(buf[4:8], uint32(status.Score))
	if status.GameActive {
		buf[8] = 1
	}
	if status.ExpectingData {
		buf[9] = 1
	}
	buf[10] = byte(status.RoundType)
	binary.BigEndian.PutUint32(buf[11:15], status.Timestamp)
	binary.BigEndian.PutUint32(buf[15:19], uint32(int32(status.Generation*1000)))
	binary.BigEndian.PutUint32(buf[19:23], uint32(int32(status.Consumption*1000)))
	binary.BigEndian.PutUint32(buf[23:27], status.BuildingTableVersion)

	payload, err := protocol.PackCoefficients(set)
	require.NoError(t, err)

	return append(buf, payload...)
}

// TestPollService_AppliesPollResults tests that a poll cycle feeds status and
// coefficients into the game state.
func TestPollService_AppliesPollResults(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	body := buildPollBody(t,
		models.PollStatus{
			Round:      4,
			Score:      1500,
			GameActive: true,
			RoundType:  constants.RoundDay,
			Timestamp:  120,
		},
		models.CoefficientSet{
			Production: map[constants.SourceType]float64{
				constants.SourcePhotovoltaic: 0.85,
			},
		},
	)
	mockClient.On("PollBinary", mock.Anything).Return(body, nil)

	p := services.NewPollService(1*time.Hour, state, mockClient, logger)

	// Execute
	err := p.Start()
	assert.NoError(t, err)

	// The first poll runs immediately; give the loop a moment to process it.
	assert.Eventually(t, func() bool {
		return state.Status().Round == 4
	}, 1*time.Second, 10*time.Millisecond)

	status := state.Status()
	assert.Equal(t, int32(1500), status.Score)
	assert.True(t, status.GameActive)
	assert.Equal(t, constants.RoundDay, status.RoundType)

	coeff, ok := state.ProductionCoefficient(constants.SourcePhotovoltaic)
	assert.True(t, ok)
	assert.InDelta(t, 0.85, coeff, 0.001)

	// Cleanup
	err = p.Stop()
	assert.NoError(t, err)
}

// TestPollService_RefreshesBuildingTable tests that a newer announced table
// version triggers a fetch in the same cycle.
func TestPollService_RefreshesBuildingTable(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	body := buildPollBody(t,
		models.PollStatus{Round: 1, GameActive: true, BuildingTableVersion: 2},
		models.CoefficientSet{},
	)
	tablePayload, err := protocol.PackBuildingTable(models.BuildingTable{
		Version: 2,
		Entries: map[constants.BuildingType]float64{
			constants.BuildingResidential: 12.5,
		},
	})
	require.NoError(t, err)

	mockClient.On("PollBinary", mock.Anything).Return(body, nil)
	mockClient.On("FetchBuildingTable", mock.Anything).Return(tablePayload, nil)

	p := services.NewPollService(1*time.Hour, state, mockClient, logger)

	// Execute
	err = p.Start()
	assert.NoError(t, err)

	assert.Eventually(t, func() bool {
		return state.BuildingTable().Version == 2
	}, 1*time.Second, 10*time.Millisecond)

	consumption, ok := state.BuildingConsumption(constants.BuildingResidential)
	assert.True(t, ok)
	assert.InDelta(t, 12.5, consumption, 0.001)
	mockClient.AssertCalled(t, "FetchBuildingTable", mock.Anything)

	// Cleanup
	err = p.Stop()
	assert.NoError(t, err)
}

// TestPollService_PollFailureKeepsState tests that a failed poll leaves the
// previous state intact.
func TestPollService_PollFailureKeepsState(t *testing.T) {
	// Setup
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	state.UpdateStatus(models.PollStatus{Round: 9, GameActive: true})
	mockClient.On("PollBinary", mock.Anything).Return(nil, errors.New("connection refused"))

	p := services.NewPollService(1*time.Hour, state, mockClient, logger)

	// Execute
	err := p.Start()
	assert.NoError(t, err)

	// Give the immediate first poll time to fail.
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, uint32(9), state.Status().Round)
	assert.True(t, state.Status().GameActive)

	// Cleanup
	err = p.Stop()
	assert.NoError(t, err)
}

// TestPollService_Lifecycle tests the start and stop guards.
func TestPollService_Lifecycle(t *testing.T) {
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	mockClient.On("PollBinary", mock.Anything).Return(nil, errors.New("connection refused"))

	p := services.NewPollService(1*time.Hour, state, mockClient, logger)

	err := p.Start()
	assert.NoError(t, err)

	err = p.Start()
	assert.Error(t, err)
	assert.Equal(t, "poll service is already running", err.Error())

	err = p.Stop()
	assert.NoError(t, err)

	err = p.Stop()
	assert.Error(t, err)
	assert.Equal(t, "poll service is not running", err.Error())
}
