package services

import (
	"math/rand/v2"
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
	"github.com/gridlab/board-agent/internal/simulation"
	"github.com/gridlab/board-agent/tests/mocks"
)

func testBoard(state *gamestate.GameState) *simulation.Board {
	return simulation.NewBoard("solar", state, rand.New(rand.NewPCG(1, 2)))
}

// TestTelemetryService_SubmitsReadingWhenCollecting tests that a collecting
// round produces a full timestamped power reading.
func TestTelemetryService_SubmitsReadingWhenCollecting(t *testing.T) {
	// Setup
	mockBoardInfo := new(mocks.MockBoardInfo)
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	state.UpdateStatus(models.PollStatus{
		Round:         3,
		GameActive:    true,
		ExpectingData: true,
		RoundType:     constants.RoundDay,
	})

	mockBoardInfo.On("GetBoardID").Return(uint32(7))

	payloads := make(chan []byte, 1)
	mockClient.On("PostPowerData", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			select {
			case payloads <- args.Get(1).([]byte):
			default:
			}
		})

	ts := services.NewTelemetryService(10*time.Millisecond, mockBoardInfo, testBoard(state), state, mockClient, logger)

	// Execute
	err := ts.Start()
	assert.NoError(t, err)

	var payload []byte
	select {
	case payload = <-payloads:
	case <-time.After(1 * time.Second):
		t.Fatal("no power reading submitted within a second")
	}

	// Assert the frame decodes back to the board's reading
	reading, err := protocol.UnpackPowerData(payload)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), reading.BoardID)
	assert.GreaterOrEqual(t, reading.Generation, 0.0)
	assert.Greater(t, reading.Consumption, 0.0)
	assert.NotZero(t, reading.Timestamp)

	// Cleanup
	err = ts.Stop()
	assert.NoError(t, err)
}

// TestTelemetryService_PostsValuesBetweenCollections tests the compact value
// frame used while no round is collecting.
func TestTelemetryService_PostsValuesBetweenCollections(t *testing.T) {
	// Setup
	mockBoardInfo := new(mocks.MockBoardInfo)
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	state.UpdateStatus(models.PollStatus{
		GameActive:    true,
		ExpectingData: false,
		RoundType:     constants.RoundNight,
	})

	payloads := make(chan []byte, 1)
	mockClient.On("PostValues", mock.Anything, mock.Anything).Return(nil).
		Run(func(args mock.Arguments) {
			select {
			case payloads <- args.Get(1).([]byte):
			default:
			}
		})

	ts := services.NewTelemetryService(10*time.Millisecond, mockBoardInfo, testBoard(state), state, mockClient, logger)

	// Execute
	err := ts.Start()
	assert.NoError(t, err)

	select {
	case payload := <-payloads:
		assert.Len(t, payload, protocol.PowerValuesSize)
	case <-time.After(1 * time.Second):
		t.Fatal("no power values posted within a second")
	}

	mockClient.AssertNotCalled(t, "PostPowerData", mock.Anything, mock.Anything)

	// Cleanup
	err = ts.Stop()
	assert.NoError(t, err)
}

// TestTelemetryService_SkipsWhenGameInactive tests that nothing is sent while
// no game is running.
func TestTelemetryService_SkipsWhenGameInactive(t *testing.T) {
	// Setup
	mockBoardInfo := new(mocks.MockBoardInfo)
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	ts := services.NewTelemetryService(10*time.Millisecond, mockBoardInfo, testBoard(state), state, mockClient, logger)

	// Execute
	err := ts.Start()
	assert.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	err = ts.Stop()
	assert.NoError(t, err)

	// Assert
	mockClient.AssertNotCalled(t, "PostValues", mock.Anything, mock.Anything)
	mockClient.AssertNotCalled(t, "PostPowerData", mock.Anything, mock.Anything)
}

// TestTelemetryService_Lifecycle tests the start and stop guards.
func TestTelemetryService_Lifecycle(t *testing.T) {
	mockBoardInfo := new(mocks.MockBoardInfo)
	mockClient := new(mocks.MockCoreAPIClient)
	logger := zerolog.Nop()
	state := gamestate.NewGameState(logger)

	ts := services.NewTelemetryService(1*time.Hour, mockBoardInfo, testBoard(state), state, mockClient, logger)

	err := ts.Start()
	assert.NoError(t, err)

	err = ts.Start()
	assert.Error(t, err)
	assert.Equal(t, "telemetry service is already running", err.Error())

	err = ts.Stop()
	assert.NoError(t, err)

	err = ts.Stop()
	assert.Error(t, err)
	assert.Equal(t, "telemetry service is not running", err.Error())
}
