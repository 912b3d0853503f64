package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/models"
	"github.com/gridlab/board-agent/internal/protocol"
	"github.com/gridlab/board-agent/internal/simulation"
	"github.com/gridlab/board-agent/pkg/coreapi"
	"github.com/gridlab/board-agent/pkg/identity"
)

// TelemetryService streams power readings to the CoreAPI. While a round is
// collecting data it submits full timestamped readings; between collections
// it keeps the board's live values fresh with the compact value frame.
type TelemetryService struct {
	Interval  time.Duration
	BoardInfo identity.BoardInfoInterface
	Board     *simulation.Board
	State     *gamestate.GameState
	Client    coreapi.Client
	Logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewTelemetryService initializes a new TelemetryService.
func NewTelemetryService(interval time.Duration, boardInfo identity.BoardInfoInterface, board *simulation.Board,
	state *gamestate.GameState, client coreapi.Client, logger zerolog.Logger) *TelemetryService {

	return &TelemetryService{
		Interval:  interval,
		BoardInfo: boardInfo,
		Board:     board,
		State:     state,
		Client:    client,
		Logger:    logger,
	}
}

// Start launches the telemetry loop in a separate goroutine.
func (t *TelemetryService) Start() error {
	if t.ctx != nil {
		t.Logger.Warn().Msg("TelemetryService is already running")
		return errors.New("telemetry service is already running")
	}

	t.ctx, t.cancel = context.WithCancel(context.Background())

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		t.runTelemetryLoop()
	}()

	t.Logger.Info().Dur("interval", t.Interval).Msg("TelemetryService started successfully")
	return nil
}

// Stop gracefully stops the telemetry service.
func (t *TelemetryService) Stop() error {
	if t.ctx == nil {
		t.Logger.Warn().Msg("TelemetryService is not running")
		return errors.New("telemetry service is not running")
	}

	t.cancel()
	t.wg.Wait()

	t.ctx = nil
	t.cancel = nil

	t.Logger.Info().Msg("TelemetryService stopped successfully")
	return nil
}

// runTelemetryLoop submits power data at the configured interval.
func (t *TelemetryService) runTelemetryLoop() {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sendReading()
		case <-t.ctx.Done():
			t.Logger.Info().Msg("TelemetryService stopping gracefully")
			return
		}
	}
}

func (t *TelemetryService) sendReading() {
	status := t.State.Status()
	if !status.GameActive {
		t.Logger.Debug().Msg("Game inactive, skipping telemetry cycle")
		return
	}

	generation, consumption := t.Board.Reading(status.RoundType)

	if status.ExpectingData {
		t.submitReading(generation, consumption, status.Round)
		return
	}

	payload, err := protocol.PackPowerValues(generation, consumption)
	if err != nil {
		t.Logger.Error().Err(err).Msg("Failed to encode power values")
		return
	}
	if err := t.Client.PostValues(t.ctx, payload); err != nil {
		t.Logger.Error().Err(err).Msg("Failed to post power values")
		return
	}

	t.Logger.Debug().
		Float64("generation", generation).
		Float64("consumption", consumption).
		Msg("Power values posted")
}

// submitReading sends a full timestamped reading for the collecting round.
func (t *TelemetryService) submitReading(generation, consumption float64, round uint32) {
	reading := models.PowerReading{
		BoardID:     t.BoardInfo.GetBoardID(),
		Generation:  generation,
		Consumption: consumption,
		Timestamp:   time.Now().Unix(),
	}

	payload, err := protocol.PackPowerData(reading)
	if err != nil {
		t.Logger.Error().Err(err).Msg("Failed to encode power reading")
		return
	}

	if err := t.Client.PostPowerData(t.ctx, payload); err != nil {
		t.Logger.Error().Err(err).Uint32("round", round).Msg("Failed to submit power reading")
		return
	}

	t.Logger.Info().
		Uint32("round", round).
		Float64("generation", generation).
		Float64("consumption", consumption).
		Msg("Power reading submitted for round")
}
