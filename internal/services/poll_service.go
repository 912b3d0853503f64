package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/protocol"
	"github.com/gridlab/board-agent/pkg/coreapi"
)

// PollService periodically fetches the board status and round coefficients
// from the CoreAPI and feeds them into the per-board game state. When a poll
// announces a newer building table version, the table is re-fetched in the
// same cycle.
type PollService struct {
	Interval time.Duration
	State    *gamestate.GameState
	Client   coreapi.Client
	Logger   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPollService initializes a new PollService.
func NewPollService(interval time.Duration, state *gamestate.GameState, client coreapi.Client, logger zerolog.Logger) *PollService {
	return &PollService{
		Interval: interval,
		State:    state,
		Client:   client,
		Logger:   logger,
	}
}

// Start launches the poll loop in a separate goroutine.
func (p *PollService) Start() error {
	if p.ctx != nil {
		p.Logger.Warn().Msg("PollService is already running")
		return errors.New("poll service is already running")
	}

	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runPollLoop()
	}()

	p.Logger.Info().Dur("interval", p.Interval).Msg("PollService started successfully")
	return nil
}

// Stop gracefully stops the poll service.
func (p *PollService) Stop() error {
	if p.ctx == nil {
		p.Logger.Warn().Msg("PollService is not running")
		return errors.New("poll service is not running")
	}

	p.cancel()
	p.wg.Wait()

	p.ctx = nil
	p.cancel = nil

	p.Logger.Info().Msg("PollService stopped successfully")
	return nil
}

// runPollLoop polls at the configured interval until stopped. Transport and
// decode failures are logged and the cycle skipped; the next tick retries.
func (p *PollService) runPollLoop() {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	// First poll immediately so boards don't sit blind for a full interval.
	p.pollOnce()

	for {
		select {
		case <-ticker.C:
			p.pollOnce()
		case <-p.ctx.Done():
			p.Logger.Info().Msg("PollService stopping gracefully")
			return
		}
	}
}

func (p *PollService) pollOnce() {
	body, err := p.Client.PollBinary(p.ctx)
	if err != nil {
		p.Logger.Error().Err(err).Msg("Poll request failed")
		return
	}

	status, coefficients, err := protocol.UnpackPoll(body)
	if err != nil {
		p.Logger.Error().Err(err).Msg("Failed to decode poll response")
		return
	}

	p.State.UpdateStatus(status)
	p.State.ApplyCoefficients(coefficients)

	p.Logger.Debug().
		Uint32("round", status.Round).
		Int32("score", status.Score).
		Bool("game_active", status.GameActive).
		Bool("expecting_data", status.ExpectingData).
		Msg("Poll processed")

	if p.State.BuildingTableStale(status.BuildingTableVersion) {
		p.refreshBuildingTable(status.BuildingTableVersion)
	}
}

func (p *PollService) refreshBuildingTable(announced uint32) {
	body, err := p.Client.FetchBuildingTable(p.ctx)
	if err != nil {
		p.Logger.Error().Err(err).Msg("Building table fetch failed")
		return
	}

	table, err := protocol.UnpackBuildingTable(body)
	if err != nil {
		p.Logger.Error().Err(err).Msg("Failed to decode building table")
		return
	}

	p.State.SetBuildingTable(table)
	p.Logger.Info().
		Uint32("announced_version", announced).
		Uint32("version", table.Version).
		Int("entries", len(table.Entries)).
		Msg("Building table refreshed")
}
