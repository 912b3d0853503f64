package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/protocol"
	"github.com/gridlab/board-agent/pkg/coreapi"
	"github.com/gridlab/board-agent/pkg/identity"
)

// RegistrationService manages the process of registering a board with the
// CoreAPI over the binary protocol.
type RegistrationService struct {
	// Configuration fields
	maxRetries      int
	baseDelay       time.Duration
	maxDelay        time.Duration
	responseTimeout time.Duration

	// Dependencies
	boardInfo identity.BoardInfoInterface
	client    coreapi.Client
	logger    zerolog.Logger

	// Internal state for managing service lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewRegistrationService initializes and returns a new RegistrationService instance.
func NewRegistrationService(
	maxRetries int,
	baseDelay time.Duration,
	maxDelay time.Duration,
	responseTimeout time.Duration,
	boardInfo identity.BoardInfoInterface,
	client coreapi.Client,
	logger zerolog.Logger,
) *RegistrationService {
	return &RegistrationService{
		maxRetries:      maxRetries,
		baseDelay:       baseDelay,
		maxDelay:        maxDelay,
		responseTimeout: responseTimeout,
		boardInfo:       boardInfo,
		client:          client,
		logger:          logger,
	}
}

// Start begins the registration process if it's not already running. The
// mutex only guards lifecycle state; the blocking retry loop runs outside it
// so Stop can cancel an in-flight registration.
func (rs *RegistrationService) Start() error {
	rs.mu.Lock()
	if rs.ctx != nil {
		rs.mu.Unlock()
		rs.logger.Warn().Msg("Registration service is already running")
		return errors.New("registration service is already running")
	}
	rs.ctx, rs.cancel = context.WithCancel(context.Background())
	rs.mu.Unlock()

	ident := rs.boardInfo.GetBoardIdentity()
	rs.logger.Info().Uint32("board_id", ident.BoardID).Str("board_type", ident.BoardType).Msg("Starting registration process")

	return rs.Register()
}

// Register packs the registration frame and posts it with exponential backoff
// until the server accepts, the retry budget runs out, or the service stops.
func (rs *RegistrationService) Register() error {
	rs.mu.Lock()
	ctx := rs.ctx
	rs.mu.Unlock()
	if ctx == nil {
		return errors.New("registration service is not running")
	}

	ident := rs.boardInfo.GetBoardIdentity()

	payload, written := protocol.PackRegistrationRequest(ident.BoardID, ident.Name, ident.BoardType)
	if written < len(ident.Name) {
		rs.logger.Warn().
			Str("name", ident.Name).
			Int("bytes_written", written).
			Msg("Board name truncated to fit the registration frame")
	}

	var lastErr error
	for attempt := 0; attempt <= rs.maxRetries; attempt++ {
		delay := rs.baseDelay * time.Duration(1<<uint(attempt))
		if delay > rs.maxDelay {
			delay = rs.maxDelay
		}
		jitter := time.Duration(float64(delay) * (0.5 + rand.Float64()*0.5))
		delay = time.Duration(float64(delay)*0.75) + jitter

		attemptCtx, cancel := context.WithTimeout(ctx, rs.responseTimeout)
		respBody, err := rs.client.RegisterBinary(attemptCtx, payload)
		cancel()

		if err == nil {
			response, decodeErr := protocol.UnpackRegistrationResponse(respBody)
			if decodeErr != nil {
				lastErr = decodeErr
				rs.logger.Error().Err(decodeErr).Int("attempt", attempt+1).Msg("Failed to decode registration response")
			} else if !response.Success {
				// The server understood us and said no; retrying won't help.
				return fmt.Errorf("registration rejected: %s", response.Message)
			} else {
				rs.logger.Info().
					Uint32("board_id", ident.BoardID).
					Str("message", response.Message).
					Int("attempt", attempt+1).
					Msg("Board registered successfully")
				return nil
			}
		} else {
			lastErr = err
			rs.logger.Error().Err(err).Int("attempt", attempt+1).Msg("Registration request failed")
		}

		if attempt == rs.maxRetries {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			rs.logger.Warn().Msg("Registration service stopping during retry delay")
			return errors.New("registration service stopped")
		}
	}

	return fmt.Errorf("registration failed after %d attempts: %w", rs.maxRetries+1, lastErr)
}

// Stop gracefully shuts down the registration service.
func (rs *RegistrationService) Stop() error {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ctx == nil {
		return errors.New("registration service is not running")
	}

	rs.cancel()
	rs.ctx = nil
	rs.cancel = nil

	rs.logger.Info().Msg("Registration service stopped successfully")
	return nil
}
