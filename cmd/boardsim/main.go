package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/service_registry"
	"github.com/gridlab/board-agent/internal/utils"
	"github.com/gridlab/board-agent/pkg/coreapi"
	"github.com/gridlab/board-agent/pkg/file"
	"github.com/gridlab/board-agent/pkg/identity"
	"github.com/gridlab/board-agent/pkg/jwt"
)

// runBoard logs one simulated board in, wires its services and blocks until
// stopCh closes. Each board gets its own client, state and registry so that
// boards do not share coefficients or sessions.
func runBoard(config *utils.Config, simBoard utils.SimBoard, stopCh <-chan struct{}, logger zerolog.Logger) {
	boardLogger := logger.With().Str("board", simBoard.Name).Logger()

	boardInfo := identity.NewStaticBoardInfo(identity.Identity{
		BoardID:   simBoard.BoardID,
		Name:      simBoard.Name,
		BoardType: simBoard.BoardType,
		Username:  simBoard.Username,
	})

	jwtManager := jwt.NewMemoryJWTManager()
	client := coreapi.NewHTTPClient(config.CoreAPI.BaseURL, config.CoreAPI.Timeout*time.Second, jwtManager, boardLogger)

	loginCtx, cancel := context.WithTimeout(context.Background(), config.CoreAPI.Timeout*time.Second)
	err := client.Login(loginCtx, simBoard.Username, simBoard.Password)
	cancel()
	if err != nil {
		boardLogger.Error().Err(err).Msg("Failed to log in, board will not run")
		return
	}

	state := gamestate.NewGameState(boardLogger)
	serviceRegistry := service_registry.NewServiceRegistry(client, state, boardLogger)

	if err := serviceRegistry.RegisterServices(config, boardInfo); err != nil {
		boardLogger.Error().Err(err).Msg("Failed to register services")
		return
	}
	if err := serviceRegistry.StartServices(); err != nil {
		boardLogger.Error().Err(err).Msg("Failed to start services")
		return
	}
	boardLogger.Info().Msg("Simulated board running")

	<-stopCh

	if err := serviceRegistry.StopServices(); err != nil {
		boardLogger.Error().Err(err).Msg("Failed to stop all services cleanly")
	}
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	fileClient := file.NewFileService()
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger = logger.With().Str("run_id", uuid.New().String()).Logger()

	if len(config.Simulator.Boards) == 0 {
		logger.Fatal().Msg("No boards configured under simulator.boards")
	}

	workers := config.Simulator.Workers
	if workers <= 0 {
		workers = len(config.Simulator.Boards)
	}

	logger.Info().
		Int("boards", len(config.Simulator.Boards)).
		Int("workers", workers).
		Msg("Starting board simulator")

	stopCh := make(chan struct{})
	pool := utils.NewWorkerPool(workers)

	// Stagger board starts so a classroom's worth of logins does not land on
	// the CoreAPI at the same instant. Submission happens off the main
	// goroutine because boards hold their worker until shutdown; main waits
	// for the submitter to finish before closing the pool so Shutdown cannot
	// close the queue under a pending Submit.
	var submitter sync.WaitGroup
	submitter.Add(1)
	go func() {
		defer submitter.Done()
		for i, simBoard := range config.Simulator.Boards {
			board := simBoard
			delay := time.Duration(i) * config.Simulator.Stagger * time.Second
			queued := pool.Submit(func() {
				if delay > 0 {
					select {
					case <-time.After(delay):
					case <-stopCh:
						return
					}
				}
				runBoard(config, board, stopCh, logger)
			}, stopCh)
			if !queued {
				logger.Warn().Str("board", board.Name).Msg("Shutdown requested before board could start")
				return
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("Shutting down simulated boards...")
	close(stopCh)
	submitter.Wait()
	pool.Shutdown()
}
