package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/service_registry"
	"github.com/gridlab/board-agent/internal/utils"
	"github.com/gridlab/board-agent/pkg/coreapi"
	"github.com/gridlab/board-agent/pkg/encryption"
	"github.com/gridlab/board-agent/pkg/file"
	"github.com/gridlab/board-agent/pkg/identity"
	"github.com/gridlab/board-agent/pkg/jwt"
)

func main() {
	// Set up structured logging with JSON output
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Initialize file operations handler
	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig("configs/config.yaml", fileClient)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Tag every log line with a unique ID for this agent run
	logger = logger.With().Str("instance_id", uuid.New().String()).Logger()

	// Initialize board identity
	boardInfo := identity.NewBoardInfo(config.Identity.BoardFile, fileClient)
	if err := boardInfo.LoadBoardInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load board identity")
	}

	// Initialize encryption for the session token at rest
	encryptionManager := encryption.NewEncryptionManager(fileClient)
	if err := encryptionManager.Initialize(config.Security.AESKeyFile); err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption manager")
	}

	jwtManager := jwt.NewJWTManager(config.Security.TokenFile, fileClient, encryptionManager)
	if err := jwtManager.LoadJWT(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load session token")
	}

	// Initialize the CoreAPI client
	client := coreapi.NewHTTPClient(config.CoreAPI.BaseURL, config.CoreAPI.Timeout*time.Second, jwtManager, logger)

	// Log in when no valid session survives from a previous run
	if jwtManager.GetJWT() == "" {
		loginCtx, cancel := context.WithTimeout(context.Background(), config.CoreAPI.Timeout*time.Second)
		err := client.Login(loginCtx, config.CoreAPI.Username, config.CoreAPI.Password)
		cancel()
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to log in to CoreAPI")
		}
	}

	// Per-board game state shared by the poll and telemetry loops
	state := gamestate.NewGameState(logger)

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(client, state, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config, boardInfo); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop all services cleanly")
	}
}
