package service_registry

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/models"
	"github.com/gridlab/board-agent/internal/registry"
	"github.com/gridlab/board-agent/internal/services"
	"github.com/gridlab/board-agent/internal/simulation"
	"github.com/gridlab/board-agent/internal/utils"
	"github.com/gridlab/board-agent/pkg/coreapi"
	"github.com/gridlab/board-agent/pkg/identity"
)

// ServiceRegistry manages the lifecycle of the board's services.
type ServiceRegistry struct {
	services    map[string]registry.Service // Stores registered services
	serviceKeys []string                    // Maintains order of service registration
	client      coreapi.Client
	state       *gamestate.GameState
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(client coreapi.Client, state *gamestate.GameState, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]registry.Service),
		client:   client,
		state:    state,
		Logger:   logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on
// configuration. Registration runs first so the board is known to the server
// before the poll and telemetry loops begin.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, boardInfo identity.BoardInfoInterface) error {
	board := simulation.NewBoard(
		boardInfo.GetBoardIdentity().BoardType,
		sr.state,
		rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	)

	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "registration",
			enabled: config.Services.Registration.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewRegistrationService(
					config.Services.Registration.MaxRetries,
					config.Services.Registration.BaseDelay*time.Second,
					config.Services.Registration.MaxBackoff*time.Second,
					config.Services.Registration.ResponseTimeout*time.Second,
					boardInfo,
					sr.client,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "poll",
			enabled: config.Services.Poll.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewPollService(
					config.Services.Poll.Interval*time.Second,
					sr.state,
					sr.client,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "telemetry",
			enabled: config.Services.Telemetry.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewTelemetryService(
					config.Services.Telemetry.Interval*time.Second,
					boardInfo,
					board,
					sr.state,
					sr.client,
					sr.Logger,
				), nil
			},
		},
		{
			name:    "equipment",
			enabled: config.Services.Equipment.Enabled,
			constructor: func() (registry.Service, error) {
				topology := services.Topology{Consumers: config.Services.Equipment.Consumers}
				for _, plant := range config.Services.Equipment.Plants {
					topology.Plants = append(topology.Plants, models.ProductionReport{
						PlantID:  plant.ID,
						SetPower: plant.SetPower,
					})
				}
				return services.NewEquipmentService(topology, sr.client, sr.Logger), nil
			},
		},
		{
			name:    "metrics",
			enabled: config.Services.Metrics.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewMetricsService(
					config.Services.Metrics.Interval*time.Second,
					sr.Logger,
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
