package services

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/models"
	"github.com/gridlab/board-agent/internal/protocol"
	"github.com/gridlab/board-agent/pkg/coreapi"
)

// Topology describes the equipment currently wired to a board.
type Topology struct {
	Plants    []models.ProductionReport
	Consumers []uint32
}

// EquipmentService declares the board's connected power plants and consumers
// to the CoreAPI. The initial topology is reported at start; subsequent
// changes are pushed through SetTopology and reported as they arrive.
type EquipmentService struct {
	Client coreapi.Client
	Logger zerolog.Logger

	updates  chan Topology
	topology Topology

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEquipmentService initializes a new EquipmentService with the board's
// starting topology.
func NewEquipmentService(initial Topology, client coreapi.Client, logger zerolog.Logger) *EquipmentService {
	return &EquipmentService{
		Client:   client,
		Logger:   logger,
		topology: initial,
		updates:  make(chan Topology, 4),
	}
}

// Start reports the initial topology and launches the update loop.
func (e *EquipmentService) Start() error {
	if e.ctx != nil {
		e.Logger.Warn().Msg("EquipmentService is already running")
		return errors.New("equipment service is already running")
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())

	e.report(e.topology)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.runUpdateLoop()
	}()

	e.Logger.Info().
		Int("plants", len(e.topology.Plants)).
		Int("consumers", len(e.topology.Consumers)).
		Msg("EquipmentService started successfully")
	return nil
}

// Stop gracefully stops the equipment service.
func (e *EquipmentService) Stop() error {
	if e.ctx == nil {
		e.Logger.Warn().Msg("EquipmentService is not running")
		return errors.New("equipment service is not running")
	}

	e.cancel()
	e.wg.Wait()

	e.ctx = nil
	e.cancel = nil

	e.Logger.Info().Msg("EquipmentService stopped successfully")
	return nil
}

// SetTopology queues a topology change for reporting. It never blocks; when
// the queue is full the oldest pending update is dropped since only the most
// recent topology matters to the server.
func (e *EquipmentService) SetTopology(topology Topology) {
	for {
		select {
		case e.updates <- topology:
			return
		default:
			select {
			case <-e.updates:
			default:
			}
		}
	}
}

func (e *EquipmentService) runUpdateLoop() {
	for {
		select {
		case topology := <-e.updates:
			e.topology = topology
			e.report(topology)
		case <-e.ctx.Done():
			e.Logger.Info().Msg("EquipmentService stopping gracefully")
			return
		}
	}
}

// report sends both connected-equipment frames. Each list is capped at 255
// entries by the wire format; oversized topologies are rejected by the codec
// and logged, never partially reported.
func (e *EquipmentService) report(topology Topology) {
	payload, err := protocol.PackConnectedProduction(topology.Plants)
	if err != nil {
		e.Logger.Error().Err(err).Msg("Failed to encode production report")
	} else if err := e.Client.ReportProduction(e.ctx, payload); err != nil {
		e.Logger.Error().Err(err).Msg("Failed to report connected production")
	} else {
		e.Logger.Info().Int("plants", len(topology.Plants)).Msg("Reported connected power plants")
	}

	payload, err = protocol.PackConnectedConsumption(topology.Consumers)
	if err != nil {
		e.Logger.Error().Err(err).Msg("Failed to encode consumption report")
	} else if err := e.Client.ReportConsumption(e.ctx, payload); err != nil {
		e.Logger.Error().Err(err).Msg("Failed to report connected consumption")
	} else {
		e.Logger.Info().Int("consumers", len(topology.Consumers)).Msg("Reported connected consumers")
	}
}
