// Package gamestate holds the per-board view of the running game: the last
// decoded poll status, the coefficient caches and the building table. Each
// board instance owns its own GameState; nothing here is package-global, so
// any number of simulated boards can run side by side in one process.
package gamestate

import (
	"sync"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/internal/models"
)

// GameState is safe for concurrent use; the poll loop writes while the
// telemetry loop and operator surfaces read.
type GameState struct {
	production  cmap.ConcurrentMap[string, float64]
	consumption cmap.ConcurrentMap[string, float64]

	mu     sync.RWMutex
	status models.PollStatus
	table  models.BuildingTable

	logger zerolog.Logger
}

// NewGameState returns an empty per-board game state.
func NewGameState(logger zerolog.Logger) *GameState {
	return &GameState{
		production:  cmap.New[float64](),
		consumption: cmap.New[float64](),
		logger:      logger,
	}
}

// ApplyCoefficients merges a decoded coefficient payload into the caches.
//
// An empty list retains the previously known values for that list instead of
// zeroing them. Transient empty polls between rounds would otherwise wipe the
// production ranges boards plan against; retention is applied per list, so a
// payload with only production entries still leaves consumption untouched.
// It returns whether anything was updated.
func (g *GameState) ApplyCoefficients(set models.CoefficientSet) bool {
	if set.Empty() {
		g.logger.Debug().Msg("Empty coefficient payload, retaining previous values")
		return false
	}

	for source, coeff := range set.Production {
		g.production.Set(source.String(), coeff)
	}
	for building, cons := range set.Consumption {
		g.consumption.Set(building.String(), cons)
	}

	g.logger.Debug().
		Int("production", len(set.Production)).
		Int("consumption", len(set.Consumption)).
		Msg("Coefficient caches updated")
	return true
}

// ProductionCoefficient returns the cached coefficient for a source type.
func (g *GameState) ProductionCoefficient(source constants.SourceType) (float64, bool) {
	return g.production.Get(source.String())
}

// BuildingConsumption returns the cached consumption for a building type.
func (g *GameState) BuildingConsumption(building constants.BuildingType) (float64, bool) {
	return g.consumption.Get(building.String())
}

// ProductionCoefficients returns a snapshot of the production cache keyed by
// source name.
func (g *GameState) ProductionCoefficients() map[string]float64 {
	return g.production.Items()
}

// UpdateStatus stores the latest decoded poll status.
func (g *GameState) UpdateStatus(status models.PollStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = status
}

// Status returns the last stored poll status.
func (g *GameState) Status() models.PollStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.status
}

// SetBuildingTable replaces the cached building table.
func (g *GameState) SetBuildingTable(table models.BuildingTable) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.table = table
}

// BuildingTable returns the cached building table.
func (g *GameState) BuildingTable() models.BuildingTable {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.table
}

// BuildingTableStale reports whether the version announced in a poll response
// is newer than the cached table, meaning a re-fetch is due.
func (g *GameState) BuildingTableStale(version uint32) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return version > g.table.Version
}
