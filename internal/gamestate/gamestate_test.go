package gamestate_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/models"
)

func TestApplyCoefficients_RetainOnEmpty(t *testing.T) {
	g := gamestate.NewGameState(zerolog.Nop())

	applied := g.ApplyCoefficients(models.CoefficientSet{
		Production: map[constants.SourceType]float64{
			constants.SourcePhotovoltaic: 0.85,
			constants.SourceWind:         1.2,
		},
		Consumption: map[constants.BuildingType]float64{
			constants.BuildingFactory: 70.0,
		},
	})
	assert.True(t, applied)

	// A transient empty poll must not zero the previously known values.
	applied = g.ApplyCoefficients(models.CoefficientSet{})
	assert.False(t, applied)

	coeff, ok := g.ProductionCoefficient(constants.SourcePhotovoltaic)
	assert.True(t, ok)
	assert.InDelta(t, 0.85, coeff, 0.001)

	cons, ok := g.BuildingConsumption(constants.BuildingFactory)
	assert.True(t, ok)
	assert.InDelta(t, 70.0, cons, 0.001)
}

func TestApplyCoefficients_PartialUpdate(t *testing.T) {
	g := gamestate.NewGameState(zerolog.Nop())

	g.ApplyCoefficients(models.CoefficientSet{
		Production: map[constants.SourceType]float64{constants.SourceWind: 1.0},
		Consumption: map[constants.BuildingType]float64{
			constants.BuildingResidential: 25.0,
		},
	})

	// A payload carrying only production entries leaves consumption alone.
	g.ApplyCoefficients(models.CoefficientSet{
		Production: map[constants.SourceType]float64{constants.SourceWind: 0.4},
	})

	coeff, _ := g.ProductionCoefficient(constants.SourceWind)
	assert.InDelta(t, 0.4, coeff, 0.001)

	cons, ok := g.BuildingConsumption(constants.BuildingResidential)
	assert.True(t, ok)
	assert.InDelta(t, 25.0, cons, 0.001)
}

func TestBuildingTableStaleness(t *testing.T) {
	g := gamestate.NewGameState(zerolog.Nop())

	assert.True(t, g.BuildingTableStale(1))

	g.SetBuildingTable(models.BuildingTable{
		Version: 3,
		Entries: map[constants.BuildingType]float64{constants.BuildingSchool: 12.5},
	})

	assert.False(t, g.BuildingTableStale(3))
	assert.False(t, g.BuildingTableStale(2))
	assert.True(t, g.BuildingTableStale(4))
	assert.Equal(t, uint32(3), g.BuildingTable().Version)
}

func TestStatusRoundTrip(t *testing.T) {
	g := gamestate.NewGameState(zerolog.Nop())

	g.UpdateStatus(models.PollStatus{
		Round:         5,
		GameActive:    true,
		ExpectingData: true,
		RoundType:     constants.RoundNight,
	})

	status := g.Status()
	assert.Equal(t, uint32(5), status.Round)
	assert.True(t, status.GameActive)
	assert.Equal(t, constants.RoundNight, status.RoundType)
}

func TestIndependentInstances(t *testing.T) {
	a := gamestate.NewGameState(zerolog.Nop())
	b := gamestate.NewGameState(zerolog.Nop())

	a.ApplyCoefficients(models.CoefficientSet{
		Production: map[constants.SourceType]float64{constants.SourceCoal: 0.9},
	})

	_, ok := b.ProductionCoefficient(constants.SourceCoal)
	assert.False(t, ok)
}
