package simulation_test

import (
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/internal/gamestate"
	"github.com/gridlab/board-agent/internal/models"
	"github.com/gridlab/board-agent/internal/simulation"
)

func seededRng() *rand.Rand {
	return rand.New(rand.NewPCG(42, 7))
}

func TestSolarBoard_ZeroAtNight(t *testing.T) {
	board := simulation.NewBoard("solar", nil, seededRng())

	gen, _ := board.Reading(constants.RoundNight)
	assert.Zero(t, gen)

	gen, _ = board.Reading(constants.RoundDay)
	assert.Greater(t, gen, 0.0)
	assert.InDelta(t, 50.0, gen, 10.0)
}

func TestFactoryConsumption_Ranges(t *testing.T) {
	board := simulation.NewBoard("factory", nil, seededRng())

	for i := 0; i < 50; i++ {
		_, cons := board.Reading(constants.RoundDay)
		assert.GreaterOrEqual(t, cons, 60.0)
		assert.LessOrEqual(t, cons, 80.0)
	}
	for i := 0; i < 50; i++ {
		_, cons := board.Reading(constants.RoundNight)
		assert.GreaterOrEqual(t, cons, 10.0)
		assert.LessOrEqual(t, cons, 20.0)
	}
}

func TestUnknownType_FallsBackToGeneric(t *testing.T) {
	board := simulation.NewBoard("submarine", nil, seededRng())

	gen, cons := board.Reading(constants.RoundDay)
	assert.Greater(t, gen, 0.0)
	assert.Greater(t, cons, 0.0)
}

func TestCoefficientScalesGeneration(t *testing.T) {
	state := gamestate.NewGameState(zerolog.Nop())
	state.ApplyCoefficients(models.CoefficientSet{
		Production: map[constants.SourceType]float64{constants.SourceHydro: 0.0},
	})

	board := simulation.NewBoard("hydro", state, seededRng())

	gen, _ := board.Reading(constants.RoundDay)
	assert.Zero(t, gen)
}

func TestSeededDeterminism(t *testing.T) {
	a := simulation.NewBoard("wind", nil, rand.New(rand.NewPCG(1, 2)))
	b := simulation.NewBoard("wind", nil, rand.New(rand.NewPCG(1, 2)))

	for i := 0; i < 10; i++ {
		genA, consA := a.Reading(constants.RoundDay)
		genB, consB := b.Reading(constants.RoundDay)
		assert.Equal(t, genA, genB)
		assert.Equal(t, consA, consB)
	}
}
