// Package simulation models board power behavior for the grid game. Each
// board type has a generation and a consumption pattern driven by the round
// type (day or night), randomized around realistic baselines. Randomness is
// injected so tests can run seeded and reproducible.
package simulation

import (
	"math/rand/v2"

	"github.com/gridlab/board-agent/internal/constants"
	"github.com/gridlab/board-agent/internal/gamestate"
)

// pattern produces a power value in watts for the given round type.
type pattern func(round constants.RoundType, rng *rand.Rand) float64

func uniform(rng *rand.Rand, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}

// Generation baselines per board type.
var generationPatterns = map[string]pattern{
	// Solar produces nothing at night and peaks around 50W during the day.
	"solar": func(round constants.RoundType, rng *rand.Rand) float64 {
		if round == constants.RoundNight {
			return 0
		}
		return 50.0 * uniform(rng, 0.8, 1.2)
	},
	// Wind is highly variable and slightly stronger at night.
	"wind": func(round constants.RoundType, rng *rand.Rand) float64 {
		base := 25.0
		if round == constants.RoundNight {
			base = 30.0
		}
		return base * uniform(rng, 0.3, 1.5)
	},
	// Hydro holds steady with minor variation.
	"hydro": func(_ constants.RoundType, rng *rand.Rand) float64 {
		return 40.0 * uniform(rng, 0.9, 1.1)
	},
	// Batteries discharge into daytime peaks and idle at night.
	"battery": func(round constants.RoundType, rng *rand.Rand) float64 {
		if round == constants.RoundDay {
			return uniform(rng, 10.0, 25.0)
		}
		return uniform(rng, 0.0, 5.0)
	},
	"generic": func(_ constants.RoundType, rng *rand.Rand) float64 {
		return 20.0 * uniform(rng, 0.7, 1.3)
	},
}

// Consumption baselines per board type.
var consumptionPatterns = map[string]pattern{
	"factory": func(round constants.RoundType, rng *rand.Rand) float64 {
		if round == constants.RoundDay {
			return uniform(rng, 60.0, 80.0)
		}
		return uniform(rng, 10.0, 20.0)
	},
	// Residential demand peaks in the evening, above the daytime draw.
	"residential": func(round constants.RoundType, rng *rand.Rand) float64 {
		if round == constants.RoundDay {
			return uniform(rng, 25.0, 35.0)
		}
		return uniform(rng, 35.0, 45.0)
	},
	"commercial": func(round constants.RoundType, rng *rand.Rand) float64 {
		if round == constants.RoundDay {
			return uniform(rng, 40.0, 60.0)
		}
		return uniform(rng, 15.0, 25.0)
	},
	// Datacenters burn the same around the clock.
	"datacenter": func(_ constants.RoundType, rng *rand.Rand) float64 {
		return uniform(rng, 45.0, 55.0)
	},
	"generic": func(_ constants.RoundType, rng *rand.Rand) float64 {
		return 30.0 * uniform(rng, 0.8, 1.2)
	},
}

// sourceForType maps board types to the wire source id whose coefficient
// scales their output.
var sourceForType = map[string]constants.SourceType{
	"solar":   constants.SourcePhotovoltaic,
	"wind":    constants.SourceWind,
	"hydro":   constants.SourceHydro,
	"battery": constants.SourceBattery,
}

// Board generates readings for one simulated board.
type Board struct {
	boardType   string
	generation  pattern
	consumption pattern
	state       *gamestate.GameState
	rng         *rand.Rand
}

// NewBoard builds a simulated board of the given type. Unknown types fall
// back to the generic patterns. The game state may be nil for boards running
// without a poll loop; coefficients then default to 1.
func NewBoard(boardType string, state *gamestate.GameState, rng *rand.Rand) *Board {
	gen, ok := generationPatterns[boardType]
	if !ok {
		gen = generationPatterns["generic"]
	}
	cons, ok := consumptionPatterns[boardType]
	if !ok {
		cons = consumptionPatterns["generic"]
	}
	return &Board{
		boardType:   boardType,
		generation:  gen,
		consumption: cons,
		state:       state,
		rng:         rng,
	}
}

// Type returns the board type string.
func (b *Board) Type() string {
	return b.boardType
}

// Reading produces the next generation/consumption sample in watts for the
// given round type. Generation is scaled by the server-computed coefficient
// for the board's source when one is cached.
func (b *Board) Reading(round constants.RoundType) (generation, consumption float64) {
	generation = b.generation(round, b.rng)
	consumption = b.consumption(round, b.rng)

	if b.state != nil {
		if source, ok := sourceForType[b.boardType]; ok {
			if coeff, ok := b.state.ProductionCoefficient(source); ok {
				generation *= coeff
			}
		}
	}
	return generation, consumption
}

// KnownBoardTypes lists the board types with dedicated behavior patterns.
func KnownBoardTypes() []string {
	return []string{
		"solar", "wind", "hydro", "battery",
		"factory", "residential", "commercial", "datacenter",
		"generic",
	}
}
