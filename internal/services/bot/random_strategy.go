package bot

import (
	"github.com/rajachanda/rps/internal/dependencies/random"
	"github.com/rajachanda/rps/internal/model"
)

// RandomStrategy picks uniformly among the three symbols
type RandomStrategy struct {
	random random.Random
}

// NewRandomStrategy creates a new RandomStrategy
func NewRandomStrategy(rnd random.Random) *RandomStrategy {
	return &RandomStrategy{random: rnd}
}

// Choose returns a random symbol
func (s *RandomStrategy) Choose() model.Choice {
	choices := model.AllChoices()
	return choices[s.random.Intn(len(choices))]
}
