// Package chaos rolls the daily global modifier.
package chaos

import "github.com/nathoo/questrun/types"

// NeutralChance is the probability that a roll lands on the neutral modifier.
const NeutralChance = 0.4

// Random is the randomness a roll consumes.
type Random interface {
	Float64() float64
	Intn(n int) int
}

// Roll picks the neutral modifier with probability NeutralChance, otherwise
// one of the others uniformly.
func Roll(rng Random, neutral types.Modifier, others []types.Modifier) types.Modifier {
	if len(others) == 0 || rng.Float64() < NeutralChance {
		return neutral
	}
	return others[rng.Intn(len(others))]
}

// Apply rolls and installs the modifier on the run.
func Apply(s *types.RunState, rng Random, neutral types.Modifier, others []types.Modifier) types.Modifier {
	m := Roll(rng, neutral, others)
	s.DailyModifier = m
	return m
}
