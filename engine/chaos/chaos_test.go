package chaos

import (
	"math/rand"
	"testing"

	"github.com/nathoo/questrun/catalog"
	"github.com/nathoo/questrun/engine/state"
)

// fixedRandom returns scripted values.
type fixedRandom struct {
	f float64
	n int
}

func (r fixedRandom) Float64() float64 { return r.f }
func (r fixedRandom) Intn(n int) int   { return r.n % n }

func TestRoll_Neutral(t *testing.T) {
	cat := catalog.Default()
	m := Roll(fixedRandom{f: 0.39}, cat.Neutral, cat.Modifiers)
	if m.Name != cat.Neutral.Name {
		t.Errorf("Roll = %q, want neutral", m.Name)
	}
}

func TestRoll_Other(t *testing.T) {
	cat := catalog.Default()
	m := Roll(fixedRandom{f: 0.4, n: 2}, cat.Neutral, cat.Modifiers)
	if m.Name != cat.Modifiers[2].Name {
		t.Errorf("Roll = %q, want %q", m.Name, cat.Modifiers[2].Name)
	}
}

func TestRoll_NoOthers(t *testing.T) {
	cat := catalog.Default()
	m := Roll(fixedRandom{f: 0.9}, cat.Neutral, nil)
	if m.Name != cat.Neutral.Name {
		t.Errorf("Roll = %q, want neutral", m.Name)
	}
}

func TestRoll_Distribution(t *testing.T) {
	cat := catalog.Default()
	rng := rand.New(rand.NewSource(3))
	neutral := 0
	const trials = 10000
	for i := 0; i < trials; i++ {
		if Roll(rng, cat.Neutral, cat.Modifiers).Name == cat.Neutral.Name {
			neutral++
		}
	}
	if neutral < 3500 || neutral > 4500 {
		t.Errorf("neutral share = %d/%d, expected ~40%%", neutral, trials)
	}
}

func TestApply_SetsDailyModifier(t *testing.T) {
	cat := catalog.Default()
	s := state.NewRunState(cat)
	m := Apply(s, fixedRandom{f: 0.99, n: 0}, cat.Neutral, cat.Modifiers)
	if s.DailyModifier != m || m.Name != cat.Modifiers[0].Name {
		t.Errorf("DailyModifier = %+v", s.DailyModifier)
	}
}
