package engine

import "math/rand"

// drawCounter wraps a source and counts Int63 calls, so a stream can be
// replayed to the same point after a reload.
type drawCounter struct {
	rand.Source
	draws int64
}

func (d *drawCounter) Int63() int64 {
	d.draws++
	return d.Source.Int63()
}

// RNG is the run's single random stream. Modifier rolls and mission samples
// draw from it; its seed and draw count are saved with the run.
type RNG struct {
	seed int64
	dc   *drawCounter
	r    *rand.Rand
}

// NewRNG starts a stream at draw 0.
func NewRNG(seed int64) *RNG {
	dc := &drawCounter{Source: rand.NewSource(seed)}
	return &RNG{seed: seed, dc: dc, r: rand.New(dc)}
}

// RestoreRNG replays a stream to the saved draw count.
func RestoreRNG(seed, position int64) *RNG {
	g := NewRNG(seed)
	for g.dc.draws < position {
		g.dc.Int63()
	}
	return g
}

func (g *RNG) Float64() float64 { return g.r.Float64() }

func (g *RNG) Intn(n int) int { return g.r.Intn(n) }

// Seed returns the stream's seed.
func (g *RNG) Seed() int64 { return g.seed }

// Position returns how many source draws have been made.
func (g *RNG) Position() int64 { return g.dc.draws }
