package epidemic

import (
	"context"
	"math/rand"
	"testing"

	"github.com/nvandessel/virusnet/internal/network"
)

// scriptedSource replays fixed draws, then returns fallback. Shuffles keep
// the input order so tests can reason about visit order.
type scriptedSource struct {
	draws    []float64
	fallback float64
	calls    int
}

func (s *scriptedSource) Float64() float64 {
	s.calls++
	if s.calls <= len(s.draws) {
		return s.draws[s.calls-1]
	}
	return s.fallback
}

func (s *scriptedSource) Shuffle(n int, swap func(i, j int)) {}

// path builds the path graph 0-1-...-(n-1).
func path(t *testing.T, n int) *network.AdjacencyList {
	t.Helper()
	b := network.NewBuilder(n)
	for i := 0; i+1 < n; i++ {
		if _, err := b.AddEdge(i, i+1); err != nil {
			t.Fatalf("path(%d): %v", n, err)
		}
	}
	return b.Build()
}

func ring(t *testing.T, n int) *network.AdjacencyList {
	t.Helper()
	g, err := network.Ring(n)
	if err != nil {
		t.Fatalf("ring(%d): %v", n, err)
	}
	return g
}

func mustInfect(t *testing.T, pop *Population, ids ...int) {
	t.Helper()
	if err := pop.Infect(ids...); err != nil {
		t.Fatalf("Infect(%v): %v", ids, err)
	}
}

func assertStates(t *testing.T, pop *Population, want []State) {
	t.Helper()
	got := pop.States()
	if len(got) != len(want) {
		t.Fatalf("got %d states, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("node %d: state = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestStep_RingFullSpread(t *testing.T) {
	g := ring(t, 5)
	pop := NewPopulation(5, Params{SpreadChance: 1, CheckFrequency: 0, RecoveryChance: 0.1, GainResistanceChance: 1})
	mustInfect(t, pop, 0)
	rng := rand.New(rand.NewSource(42))

	Step(pop, g, rng)
	assertStates(t, pop, []State{Infected, Infected, Susceptible, Susceptible, Infected})

	Step(pop, g, rng)
	assertStates(t, pop, []State{Infected, Infected, Infected, Infected, Infected})

	for i := 0; i < 10; i++ {
		Step(pop, g, rng)
	}
	if got := pop.Infected(); got != 5 {
		t.Errorf("Infected() = %d after 12 steps without checks, want 5", got)
	}
}

func TestStep_IsolatedNodeStaysInfected(t *testing.T) {
	g := network.NewBuilder(1).Build()
	pop := NewPopulation(1, Params{SpreadChance: 1, CheckFrequency: 0})
	mustInfect(t, pop, 0)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 100; i++ {
		Step(pop, g, rng)
		if got := pop.Infected(); got != 1 {
			t.Fatalf("step %d: Infected() = %d, want 1", i+1, got)
		}
	}
}

func TestStep_NewlyInfectedDoNotSpreadSameStep(t *testing.T) {
	g := path(t, 4)
	pop := NewPopulation(4, Params{SpreadChance: 1})
	mustInfect(t, pop, 0)

	Step(pop, g, &scriptedSource{fallback: 0.5})

	assertStates(t, pop, []State{Infected, Infected, Susceptible, Susceptible})
}

func TestStep_InfectionShortCircuits(t *testing.T) {
	// 0 and 2 both border 1. The first attempt succeeds, so the second
	// infector finds 1 already infected and draws nothing.
	g := path(t, 3)
	pop := NewPopulation(3, Params{SpreadChance: 0.5})
	mustInfect(t, pop, 0, 2)
	src := &scriptedSource{draws: []float64{0.1}, fallback: 0.99}

	Step(pop, g, src)

	assertStates(t, pop, []State{Infected, Infected, Infected})
	// One infection draw plus one check draw per infected agent.
	if src.calls != 4 {
		t.Errorf("draws = %d, want 4", src.calls)
	}
}

func TestStep_EachInfectorGetsOwnAttempt(t *testing.T) {
	g := path(t, 3)
	pop := NewPopulation(3, Params{SpreadChance: 0.5})
	mustInfect(t, pop, 0, 2)
	src := &scriptedSource{draws: []float64{0.9, 0.2}, fallback: 0.99}

	Step(pop, g, src)

	if pop.Agent(1).State() != Infected {
		t.Errorf("node 1 should be infected by the second attempt")
	}
}

func TestStep_UsesInfectorSpreadChance(t *testing.T) {
	g := path(t, 2)
	pop := NewHeterogeneousPopulation([]Params{
		{SpreadChance: 0.9},
		{SpreadChance: 0},
	})
	mustInfect(t, pop, 0)

	Step(pop, g, &scriptedSource{draws: []float64{0.5}, fallback: 0.99})

	if pop.Agent(1).State() != Infected {
		t.Errorf("draw 0.5 < infector spread 0.9 should infect node 1")
	}
}

func TestStep_RecoveryOutcomes(t *testing.T) {
	params := Params{CheckFrequency: 0.6, RecoveryChance: 0.1, GainResistanceChance: 0.5}
	tests := []struct {
		name  string
		draws []float64
		want  State
	}{
		{"no check", []float64{0.6}, Infected},
		{"check without recovery", []float64{0.59, 0.1}, Infected},
		{"recover resistant", []float64{0.59, 0.05, 0.49}, Resistant},
		{"recover susceptible", []float64{0.59, 0.05, 0.5}, Susceptible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := network.NewBuilder(1).Build()
			pop := NewPopulation(1, params)
			mustInfect(t, pop, 0)
			src := &scriptedSource{draws: tt.draws, fallback: 0.99}

			Step(pop, g, src)

			if got := pop.Agent(0).State(); got != tt.want {
				t.Errorf("state = %v, want %v", got, tt.want)
			}
			if src.calls != len(tt.draws) {
				t.Errorf("draws = %d, want %d", src.calls, len(tt.draws))
			}
		})
	}
}

func TestStep_NonInfectedAgentsDrawNothingInRecoveryPhase(t *testing.T) {
	g := network.NewBuilder(5).Build()
	pop := NewPopulation(5, Params{CheckFrequency: 1, RecoveryChance: 1, GainResistanceChance: 1})
	src := &scriptedSource{fallback: 0}

	Step(pop, g, src)

	if src.calls != 0 {
		t.Errorf("draws = %d, want 0 for an all-susceptible population", src.calls)
	}
}

func TestStep_NewlyInfectedEligibleForRecovery(t *testing.T) {
	g := path(t, 2)
	pop := NewPopulation(2, Params{SpreadChance: 1, CheckFrequency: 1, RecoveryChance: 1, GainResistanceChance: 1})
	mustInfect(t, pop, 0)

	Step(pop, g, &scriptedSource{fallback: 0.5})

	assertStates(t, pop, []State{Resistant, Resistant})
}

func TestStep_TransitionsAreMonotone(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	g, err := network.FromAverageDegree(context.Background(), 200, 4, rng)
	if err != nil {
		t.Fatalf("FromAverageDegree: %v", err)
	}
	pop := NewPopulation(200, Params{SpreadChance: 0.3, CheckFrequency: 0.8, RecoveryChance: 0.3, GainResistanceChance: 0.7})
	mustInfect(t, pop, 0, 1, 2, 3, 4)

	prev := pop.States()
	for step := 1; step <= 60; step++ {
		Step(pop, g, rng)
		next := pop.States()
		for i := range next {
			from, to := prev[i], next[i]
			if from == Resistant && to != Resistant {
				t.Fatalf("step %d node %d: resistant -> %v", step, i, to)
			}
			if from == Susceptible && to == Resistant {
				t.Fatalf("step %d node %d: susceptible -> resistant without infection", step, i)
			}
		}
		if total := pop.Infected() + pop.Susceptible() + pop.Resistant(); total != 200 {
			t.Fatalf("step %d: population %d, want 200", step, total)
		}
		prev = next
	}
}

func TestStep_ZeroSpreadNeverIncreasesInfected(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g, err := network.FromAverageDegree(context.Background(), 100, 6, rng)
	if err != nil {
		t.Fatalf("FromAverageDegree: %v", err)
	}
	pop := NewPopulation(100, Params{SpreadChance: 0, CheckFrequency: 0.5, RecoveryChance: 0.2, GainResistanceChance: 0.3})
	mustInfect(t, pop, 10, 20, 30, 40, 50, 60)

	last := pop.Infected()
	for step := 1; step <= 50; step++ {
		Step(pop, g, rng)
		if got := pop.Infected(); got > last {
			t.Fatalf("step %d: infected rose from %d to %d", step, last, got)
		}
		last = pop.Infected()
	}
}

func TestStep_Deterministic(t *testing.T) {
	run := func() []State {
		rng := rand.New(rand.NewSource(2024))
		g, err := network.FromAverageDegree(context.Background(), 80, 3, rng)
		if err != nil {
			t.Fatalf("FromAverageDegree: %v", err)
		}
		pop := NewPopulation(80, Params{SpreadChance: 0.4, CheckFrequency: 1, RecoveryChance: 0.2, GainResistanceChance: 0.5})
		mustInfect(t, pop, 7)
		for i := 0; i < 25; i++ {
			Step(pop, g, rng)
		}
		return pop.States()
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("node %d differs between runs: %v vs %v", i, a[i], b[i])
		}
	}
}
