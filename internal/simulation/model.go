package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/nvandessel/virusnet/internal/epidemic"
	"github.com/nvandessel/virusnet/internal/logging"
	"github.com/nvandessel/virusnet/internal/network"
)

// Settings are the construction-time parameters of a Model.
type Settings struct {
	// InitialOutbreakSize is the number of distinct agents infected before
	// step 0. Sizes above the population are clamped.
	InitialOutbreakSize int

	// OutbreakNodes, when non-empty, names the initially infected nodes
	// explicitly and InitialOutbreakSize is ignored.
	OutbreakNodes []int

	// Agent holds the probabilities given to every agent.
	Agent epidemic.Params

	// Seed seeds the model's RNG unless WithRand supplies one.
	Seed int64
}

// Option configures optional Model collaborators.
type Option func(*Model)

// WithLogger sets the operational logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithStepLogger writes one trace event per collected snapshot.
func WithStepLogger(sl *logging.StepLogger) Option {
	return func(m *Model) { m.trace = sl }
}

// WithRand makes the model draw from rng instead of a fresh source seeded
// with Settings.Seed. Use it to share one stream with a graph generator.
func WithRand(rng *rand.Rand) Option {
	return func(m *Model) {
		if rng != nil {
			m.rng = rng
		}
	}
}

// WithPopulation supplies a prepared, all-susceptible population, for
// example one with heterogeneous agent parameters. Settings.Agent is then
// ignored.
func WithPopulation(pop *epidemic.Population) Option {
	return func(m *Model) { m.pop = pop }
}

// Model owns the population, the step counter and the time series.
type Model struct {
	graph    network.Graph
	pop      *epidemic.Population
	rng      *rand.Rand
	seed     int64
	step     int
	outbreak []int
	history  []epidemic.Snapshot
	logger   *slog.Logger
	trace    *logging.StepLogger
}

// New builds a population on g, infects the initial outbreak and collects
// the step 0 snapshot.
func New(g network.Graph, s Settings, opts ...Option) (*Model, error) {
	if g == nil || g.Len() == 0 {
		return nil, fmt.Errorf("simulation needs a non-empty graph")
	}
	if s.InitialOutbreakSize < 0 {
		return nil, fmt.Errorf("initial_outbreak_size must be non-negative, got %d", s.InitialOutbreakSize)
	}

	m := &Model{
		graph:  g,
		seed:   s.Seed,
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(s.Seed))
	}

	if m.pop == nil {
		if err := s.Agent.Validate(); err != nil {
			return nil, err
		}
		m.pop = epidemic.NewPopulation(g.Len(), s.Agent)
	} else {
		if m.pop.Len() != g.Len() {
			return nil, fmt.Errorf("population has %d agents but graph has %d nodes", m.pop.Len(), g.Len())
		}
		if n := m.pop.Susceptible(); n != m.pop.Len() {
			return nil, fmt.Errorf("population must start all susceptible, has %d of %d", n, m.pop.Len())
		}
		for _, a := range m.pop.Agents() {
			if err := a.Params().Validate(); err != nil {
				return nil, fmt.Errorf("agent %d: %w", a.NodeID(), err)
			}
		}
	}

	m.outbreak = m.sampleOutbreak(s)
	if err := m.pop.Infect(m.outbreak...); err != nil {
		return nil, fmt.Errorf("seeding outbreak: %w", err)
	}
	m.logger.Debug("outbreak seeded", "nodes", g.Len(), "infected", len(m.outbreak), "seed", m.seed)

	m.collect()
	return m, nil
}

// sampleOutbreak picks the distinct nodes to infect before step 0.
func (m *Model) sampleOutbreak(s Settings) []int {
	n := m.graph.Len()
	if len(s.OutbreakNodes) > 0 {
		seen := make(map[int]bool, len(s.OutbreakNodes))
		nodes := make([]int, 0, len(s.OutbreakNodes))
		for _, id := range s.OutbreakNodes {
			if !seen[id] {
				seen[id] = true
				nodes = append(nodes, id)
			}
		}
		sort.Ints(nodes)
		return nodes
	}

	size := s.InitialOutbreakSize
	if size > n {
		m.logger.Warn("initial outbreak larger than population, clamping",
			"requested", size, "population", n)
		size = n
	}
	nodes := m.rng.Perm(n)[:size]
	sort.Ints(nodes)
	return nodes
}

// Step runs one transition and collects its snapshot.
func (m *Model) Step() epidemic.Snapshot {
	epidemic.Step(m.pop, m.graph, m.rng)
	m.step++
	return m.collect()
}

// Run performs n steps, stopping early with ctx.Err() if ctx is cancelled
// between steps.
func (m *Model) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run stopped after step %d: %w", m.step, err)
		}
		m.Step()
	}
	return nil
}

// collect appends the current aggregate to the history.
func (m *Model) collect() epidemic.Snapshot {
	snap := m.pop.Snapshot(m.step)
	m.history = append(m.history, snap)

	m.logger.Log(context.Background(), logging.LevelTrace, "step collected",
		"step", snap.Step,
		"infected", snap.Infected,
		"susceptible", snap.Susceptible,
		"resistant", snap.Resistant,
		"r_over_s", snap.Ratio.String())
	m.trace.Log(map[string]any{
		"event":       "collect",
		"seed":        m.seed,
		"step":        snap.Step,
		"infected":    snap.Infected,
		"susceptible": snap.Susceptible,
		"resistant":   snap.Resistant,
		"r_over_s":    snap.Ratio,
	})
	return snap
}

// StepCount returns the number of completed steps.
func (m *Model) StepCount() int { return m.step }

// Seed returns the seed recorded for the run.
func (m *Model) Seed() int64 { return m.seed }

// Outbreak returns the initially infected nodes in ascending order.
func (m *Model) Outbreak() []int { return append([]int(nil), m.outbreak...) }

// Population returns the live population. Callers must not mutate it.
func (m *Model) Population() *epidemic.Population { return m.pop }

// Graph returns the contact network.
func (m *Model) Graph() network.Graph { return m.graph }

// Current returns the most recent snapshot.
func (m *Model) Current() epidemic.Snapshot { return m.history[len(m.history)-1] }

// History returns a copy of every collected snapshot, step 0 first.
func (m *Model) History() []epidemic.Snapshot {
	return append([]epidemic.Snapshot(nil), m.history...)
}
