package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/logging"
	"github.com/nvandessel/virusnet/internal/network"
)

// ResolveSeed returns the configured seed, or a time-based one when unset.
func ResolveSeed(cfg *config.VirusnetConfig) int64 {
	if cfg.Model.Seed != nil {
		return *cfg.Model.Seed
	}
	return time.Now().UnixNano()
}

// BuildNetwork returns the contact graph cfg describes. Random networks draw
// from rng, which must be non-nil for them, and stop early when ctx is done.
func BuildNetwork(ctx context.Context, cfg *config.VirusnetConfig, rng *rand.Rand) (*network.AdjacencyList, error) {
	switch cfg.Network.Kind {
	case config.NetworkRandom, "":
		return network.FromAverageDegree(ctx, cfg.Model.NumNodes, cfg.Model.AvgNodeDegree, rng)
	case config.NetworkRing:
		return network.Ring(cfg.Model.NumNodes)
	case config.NetworkGEXF:
		return network.LoadGEXF(cfg.Network.Path)
	default:
		return nil, fmt.Errorf("invalid network kind: %s", cfg.Network.Kind)
	}
}

// FromConfig validates cfg, builds its network and returns a seeded model.
// One RNG seeded from the resolved seed drives both graph generation and the
// model, so the seed alone reproduces the whole run.
func FromConfig(ctx context.Context, cfg *config.VirusnetConfig, logger *slog.Logger, opts ...Option) (*Model, *network.AdjacencyList, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}

	seed := ResolveSeed(cfg)
	rng := rand.New(rand.NewSource(seed))

	g, err := BuildNetwork(ctx, cfg, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("building %s network: %w", cfg.Network.Kind, err)
	}
	if cfg.Network.Kind == config.NetworkGEXF && g.Len() != cfg.Model.NumNodes {
		logger.Debug("population size taken from graph file",
			"path", cfg.Network.Path, "nodes", g.Len(), "num_nodes", cfg.Model.NumNodes)
	}
	logger.Debug("network ready", "kind", cfg.Network.Kind, "nodes", g.Len(),
		"edges", g.EdgeCount(), "avg_degree", g.AverageDegree())

	all := append([]Option{WithLogger(logger), WithRand(rng)}, opts...)
	m, err := New(g, Settings{
		InitialOutbreakSize: cfg.Model.InitialOutbreakSize,
		Agent:               cfg.Model.Params,
		Seed:                seed,
	}, all...)
	if err != nil {
		return nil, nil, err
	}
	return m, g, nil
}
