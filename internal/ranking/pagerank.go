// Package ranking scores contact network nodes by structural importance.
package ranking

import (
	"context"
	"fmt"
	"math"
)

// Graph is the read-only view of an undirected network PageRank needs.
// *network.AdjacencyList satisfies it.
type Graph interface {
	Len() int
	Neighbors(id int) []int
}

// PageRankConfig holds configuration for PageRank computation.
type PageRankConfig struct {
	// DampingFactor (d) is the probability of following an edge vs. teleporting.
	// Standard value: 0.85.
	DampingFactor float64

	// MaxIterations is the maximum number of power iteration steps. Default: 100.
	MaxIterations int

	// Tolerance is the convergence threshold. Default: 1e-6.
	Tolerance float64
}

// DefaultPageRankConfig returns the default PageRank configuration.
func DefaultPageRankConfig() PageRankConfig {
	return PageRankConfig{
		DampingFactor: 0.85,
		MaxIterations: 100,
		Tolerance:     1e-6,
	}
}

// ComputePageRank calculates a PageRank score for every node of g, indexed
// by node id and normalized so the highest score is 1.
//
// Algorithm: Standard power iteration
//  1. Initialize all nodes with score = 1/N
//  2. For each iteration:
//     PR(v) = (1-d)/N + d * sum(PR(u)/degree(u)) for all neighbors u of v
//  3. Converge when max change < Tolerance
//  4. Normalize to [0, 1] range
//
// Isolated nodes keep only the teleport term. ctx is checked between
// iterations.
func ComputePageRank(ctx context.Context, g Graph, config PageRankConfig) ([]float64, error) {
	n := g.Len()
	if n == 0 {
		return []float64{}, nil
	}
	if config.DampingFactor < 0 || config.DampingFactor > 1 {
		return nil, fmt.Errorf("computing pagerank: damping factor must be in [0,1], got %v", config.DampingFactor)
	}

	d := config.DampingFactor
	nf := float64(n)
	scores := make([]float64, n)
	for v := range scores {
		scores[v] = 1.0 / nf
	}
	next := make([]float64, n)

	for iter := 0; iter < config.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("computing pagerank: %w", err)
		}

		maxDelta := 0.0
		for v := 0; v < n; v++ {
			sum := 0.0
			for _, u := range g.Neighbors(v) {
				if deg := len(g.Neighbors(u)); deg > 0 {
					sum += scores[u] / float64(deg)
				}
			}

			next[v] = (1.0-d)/nf + d*sum
			if delta := math.Abs(next[v] - scores[v]); delta > maxDelta {
				maxDelta = delta
			}
		}

		scores, next = next, scores

		if maxDelta < config.Tolerance {
			break
		}
	}

	// Normalize to [0, 1] by dividing by max score.
	maxScore := 0.0
	for _, score := range scores {
		if score > maxScore {
			maxScore = score
		}
	}
	if maxScore > 0 {
		for v := range scores {
			scores[v] /= maxScore
		}
	}

	return scores, nil
}
