package network

import (
	"context"
	"fmt"
	"math/rand"
)

const (
	minRingNodes   = 3
	minSparseNodes = 1
)

// Ring returns the cycle 0-1-...-(n-1)-0.
func Ring(n int) (*AdjacencyList, error) {
	if n < minRingNodes {
		return nil, fmt.Errorf("Ring: n=%d < min=%d: %w", n, minRingNodes, ErrTooFewNodes)
	}
	b := NewBuilder(n)
	for i := 0; i < n; i++ {
		if _, err := b.AddEdge(i, (i+1)%n); err != nil {
			return nil, fmt.Errorf("Ring: %w", err)
		}
	}
	return b.Build(), nil
}

// RandomSparse samples an Erdős–Rényi graph G(n, p): every unordered pair
// {i, j} is joined independently with probability p. Trials run in a fixed
// order (i ascending, then j > i ascending) so a seeded rng reproduces the
// same graph. The n(n-1)/2 trials dominate for large n, so ctx is checked
// once per row.
func RandomSparse(ctx context.Context, n int, p float64, rng *rand.Rand) (*AdjacencyList, error) {
	if n < minSparseNodes {
		return nil, fmt.Errorf("RandomSparse: n=%d < min=%d: %w", n, minSparseNodes, ErrTooFewNodes)
	}
	if p < 0 || p > 1 {
		return nil, fmt.Errorf("RandomSparse: p=%.6f not in [0,1]: %w", p, ErrInvalidProbability)
	}
	if rng == nil && p > 0 && p < 1 {
		return nil, fmt.Errorf("RandomSparse: %w", ErrNeedRandSource)
	}

	b := NewBuilder(n)
	if p == 0 {
		return b.Build(), nil
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("RandomSparse: %w", err)
		}
		for j := i + 1; j < n; j++ {
			if p < 1 && rng.Float64() >= p {
				continue
			}
			if _, err := b.AddEdge(i, j); err != nil {
				return nil, fmt.Errorf("RandomSparse: %w", err)
			}
		}
	}
	return b.Build(), nil
}

// FromAverageDegree samples G(n, avgDegree/n), the contact network of the
// NetLogo virus-on-a-network model. The edge probability is capped at 1.
func FromAverageDegree(ctx context.Context, n int, avgDegree float64, rng *rand.Rand) (*AdjacencyList, error) {
	if n < minSparseNodes {
		return nil, fmt.Errorf("FromAverageDegree: n=%d < min=%d: %w", n, minSparseNodes, ErrTooFewNodes)
	}
	if avgDegree < 0 {
		return nil, fmt.Errorf("FromAverageDegree: avg degree %.3f < 0: %w", avgDegree, ErrInvalidProbability)
	}
	p := avgDegree / float64(n)
	if p > 1 {
		p = 1
	}
	return RandomSparse(ctx, n, p, rng)
}

// Reachable marks every node connected to at least one of sources by a path.
// Out-of-range sources are ignored.
func Reachable(g Graph, sources []int) []bool {
	seen := make([]bool, g.Len())
	queue := make([]int, 0, len(sources))
	for _, s := range sources {
		if s < 0 || s >= len(seen) || seen[s] {
			continue
		}
		seen[s] = true
		queue = append(queue, s)
	}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.Neighbors(u) {
			if !seen[v] {
				seen[v] = true
				queue = append(queue, v)
			}
		}
	}
	return seen
}
