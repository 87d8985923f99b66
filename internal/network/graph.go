// Package network provides the immutable contact graphs an epidemic spreads
// over. Nodes are always the contiguous integers 0..N-1; edges are simple
// (no self-loops, no parallel edges) and undirected.
package network

import (
	"errors"
	"fmt"
	"sort"
)

// Sentinel errors for graph construction and loading.
var (
	// ErrTooFewNodes indicates a node count below the generator's minimum.
	ErrTooFewNodes = errors.New("network: too few nodes")

	// ErrInvalidProbability indicates an edge probability outside [0,1].
	ErrInvalidProbability = errors.New("network: probability out of range")

	// ErrNeedRandSource indicates a stochastic generator was called without an RNG.
	ErrNeedRandSource = errors.New("network: rng is required")

	// ErrNodeOutOfRange indicates an edge endpoint outside 0..N-1.
	ErrNodeOutOfRange = errors.New("network: node out of range")

	// ErrMalformedGEXF indicates a GEXF document that cannot be mapped to a graph.
	ErrMalformedGEXF = errors.New("network: malformed gexf")
)

// Graph is the read-only view the simulation needs from a contact network.
type Graph interface {
	// Len returns the number of nodes.
	Len() int

	// Neighbors returns the nodes adjacent to id in ascending order.
	// The returned slice must not be modified.
	Neighbors(id int) []int
}

// AdjacencyList is an immutable simple undirected graph. Build one with a
// Builder or one of the generators.
type AdjacencyList struct {
	adj    [][]int
	labels []string
	edges  int
}

// Len returns the number of nodes.
func (g *AdjacencyList) Len() int { return len(g.adj) }

// Neighbors returns the sorted neighbors of id, or nil if id is out of range.
func (g *AdjacencyList) Neighbors(id int) []int {
	if id < 0 || id >= len(g.adj) {
		return nil
	}
	return g.adj[id]
}

// Degree returns the number of neighbors of id.
func (g *AdjacencyList) Degree(id int) int { return len(g.Neighbors(id)) }

// EdgeCount returns the number of undirected edges.
func (g *AdjacencyList) EdgeCount() int { return g.edges }

// AverageDegree returns 2E/N, or 0 for an empty graph.
func (g *AdjacencyList) AverageDegree() float64 {
	if len(g.adj) == 0 {
		return 0
	}
	return 2 * float64(g.edges) / float64(len(g.adj))
}

// Label returns the original label of id when the graph was loaded from a
// file, or its decimal index otherwise.
func (g *AdjacencyList) Label(id int) string {
	if id >= 0 && id < len(g.labels) && g.labels[id] != "" {
		return g.labels[id]
	}
	return fmt.Sprintf("%d", id)
}

// Edges returns every edge once as (u, v) with u < v, in ascending order.
func (g *AdjacencyList) Edges() [][2]int {
	out := make([][2]int, 0, g.edges)
	for u, nbrs := range g.adj {
		for _, v := range nbrs {
			if u < v {
				out = append(out, [2]int{u, v})
			}
		}
	}
	return out
}

// Builder accumulates edges for an AdjacencyList. Self-loops and repeated
// edges are ignored so the result is always simple.
type Builder struct {
	n      int
	adj    []map[int]struct{}
	labels []string
	edges  int
}

// NewBuilder creates a builder for a graph with n isolated nodes.
func NewBuilder(n int) *Builder {
	if n < 0 {
		n = 0
	}
	adj := make([]map[int]struct{}, n)
	for i := range adj {
		adj[i] = make(map[int]struct{})
	}
	return &Builder{n: n, adj: adj}
}

// AddEdge connects u and v. It reports whether a new edge was added; self-loops
// and duplicates return false with a nil error.
func (b *Builder) AddEdge(u, v int) (bool, error) {
	if u < 0 || u >= b.n || v < 0 || v >= b.n {
		return false, fmt.Errorf("AddEdge(%d,%d) with %d nodes: %w", u, v, b.n, ErrNodeOutOfRange)
	}
	if u == v {
		return false, nil
	}
	if _, exists := b.adj[u][v]; exists {
		return false, nil
	}
	b.adj[u][v] = struct{}{}
	b.adj[v][u] = struct{}{}
	b.edges++
	return true, nil
}

// SetLabels records original node labels, indexed by node id.
func (b *Builder) SetLabels(labels []string) {
	b.labels = append([]string(nil), labels...)
}

// Build freezes the accumulated edges into an AdjacencyList with sorted
// neighbor lists.
func (b *Builder) Build() *AdjacencyList {
	adj := make([][]int, b.n)
	for u, set := range b.adj {
		nbrs := make([]int, 0, len(set))
		for v := range set {
			nbrs = append(nbrs, v)
		}
		sort.Ints(nbrs)
		adj[u] = nbrs
	}
	return &AdjacencyList{adj: adj, labels: b.labels, edges: b.edges}
}
