package ranking

import (
	"context"
	"math"
	"testing"

	"github.com/nvandessel/virusnet/internal/network"
)

func buildGraph(t *testing.T, n int, edges [][2]int) *network.AdjacencyList {
	t.Helper()
	b := network.NewBuilder(n)
	for _, e := range edges {
		if _, err := b.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge(%d, %d): %v", e[0], e[1], err)
		}
	}
	return b.Build()
}

func TestComputePageRank_EmptyGraph(t *testing.T) {
	scores, err := ComputePageRank(context.Background(), buildGraph(t, 0, nil), DefaultPageRankConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 0 {
		t.Errorf("expected no scores for empty graph, got %d", len(scores))
	}
}

func TestComputePageRank_SingleNode(t *testing.T) {
	scores, err := ComputePageRank(context.Background(), buildGraph(t, 1, nil), DefaultPageRankConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scores) != 1 || scores[0] != 1.0 {
		t.Errorf("scores = %v, want [1]", scores)
	}
}

func TestComputePageRank_RingIsUniform(t *testing.T) {
	g, err := network.Ring(6)
	if err != nil {
		t.Fatalf("Ring: %v", err)
	}

	scores, err := ComputePageRank(context.Background(), g, DefaultPageRankConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for v, s := range scores {
		if math.Abs(s-1.0) > 1e-9 {
			t.Errorf("score[%d] = %v, want 1 on a regular graph", v, s)
		}
	}
}

func TestComputePageRank_StarHubRanksHighest(t *testing.T) {
	// Node 0 is connected to every other node.
	g := buildGraph(t, 5, [][2]int{{0, 1}, {0, 2}, {0, 3}, {0, 4}})

	scores, err := ComputePageRank(context.Background(), g, DefaultPageRankConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if scores[0] != 1.0 {
		t.Errorf("hub score = %v, want 1.0", scores[0])
	}
	for v := 1; v < 5; v++ {
		if scores[v] >= scores[0] {
			t.Errorf("leaf %d score %v should be below hub %v", v, scores[v], scores[0])
		}
		if math.Abs(scores[v]-scores[1]) > 1e-9 {
			t.Errorf("leaf scores differ: %v vs %v", scores[v], scores[1])
		}
	}
}

func TestComputePageRank_IsolatedNodeRanksLowest(t *testing.T) {
	g := buildGraph(t, 4, [][2]int{{0, 1}, {1, 2}, {2, 0}})

	scores, err := ComputePageRank(context.Background(), g, DefaultPageRankConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for v := 0; v < 3; v++ {
		if scores[3] >= scores[v] {
			t.Errorf("isolated node score %v should be below connected node %d (%v)", scores[3], v, scores[v])
		}
	}
}

func TestComputePageRank_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := network.Ring(4)
	if err != nil {
		t.Fatalf("Ring: %v", err)
	}
	if _, err := ComputePageRank(ctx, g, DefaultPageRankConfig()); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestComputePageRank_InvalidDamping(t *testing.T) {
	g, err := network.Ring(4)
	if err != nil {
		t.Fatalf("Ring: %v", err)
	}
	cfg := DefaultPageRankConfig()
	cfg.DampingFactor = 1.5
	if _, err := ComputePageRank(context.Background(), g, cfg); err == nil {
		t.Error("expected error for damping factor above 1")
	}
}
