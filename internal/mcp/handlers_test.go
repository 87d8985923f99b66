package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/ratelimit"
	"github.com/nvandessel/virusnet/internal/store"
)

func setupTestServer(t *testing.T) *Server {
	t.Helper()

	defaults := config.Default()
	defaults.Model.NumNodes = 5
	defaults.Network.Kind = config.NetworkRing
	defaults.Model.SpreadChance = 1.0
	defaults.Model.CheckFrequency = 0.0
	defaults.Run.Steps = 2

	server, err := NewServer(&Config{
		Name:     "test-server",
		Version:  "v1.0.0",
		Store:    store.NewInMemoryRunStore(),
		Defaults: defaults,
		AuditDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int { return &v }

func TestHandleVirusnetRun_RingSaturates(t *testing.T) {
	server := setupTestServer(t)

	result, output, err := server.handleVirusnetRun(context.Background(), &sdk.CallToolRequest{}, VirusnetRunInput{
		Seed: int64Ptr(7),
	})
	if err != nil {
		t.Fatalf("handleVirusnetRun failed: %v", err)
	}
	if result != nil {
		t.Error("Expected nil result (SDK auto-populates)")
	}

	if output.Seed != 7 {
		t.Errorf("Seed = %d, want 7", output.Seed)
	}
	if output.Network != config.NetworkRing {
		t.Errorf("Network = %q, want ring", output.Network)
	}
	if output.Nodes != 5 || output.Edges != 5 {
		t.Errorf("Nodes/Edges = %d/%d, want 5/5", output.Nodes, output.Edges)
	}
	if len(output.Series) != 3 {
		t.Fatalf("len(Series) = %d, want 3 (step 0 plus 2 steps)", len(output.Series))
	}
	if output.Series[0].Infected != 1 || output.Series[1].Infected != 3 {
		t.Errorf("infected series = %d, %d; want 1, 3", output.Series[0].Infected, output.Series[1].Infected)
	}
	if output.Final.Infected != 5 || output.Final.Susceptible != 0 {
		t.Errorf("Final = %+v, want all 5 infected", output.Final)
	}
	if output.Final.ROverS != "+Inf" {
		t.Errorf("Final.ROverS = %q, want +Inf", output.Final.ROverS)
	}
	if output.RunID != "" {
		t.Errorf("RunID = %q, want empty when save is false", output.RunID)
	}
	if !strings.Contains(output.Message, "5 infected") {
		t.Errorf("Message = %q, want it to mention 5 infected", output.Message)
	}
}

func TestHandleVirusnetRun_Overrides(t *testing.T) {
	server := setupTestServer(t)

	zero := 0.0
	_, output, err := server.handleVirusnetRun(context.Background(), nil, VirusnetRunInput{
		NumNodes:            8,
		InitialOutbreakSize: intPtr(2),
		SpreadChance:        &zero,
		Steps:               intPtr(4),
		Seed:                int64Ptr(1),
	})
	if err != nil {
		t.Fatalf("handleVirusnetRun failed: %v", err)
	}

	if output.Nodes != 8 {
		t.Errorf("Nodes = %d, want 8", output.Nodes)
	}
	if len(output.Outbreak) != 2 {
		t.Errorf("Outbreak = %v, want 2 nodes", output.Outbreak)
	}
	if len(output.Series) != 5 {
		t.Errorf("len(Series) = %d, want 5", len(output.Series))
	}
	if output.Final.Infected != 2 {
		t.Errorf("Final.Infected = %d, want 2 with no spread and no checks", output.Final.Infected)
	}
	if output.Params.SpreadChance != 0 {
		t.Errorf("Params.SpreadChance = %v, want 0", output.Params.SpreadChance)
	}
}

func TestHandleVirusnetRun_Reproducible(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	args := VirusnetRunInput{
		NumNodes: 40,
		Network:  config.NetworkRandom,
		Steps:    intPtr(10),
		Seed:     int64Ptr(99),
	}
	_, first, err := server.handleVirusnetRun(ctx, nil, args)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	_, second, err := server.handleVirusnetRun(ctx, nil, args)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if first.Edges != second.Edges {
		t.Errorf("Edges differ: %d vs %d", first.Edges, second.Edges)
	}
	for i := range first.Series {
		if first.Series[i] != second.Series[i] {
			t.Fatalf("step %d differs: %+v vs %+v", i, first.Series[i], second.Series[i])
		}
	}
}

func TestHandleVirusnetRun_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    VirusnetRunInput
		wantErr string
	}{
		{"gexf not allowed", VirusnetRunInput{Network: "gexf"}, "invalid network"},
		{"bad probability", VirusnetRunInput{RecoveryChance: func() *float64 { v := 1.5; return &v }()}, "invalid configuration"},
		{"negative steps", VirusnetRunInput{Steps: intPtr(-1)}, "invalid configuration"},
		{"over budget", VirusnetRunInput{NumNodes: 30_000_000}, "per-request maximum"},
		{"random network priced by pair trials", VirusnetRunInput{Network: "random", NumNodes: 40_000, Steps: intPtr(0)}, "per-request maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t)
			_, _, err := server.handleVirusnetRun(context.Background(), nil, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestHandleVirusnetRun_SaveAndList(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, run, err := server.handleVirusnetRun(ctx, nil, VirusnetRunInput{Seed: int64Ptr(3), Save: true})
	if err != nil {
		t.Fatalf("handleVirusnetRun failed: %v", err)
	}
	if run.RunID == "" {
		t.Fatal("expected a run id when save is true")
	}

	_, list, err := server.handleVirusnetRuns(ctx, nil, VirusnetRunsInput{})
	if err != nil {
		t.Fatalf("handleVirusnetRuns list failed: %v", err)
	}
	if list.Count != 1 || len(list.Runs) != 1 {
		t.Fatalf("Count = %d, len(Runs) = %d; want 1", list.Count, len(list.Runs))
	}
	if list.Runs[0].ID != run.RunID || list.Runs[0].Seed != 3 {
		t.Errorf("Runs[0] = %+v, want id %s seed 3", list.Runs[0], run.RunID)
	}

	_, one, err := server.handleVirusnetRuns(ctx, nil, VirusnetRunsInput{ID: run.RunID[:8]})
	if err != nil {
		t.Fatalf("handleVirusnetRuns get failed: %v", err)
	}
	if one.Run == nil || one.Run.ID != run.RunID {
		t.Fatalf("Run = %+v, want id %s", one.Run, run.RunID)
	}
	if len(one.Series) != len(run.Series) {
		t.Errorf("len(Series) = %d, want %d", len(one.Series), len(run.Series))
	}
	if one.Series[len(one.Series)-1].ROverS != "+Inf" {
		t.Errorf("stored final ratio = %q, want +Inf", one.Series[len(one.Series)-1].ROverS)
	}
}

func TestHandleVirusnetRuns_EmptyAndMissing(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, list, err := server.handleVirusnetRuns(ctx, nil, VirusnetRunsInput{})
	if err != nil {
		t.Fatalf("handleVirusnetRuns failed: %v", err)
	}
	if list.Runs == nil || list.Count != 0 {
		t.Errorf("empty archive: Runs = %v, Count = %d; want empty non-nil slice", list.Runs, list.Count)
	}

	_, _, err = server.handleVirusnetRuns(ctx, nil, VirusnetRunsInput{ID: "nope"})
	if !errors.Is(err, store.ErrRunNotFound) {
		t.Errorf("error = %v, want ErrRunNotFound", err)
	}
}

func TestHandleVirusnetRuns_NoStore(t *testing.T) {
	server, err := NewServer(&Config{Name: "test-server", Version: "v1.0.0"})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	defer server.Close()

	_, _, err = server.handleVirusnetRuns(context.Background(), nil, VirusnetRunsInput{})
	if !errors.Is(err, errNoStore) {
		t.Errorf("error = %v, want errNoStore", err)
	}
}

func TestHandleVirusnetGraph(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	t.Run("dot default", func(t *testing.T) {
		_, output, err := server.handleVirusnetGraph(ctx, nil, VirusnetGraphInput{Seed: int64Ptr(1)})
		if err != nil {
			t.Fatalf("handleVirusnetGraph failed: %v", err)
		}
		if output.Format != "dot" {
			t.Errorf("Format = %q, want dot", output.Format)
		}
		dot, ok := output.Graph.(string)
		if !ok {
			t.Fatalf("Graph is %T, want string", output.Graph)
		}
		if !strings.HasPrefix(dot, "graph virusnet {") {
			t.Errorf("DOT output starts with %q", dot[:20])
		}
		if output.NodeCount != 5 || output.EdgeCount != 5 {
			t.Errorf("NodeCount/EdgeCount = %d/%d, want 5/5", output.NodeCount, output.EdgeCount)
		}
	})

	t.Run("json after saturation", func(t *testing.T) {
		_, output, err := server.handleVirusnetGraph(ctx, nil, VirusnetGraphInput{Seed: int64Ptr(1), Steps: 2, Format: "json"})
		if err != nil {
			t.Fatalf("handleVirusnetGraph failed: %v", err)
		}
		graph, ok := output.Graph.(map[string]interface{})
		if !ok {
			t.Fatalf("Graph is %T, want map", output.Graph)
		}
		nodes := graph["nodes"].([]map[string]interface{})
		for _, n := range nodes {
			if n["state"] != "infected" {
				t.Errorf("node %v state = %v, want infected", n["id"], n["state"])
			}
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, _, err := server.handleVirusnetGraph(ctx, nil, VirusnetGraphInput{Format: "html"})
		if err == nil || !strings.Contains(err.Error(), "unsupported format") {
			t.Errorf("error = %v, want unsupported format", err)
		}
	})
}

func TestHandleVirusnetGraph_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    VirusnetGraphInput
		wantErr string
	}{
		{"negative steps", VirusnetGraphInput{Steps: -1}, "invalid configuration"},
		{"negative nodes", VirusnetGraphInput{NumNodes: -5}, "invalid configuration"},
		{"long run over budget", VirusnetGraphInput{NumNodes: 1000, Steps: 30_000}, "per-request maximum"},
		{"large random network over budget", VirusnetGraphInput{Network: "random", NumNodes: 40_000}, "per-request maximum"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(t)
			_, _, err := server.handleVirusnetGraph(context.Background(), nil, tt.args)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestHandleVirusnetGraph_SharesRunBudget(t *testing.T) {
	server := setupTestServer(t)
	server.toolLimiters["virusnet_run"] = ratelimit.NewLimiter(0, 1000)

	// 5 ring nodes for 199 steps spend the whole 1000-unit bucket.
	args := VirusnetGraphInput{Steps: 199, Seed: int64Ptr(1)}
	if _, _, err := server.handleVirusnetGraph(context.Background(), nil, args); err != nil {
		t.Fatalf("graph: %v", err)
	}

	_, _, err := server.handleVirusnetRun(context.Background(), nil, VirusnetRunInput{Seed: int64Ptr(1)})
	if err == nil || !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("run after a full-bucket graph: error = %v, want rate limit exceeded", err)
	}
}

func TestSimulationCost(t *testing.T) {
	tests := []struct {
		name  string
		kind  string
		nodes int
		steps int
		want  float64
	}{
		{"ring", config.NetworkRing, 1000, 29_999, 30_000_000},
		{"random adds pair trials", config.NetworkRandom, 100, 9, 100*10 + 100*99/2},
		{"default kind is random", "", 4, 0, 4 + 6},
		{"gexf", config.NetworkGEXF, 10, 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Network.Kind = tt.kind
			cfg.Model.NumNodes = tt.nodes
			cfg.Run.Steps = tt.steps
			if got := simulationCost(cfg); got != tt.want {
				t.Errorf("simulationCost = %.0f, want %.0f", got, tt.want)
			}
		})
	}

	// A 40k-node random network stays over one burst even at step 0.
	cfg := config.Default()
	cfg.Model.NumNodes = 40_000
	cfg.Run.Steps = 0
	if burst := 20_000_000.0; simulationCost(cfg) <= burst {
		t.Errorf("simulationCost = %.0f, want above the %.0f burst", simulationCost(cfg), burst)
	}
}

func TestHandleRunSeriesResource(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, run, err := server.handleVirusnetRun(ctx, nil, VirusnetRunInput{Seed: int64Ptr(5), Save: true})
	if err != nil {
		t.Fatalf("handleVirusnetRun failed: %v", err)
	}

	uri := runsURIPrefix + run.RunID
	res, err := server.handleRunSeriesResource(ctx, &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: uri},
	})
	if err != nil {
		t.Fatalf("handleRunSeriesResource failed: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("len(Contents) = %d, want 1", len(res.Contents))
	}
	text := res.Contents[0].Text
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if lines[0] != "Step,Infected,Susceptible,Resistant,R over S" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 4 {
		t.Errorf("got %d lines, want header plus 3 rows", len(lines))
	}
	if lines[3] != "2,5,0,0,+Inf" {
		t.Errorf("last row = %q, want 2,5,0,0,+Inf", lines[3])
	}

	_, err = server.handleRunSeriesResource(ctx, &sdk.ReadResourceRequest{
		Params: &sdk.ReadResourceParams{URI: "other://runs/x"},
	})
	if err == nil {
		t.Error("expected error for foreign URI")
	}
}
