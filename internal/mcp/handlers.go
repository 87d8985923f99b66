package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/epidemic"
	"github.com/nvandessel/virusnet/internal/ratelimit"
	"github.com/nvandessel/virusnet/internal/simulation"
	"github.com/nvandessel/virusnet/internal/store"
	"github.com/nvandessel/virusnet/internal/visualization"
)

const (
	defaultRunsLimit = 20
	runsURIPrefix    = "virusnet://runs/"
)

// errNoStore is returned by archive operations when the server has no store.
var errNoStore = errors.New("run archive is not configured")

// registerTools registers all virusnet MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "virusnet_run",
		Description: "Run the SIR epidemic on a contact network and return the infected/susceptible/resistant series",
	}, s.handleVirusnetRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "virusnet_graph",
		Description: "Render a contact network in DOT (Graphviz) or JSON format, with node states after a number of steps",
	}, s.handleVirusnetGraph)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "virusnet_runs",
		Description: "List archived runs, or fetch one run and its series by id or id prefix",
	}, s.handleVirusnetRuns)

	return nil
}

// registerResources registers MCP resources for archived runs.
func (s *Server) registerResources() error {
	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: runsURIPrefix + "{id}",
		Name:        "virusnet-run-series",
		Description: "Time series of an archived run as CSV (Step, Infected, Susceptible, Resistant, R over S).",
		MIMEType:    "text/csv",
	}, s.handleRunSeriesResource)

	return nil
}

// handleRunSeriesResource returns an archived run's series as CSV.
func (s *Server) handleRunSeriesResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	if !strings.HasPrefix(uri, runsURIPrefix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	id := strings.TrimPrefix(uri, runsURIPrefix)
	if id == "" {
		return nil, fmt.Errorf("run ID is required")
	}
	if s.store == nil {
		return nil, errNoStore
	}

	rec, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var buf bytes.Buffer
	if err := visualization.RenderSeries(&buf, rec.Series, visualization.SeriesCSV); err != nil {
		return nil, err
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "text/csv",
				Text:     buf.String(),
			},
		},
	}, nil
}

// handleVirusnetRun implements the virusnet_run tool.
func (s *Server) handleVirusnetRun(ctx context.Context, req *sdk.CallToolRequest, args VirusnetRunInput) (_ *sdk.CallToolResult, _ VirusnetRunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("virusnet_run", start, retErr, toolParams(map[string]interface{}{
			"num_nodes":             args.NumNodes,
			"avg_node_degree":       args.AvgNodeDegree,
			"initial_outbreak_size": args.InitialOutbreakSize,
			"network":               args.Network,
			"steps":                 args.Steps,
			"seed":                  args.Seed,
			"save":                  args.Save,
		}))
	}()

	cfg, err := s.runConfig(args.Network, args.NumNodes, args.AvgNodeDegree, args.Seed)
	if err != nil {
		return nil, VirusnetRunOutput{}, err
	}
	if args.InitialOutbreakSize != nil {
		cfg.Model.InitialOutbreakSize = *args.InitialOutbreakSize
	}
	setFloat(&cfg.Model.SpreadChance, args.SpreadChance)
	setFloat(&cfg.Model.CheckFrequency, args.CheckFrequency)
	setFloat(&cfg.Model.RecoveryChance, args.RecoveryChance)
	setFloat(&cfg.Model.GainResistanceChance, args.GainResistanceChance)
	if args.Steps != nil {
		cfg.Run.Steps = *args.Steps
	}

	if err := cfg.Validate(); err != nil {
		return nil, VirusnetRunOutput{}, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := ratelimit.CheckLimit(s.toolLimiters, "virusnet_run", simulationCost(cfg)); err != nil {
		return nil, VirusnetRunOutput{}, err
	}

	model, g, err := simulation.FromConfig(ctx, cfg, s.logger)
	if err != nil {
		return nil, VirusnetRunOutput{}, err
	}
	if err := model.Run(ctx, cfg.Run.Steps); err != nil {
		return nil, VirusnetRunOutput{}, err
	}

	series := model.History()
	final := model.Current()
	msg := fmt.Sprintf("Ran %d steps on %d nodes: %d infected, %d susceptible, %d resistant",
		model.StepCount(), g.Len(), final.Infected, final.Susceptible, final.Resistant)
	out := VirusnetRunOutput{
		Seed:     model.Seed(),
		Network:  cfg.Network.Kind,
		Nodes:    g.Len(),
		Edges:    g.EdgeCount(),
		Outbreak: nonNilInts(model.Outbreak()),
		Series:   snapshotItems(series),
		Final:    snapshotItem(final),
		Params:   cfg.Model.Params,
		Message:  msg,
	}

	if args.Save {
		if s.store == nil {
			return nil, VirusnetRunOutput{}, errNoStore
		}
		id, err := s.store.SaveRun(ctx, store.RunRecord{
			Seed:     out.Seed,
			Network:  out.Network,
			Nodes:    out.Nodes,
			Edges:    out.Edges,
			Outbreak: out.Outbreak,
			Params:   out.Params,
			Steps:    model.StepCount(),
			Series:   series,
		})
		if err != nil {
			return nil, VirusnetRunOutput{}, fmt.Errorf("failed to save run: %w", err)
		}
		out.RunID = id
		out.Message += fmt.Sprintf(" (saved as %s)", id)
	}

	return nil, out, nil
}

// handleVirusnetGraph implements the virusnet_graph tool.
func (s *Server) handleVirusnetGraph(ctx context.Context, req *sdk.CallToolRequest, args VirusnetGraphInput) (_ *sdk.CallToolResult, _ VirusnetGraphOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("virusnet_graph", start, retErr, toolParams(map[string]interface{}{
			"num_nodes": args.NumNodes,
			"network":   args.Network,
			"steps":     args.Steps,
			"format":    args.Format,
		}))
	}()

	format := args.Format
	if format == "" {
		format = string(visualization.FormatDOT)
	}
	switch visualization.Format(format) {
	case visualization.FormatDOT, visualization.FormatJSON:
	default:
		return nil, VirusnetGraphOutput{}, fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
	}

	cfg, err := s.runConfig(args.Network, args.NumNodes, args.AvgNodeDegree, args.Seed)
	if err != nil {
		return nil, VirusnetGraphOutput{}, err
	}
	cfg.Run.Steps = args.Steps
	if err := cfg.Validate(); err != nil {
		return nil, VirusnetGraphOutput{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := ratelimit.CheckLimit(s.toolLimiters, "virusnet_graph", 1); err != nil {
		return nil, VirusnetGraphOutput{}, err
	}
	if err := ratelimit.CheckLimit(s.toolLimiters, "virusnet_run", simulationCost(cfg)); err != nil {
		return nil, VirusnetGraphOutput{}, err
	}

	model, g, err := simulation.FromConfig(ctx, cfg, s.logger)
	if err != nil {
		return nil, VirusnetGraphOutput{}, err
	}
	if err := model.Run(ctx, cfg.Run.Steps); err != nil {
		return nil, VirusnetGraphOutput{}, err
	}
	states := model.Population().States()

	out := VirusnetGraphOutput{
		Format:    format,
		NodeCount: g.Len(),
		EdgeCount: g.EdgeCount(),
		Seed:      model.Seed(),
	}

	switch visualization.Format(format) {
	case visualization.FormatDOT:
		dot, err := visualization.RenderDOT(g, states)
		if err != nil {
			return nil, VirusnetGraphOutput{}, fmt.Errorf("render DOT: %w", err)
		}
		out.Graph = dot
	case visualization.FormatJSON:
		result, err := visualization.RenderJSON(g, states)
		if err != nil {
			return nil, VirusnetGraphOutput{}, fmt.Errorf("render JSON: %w", err)
		}
		out.Graph = result
	default:
		return nil, VirusnetGraphOutput{}, fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
	}

	return nil, out, nil
}

// handleVirusnetRuns implements the virusnet_runs tool.
func (s *Server) handleVirusnetRuns(ctx context.Context, req *sdk.CallToolRequest, args VirusnetRunsInput) (_ *sdk.CallToolResult, _ VirusnetRunsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("virusnet_runs", start, retErr, toolParams(map[string]interface{}{
			"id":    args.ID,
			"limit": args.Limit,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "virusnet_runs", 1); err != nil {
		return nil, VirusnetRunsOutput{}, err
	}
	if s.store == nil {
		return nil, VirusnetRunsOutput{}, errNoStore
	}

	if args.ID != "" {
		rec, err := s.store.GetRun(ctx, args.ID)
		if err != nil {
			return nil, VirusnetRunsOutput{}, fmt.Errorf("failed to get run: %w", err)
		}
		item := runListItem(*rec)
		return nil, VirusnetRunsOutput{
			Run:    &item,
			Series: snapshotItems(rec.Series),
			Count:  1,
		}, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	recs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, VirusnetRunsOutput{}, fmt.Errorf("failed to list runs: %w", err)
	}

	items := make([]RunListItem, 0, len(recs))
	for _, rec := range recs {
		items = append(items, runListItem(rec))
	}
	return nil, VirusnetRunsOutput{Runs: items, Count: len(items)}, nil
}

// simulationCost prices a validated request in node-steps: population size
// times (steps + 1) snapshots, plus one unit per pair trial when a random
// network has to be sampled first.
func simulationCost(cfg *config.VirusnetConfig) float64 {
	n := float64(cfg.Model.NumNodes)
	cost := n * float64(cfg.Run.Steps+1)
	switch cfg.Network.Kind {
	case config.NetworkRandom, "":
		cost += n * (n - 1) / 2
	}
	return cost
}

// runConfig copies the server defaults and applies the overrides shared by
// the run and graph tools. Clients may only pick generated networks.
func (s *Server) runConfig(kind string, numNodes int, avgDegree *float64, seed *int64) (*config.VirusnetConfig, error) {
	cfg := *s.defaults

	switch kind {
	case "":
	case config.NetworkRandom, config.NetworkRing:
		cfg.Network = config.NetworkConfig{Kind: kind}
	default:
		return nil, fmt.Errorf("invalid network %q (use 'random' or 'ring')", kind)
	}

	if numNodes != 0 {
		cfg.Model.NumNodes = numNodes
	}
	setFloat(&cfg.Model.AvgNodeDegree, avgDegree)
	if seed != nil {
		v := *seed
		cfg.Model.Seed = &v
	}
	return &cfg, nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func snapshotItem(s epidemic.Snapshot) SnapshotItem {
	return SnapshotItem{
		Step:        s.Step,
		Infected:    s.Infected,
		Susceptible: s.Susceptible,
		Resistant:   s.Resistant,
		ROverS:      s.Ratio.String(),
	}
}

func snapshotItems(series []epidemic.Snapshot) []SnapshotItem {
	items := make([]SnapshotItem, 0, len(series))
	for _, s := range series {
		items = append(items, snapshotItem(s))
	}
	return items
}

func runListItem(rec store.RunRecord) RunListItem {
	return RunListItem{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt,
		Seed:      rec.Seed,
		Network:   rec.Network,
		Nodes:     rec.Nodes,
		Steps:     rec.Steps,
	}
}

func nonNilInts(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
