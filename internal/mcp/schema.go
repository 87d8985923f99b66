package mcp

import (
	"time"

	"github.com/nvandessel/virusnet/internal/epidemic"
)

// VirusnetRunInput defines the input for the virusnet_run tool. Unset
// fields fall back to the server's configuration.
type VirusnetRunInput struct {
	NumNodes             int      `json:"num_nodes,omitempty" jsonschema:"Population size for generated networks"`
	AvgNodeDegree        *float64 `json:"avg_node_degree,omitempty" jsonschema:"Expected degree of the random network"`
	InitialOutbreakSize  *int     `json:"initial_outbreak_size,omitempty" jsonschema:"Agents infected before step 0; clamped to the population"`
	SpreadChance         *float64 `json:"virus_spread_chance,omitempty" jsonschema:"Per-neighbor infection chance (0.0-1.0)"`
	CheckFrequency       *float64 `json:"virus_check_frequency,omitempty" jsonschema:"Per-step chance an infected agent checks its situation (0.0-1.0)"`
	RecoveryChance       *float64 `json:"recovery_chance,omitempty" jsonschema:"Chance a check ends the infection (0.0-1.0)"`
	GainResistanceChance *float64 `json:"gain_resistance_chance,omitempty" jsonschema:"Chance a recovering agent becomes resistant (0.0-1.0)"`
	Network              string   `json:"network,omitempty" jsonschema:"Contact network: 'random' or 'ring'"`
	Steps                *int     `json:"steps,omitempty" jsonschema:"Steps to run after step 0"`
	Seed                 *int64   `json:"seed,omitempty" jsonschema:"RNG seed; omit for a time-based seed"`
	Save                 bool     `json:"save,omitempty" jsonschema:"Archive the run and return its id (default: false)"`
}

// VirusnetRunOutput defines the output for the virusnet_run tool.
type VirusnetRunOutput struct {
	RunID    string          `json:"run_id,omitempty" jsonschema:"Archive id when save was requested"`
	Seed     int64           `json:"seed" jsonschema:"Seed that reproduces this run"`
	Network  string          `json:"network" jsonschema:"Network kind used"`
	Nodes    int             `json:"nodes" jsonschema:"Population size"`
	Edges    int             `json:"edges" jsonschema:"Contact edges"`
	Outbreak []int           `json:"outbreak" jsonschema:"Initially infected node ids"`
	Series   []SnapshotItem  `json:"series" jsonschema:"One snapshot per step, step 0 first"`
	Final    SnapshotItem    `json:"final" jsonschema:"Last snapshot"`
	Params   epidemic.Params `json:"params" jsonschema:"Agent probabilities used"`
	Message  string          `json:"message" jsonschema:"Human-readable summary"`
}

// SnapshotItem is one row of the time series. The ratio is a string so the
// infinite value survives JSON.
type SnapshotItem struct {
	Step        int    `json:"step"`
	Infected    int    `json:"infected"`
	Susceptible int    `json:"susceptible"`
	Resistant   int    `json:"resistant"`
	ROverS      string `json:"r_over_s" jsonschema:"Resistant/susceptible ratio to 4 decimals, or +Inf when no agent is susceptible"`
}

// VirusnetGraphInput defines the input for the virusnet_graph tool.
type VirusnetGraphInput struct {
	NumNodes      int      `json:"num_nodes,omitempty" jsonschema:"Population size for generated networks"`
	AvgNodeDegree *float64 `json:"avg_node_degree,omitempty" jsonschema:"Expected degree of the random network"`
	Network       string   `json:"network,omitempty" jsonschema:"Contact network: 'random' or 'ring'"`
	Steps         int      `json:"steps,omitempty" jsonschema:"Steps to run before rendering node states (default: 0)"`
	Seed          *int64   `json:"seed,omitempty" jsonschema:"RNG seed; omit for a time-based seed"`
	Format        string   `json:"format,omitempty" jsonschema:"Output format: 'dot' or 'json' (default: 'dot')"`
}

// VirusnetGraphOutput defines the output for the virusnet_graph tool.
type VirusnetGraphOutput struct {
	Format    string      `json:"format" jsonschema:"Output format used"`
	Graph     interface{} `json:"graph" jsonschema:"DOT string or JSON graph with per-node state"`
	NodeCount int         `json:"node_count" jsonschema:"Number of nodes"`
	EdgeCount int         `json:"edge_count" jsonschema:"Number of edges"`
	Seed      int64       `json:"seed" jsonschema:"Seed that reproduces this graph"`
}

// VirusnetRunsInput defines the input for the virusnet_runs tool.
type VirusnetRunsInput struct {
	ID    string `json:"id,omitempty" jsonschema:"Run id or unique prefix; omit to list runs"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum runs to list (default: 20)"`
}

// VirusnetRunsOutput defines the output for the virusnet_runs tool.
type VirusnetRunsOutput struct {
	Runs   []RunListItem  `json:"runs,omitempty" jsonschema:"Archived runs, newest first"`
	Run    *RunListItem   `json:"run,omitempty" jsonschema:"The requested run"`
	Series []SnapshotItem `json:"series,omitempty" jsonschema:"Series of the requested run"`
	Count  int            `json:"count" jsonschema:"Number of runs returned"`
}

// RunListItem provides a list view of an archived run.
type RunListItem struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Seed      int64     `json:"seed"`
	Network   string    `json:"network"`
	Nodes     int       `json:"nodes"`
	Steps     int       `json:"steps"`
}
