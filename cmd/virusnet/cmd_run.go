package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/epidemic"
	"github.com/nvandessel/virusnet/internal/logging"
	"github.com/nvandessel/virusnet/internal/network"
	"github.com/nvandessel/virusnet/internal/simulation"
	"github.com/nvandessel/virusnet/internal/store"
	"github.com/nvandessel/virusnet/internal/visualization"
	"github.com/spf13/cobra"
)

// runResult is the --json output of run.
type runResult struct {
	RunID    string              `json:"run_id,omitempty"`
	Seed     int64               `json:"seed"`
	Network  string              `json:"network"`
	Nodes    int                 `json:"nodes"`
	Edges    int                 `json:"edges"`
	Outbreak []int               `json:"outbreak"`
	Params   epidemic.Params     `json:"params"`
	Steps    int                 `json:"steps"`
	Series   []epidemic.Snapshot `json:"series"`
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the epidemic and print its time series",
		Long: `Build the contact network, seed the outbreak and run the model for
--steps steps. One row is printed per step, starting with step 0 (the state
right after seeding).

Examples:
  virusnet run                                  # NetLogo defaults, 50 steps
  virusnet run --num-nodes 150 --avg-degree 6 --seed 42
  virusnet run --gexf jazz.gexf --format csv > series.csv
  virusnet run --save                           # archive in ~/.virusnet/runs.db
  virusnet run --html report.html --open        # SVG chart of the series`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			format, _ := cmd.Flags().GetString("format")
			save, _ := cmd.Flags().GetBool("save")
			htmlPath, _ := cmd.Flags().GetString("html")
			openBrowser, _ := cmd.Flags().GetBool("open")
			serve, _ := cmd.Flags().GetBool("serve")
			addr, _ := cmd.Flags().GetString("addr")

			switch visualization.SeriesFormat(format) {
			case visualization.SeriesTable, visualization.SeriesCSV, visualization.SeriesJSON:
			default:
				return fmt.Errorf("unsupported format %q (use 'table', 'csv', or 'json')", format)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyModelFlags(cmd, cfg)
			if cmd.Flags().Changed("steps") {
				cfg.Run.Steps, _ = cmd.Flags().GetInt("steps")
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := newLogger(cmd, cfg)

			dir, err := traceDir(cfg)
			if err != nil {
				return err
			}
			steps, err := logging.NewStepLogger(dir, cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer steps.Close()

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			model, g, err := simulation.FromConfig(ctx, cfg, logger, simulation.WithStepLogger(steps))
			if err != nil {
				return err
			}

			start := time.Now()
			if err := model.Run(ctx, cfg.Run.Steps); err != nil {
				return err
			}
			logger.Info("run complete",
				"seed", model.Seed(),
				"steps", model.StepCount(),
				"duration", time.Since(start))
			if path := steps.Path(); path != "" {
				logger.Debug("step trace written", "path", path, "events", steps.Count())
			}

			result := runResult{
				Seed:     model.Seed(),
				Network:  cfg.Network.Kind,
				Nodes:    g.Len(),
				Edges:    g.EdgeCount(),
				Outbreak: model.Outbreak(),
				Params:   cfg.Model.Params,
				Steps:    model.StepCount(),
				Series:   model.History(),
			}

			if save {
				id, err := saveRun(ctx, cfg, result)
				if err != nil {
					return err
				}
				result.RunID = id
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}
			} else {
				if visualization.SeriesFormat(format) == visualization.SeriesTable {
					fmt.Fprintf(out, "Seed %d, %s network, %d nodes, %d edges, outbreak %v\n\n",
						result.Seed, result.Network, result.Nodes, result.Edges, result.Outbreak)
				}
				if err := visualization.RenderSeries(out, result.Series, visualization.SeriesFormat(format)); err != nil {
					return err
				}
				if result.RunID != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", result.RunID)
				}
			}

			report := visualization.Report{
				Title:  "virusnet run",
				Seed:   result.Seed,
				Nodes:  result.Nodes,
				Edges:  result.Edges,
				Series: result.Series,
			}
			if htmlPath != "" {
				if err := writeReport(cmd, report, htmlPath, openBrowser); err != nil {
					return err
				}
			}
			if serve {
				return runReportServer(cmd, ctx, report, g, model.Population().States(), addr, openBrowser)
			}
			return nil
		},
	}

	addModelFlags(cmd)
	cmd.Flags().Int("steps", 0, "Steps to run after step 0 (default from config: 50)")
	cmd.Flags().String("format", "table", "Series format: table, csv, or json")
	cmd.Flags().Bool("save", false, "Archive the run in the SQLite run store")
	cmd.Flags().String("html", "", "Write an HTML report with a chart of the series")
	cmd.Flags().Bool("open", false, "Open the HTML report or served page in a browser")
	cmd.Flags().Bool("serve", false, "Serve the report, series and final network over HTTP until Ctrl-C")
	cmd.Flags().String("addr", "localhost:0", "Listen address for --serve")

	return cmd
}

// saveRun archives result in the configured run store.
func saveRun(ctx context.Context, cfg *config.VirusnetConfig, result runResult) (string, error) {
	rs, err := openRunStore(cfg)
	if err != nil {
		return "", err
	}
	defer rs.Close()

	id, err := rs.SaveRun(ctx, store.RunRecord{
		Seed:     result.Seed,
		Network:  result.Network,
		Nodes:    result.Nodes,
		Edges:    result.Edges,
		Outbreak: result.Outbreak,
		Params:   result.Params,
		Steps:    result.Steps,
		Series:   result.Series,
	})
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return id, nil
}

// openRunStore opens the SQLite archive at cfg.Run.DBPath or the default
// location.
func openRunStore(cfg *config.VirusnetConfig) (*store.SQLiteRunStore, error) {
	path, err := store.ResolveDBPath(cfg.Run.DBPath)
	if err != nil {
		return nil, err
	}
	rs, err := store.NewSQLiteRunStore(path)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	return rs, nil
}

// writeReport renders the HTML report to path.
func writeReport(cmd *cobra.Command, report visualization.Report, path string, openBrowser bool) error {
	htmlBytes, err := visualization.RenderHTML(report)
	if err != nil {
		return fmt.Errorf("render HTML: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, htmlBytes, 0644); err != nil {
		return fmt.Errorf("write HTML file: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)

	if openBrowser {
		if err := visualization.OpenBrowser(path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, path)
		}
	}
	return nil
}

// runReportServer serves the finished run and blocks until ctx is
// cancelled.
func runReportServer(cmd *cobra.Command, ctx context.Context, report visualization.Report, g *network.AdjacencyList, states []epidemic.State, addr string, openBrowser bool) error {
	srv := visualization.NewServer(report, g, states)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, addr) }()

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if srv.Addr() != "" {
			break
		}
		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-time.After(10 * time.Millisecond):
		}
	}

	listenAddr := srv.Addr()
	if listenAddr == "" {
		return fmt.Errorf("server failed to start")
	}

	url := "http://" + listenAddr
	fmt.Fprintf(cmd.ErrOrStderr(), "Report server running at %s\n", url)
	fmt.Fprintf(cmd.ErrOrStderr(), "Press Ctrl-C to stop.\n")

	if openBrowser {
		if err := visualization.OpenBrowser(url); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Could not open browser: %v\nOpen %s manually.\n", err, url)
		}
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
