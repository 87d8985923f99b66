package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/nvandessel/virusnet/internal/visualization"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Manage archived runs",
		Long: `List, show and delete runs archived with 'virusnet run --save'.

Runs are stored in ~/.virusnet/runs.db unless run.db_path is set. Any
unique prefix of a run id is accepted.`,
	}

	cmd.AddCommand(
		newRunsListCmd(),
		newRunsShowCmd(),
		newRunsDeleteCmd(),
	)

	return cmd
}

func newRunsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs, err := openRunStore(cfg)
			if err != nil {
				return err
			}
			defer rs.Close()

			runs, err := rs.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"runs":  runs,
					"count": len(runs),
				})
			}

			if len(runs) == 0 {
				fmt.Fprintln(out, "No archived runs. Use 'virusnet run --save' to archive one.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tNETWORK\tNODES\tSTEPS\tSEED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
					shortID(r.ID), r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Network, r.Nodes, r.Steps, r.Seed)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum runs to list (0 for all)")
	return cmd
}

func newRunsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an archived run and its series",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			format, _ := cmd.Flags().GetString("format")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs, err := openRunStore(cfg)
			if err != nil {
				return err
			}
			defer rs.Close()

			rec, err := rs.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			if visualization.SeriesFormat(format) == visualization.SeriesTable {
				final := rec.Final()
				fmt.Fprintf(out, "Run %s\n", rec.ID)
				fmt.Fprintf(out, "  Created:  %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				fmt.Fprintf(out, "  Seed:     %d\n", rec.Seed)
				fmt.Fprintf(out, "  Network:  %s (%d nodes, %d edges)\n", rec.Network, rec.Nodes, rec.Edges)
				fmt.Fprintf(out, "  Outbreak: %v\n", rec.Outbreak)
				fmt.Fprintf(out, "  Params:   spread=%.2f check=%.2f recovery=%.2f resistance=%.2f\n",
					rec.Params.SpreadChance, rec.Params.CheckFrequency, rec.Params.RecoveryChance, rec.Params.GainResistanceChance)
				fmt.Fprintf(out, "  Final:    %d infected, %d susceptible, %d resistant after %d steps\n\n",
					final.Infected, final.Susceptible, final.Resistant, rec.Steps)
			}
			return visualization.RenderSeries(out, rec.Series, visualization.SeriesFormat(format))
		},
	}

	cmd.Flags().String("format", "table", "Series format: table, csv, or json")
	return cmd
}

func newRunsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			rs, err := openRunStore(cfg)
			if err != nil {
				return err
			}
			defer rs.Close()

			rec, err := rs.GetRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := rs.DeleteRun(cmd.Context(), rec.ID); err != nil {
				return fmt.Errorf("delete run: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{
					"status": "deleted",
					"id":     rec.ID,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", rec.ID)
			return nil
		},
	}
}

// shortID returns the first 8 characters of a run id.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
