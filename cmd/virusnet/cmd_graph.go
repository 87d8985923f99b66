package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nvandessel/virusnet/internal/simulation"
	"github.com/nvandessel/virusnet/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Visualize the contact network",
		Long: `Output the contact network in DOT (Graphviz) or JSON format, with each
node colored by its state after --steps steps.

Examples:
  virusnet graph --seed 7 | neato -Tsvg > network.svg
  virusnet graph --steps 10 --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			stepCount, _ := cmd.Flags().GetInt("steps")
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				format = string(visualization.FormatJSON)
			}
			if stepCount < 0 {
				return fmt.Errorf("steps must be non-negative, got %d", stepCount)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyModelFlags(cmd, cfg)

			ctx, cancel := signalContext(context.Background())
			defer cancel()

			model, g, err := simulation.FromConfig(ctx, cfg, newLogger(cmd, cfg))
			if err != nil {
				return err
			}
			if err := model.Run(ctx, stepCount); err != nil {
				return err
			}
			states := model.Population().States()

			switch visualization.Format(format) {
			case visualization.FormatDOT:
				dot, err := visualization.RenderDOT(g, states)
				if err != nil {
					return fmt.Errorf("render DOT: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), dot)

			case visualization.FormatJSON:
				result, err := visualization.RenderJSON(g, states)
				if err != nil {
					return fmt.Errorf("render JSON: %w", err)
				}
				result["seed"] = model.Seed()
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return fmt.Errorf("encode JSON: %w", err)
				}

			default:
				return fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
			}

			return nil
		},
	}

	addModelFlags(cmd)
	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().Int("steps", 0, "Steps to run before rendering node states")

	return cmd
}
