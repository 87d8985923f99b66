package main

import (
	"github.com/nvandessel/virusnet/internal/config"
	"github.com/spf13/cobra"
)

// addModelFlags registers the model and network overrides shared by run
// and graph. Unset flags leave the loaded configuration alone.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().Int("num-nodes", 0, "Population size for generated networks")
	cmd.Flags().Float64("avg-degree", 0, "Expected degree of the random network")
	cmd.Flags().Int("outbreak", 0, "Initial outbreak size")
	cmd.Flags().Float64("spread", 0, "Virus spread chance (0.0-1.0)")
	cmd.Flags().Float64("check", 0, "Virus check frequency (0.0-1.0)")
	cmd.Flags().Float64("recovery", 0, "Recovery chance (0.0-1.0)")
	cmd.Flags().Float64("resistance", 0, "Gain resistance chance (0.0-1.0)")
	cmd.Flags().String("network", "", "Network kind: random, ring, or gexf")
	cmd.Flags().String("gexf", "", "GEXF file to load (implies --network gexf)")
	cmd.Flags().Int64("seed", 0, "RNG seed (default: time-based)")
}

// applyModelFlags copies every changed model flag onto cfg.
func applyModelFlags(cmd *cobra.Command, cfg *config.VirusnetConfig) {
	flags := cmd.Flags()

	if flags.Changed("num-nodes") {
		cfg.Model.NumNodes, _ = flags.GetInt("num-nodes")
	}
	if flags.Changed("avg-degree") {
		cfg.Model.AvgNodeDegree, _ = flags.GetFloat64("avg-degree")
	}
	if flags.Changed("outbreak") {
		cfg.Model.InitialOutbreakSize, _ = flags.GetInt("outbreak")
	}
	if flags.Changed("spread") {
		cfg.Model.SpreadChance, _ = flags.GetFloat64("spread")
	}
	if flags.Changed("check") {
		cfg.Model.CheckFrequency, _ = flags.GetFloat64("check")
	}
	if flags.Changed("recovery") {
		cfg.Model.RecoveryChance, _ = flags.GetFloat64("recovery")
	}
	if flags.Changed("resistance") {
		cfg.Model.GainResistanceChance, _ = flags.GetFloat64("resistance")
	}
	if flags.Changed("network") {
		cfg.Network.Kind, _ = flags.GetString("network")
	}
	if flags.Changed("gexf") {
		cfg.Network.Kind = config.NetworkGEXF
		cfg.Network.Path, _ = flags.GetString("gexf")
	}
	if flags.Changed("seed") {
		seed, _ := flags.GetInt64("seed")
		cfg.Model.Seed = &seed
	}
}
