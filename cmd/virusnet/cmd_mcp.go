package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Run the MCP server over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout so agent clients
can run simulations (virusnet_run), render networks (virusnet_graph) and
browse archived runs (virusnet_runs).

The loaded configuration supplies every argument a client leaves unset.
Tool calls are appended to ~/.virusnet/audit/audit.jsonl.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noAudit, _ := cmd.Flags().GetBool("no-audit")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := newLogger(cmd, cfg)

			rs, err := openRunStore(cfg)
			if err != nil {
				return err
			}

			auditDir := ""
			if !noAudit {
				home, err := config.HomeDir()
				if err != nil {
					rs.Close()
					return err
				}
				auditDir = filepath.Join(home, "audit")
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:     "virusnet",
				Version:  version,
				Store:    rs,
				Defaults: cfg,
				AuditDir: auditDir,
				Logger:   logger,
			})
			if err != nil {
				rs.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			return server.Run(context.Background())
		},
	}

	cmd.Flags().Bool("no-audit", false, "Do not write the tool audit log")
	return cmd
}
