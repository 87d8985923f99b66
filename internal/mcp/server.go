// Package mcp provides an MCP (Model Context Protocol) server for virusnet.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/virusnet/internal/config"
	"github.com/nvandessel/virusnet/internal/logging"
	"github.com/nvandessel/virusnet/internal/ratelimit"
	"github.com/nvandessel/virusnet/internal/store"
)

// Server wraps the MCP SDK server and exposes the simulation as tools.
type Server struct {
	server       *sdk.Server
	store        store.RunStore
	defaults     *config.VirusnetConfig
	toolLimiters ratelimit.ToolLimiters
	auditLogger  *AuditLogger
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "virusnet")
	Version string // Server version

	// Store archives runs requested with save. Nil disables archiving and
	// the virusnet_runs tool reports an error.
	Store store.RunStore

	// Defaults fill every tool argument the client leaves unset. Nil means
	// config.Default().
	Defaults *config.VirusnetConfig

	// AuditDir receives audit.jsonl. Empty disables auditing.
	AuditDir string

	Logger *slog.Logger
}

// NewServer creates a new MCP server with virusnet tools. The server owns
// cfg.Store and closes it on Close.
func NewServer(cfg *Config) (*Server, error) {
	defaults := cfg.Defaults
	if defaults == nil {
		defaults = config.Default()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var audit *AuditLogger
	if cfg.AuditDir != "" {
		var err error
		audit, err = NewAuditLogger(cfg.AuditDir)
		if err != nil {
			return nil, err
		}
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{
		InitializedHandler: func(ctx context.Context, req *sdk.InitializedRequest) {
			logger.Debug("mcp client initialized")
		},
	})

	s := &Server{
		server:       mcpServer,
		store:        cfg.Store,
		defaults:     defaults,
		toolLimiters: ratelimit.NewToolLimiters(),
		auditLogger:  audit,
		logger:       logger,
	}

	if err := s.registerTools(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	if err := s.registerResources(); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to register resources: %w", err)
	}

	return s, nil
}

// Run starts the MCP server over stdio transport.
// This blocks until the client disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	notifySignals(sigChan)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.logger.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close closes the run store and the audit log.
func (s *Server) Close() error {
	auditErr := s.auditLogger.Close()
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			return err
		}
	}
	return auditErr
}
