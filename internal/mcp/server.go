// Package mcp exposes the policy-gated tools over the Model Context
// Protocol stdio transport, so an agent orchestrator can preview, apply,
// and roll back system changes through typed tool calls.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/EricBintner/Halbert-sub002/internal/tool"
)

// Server wraps the MCP SDK server around the tool dispatcher.
type Server struct {
	mcpServer  *mcpsdk.Server
	dispatcher *tool.Dispatcher
	logger     *slog.Logger
}

// New creates the MCP server and registers the halbert tools.
func New(dispatcher *tool.Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		dispatcher: dispatcher,
		logger:     logger,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "halbert",
			Version: "0.1.0",
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// registerTools adds the halbert tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "halbert_write_config",
		Description: "Merge structured changes into a config file (YAML/JSON/INI). Dry-run returns a unified diff without touching the file; apply snapshots a .bak backup first. Denied requests return an error with the reason.",
	}, s.handleWriteConfig)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "halbert_schedule_cron",
		Description: "Install or update one labeled crontab entry (header comment + schedule line). Idempotent: re-applying an identical entry is a no-op.",
	}, s.handleScheduleCron)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "halbert_rollback",
		Description: "Restore a config file from its .bak snapshot, byte-exact. Fails if no backup exists.",
	}, s.handleRollback)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "halbert_check",
		Description: "Check whether a tool invocation would be allowed by policy without executing it.",
	}, s.handleCheck)
}
