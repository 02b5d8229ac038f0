// Package server exposes the locator service over MCP and a REST API.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/locator-cli/internal/env/target"
	"github.com/mj1618/locator-cli/internal/service"
	"github.com/mj1618/locator-cli/internal/version"
)

// OpenFunc opens the environment a resolve or capture call points at.
type OpenFunc func(ctx context.Context, t target.Target) (*target.Opened, error)

// Server serves one Service.
type Server struct {
	svc  *service.Service
	open OpenFunc
	mcp  *mcpserver.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithOpener replaces the environment opener.
func WithOpener(open OpenFunc) Option {
	return func(s *Server) { s.open = open }
}

// Config holds MCP transport settings.
type Config struct {
	Transport string
	Port      int
}

// New creates a server with every tool registered.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{svc: svc}
	s.open = func(ctx context.Context, t target.Target) (*target.Opened, error) {
		return target.Open(ctx, svc.Config, t)
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcp = mcpserver.NewMCPServer("locator-cli", version.Version)
	s.registerTools()
	return s
}

// MCP returns the underlying MCP server.
func (s *Server) MCP() *mcpserver.MCPServer { return s.mcp }

// Serve starts the MCP server with the configured transport.
func (s *Server) Serve(cfg Config) error {
	switch cfg.Transport {
	case "stdio", "":
		return mcpserver.ServeStdio(s.mcp)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		return httpServer.Start(fmt.Sprintf(":%d", cfg.Port))
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func withTarget(opts ...mcp.ToolOption) []mcp.ToolOption {
	return append(opts,
		mcp.WithString("snapshot", mcp.Description("Inline snapshot document (YAML or JSON)")),
		mcp.WithString("snapshot-file", mcp.Description("Path to a snapshot document")),
		mcp.WithString("url", mcp.Description("Web page to open in a browser")),
		mcp.WithString("control-url", mcp.Description("DevTools URL of a running browser")),
		mcp.WithString("tree", mcp.Description("Path to a dumped desktop accessibility tree")),
		mcp.WithString("app", mcp.Description("Desktop application name")),
		mcp.WithString("window", mcp.Description("Desktop window title substring")),
	)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("extract",
			mcp.WithDescription("Build a ranked locator chain from captured element attributes without storing it"),
			mcp.WithString("attributes", mcp.Description("Captured attributes as YAML or JSON (tag, id, name, classes, text, placeholder, aria_label, test_id, role, type, ancestry)"), mcp.Required()),
		),
		s.handleExtract,
	)

	s.mcp.AddTool(
		mcp.NewTool("capture", withTarget(
			mcp.WithDescription("Capture an element into the object repository. Pass attributes directly, or a locator plus an environment to read them from."),
			mcp.WithString("attributes", mcp.Description("Captured attributes as YAML or JSON")),
			mcp.WithString("locator", mcp.Description("Locator of the element to capture, e.g. 'id=save' or 'text@button=Save'")),
			mcp.WithString("name", mcp.Description("Object name (default: derived from tag and label)")),
			mcp.WithString("platform", mcp.Description("web, desktop or mobile (default: from the environment)")),
		)...),
		s.handleCapture,
	)

	s.mcp.AddTool(
		mcp.NewTool("list_objects",
			mcp.WithDescription("List stored UI objects"),
			mcp.WithString("platform", mcp.Description("Filter by platform")),
			mcp.WithString("tag", mcp.Description("Filter by tag")),
		),
		s.handleListObjects,
	)

	s.mcp.AddTool(
		mcp.NewTool("get_object",
			mcp.WithDescription("Show one stored UI object with its locator chain and usage"),
			mcp.WithString("id", mcp.Description("Object ID"), mcp.Required()),
		),
		s.handleGetObject,
	)

	s.mcp.AddTool(
		mcp.NewTool("delete_object",
			mcp.WithDescription("Remove a stored UI object"),
			mcp.WithString("id", mcp.Description("Object ID"), mcp.Required()),
		),
		s.handleDeleteObject,
	)

	s.mcp.AddTool(
		mcp.NewTool("resolve", withTarget(
			mcp.WithDescription("Find stored objects in an environment, healing broken locators when possible"),
			mcp.WithString("id", mcp.Description("Object ID, or a comma separated list of IDs"), mcp.Required()),
			mcp.WithBoolean("heal", mcp.Description("Allow self-healing (default: true)")),
		)...),
		s.handleResolve,
	)

	s.mcp.AddTool(
		mcp.NewTool("healing_stats",
			mcp.WithDescription("Count healing events by strategy"),
		),
		s.handleHealingStats,
	)

	s.mcp.AddTool(
		mcp.NewTool("suggest_updates",
			mcp.WithDescription("List locator updates suggested by repeated healing"),
			mcp.WithNumber("min-frequency", mcp.Description("Minimum healing occurrences (default: configured threshold)")),
		),
		s.handleSuggestUpdates,
	)

	s.mcp.AddTool(
		mcp.NewTool("apply_suggestion",
			mcp.WithDescription("Promote the most frequent suggested locator of an object to its primary"),
			mcp.WithString("id", mcp.Description("Object ID"), mcp.Required()),
			mcp.WithNumber("min-frequency", mcp.Description("Minimum healing occurrences (default: configured threshold)")),
		),
		s.handleApplySuggestion,
	)

	s.mcp.AddTool(
		mcp.NewTool("export_log",
			mcp.WithDescription("Export the healing event log"),
			mcp.WithString("format", mcp.Description("json, jsonl or yaml (default: json)")),
		),
		s.handleExportLog,
	)
}
