package mcp

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"tocgen/pkg/config"
	"tocgen/pkg/log"
)

const (
	serverName    = "tocgen"
	serverVersion = "1.0.0"
)

// ServerConfig holds configuration for the MCP server
type ServerConfig struct {
	AppConfig  *config.AppConfig // validated
	ConfigPath string
	Transport  string // "stdio" or "sse"
	SSEAddress string
	Logger     *logrus.Logger
}

// Server wraps the MCP server with tocgen specific functionality
type Server struct {
	mcpServer  *server.MCPServer
	cfg        *ServerConfig
	log        *logrus.Entry
	jobManager *JobManager

	sse          *server.SSEServer // non-nil for the sse transport
	shutdownOnce sync.Once
}

// NewServer creates a new MCP server instance
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("AppConfig is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.SSEAddress == "" {
		cfg.SSEAddress = cfg.AppConfig.Server.SSEAddress
	}

	// Create the MCP server
	mcpServer := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithLogging(),
	)

	s := &Server{
		mcpServer:  mcpServer,
		cfg:        cfg,
		log:        log.Component(cfg.Logger, "mcp"),
		jobManager: NewJobManager(),
	}
	if cfg.Transport == "sse" {
		s.sse = server.NewSSEServer(mcpServer)
	}

	// Register all tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	// generate_toc - Generate a table of contents for a document
	generateTocTool := mcp.NewTool("generate_toc",
		mcp.WithDescription("Generate a table of contents for a markdown or HTML document"),
		mcp.WithString("document",
			mcp.Description("Document text to process (mutually exclusive with file_path)"),
		),
		mcp.WithString("file_path",
			mcp.Description("Path of a file to process (mutually exclusive with document)"),
		),
		mcp.WithString("input_format",
			mcp.Description("Input format: markdown or html (default: inferred from the file extension)"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: markdown or html (default: markdown)"),
		),
		mcp.WithNumber("indent_width",
			mcp.Description("Spaces per nesting level (default: 4)"),
		),
		mcp.WithBoolean("custom_anchors",
			mcp.Description("Honor trailing {#anchor} markers in markdown headings"),
		),
		mcp.WithString("title",
			mcp.Description("Title above the listing; an empty string suppresses it"),
		),
	)
	s.mcpServer.AddTool(generateTocTool, s.handleGenerateToc)

	// list_headings - Report the headings a document would contribute
	listHeadingsTool := mcp.NewTool("list_headings",
		mcp.WithDescription("List the headings of a document with their depths and anchors"),
		mcp.WithString("document",
			mcp.Description("Document text to process (mutually exclusive with file_path)"),
		),
		mcp.WithString("file_path",
			mcp.Description("Path of a file to process (mutually exclusive with document)"),
		),
		mcp.WithString("input_format",
			mcp.Description("Input format: markdown or html (default: inferred from the file extension)"),
		),
		mcp.WithBoolean("custom_anchors",
			mcp.Description("Honor trailing {#anchor} markers in markdown headings"),
		),
	)
	s.mcpServer.AddTool(listHeadingsTool, s.handleListHeadings)

	// list_formats - Enumerate supported formats
	listFormatsTool := mcp.NewTool("list_formats",
		mcp.WithDescription("List the supported document formats and their file extensions"),
	)
	s.mcpServer.AddTool(listFormatsTool, s.handleListFormats)

	// watch_start - Start a background watch job
	watchStartTool := mcp.NewTool("watch_start",
		mcp.WithDescription("Watch files and regenerate their tables of contents on change. Returns immediately with a job ID."),
		mcp.WithString("files",
			mcp.Required(),
			mcp.Description("Comma-separated list of files to watch"),
		),
		mcp.WithString("input_format",
			mcp.Description("Input format applied to every file (default: inferred per file)"),
		),
		mcp.WithString("output_format",
			mcp.Description("Output format: markdown or html (default: markdown)"),
		),
		mcp.WithNumber("indent_width",
			mcp.Description("Spaces per nesting level (default: 4)"),
		),
		mcp.WithBoolean("custom_anchors",
			mcp.Description("Honor trailing {#anchor} markers in markdown headings"),
		),
		mcp.WithString("title",
			mcp.Description("Title above the listing; an empty string suppresses it"),
		),
	)
	s.mcpServer.AddTool(watchStartTool, s.handleWatchStart)

	// watch_status - Check status of a watch job
	watchStatusTool := mcp.NewTool("watch_status",
		mcp.WithDescription("Get the status of a watch job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by watch_start"),
		),
	)
	s.mcpServer.AddTool(watchStatusTool, s.handleWatchStatus)

	// watch_stop - Stop a watch job
	watchStopTool := mcp.NewTool("watch_stop",
		mcp.WithDescription("Stop a running watch job"),
		mcp.WithString("job_id",
			mcp.Required(),
			mcp.Description("The job ID returned by watch_start"),
		),
	)
	s.mcpServer.AddTool(watchStopTool, s.handleWatchStop)

	s.log.Infof("Registered %d MCP tools", 6)
}

// Run starts the MCP server with the configured transport
func (s *Server) Run() error {
	if s.cfg.ConfigPath != "" {
		s.log.Infof("Using config file %s", s.cfg.ConfigPath)
	}
	switch s.cfg.Transport {
	case "stdio":
		s.log.Info("Starting MCP server with stdio transport")
		return server.ServeStdio(s.mcpServer)
	case "sse":
		s.log.Infof("Starting MCP server with SSE transport on %s", s.cfg.SSEAddress)
		return s.sse.Start(s.cfg.SSEAddress)
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio, sse)", s.cfg.Transport)
	}
}

// Shutdown stops the watch jobs and, for the sse transport, the HTTP
// listener. Safe to call more than once; later calls are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.log.Info("Shutting down MCP server...")
		// Stop any running watch jobs
		s.jobManager.StopAll()
		if s.sse != nil {
			err = s.sse.Shutdown(ctx)
		}
	})
	return err
}
