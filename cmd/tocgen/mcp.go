package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tocgen/pkg/log"
	"tocgen/pkg/mcp"
)

// runMcpServer handles the mcp-server subcommand
func runMcpServer(args []string) {
	fs := flag.NewFlagSet("mcp-server", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to YAML config file (optional)")
	sse := fs.Bool("sse", false, "Serve over SSE instead of stdio")
	addr := fs.String("addr", "", "SSE listen address (default from config, \":8811\")")
	logLevel := fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: tocgen mcp-server [options]

Start an MCP (Model Context Protocol) server for AI tool integration.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Start with stdio transport (for desktop MCP clients)
  tocgen mcp-server

  # Start with SSE transport on :8811
  tocgen mcp-server -sse -addr :8811

Available MCP Tools:
  generate_toc   Generate a table of contents for a document
  list_headings  List a document's heading outline
  list_formats   List supported document formats
  watch_start    Watch files and regenerate their tables of contents
  watch_status   Inspect a watch job
  watch_stop     Stop a watch job
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	transport := "stdio"
	if *sse {
		transport = "sse"
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	os.Exit(doMcpServer(*configFile, transport, *addr, *logLevel, sigChan, os.Stderr))
}

// doMcpServer is the testable implementation of the MCP server. A
// signal on sigChan shuts the server down. Returns exit code
// (0 = success, 1 = error).
func doMcpServer(configPath, transport, addr, logLevel string, sigChan <-chan os.Signal, stderr io.Writer) int {
	cfg, warnings, err := resolveConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	// MCP protocol uses stdout, logs go to stderr
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := log.New(logLevel, stderr)
	for _, w := range warnings {
		logger.Warn(w)
	}

	serverCfg := &mcp.ServerConfig{
		AppConfig:  cfg,
		ConfigPath: configPath,
		Transport:  transport,
		SSEAddress: addr,
		Logger:     logger,
	}

	server, err := mcp.NewServer(serverCfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error creating MCP server: %v\n", err)
		return 1
	}

	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal %v, shutting down...", sig)
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Warnf("Shutdown: %v", err)
		}
	}()

	logger.Infof("Starting MCP server (transport: %s)", transport)

	// Shutdown closes the SSE listener and the stdio loop stops on a
	// cancelled context; neither is a server failure.
	if err := server.Run(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "MCP server error: %v\n", err)
		return 1
	}

	// Stdio clients stop the server by closing stdin; stop any watch
	// jobs that are still running.
	if err := server.Shutdown(context.Background()); err != nil {
		logger.Warnf("Shutdown: %v", err)
	}

	return 0
}
