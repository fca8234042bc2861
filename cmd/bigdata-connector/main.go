// Package main provides the entry point for the bigdata-connector server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpserver "github.com/sqltools/bigdata-connector/internal/server"
	"github.com/sqltools/bigdata-connector/pkg/config"
	"github.com/sqltools/bigdata-connector/pkg/explorer"
	"github.com/sqltools/bigdata-connector/pkg/langserver"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type serverOptions struct {
	configPath  string
	transport   string
	address     string
	showVersion bool
}

func parseFlags() serverOptions {
	opts := serverOptions{}
	flag.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.transport, "transport", "", "Transport type: stdio, sse (overrides config)")
	flag.StringVar(&opts.address, "address", "", "Server address for SSE transport (overrides config)")
	flag.BoolVar(&opts.showVersion, "version", false, "Show version and exit")
	flag.Parse()
	return opts
}

func setupSignalHandler() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx
}

func run() error {
	opts := parseFlags()

	if opts.showVersion {
		fmt.Printf("bigdata-connector version %s\n", mcpserver.Version)
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx := setupSignalHandler()

	mcpServer, provider, err := mcpserver.New(cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer closeProvider(provider)

	launcher, err := startLanguageServer(ctx, cfg)
	if err != nil {
		return err
	}
	if launcher != nil {
		defer func() { _ = launcher.Stop() }()
	}

	return startServer(mcpServer, cfg)
}

func loadConfig(opts serverOptions) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}
	if opts.transport != "" {
		cfg.Server.Transport = opts.transport
	}
	if opts.address != "" {
		cfg.Server.Address = opts.address
	}
	return cfg, cfg.Validate()
}

func closeProvider(provider *explorer.Provider) {
	if provider != nil {
		_ = provider.Close()
	}
}

// startLanguageServer launches the catalog language server when one is
// configured. Returns nil when not configured.
func startLanguageServer(ctx context.Context, cfg *config.Config) (*langserver.Launcher, error) {
	if cfg.LanguageServer.Path == "" {
		return nil, nil //nolint:nilnil // optional collaborator, absent by configuration
	}

	launcher := &langserver.Launcher{
		Path: cfg.LanguageServer.Path,
		Args: cfg.LanguageServer.Args,
		Env:  cfg.LanguageServer.Env,
	}
	if err := launcher.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting language server: %w", err)
	}
	return launcher, nil
}

func startServer(mcpServer *server.MCPServer, cfg *config.Config) error {
	switch cfg.Server.Transport {
	case "stdio":
		return server.ServeStdio(mcpServer)
	case "sse":
		sseServer := server.NewSSEServer(mcpServer, server.WithBaseURL(cfg.Server.Address))
		return sseServer.Start(cfg.Server.Address)
	default:
		return fmt.Errorf("unknown transport: %s", cfg.Server.Transport)
	}
}
