package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/repoaudit/coordinator/internal/coordinator"
	"github.com/repoaudit/coordinator/internal/coordinator/config"
	"github.com/repoaudit/coordinator/internal/policy"
	"github.com/repoaudit/coordinator/internal/ratelimit"
	"github.com/repoaudit/coordinator/internal/registry"
	"github.com/repoaudit/coordinator/internal/retry"
	"github.com/repoaudit/coordinator/internal/trace"
)

const serverVersion = "0.1.0"

var (
	version    = flag.Bool("version", false, "Print version and exit")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	httpMode   = flag.Bool("http", false, "Enable HTTP/SSE transport instead of stdio")
	configPath = flag.String("config", "", "Path to the tools and policy config file")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("Repo Audit Coordinator v%s\n", serverVersion)
		os.Exit(0)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Read HTTP port from environment (for HTTP/SSE mode)
	httpPort := os.Getenv("HTTP_PORT")
	if httpPort == "" {
		httpPort = "8080"
	}

	logger.Info("Starting Repo Audit Coordinator",
		"version", serverVersion,
		"debug", *debug,
		"http_mode", *httpMode,
		"http_port", httpPort,
	)

	var cfgFile config.File
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config %s: %v", *configPath, err)
		}
		cfgFile = *loaded
	}

	// Initialize components in dependency order
	tracerCfg := config.DefaultTracerConfig()
	tracer := trace.NewRecorder(logger, tracerCfg.MaxPayloadBytes)
	accessPolicy := policy.NewAccessPolicy(cfgFile.Policy)
	limiter := ratelimit.New()

	registryCfg := config.DefaultRegistryConfig()
	reg := registry.New(
		registry.Config{
			CallTimeout:        registryCfg.CallTimeout,
			HealthCheckTimeout: registryCfg.HealthCheckTimeout,
			Retry:              retry.DefaultPolicy(),
		},
		accessPolicy,
		limiter,
		tracer,
		logger,
	)

	// Setup context for shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registerTools(ctx, reg, cfgFile.Tools, logger)

	notifier := coordinator.NewNotifier(logger)
	notifier.Subscribe(func(evt coordinator.Event) {
		logger.Debug("lifecycle event",
			"event", evt.Name,
			"session_id", evt.SessionID,
		)
	})

	pipeline := coordinator.NewPipeline(reg, tracer, notifier, logger, config.DefaultPipelineConfig())
	coord := coordinator.New(pipeline, tracer, notifier, logger)

	mcpServer := coordinator.NewMCPServer(coordinator.ServerConfig{
		Name:    "repoaudit-coordinator",
		Version: serverVersion,
	}, coord)

	logger.Info("MCP server initialized",
		"name", "repoaudit-coordinator",
		"version", serverVersion,
		"tools", len(cfgFile.Tools),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start MCP server in goroutine
	go func() {
		if *httpMode {
			if err := mcpServer.ServeHTTPWithLogger(":"+httpPort, logger); err != nil {
				logger.Error("MCP server error", "error", err)
				cancel()
			}
		} else {
			if err := mcpServer.ServeWithLogger(logger); err != nil {
				logger.Error("MCP server error", "error", err)
				cancel()
			}
		}
	}()

	// Start retention sweep goroutine
	go func() {
		ticker := time.NewTicker(config.DefaultSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				coord.SweepIdle(tracerCfg.MaxIdle)
			case <-ctx.Done():
				return
			}
		}
	}()

	// Wait for shutdown signal
	select {
	case <-sigChan:
		logger.Info("Received shutdown signal")
	case <-ctx.Done():
		logger.Info("Context canceled")
	}

	logger.Info("Shutting down gracefully")
	cancel()
	notifier.Close()
	logger.Info("Coordinator shutdown complete")
}

// registerTools installs the configured tool definitions and probes each
// tool's health address. A failing probe is logged but does not block
// registration.
func registerTools(ctx context.Context, reg *registry.Registry, tools []config.ToolConfig, logger *slog.Logger) {
	for _, tc := range tools {
		def := registry.Definition{
			ID:             tc.ID,
			Endpoint:       tc.Endpoint,
			Capabilities:   tc.Capabilities,
			HealthCheckURL: tc.HealthCheckURL,
		}
		if tc.Auth != nil {
			def.Auth = &registry.AuthConfig{
				Kind:   tc.Auth.Kind,
				Header: tc.Auth.Header,
				Token:  tc.Auth.Token,
			}
		}
		if tc.RateLimit != nil {
			window := time.Duration(tc.RateLimit.WindowSeconds) * time.Second
			if window <= 0 {
				window = config.DefaultRateWindow
			}
			def.RateLimit = registry.RateLimitConfig{
				RequestsPerWindow: tc.RateLimit.RequestsPerWindow,
				Window:            window,
				MaxConcurrent:     int64(tc.RateLimit.MaxConcurrent),
			}
		}
		if err := reg.Register(def); err != nil {
			log.Fatalf("Failed to register tool %s: %v", tc.ID, err)
		}
		if err := reg.CheckHealth(ctx, tc.ID); err != nil {
			logger.Warn("tool health check failed", "tool_id", tc.ID, "error", err)
		}
	}
}
