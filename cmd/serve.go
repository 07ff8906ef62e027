package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DanyoungYoo/my-chatbot/api"
	"github.com/DanyoungYoo/my-chatbot/internal/log"
)

var (
	serveAddr string
	noWarmup  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chatbot HTTP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Server address (host:port), overrides config")
	serveCmd.Flags().BoolVar(&noWarmup, "no-warmup", false, "Skip corpus embedding at startup")
	rootCmd.AddCommand(serveCmd)
}

// runServe initializes and starts the HTTP API server.
func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	addr := cfg.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if err := validateAddr(addr); err != nil {
		return fmt.Errorf("invalid address %q: %w", addr, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{Level: cfg.SlogLevel(), JSON: cfg.LogJSON})
	logger.Info("starting HTTP API server", "version", AppVersion)

	engine, err := newEngine(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	// Embed the corpus before accepting traffic so the first chat request
	// doesn't pay the initialization cost. Failures are logged, not fatal:
	// the engine retries on the next request.
	if !noWarmup {
		if err := engine.Warmup(ctx); err != nil {
			logger.Warn("corpus warmup failed, will retry on first request", "error", err)
		}
	}

	server, err := api.NewServer(api.ServerConfig{
		Engine:    engine,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	return server.Run(ctx, addr)
}
