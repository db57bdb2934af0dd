package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openalpha/nos-rewards/api"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rewards-api",
		Short: "HTTP and WebSocket gateway for the reward ledger",
		Long: `Runs the reward ledger in-process and serves it over HTTP and WebSocket.

Configuration is read from --config (any format viper understands) and
REWARDS_API_* environment variables, e.g. REWARDS_API_AUTHORITY,
REWARDS_API_PORT, REWARDS_API_RATE_LIMIT_IP_BURST.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := api.LoadConfig(configPath)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "Path to the gateway config file")
	return cmd
}

func run(ctx context.Context, cfg *api.Config) error {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	logger := log.NewLogger(os.Stdout, log.LevelOption(level))

	server, err := api.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("Endpoints",
		"websocket", fmt.Sprintf("ws://%s:%d/ws", cfg.Host, cfg.Port),
		"health", fmt.Sprintf("http://%s:%d/health", cfg.Host, cfg.Port),
	)

	// Wait for interrupt signal
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		return err
	}

	logger.Info("Server exited")
	return nil
}
