package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirecast-server/internal/app"
	"github.com/vovakirdan/wirecast-server/internal/config"
)

var serveOverrides config.Config

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		cfg.UpdateFrom(serveOverrides)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}

		logger.Info().Str("addr", cfg.Addr).Msg("starting wirecast server")
		if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("server exited with error")
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	f := serveCmd.Flags()
	f.StringVar(&serveOverrides.Addr, "addr", "", "HTTP listen address (overrides config)")
	f.StringVar(&serveOverrides.DatabasePath, "db", "", "sqlite database path (overrides config)")
	f.DurationVar(&serveOverrides.ShutdownTimeout, "shutdown-timeout", 0, "graceful shutdown timeout (overrides config)")
	f.DurationVar(&serveOverrides.RoomIdleTimeout, "room-idle-timeout", 0, "idle room worker lifetime (overrides config)")
	f.Float64Var(&serveOverrides.RateLimit, "rate-limit", 0, "inbound events per second per connection (overrides config)")
	f.StringVar(&serveOverrides.Redis.Addr, "redis-addr", "", "Redis address for the presence mirror (overrides config)")
}
