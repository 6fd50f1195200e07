package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirecast-server/internal/auth"
	"github.com/vovakirdan/wirecast-server/internal/config"
	"github.com/vovakirdan/wirecast-server/internal/core"
	"github.com/vovakirdan/wirecast-server/internal/metrics"
	"github.com/vovakirdan/wirecast-server/internal/presence"
	"github.com/vovakirdan/wirecast-server/internal/store"
	"github.com/vovakirdan/wirecast-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirecast-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	presence        *presence.Redis
	log             *zerolog.Logger
}

// JWTConfig derives token settings from the server configuration.
func JWTConfig(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []core.Option{
		core.WithLogger(logger),
		core.WithMetrics(metrics.New(reg)),
		core.WithRoomIdleTimeout(cfg.RoomIdleTimeout),
	}

	var mirror *presence.Redis
	if cfg.Redis.Addr != "" {
		mirror, err = presence.NewRedis(cfg.Redis, uuid.NewString())
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("init presence: %w", err)
		}
		opts = append(opts, core.WithPresence(mirror))
		logger.Info().Str("redis_addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("presence mirror enabled")
	}

	authenticator := auth.NewAuthenticator(JWTConfig(cfg), logger)
	hub := core.NewHub(core.NewRegistry(), st, opts...)

	gin.SetMode(gin.ReleaseMode)
	server := transporthttp.NewServer(hub, authenticator, st, reg, *cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		presence:        mirror,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(gCtx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.presence != nil {
		if err := a.presence.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close presence mirror")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
