package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirecast-server/internal/config"
	"github.com/vovakirdan/wirecast-server/internal/core"
	"github.com/vovakirdan/wirecast-server/internal/proto"
	"github.com/vovakirdan/wirecast-server/internal/store"
)

// NewServer builds the HTTP server: health, metrics, stream API and the /ws endpoint.
// A nil gatherer disables /metrics.
func NewServer(hub *core.Hub, resolver IdentityResolver, st store.StreamStore, gatherer prometheus.Gatherer, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	streams := NewStreamHandlers(st, hub.Registry(), logger)
	api := router.Group("/api/streams")
	{
		api.GET("/:id", streams.GetStream)
		api.GET("/:id/viewers", streams.Viewers)
		api.GET("/:id/messages", streams.Messages)
		api.POST("", AuthMiddleware(resolver, logger), streams.CreateStream)
	}

	// The upgrade needs the raw ResponseWriter for Hijack, so /ws stays off gin.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, resolver, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// HealthResponse reports liveness and the WebSocket protocol version.
type HealthResponse struct {
	Status          string `json:"status"`
	ProtocolVersion int    `json:"protocol_version"`
}

func healthHandler(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, HealthResponse{Status: "ok", ProtocolVersion: proto.ProtocolVersion})
}
