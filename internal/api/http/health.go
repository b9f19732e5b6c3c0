package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Upstream  string    `json:"upstream"`
	Redis     string    `json:"redis,omitempty"`
}

// Pinger reports whether a dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	serviceName string
	version     string
	upstream    Pinger
	redis       *redis.Client
}

// NewHealthHandler reports on the upstream API and, when configured, Redis.
// A nil redis client reports "disabled".
func NewHealthHandler(serviceName, version string, upstream Pinger, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		upstream:    upstream,
		redis:       rdb,
	}
}

func probe(ctx context.Context, ping func(context.Context) error) string {
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()
	if err := ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	upstream := "disabled"
	if h.upstream != nil {
		upstream = probe(c.Request.Context(), h.upstream.Ping)
	}
	redisStatus := "disabled"
	if h.redis != nil {
		redisStatus = probe(c.Request.Context(), func(ctx context.Context) error {
			return h.redis.Ping(ctx).Err()
		})
	}

	// The front end still serves pages while the API is down, so it stays
	// healthy and reports the dependency instead.
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Upstream:  upstream,
		Redis:     redisStatus,
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
