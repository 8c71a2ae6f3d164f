// Package health tracks whether the service can reach its database and
// reports it over gRPC health and HTTP.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Checker struct {
	db       Pinger
	server   *health.Server
	interval time.Duration
	timeout  time.Duration
	logger   logger.ZapLogger
	healthy  atomic.Bool
}

func NewChecker(db Pinger, server *health.Server, interval time.Duration, log logger.ZapLogger) *Checker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Checker{
		db:       db,
		server:   server,
		interval: interval,
		timeout:  3 * time.Second,
		logger:   log,
	}
}

// Check pings the database once and publishes the result.
func (c *Checker) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.db.PingContext(pingCtx)
	ok := err == nil
	if c.healthy.Swap(ok) != ok || !ok {
		if ok {
			c.logger.Info("Database reachable")
		} else {
			c.logger.Warn("Database ping failed", zap.Error(err))
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	if c.server != nil {
		c.server.SetServingStatus("", status)
	}
	return ok
}

// Run checks immediately and then on every interval until ctx is done.
func (c *Checker) Run(ctx context.Context) error {
	c.Check(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if c.server != nil {
				c.server.Shutdown()
			}
			return nil
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

func (c *Checker) Healthy() bool {
	return c.healthy.Load()
}

// Handler reports the last check result.
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !c.Healthy() {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
