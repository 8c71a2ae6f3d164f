package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type fakePinger struct {
	fail  atomic.Bool
	calls atomic.Int32
}

func (p *fakePinger) PingContext(ctx context.Context) error {
	p.calls.Add(1)
	if p.fail.Load() {
		return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
	}
	return ctx.Err()
}

func servingStatus(t *testing.T, srv *health.Server) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := srv.Check(context.Background(), &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	return resp.Status
}

func TestCheckerFlipsStatus(t *testing.T) {
	db := &fakePinger{}
	srv := health.NewServer()
	c := NewChecker(db, srv, time.Minute, logger.NewNop())

	assert.True(t, c.Check(context.Background()))
	assert.True(t, c.Healthy())
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, servingStatus(t, srv))

	db.fail.Store(true)
	assert.False(t, c.Check(context.Background()))
	assert.False(t, c.Healthy())
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, srv))
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := &fakePinger{}
	c := NewChecker(db, nil, time.Minute, logger.NewNop())

	r := gin.New()
	r.GET("/health", c.Handler())

	healthStatus := func() int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusServiceUnavailable, healthStatus(), "unhealthy until the first check")
	c.Check(context.Background())
	assert.Equal(t, http.StatusOK, healthStatus())
}

func TestRunStopsWithContext(t *testing.T) {
	db := &fakePinger{}
	srv := health.NewServer()
	c := NewChecker(db, srv, 5*time.Millisecond, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return db.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, servingStatus(t, srv))
}
