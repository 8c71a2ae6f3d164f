package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	return r
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(HeaderRequestID)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "req-42")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(HeaderRequestID))
}

func TestCallerPopulatesContext(t *testing.T) {
	r := newEngine(Caller())
	var got auth.UserContext
	r.GET("/", func(c *gin.Context) {
		got = auth.FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderMerchantID, "m1")
	req.Header.Set(HeaderUserID, "u9")
	req.Header.Set(HeaderUserRole, "cashier")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, auth.UserContext{MerchantID: "m1", UserID: "u9", Role: "cashier"}, got)
}

func TestRecoveryReturns500(t *testing.T) {
	r := newEngine(RequestID(), Recovery(logger.NewNop()), RequestLogger(logger.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("nil map write") })

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() { r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil)) })
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestRateLimiterPerMerchant(t *testing.T) {
	rl := NewRateLimiter(0.001, 2)
	r := newEngine(rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func(merchant string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if merchant != "" {
			req.Header.Set(HeaderMerchantID, merchant)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("m1"))
	assert.Equal(t, http.StatusOK, hit("m1"))
	assert.Equal(t, http.StatusTooManyRequests, hit("m1"))

	assert.Equal(t, http.StatusOK, hit("m2"), "buckets are per merchant")

	assert.Equal(t, http.StatusOK, hit(""))
	assert.Equal(t, http.StatusOK, hit(""))
	assert.Equal(t, http.StatusTooManyRequests, hit(""), "anonymous callers share the client IP bucket")
}
