package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/invoicegen/invoicegen/internal/config"
	"github.com/invoicegen/invoicegen/internal/domain/auth"
	ierr "github.com/invoicegen/invoicegen/internal/errors"
	"github.com/invoicegen/invoicegen/internal/logger"
	"github.com/invoicegen/invoicegen/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubProvider struct {
	claims *auth.Claims
	err    error
}

func (p *stubProvider) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	return p.claims, p.err
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestIDMiddleware, ErrorHandler(logger.NewNoopLogger()))
	r.GET("/", handlers...)
	return r
}

func serve(r *gin.Engine, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ierr.ErrorResponse {
	var resp ierr.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name: "outer hint wins",
			err: ierr.WithError(ierr.NewError("row missing").WithHint("Record not found").Mark(ierr.ErrNotFound)).
				WithHint("Invoice not found").
				Mark(ierr.ErrNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: "Invoice not found",
		},
		{
			name:        "render failure",
			err:         ierr.NewError("chrome exited").WithHint("Error generating PDF").Mark(ierr.ErrRender),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: "Error generating PDF",
		},
		{
			name:        "no hint",
			err:         ierr.NewError("boom").Mark(ierr.ErrSystem),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: defaultErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(func(c *gin.Context) {
				_ = c.Error(tt.err)
			})

			w := serve(r, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantMessage, resp.Message)
		})
	}
}

func TestErrorHandlerKeepsWrittenResponse(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(ierr.NewError("logged only").Mark(ierr.ErrSystem))
		c.String(http.StatusAccepted, "done")
	})

	w := serve(r, nil)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "done", w.Body.String())
}

func TestNewErrorResponseDetails(t *testing.T) {
	err := ierr.NewError("bad price").
		WithHint("Price must not be negative").
		WithReportableDetails(map[string]interface{}{"index": 1}).
		Mark(ierr.ErrValidation)

	resp := NewErrorResponse(err)

	assert.Equal(t, "Price must not be negative", resp.Message)
	require.NotNil(t, resp.Details)
	assert.EqualValues(t, 1, resp.Details["index"])
}

func TestAuthenticateMiddleware(t *testing.T) {
	var seenUser string
	ok := func(c *gin.Context) {
		seenUser = types.GetUserID(c.Request.Context())
		c.Status(http.StatusNoContent)
	}

	t.Run("missing header", func(t *testing.T) {
		r := newEngine(AuthenticateMiddleware(&stubProvider{}, logger.NewNoopLogger()), ok)
		w := serve(r, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Not authorized, no token", decodeError(t, w).Message)
	})

	t.Run("not a bearer token", func(t *testing.T) {
		r := newEngine(AuthenticateMiddleware(&stubProvider{}, logger.NewNoopLogger()), ok)
		w := serve(r, http.Header{types.HeaderAuthorization: {"Basic abc"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		provider := &stubProvider{err: ierr.NewError("expired").
			WithHint("Not authorized, token failed").
			Mark(ierr.ErrUnauthorized)}
		r := newEngine(AuthenticateMiddleware(provider, logger.NewNoopLogger()), ok)
		w := serve(r, http.Header{types.HeaderAuthorization: {"Bearer abc"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Not authorized, token failed", decodeError(t, w).Message)
	})

	t.Run("valid token", func(t *testing.T) {
		provider := &stubProvider{claims: &auth.Claims{UserID: "user_1"}}
		r := newEngine(AuthenticateMiddleware(provider, logger.NewNoopLogger()), ok)
		w := serve(r, http.Header{types.HeaderAuthorization: {"Bearer abc"}})
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "user_1", seenUser)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(0.001, 1)
	r := newEngine(limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, nil).Code)

	w := serve(r, nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, ierr.CodeFromErr(ierr.ErrTooManyRequests), decodeError(t, w).Code)
}

func TestRateLimiterDisabled(t *testing.T) {
	limiter := NewRateLimiter(0, 0)
	r := newEngine(limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(r, nil).Code)
	}
}

func TestRateLimiterEvictsIdleCallers(t *testing.T) {
	limiter := newRateLimiter(1, 1, 20*time.Millisecond)
	r := newEngine(limiter.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for i := 0; i < 500; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = fmt.Sprintf("10.0.%d.%d:4000", i/250, i%250)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusNoContent, w.Code)
	}
	assert.Equal(t, 500, limiter.limiters.ItemCount())

	time.Sleep(50 * time.Millisecond)
	limiter.limiters.DeleteExpired()
	assert.Zero(t, limiter.limiters.ItemCount())
}

func TestRateLimiterKeepsActiveCallers(t *testing.T) {
	limiter := newRateLimiter(1, 1, 100*time.Millisecond)
	first := limiter.get("user_1")

	for i := 0; i < 4; i++ {
		time.Sleep(40 * time.Millisecond)
		assert.Same(t, first, limiter.get("user_1"))
	}
}

func TestRefillTime(t *testing.T) {
	assert.Equal(t, minIdleTTL, refillTime(0, 1))
	assert.Equal(t, minIdleTTL, refillTime(10, 20))
	assert.InDelta(t, float64(1000*time.Second), float64(refillTime(0.001, 1)), float64(time.Millisecond))
}

func TestCORSPreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware)
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), types.HeaderDisposition)
}

func TestSentryMiddlewareDisabled(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Sentry.Enabled = false

	r := newEngine(SentryMiddleware(cfg), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusOK, serve(r, nil).Code)
}
