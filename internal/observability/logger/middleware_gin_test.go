package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	obscontext "github.com/smallbiznis/billora/internal/observability/context"
)

func newMiddlewareTestRouter(cfg MiddlewareConfig) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(cfg))
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = obscontext.RequestIDFromGin(c)
		c.Status(http.StatusNoContent)
	})
	return r, &seen
}

func TestGinMiddlewareAssignsRequestID(t *testing.T) {
	r, seen := newMiddlewareTestRouter(MiddlewareConfig{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	got := w.Header().Get("X-Request-Id")
	if got == "" {
		t.Fatalf("expected X-Request-Id header to be set")
	}
	if *seen != got {
		t.Fatalf("handler saw request id %q, response header %q", *seen, got)
	}
}

func TestGinMiddlewarePropagatesIncomingRequestID(t *testing.T) {
	r, seen := newMiddlewareTestRouter(MiddlewareConfig{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-Id", "upstream-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-Id"); got != "upstream-7" {
		t.Fatalf("expected upstream id echoed, got %q", got)
	}
	if *seen != "upstream-7" {
		t.Fatalf("handler saw %q", *seen)
	}
}
