package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func securityRouter(opt SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(opt))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	r := securityRouter(SecurityOptions{})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff")
	}
	if h.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("missing frame options")
	}
	if h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("missing referrer policy")
	}
	if !strings.Contains(h.Get("Access-Control-Expose-Headers"), "X-Request-ID") {
		t.Fatalf("request ID not exposed: %q", h.Get("Access-Control-Expose-Headers"))
	}
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be set over plain HTTP")
	}
}

func TestSecurityHeaders_PolicyAndNoStore(t *testing.T) {
	r := securityRouter(SecurityOptions{EnablePolicy: true, NoStore: true})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	h := w.Header()
	if h.Get("Permissions-Policy") == "" {
		t.Fatalf("missing permissions policy")
	}
	if h.Get("Cache-Control") != "no-store" {
		t.Fatalf("missing no-store")
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	r := securityRouter(SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	r.ServeHTTP(w, req)

	got := w.Header().Get("Strict-Transport-Security")
	if !strings.Contains(got, "max-age=86400") {
		t.Fatalf("HSTS header = %q", got)
	}
}
