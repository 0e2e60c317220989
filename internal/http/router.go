// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, compression, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/healthybites/go-food-backend/internal/config"
	"github.com/healthybites/go-food-backend/internal/flight"
	"github.com/healthybites/go-food-backend/internal/http/handlers"
	"github.com/healthybites/go-food-backend/internal/http/middleware"
	"github.com/healthybites/go-food-backend/internal/ocr"
	"github.com/healthybites/go-food-backend/internal/openfoodfacts"
	"github.com/healthybites/go-food-backend/internal/search"
	"github.com/healthybites/go-food-backend/internal/services"
	"github.com/healthybites/go-food-backend/internal/watsonx"
)

// Directory is the remote food database surface the HTTP layer depends on.
// *openfoodfacts.Client satisfies it; tests swap in fakes.
type Directory interface {
	Search(ctx context.Context, term string, pageSize int) ([]openfoodfacts.Product, error)
	Lookup(ctx context.Context, barcode string) (*openfoodfacts.Detail, error)
}

// Deps carries the external clients the HTTP layer is wired to. Everything is
// injected so tests can swap in fakes.
type Deps struct {
	DB        *gorm.DB
	Directory Directory
	Generator watsonx.Generator
	Extractor ocr.Extractor
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), rate limiting,
// CORS and security headers, health and metrics endpoints, and then mounts
// the versioned public API under the configured base path.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. CORS and security headers
//  9. Gzip compression
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (8 MiB; label photos come through here)
	r.Use(limitBody(8 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// 9) Compress JSON responses; analysis reports are text-heavy.
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← clients/db/engine
	prodSvc := &services.ProductService{
		DB:           deps.DB,
		Engine:       search.NewEngine(deps.Directory),
		Directory:    deps.Directory,
		Flight:       flight.NewGroup[openfoodfacts.Detail](cfg.Flight.Capacity, cfg.Flight.TTL),
		CacheEnabled: cfg.CacheEnabled,
	}
	anlSvc := &services.AnalysisService{
		DB:           deps.DB,
		Generator:    deps.Generator,
		Extractor:    deps.Extractor,
		Products:     prodSvc,
		CacheEnabled: cfg.CacheEnabled,
	}
	h := handlers.New(prodSvc, anlSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Products
		api.GET("/search", h.SearchProducts)
		api.GET("/product/:code", h.GetProduct)
		api.GET("/barcode/:code", h.GetBarcode)

		// Analysis
		api.POST("/analyze", h.AnalyzeIngredients)
		api.POST("/analyze/product/:code", h.AnalyzeProduct)
		api.POST("/ocr", h.AnalyzeImage)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
