// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - At-most-once semantics on every unsafe method under the API base path
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/cache"
	"github.com/tbourn/go-blog-backend/internal/config"
	"github.com/tbourn/go-blog-backend/internal/http/handlers"
	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/idempotency"
	"github.com/tbourn/go-blog-backend/internal/services"
)

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured access logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. CORS, gzip (reads only) and security headers
//
// Inside the API group:
//  8. Optional authentication (resolves the caller for personalization,
//     idempotency bucketing and rate-limit keying)
//  9. Idempotency guard on every unsafe method (before the rate limiter so
//     replays bypass it)
//  10. Token-bucket rate limiter per user/IP
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb redis.UniversalClient, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logging
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) CORS posture (safe defaults: allow all when none configured)
	allowHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization",
		middleware.HeaderIdempotencyKey,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Compress read responses only. Mutating responses pass through
	// uncompressed so the guard captures (and replays) the exact bytes the
	// client received.
	r.Use(gzipReads())

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/readiness: verify both backing stores.
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		dbOK, redisOK := true, true

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbOK, status = false, http.StatusServiceUnavailable
		}
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			redisOK, status = false, http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{"status": healthWord(status), "db": dbOK, "redis": redisOK})
	})

	// Dependency injection: stores ← redis, services ← db/cache
	viewCache := cache.New(rdb)
	idemStore := idempotency.NewStore(rdb, cfg.Idempotency.TTL)

	artSvc := &services.ArticleService{
		DB:         db,
		Cache:      viewCache,
		ArticleTTL: cfg.Cache.ArticleTTL,
		HotTTL:     cfg.Cache.HotTTL,
	}
	reactSvc := &services.ReactionService{DB: db, Cache: viewCache}
	catSvc := &services.CategoryService{DB: db, Locale: language.English}
	statsSvc := &services.StatsService{DB: db}
	userSvc := &services.UserService{DB: db}
	h := handlers.New(artSvc, reactSvc, catSvc, statsSvc, userSvc)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)

	// 8) Resolve the caller when a bearer token is present; individual routes
	// enforce authentication via requireUser/RequireRole.
	api.Use(middleware.OptionalAuthenticate(db, cfg.JWTSecret))

	// 9) Idempotency guard on every unsafe method under the API
	api.Use(guardUnsafe(middleware.Guard(idemStore, middleware.GuardOptions{
		ReleaseOn4xx: cfg.Idempotency.ReleaseOn4xx,
	})))

	// 10) Token-bucket rate limiter per user/IP (replays bypass)
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	api.Use(rl.Handler())

	{
		// Articles
		api.GET("/articles", h.ListArticles)
		api.GET("/articles/hot", h.HotArticles)
		api.GET("/articles/:id", h.GetArticle)
		api.POST("/articles", requireUser(), h.CreateArticle)
		api.PUT("/articles/:id", requireUser(), h.UpdateArticle)
		api.DELETE("/articles/:id", requireUser(), h.DeleteArticle)

		// Engagement
		api.POST("/articles/:id/like", requireUser(), h.LikeArticle)
		api.POST("/articles/:id/unlike", requireUser(), h.UnlikeArticle)
		api.POST("/articles/:id/vote", requireUser(), h.VoteArticle)

		// Categories
		api.GET("/categories", h.ListCategories)
		api.POST("/categories", requireUser(), middleware.RequireRole("admin"), h.CreateCategory)

		// Stats
		api.GET("/stats/overview", requireUser(), middleware.RequireRole("admin"), h.StatsOverview)
		api.GET("/stats/pages", requireUser(), middleware.RequireRole("admin"), h.TopPages)
		api.POST("/stats/browsing", h.RecordBrowsing) // guest reports allowed

		// Users
		api.GET("/users", requireUser(), middleware.RequireRole("admin"), h.ListUsers)
		api.GET("/users/current", requireUser(), h.CurrentUser)
		api.GET("/users/:id", requireUser(), h.GetUser)
		api.PUT("/users/:id", requireUser(), h.UpdateUser)
		api.DELETE("/users/:id", requireUser(), middleware.RequireRole("admin"), h.DeleteUser)
	}
}

// guardUnsafe applies the idempotency guard to unsafe methods only; reads
// pass through untouched.
func guardUnsafe(guard gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			guard(c)
		}
	}
}

// requireUser rejects requests whose caller was not resolved by the optional
// authentication middleware.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := middleware.UserID(c); !ok {
			handlers.Fail(c, http.StatusUnauthorized, handlers.ErrCodeUnauthorized,
				"missing or invalid credentials")
			return
		}
		c.Next()
	}
}

// gzipReads compresses GET responses only.
func gzipReads() gin.HandlerFunc {
	gz := gzip.Gzip(gzip.DefaultCompression)
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			gz(c)
			return
		}
		c.Next()
	}
}

func healthWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader; oversized bodies error on read downstream.
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
