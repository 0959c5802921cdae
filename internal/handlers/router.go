package handlers

import (
	"log/slog"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"property-price-api/internal/config"
	"property-price-api/internal/logging"
)

// NewRouter wires middleware and routes for h
func NewRouter(cfg config.ServerConfig, logCfg config.LoggingConfig, logger *slog.Logger, h *Handler) *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, using peer address", slog.String("error", err.Error()))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(logging.Middleware(logger, logCfg.LogRequests))
	r.Use(Recovery())
	r.Use(h.metrics.Middleware())

	// CORS configuration
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", logging.TraceHeader},
		ExposeHeaders: []string{logging.TraceHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSOrigins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	// Routes
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/info", h.Info)

	predict := []gin.HandlerFunc{h.Predict}
	if h.limiter != nil {
		predict = append([]gin.HandlerFunc{h.limiter.Middleware()}, predict...)
	}
	r.POST("/predict", predict...)

	r.GET("/filter", h.Filter)
	r.GET("/filter/stats", h.FilterStats)
	r.GET("/ratelimit/stats", h.RateLimitStats)

	if h.search != nil {
		r.GET("/search", h.Search)
	}
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}

	return r
}
