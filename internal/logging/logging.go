package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"

	"property-price-api/internal/config"
)

// TraceHeader carries the per-request trace id in and out of the service
const TraceHeader = "X-Trace-ID"

const loggerKey = "logger"

// New builds the process logger from config and installs it as the slog default
func New(cfg config.LoggingConfig) *slog.Logger {
	logger := NewWithWriter(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

// NewWithWriter builds a logger writing to w
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	case "color", "colour":
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
		})
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string level to slog.Level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Middleware assigns a trace id to every request and, when logRequests is set,
// logs one line per finished request.
func Middleware(logger *slog.Logger, logRequests bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.New().String()
		}
		c.Header(TraceHeader, traceID)

		reqLogger := logger.With(slog.String("trace_id", traceID))
		c.Set(loggerKey, reqLogger)

		start := time.Now()
		c.Next()

		if !logRequests {
			return
		}
		reqLogger.Info("request finished",
			slog.String("http_method", c.Request.Method),
			slog.String("http_path", c.Request.URL.Path),
			slog.Int("status_code", c.Writer.Status()),
			slog.Int("bytes_written", c.Writer.Size()),
			slog.Int64("duration_ms", time.Since(start).Milliseconds()),
		)
	}
}

// FromContext returns the request-scoped logger, or the default logger outside a request
func FromContext(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
