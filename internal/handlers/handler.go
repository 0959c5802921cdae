package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"property-price-api/internal/artifact"
	"property-price-api/internal/dataset"
	"property-price-api/internal/features"
	"property-price-api/internal/logging"
	"property-price-api/internal/metrics"
	"property-price-api/internal/models"
	"property-price-api/internal/predictor"
	"property-price-api/internal/ratelimit"
	"property-price-api/internal/schema"
	"property-price-api/internal/search"
)

const (
	ServiceName = "Property Price Prediction API"
	Version     = "1.0.0"

	maxBodyBytes = 1 << 20
)

// Searcher runs free-text queries against the search index
type Searcher interface {
	Search(query string, limit int64, q dataset.Query) ([]models.PropertyRecord, error)
}

// Deps are the components a Handler serves. Everything is built at startup
// and read-only afterwards. Search, Limiter and Metrics may be nil.
type Deps struct {
	Bundle    *artifact.Bundle
	Encoder   *features.Encoder
	Predictor *predictor.Predictor
	Dataset   *dataset.Dataset
	Search    Searcher
	Limiter   *ratelimit.RateLimiter
	Metrics   *metrics.Metrics
}

// Handler serves the HTTP API. It holds no per-request state.
type Handler struct {
	bundle    *artifact.Bundle
	encoder   *features.Encoder
	predictor *predictor.Predictor
	dataset   *dataset.Dataset
	search    Searcher
	limiter   *ratelimit.RateLimiter
	metrics   *metrics.Metrics
	startedAt time.Time
}

func NewHandler(d Deps) *Handler {
	ds := d.Dataset
	if ds == nil {
		ds = dataset.New(nil)
	}
	return &Handler{
		bundle:    d.Bundle,
		encoder:   d.Encoder,
		predictor: d.Predictor,
		dataset:   ds,
		search:    d.Search,
		limiter:   d.Limiter,
		metrics:   d.Metrics,
		startedAt: time.Now(),
	}
}

func (h *Handler) ready() error {
	if err := h.bundle.Ready(); err != nil {
		return err
	}
	if h.encoder == nil || h.predictor == nil {
		return errors.New("predictor not initialised")
	}
	return nil
}

// Root lists the service endpoints
func (h *Handler) Root(c *gin.Context) {
	endpoints := gin.H{
		"predict":      "/predict - POST request to predict property price",
		"info":         "/info - GET model information",
		"health":       "/health - Health check",
		"filter":       "/filter - GET reference properties by voivodeship, city, county",
		"filter_stats": "/filter/stats - GET statistics for the filtered properties",
		"metrics":      "/metrics - Prometheus metrics",
	}
	if h.search != nil {
		endpoints["search"] = "/search - GET free-text search over reference properties"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":   "Welcome to " + ServiceName,
		"version":   Version,
		"endpoints": endpoints,
	})
}

// Health reports 200 only while the artifacts are loaded and consistent
func (h *Handler) Health(c *gin.Context) {
	if err := h.ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"timestamp":      time.Now().UTC(),
		"run_id":         h.bundle.RunID(),
		"loaded_at":      h.bundle.LoadedAt().UTC(),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"records":        h.dataset.Len(),
	})
}

// Info returns the model metadata
func (h *Handler) Info(c *gin.Context) {
	if err := h.ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "model not loaded"})
		return
	}
	c.JSON(http.StatusOK, h.bundle.Info())
}

// Predict validates the body, encodes it and returns the estimated price
func (h *Handler) Predict(c *gin.Context) {
	if err := h.ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "model not loaded"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return
		}
		h.writePredictError(c, err)
		return
	}

	attrs, err := schema.ValidatePredictRequest(body)
	if err != nil {
		h.writePredictError(c, err)
		return
	}

	vec, err := h.encoder.Encode(attrs)
	if err != nil {
		h.writePredictError(c, err)
		return
	}

	result, err := h.predictor.Predict(vec)
	if err != nil {
		h.writePredictError(c, err)
		return
	}

	h.metrics.ObservePrediction(string(result.Confidence))
	logging.FromContext(c).Debug("prediction",
		slog.Float64("predicted_price", result.PredictedPrice),
		slog.String("confidence", string(result.Confidence)),
		slog.String("voivodeship", attrs.Voivodeship),
	)

	c.JSON(http.StatusOK, PredictionResponse{
		PredictedPrice: result.PredictedPrice,
		Currency:       result.Currency,
		Confidence:     string(result.Confidence),
		InputFeatures:  attrs,
		LocalStats:     h.localStats(attrs),
	})
}

// localStats summarises the reference records for the request's city/county.
// It returns nil when neither is given or nothing matches.
func (h *Handler) localStats(a models.PropertyAttributes) *LocalStats {
	q := dataset.Query{City: a.City, County: a.County}
	if q.IsEmpty() {
		return nil
	}
	stats := dataset.Summarize(h.dataset.Filter(q))
	if stats.Count == 0 {
		return nil
	}
	return &LocalStats{
		Location: Location{City: a.City, County: a.County},
		Stats:    stats,
	}
}

func queryFromRequest(c *gin.Context) dataset.Query {
	county := c.Query("county")
	if county == "" {
		county = c.Query("district")
	}
	return dataset.Query{
		Voivodeship: c.Query("voivodeship"),
		City:        c.Query("city"),
		County:      county,
	}
}

// Filter returns the reference records matching the region parameters.
// No match is an empty array, not an error.
func (h *Handler) Filter(c *gin.Context) {
	records := make([]models.PropertyRecord, 0)
	for r := range h.dataset.Filter(queryFromRequest(c)) {
		records = append(records, r)
	}
	c.JSON(http.StatusOK, records)
}

// FilterStats returns aggregate statistics for the filtered records
func (h *Handler) FilterStats(c *gin.Context) {
	q := queryFromRequest(c)
	c.JSON(http.StatusOK, FilterStatsResponse{
		FiltersApplied: FilterParams{Voivodeship: q.Voivodeship, City: q.City, County: q.County},
		Stats:          dataset.Summarize(h.dataset.Filter(q)),
	})
}

// Search proxies a free-text query to the search index
func (h *Handler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "search is not enabled"})
		return
	}

	limit := int64(search.DefaultLimit)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a positive integer", Field: "limit", Value: v})
			return
		}
		limit = n
	}

	query := c.Query("q")
	hits, err := h.search.Search(query, limit, queryFromRequest(c))
	if errors.Is(err, search.ErrCircuitOpen) {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "search temporarily unavailable"})
		return
	}
	if err != nil {
		logging.FromContext(c).Error("search failed", slog.String("error", err.Error()))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "search backend unavailable"})
		return
	}
	if hits == nil {
		hits = []models.PropertyRecord{}
	}
	c.JSON(http.StatusOK, SearchResponse{Query: query, Hits: hits})
}

// RateLimitStats returns the caller's rate limit usage
func (h *Handler) RateLimitStats(c *gin.Context) {
	if h.limiter == nil {
		c.JSON(http.StatusOK, ratelimit.Stats{})
		return
	}
	c.JSON(http.StatusOK, h.limiter.GetStats(c.ClientIP()))
}
