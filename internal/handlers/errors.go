package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"property-price-api/internal/features"
	"property-price-api/internal/logging"
	"property-price-api/internal/metrics"
	"property-price-api/internal/predictor"
	"property-price-api/internal/schema"
)

const (
	msgPredictionFailed = "prediction failed"
	msgInternal         = "internal server error"
)

// writePredictError maps a /predict failure onto its status code and body.
// Server-side failures get an opaque message; the detail goes to the log only.
func (h *Handler) writePredictError(c *gin.Context, err error) {
	logger := logging.FromContext(c)

	var (
		schemaErr   *schema.ValidationError
		categoryErr *features.UnknownCategoryError
		rangeErr    *features.OutOfRangeError
		inferErr    *predictor.InferenceError
	)
	switch {
	case errors.As(err, &schemaErr):
		h.metrics.ObservePredictionError(metrics.KindSchema)
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "request validation failed",
			Details: schemaErr.Details,
		})
	case errors.As(err, &categoryErr):
		h.metrics.ObservePredictionError(metrics.KindSemantic)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Field: categoryErr.Field,
			Value: categoryErr.Value,
		})
	case errors.As(err, &rangeErr):
		h.metrics.ObservePredictionError(metrics.KindSemantic)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Field: rangeErr.Field,
			Value: rangeErr.Value,
		})
	case errors.As(err, &inferErr):
		h.metrics.ObservePredictionError(metrics.KindInference)
		logger.Error("inference failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgPredictionFailed})
	default:
		h.metrics.ObservePredictionError(metrics.KindUnexpected)
		logger.Error("unexpected prediction error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	}
}

// Recovery turns panics into an opaque 500 and logs the stack
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		logging.FromContext(c).Error("panic recovered",
			slog.Any("panic", rec),
			slog.String("stack", string(debug.Stack())),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: msgInternal})
	})
}
