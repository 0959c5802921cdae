package handlers

import (
	"property-price-api/internal/dataset"
	"property-price-api/internal/models"
	"property-price-api/internal/schema"
)

// ErrorResponse is the body of every 4xx/5xx reply
type ErrorResponse struct {
	Error   string              `json:"error"`
	Field   string              `json:"field,omitempty"`
	Value   any                 `json:"value,omitempty"`
	Details []schema.FieldError `json:"details,omitempty"`
}

// PredictionResponse is the body of a successful POST /predict
type PredictionResponse struct {
	PredictedPrice float64                   `json:"predicted_price"`
	Currency       string                    `json:"currency"`
	Confidence     string                    `json:"confidence"`
	InputFeatures  models.PropertyAttributes `json:"input_features"`
	LocalStats     *LocalStats               `json:"local_stats,omitempty"`
}

// LocalStats summarises reference records in the requested city/county
type LocalStats struct {
	Location Location `json:"location"`
	dataset.Stats
}

type Location struct {
	City   string `json:"city,omitempty"`
	County string `json:"county,omitempty"`
}

// FilterParams echoes the filters a /filter/stats request applied
type FilterParams struct {
	Voivodeship string `json:"voivodeship,omitempty"`
	City        string `json:"city,omitempty"`
	County      string `json:"county,omitempty"`
}

type FilterStatsResponse struct {
	FiltersApplied FilterParams `json:"filters_applied"`
	dataset.Stats
}

type SearchResponse struct {
	Query string                  `json:"query"`
	Hits  []models.PropertyRecord `json:"hits"`
}
