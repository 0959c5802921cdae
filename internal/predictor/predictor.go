package predictor

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"property-price-api/internal/artifact"
	"property-price-api/internal/config"
	"property-price-api/internal/features"
)

// Currency of every predicted price
const Currency = "PLN"

// Confidence is a coarse label for how far a prediction sits from the prices
// seen during training. It is a heuristic, not a statistical interval.
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// Result is the outcome of one inference
type Result struct {
	PredictedPrice float64
	Currency       string
	Confidence     Confidence
}

// InferenceError means the model could not score a well-formed vector.
// It points at an artifact problem rather than bad input.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("inference failed: %v", e.Err) }
func (e *InferenceError) Unwrap() error { return e.Err }

// Policy buckets a price against the training range [Min, Max]:
// outside -> Low, within EdgeFraction*(Max-Min) of either end -> Medium,
// otherwise High.
type Policy struct {
	Min          float64
	Max          float64
	EdgeFraction float64
}

// NewPolicy resolves the price range from config overrides or model metadata
func NewPolicy(cfg config.ConfidenceConfig, meta artifact.Metadata) (Policy, error) {
	p := Policy{Min: meta.PriceMin, Max: meta.PriceMax, EdgeFraction: cfg.EdgeFraction}
	if cfg.MaxPrice != 0 {
		p.Min, p.Max = cfg.MinPrice, cfg.MaxPrice
	}
	if p.Max <= p.Min {
		return Policy{}, fmt.Errorf("no usable training price range (min %g, max %g)", p.Min, p.Max)
	}
	if p.EdgeFraction < 0 || p.EdgeFraction >= 0.5 {
		return Policy{}, fmt.Errorf("edge fraction %g outside [0, 0.5)", p.EdgeFraction)
	}
	return p, nil
}

// Label returns the confidence bucket of price
func (p Policy) Label(price float64) Confidence {
	if price < p.Min || price > p.Max {
		return ConfidenceLow
	}
	band := p.EdgeFraction * (p.Max - p.Min)
	if price < p.Min+band || price > p.Max-band {
		return ConfidenceMedium
	}
	return ConfidenceHigh
}

// Predictor runs the model and labels the estimate. It holds no mutable state.
type Predictor struct {
	model  artifact.Regressor
	policy Policy
}

func New(model artifact.Regressor, policy Policy) *Predictor {
	return &Predictor{model: model, policy: policy}
}

// Predict scores vec with the predictor's model
func (p *Predictor) Predict(vec features.Vector) (Result, error) {
	return Predict(vec, p.model, p.policy)
}

// Predict is a pure function of (vec, model, policy). No retries: a failure is
// reported immediately.
func Predict(vec features.Vector, model artifact.Regressor, policy Policy) (Result, error) {
	raw, err := model.Predict(vec)
	if err != nil {
		return Result{}, &InferenceError{Err: err}
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return Result{}, &InferenceError{Err: fmt.Errorf("model returned non-finite value %v", raw)}
	}

	// the label describes the price the caller sees, not the unrounded output
	price, _ := decimal.NewFromFloat(raw).Round(2).Float64()
	if price <= 0 {
		return Result{}, &InferenceError{Err: fmt.Errorf("model returned non-positive price %v", raw)}
	}
	return Result{
		PredictedPrice: price,
		Currency:       Currency,
		Confidence:     policy.Label(price),
	}, nil
}
