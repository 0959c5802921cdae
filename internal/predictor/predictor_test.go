package predictor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-price-api/internal/artifact"
	"property-price-api/internal/config"
	"property-price-api/internal/features"
)

type fixedModel struct {
	value float64
	err   error
	width int
}

func (m fixedModel) Predict(x []float64) (float64, error) { return m.value, m.err }
func (m fixedModel) NumFeatures() int                     { return m.width }

func testPolicy() Policy {
	return Policy{Min: 100000, Max: 1100000, EdgeFraction: 0.1}
}

func TestPolicy_Label(t *testing.T) {
	p := testPolicy()

	tests := []struct {
		price float64
		want  Confidence
	}{
		{50000, ConfidenceLow},
		{99999.99, ConfidenceLow},
		{100000, ConfidenceMedium},
		{150000, ConfidenceMedium},
		{200000, ConfidenceHigh},
		{600000, ConfidenceHigh},
		{1000000, ConfidenceHigh},
		{1050000, ConfidenceMedium},
		{1100000, ConfidenceMedium},
		{1100000.01, ConfidenceLow},
		{5000000, ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Label(tt.price), "price %v", tt.price)
	}
}

func TestPolicy_MonotonicWithDistanceFromRange(t *testing.T) {
	p := testPolicy()

	for price := 0.0; price <= 2000000; price += 2500 {
		label := p.Label(price)
		inside := price >= p.Min && price <= p.Max
		if inside {
			assert.NotEqual(t, ConfidenceLow, label, "price %v inside range", price)
		} else {
			assert.NotEqual(t, ConfidenceHigh, label, "price %v outside range", price)
		}
	}

	// outputs that round onto the range bounds are labelled by the rounded price
	for _, raw := range []float64{99999.996, 1100000.004} {
		res, err := Predict(features.Vector{1}, fixedModel{value: raw, width: 1}, p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, res.PredictedPrice, p.Min)
		assert.LessOrEqual(t, res.PredictedPrice, p.Max)
		assert.Equal(t, ConfidenceMedium, res.Confidence, "raw %v", raw)
	}

	res, err := Predict(features.Vector{1}, fixedModel{value: 99999.994, width: 1}, p)
	require.NoError(t, err)
	assert.Equal(t, 99999.99, res.PredictedPrice)
	assert.Equal(t, ConfidenceLow, res.Confidence)
}

func TestPolicy_ZeroEdgeFraction(t *testing.T) {
	p := Policy{Min: 10, Max: 20}

	assert.Equal(t, ConfidenceHigh, p.Label(10))
	assert.Equal(t, ConfidenceHigh, p.Label(20))
	assert.Equal(t, ConfidenceLow, p.Label(21))
}

func TestNewPolicy(t *testing.T) {
	meta := artifact.Metadata{PriceMin: 150000, PriceMax: 2500000}

	p, err := NewPolicy(config.ConfidenceConfig{EdgeFraction: 0.1}, meta)
	require.NoError(t, err)
	assert.Equal(t, 150000.0, p.Min)
	assert.Equal(t, 2500000.0, p.Max)

	p, err = NewPolicy(config.ConfidenceConfig{EdgeFraction: 0.2, MinPrice: 1, MaxPrice: 2}, meta)
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.Min)
	assert.Equal(t, 2.0, p.Max)

	_, err = NewPolicy(config.ConfidenceConfig{EdgeFraction: 0.1}, artifact.Metadata{})
	require.Error(t, err)

	_, err = NewPolicy(config.ConfidenceConfig{EdgeFraction: 0.6}, meta)
	require.Error(t, err)
}

func TestPredict_RoundsAndLabels(t *testing.T) {
	res, err := Predict(features.Vector{1, 2}, fixedModel{value: 654321.987654, width: 2}, testPolicy())

	require.NoError(t, err)
	assert.Equal(t, 654321.99, res.PredictedPrice)
	assert.Equal(t, "PLN", res.Currency)
	assert.Equal(t, ConfidenceHigh, res.Confidence)
}

func TestPredict_IsPure(t *testing.T) {
	forest, err := artifact.NewForest([]artifact.Tree{{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{60, -2, -2},
		Value:         []float64{500000, 350000, 800000},
	}}, 1)
	require.NoError(t, err)
	p := New(forest, testPolicy())
	vec := features.Vector{75}

	first, err := p.Predict(vec)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := p.Predict(vec)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, features.Vector{75}, vec)
	assert.Equal(t, 800000.0, first.PredictedPrice)
}

func TestPredict_InferenceErrors(t *testing.T) {
	tests := []struct {
		name  string
		model fixedModel
	}{
		{"model error", fixedModel{err: artifact.ErrDimensionMismatch}},
		{"nan", fixedModel{value: math.NaN()}},
		{"inf", fixedModel{value: math.Inf(1)}},
		{"negative", fixedModel{value: -10}},
		{"zero", fixedModel{value: 0}},
		{"rounds to zero", fixedModel{value: 0.004}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Predict(features.Vector{1}, tt.model, testPolicy())

			var infErr *InferenceError
			require.ErrorAs(t, err, &infErr)
		})
	}
}

func TestPredict_DimensionMismatchIsInferenceError(t *testing.T) {
	lin, err := artifact.NewLinear([]float64{1, 1}, 0, 2)
	require.NoError(t, err)

	_, err = Predict(features.Vector{1, 2, 3}, lin, testPolicy())

	var infErr *InferenceError
	require.ErrorAs(t, err, &infErr)
	assert.True(t, errors.Is(err, artifact.ErrDimensionMismatch))
}
