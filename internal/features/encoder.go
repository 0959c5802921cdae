package features

import (
	"errors"
	"fmt"
	"math"
	"time"

	"property-price-api/internal/config"
	"property-price-api/internal/models"
)

// Vector is the model input: one value per training feature, in training order
type Vector []float64

// UnknownCategoryError is returned when a categorical value was not seen
// during training.
type UnknownCategoryError struct {
	Feature string
	Field   string
	Value   string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

// OutOfRangeError is returned for numeric attributes outside the configured range
type OutOfRangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64 // 0 when unbounded
}

func (e *OutOfRangeError) Error() string {
	if e.Max > 0 {
		return fmt.Sprintf("%s %g out of range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
	}
	return fmt.Sprintf("%s %g below minimum %g", e.Field, e.Value, e.Min)
}

// ErrInvalidFeatureOrder is wrapped by every feature list / encoder mismatch
var ErrInvalidFeatureOrder = errors.New("invalid feature order")

// Ranges bounds the numeric attributes. A zero max means unbounded above.
type Ranges struct {
	MinArea  float64
	MaxArea  float64
	MinRooms int
	MaxRooms int
	MinYear  int
	MaxYear  int
}

// RangesFromConfig resolves configured bounds against the current date
func RangesFromConfig(v config.ValidationConfig, now time.Time) Ranges {
	return Ranges{
		MinArea:  v.MinArea,
		MaxArea:  v.MaxArea,
		MinRooms: v.MinRooms,
		MaxRooms: v.MaxRooms,
		MinYear:  v.MinYear,
		MaxYear:  v.EffectiveMaxYear(now),
	}
}

// Check validates numeric attributes. Area and rooms must be positive
// regardless of the configured minimums.
func (r Ranges) Check(a models.PropertyAttributes) error {
	if a.Area <= 0 || math.IsNaN(a.Area) || math.IsInf(a.Area, 0) || a.Area < r.MinArea || (r.MaxArea > 0 && a.Area > r.MaxArea) {
		return &OutOfRangeError{Field: "area", Value: a.Area, Min: math.Max(r.MinArea, 0), Max: r.MaxArea}
	}
	if a.Rooms <= 0 || a.Rooms < r.MinRooms || (r.MaxRooms > 0 && a.Rooms > r.MaxRooms) {
		return &OutOfRangeError{Field: "rooms", Value: float64(a.Rooms), Min: float64(max(r.MinRooms, 1)), Max: float64(r.MaxRooms)}
	}
	if a.YearConstructed < r.MinYear || (r.MaxYear > 0 && a.YearConstructed > r.MaxYear) {
		return &OutOfRangeError{Field: "year_constructed", Value: float64(a.YearConstructed), Min: float64(r.MinYear), Max: float64(r.MaxYear)}
	}
	return nil
}

// Validate checks at startup that every feature in order can be produced
// and that the encoder set agrees with it.
func Validate(order []string, encoders EncoderSet) error {
	if len(order) == 0 {
		return fmt.Errorf("%w: empty feature list", ErrInvalidFeatureOrder)
	}
	seen := make(map[string]bool, len(order))
	for _, name := range order {
		if seen[name] {
			return fmt.Errorf("%w: duplicate feature %q", ErrInvalidFeatureOrder, name)
		}
		seen[name] = true

		col, ok := columns[name]
		if !ok {
			return fmt.Errorf("%w: unknown feature %q", ErrInvalidFeatureOrder, name)
		}
		switch {
		case col.kind == Categorical && !encoders.Has(name):
			return fmt.Errorf("%w: categorical feature %q has no encoder", ErrInvalidFeatureOrder, name)
		case col.kind == Numeric && encoders.Has(name):
			return fmt.Errorf("%w: numeric feature %q has an encoder", ErrInvalidFeatureOrder, name)
		}
	}
	for _, name := range encoders.Features() {
		if !seen[name] {
			return fmt.Errorf("%w: encoder %q is not in the feature list", ErrInvalidFeatureOrder, name)
		}
	}
	return nil
}

// Encode converts attributes into the vector the model expects. Position i of
// the result always corresponds to order[i]. Unknown labels are reported,
// never replaced by a default code.
func Encode(a models.PropertyAttributes, encoders EncoderSet, order []string, ranges Ranges) (Vector, error) {
	if err := ranges.Check(a); err != nil {
		return nil, err
	}

	vec := make(Vector, len(order))
	for i, name := range order {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown feature %q", ErrInvalidFeatureOrder, name)
		}
		if col.kind == Numeric {
			vec[i] = col.numeric(a)
			continue
		}
		label := col.label(a)
		code, ok := encoders.Code(name, label)
		if !ok {
			return nil, &UnknownCategoryError{Feature: name, Field: col.field, Value: label}
		}
		vec[i] = float64(code)
	}
	return vec, nil
}

// Encoder bundles the startup-validated encoder set, order and ranges
type Encoder struct {
	encoders EncoderSet
	order    []string
	ranges   Ranges
}

// NewEncoder validates order against encoders and returns a ready Encoder
func NewEncoder(encoders EncoderSet, order []string, ranges Ranges) (*Encoder, error) {
	if err := Validate(order, encoders); err != nil {
		return nil, err
	}
	return &Encoder{
		encoders: encoders,
		order:    append([]string(nil), order...),
		ranges:   ranges,
	}, nil
}

// Encode encodes a with the bundled configuration
func (e *Encoder) Encode(a models.PropertyAttributes) (Vector, error) {
	return Encode(a, e.encoders, e.order, e.ranges)
}

// Width returns the vector length this encoder produces
func (e *Encoder) Width() int {
	return len(e.order)
}
