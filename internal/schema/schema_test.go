package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validBody = `{
	"area": 120.5,
	"rooms": 4,
	"year_constructed": 2020,
	"heating": "gazowe",
	"building_material": "cegła",
	"building_type": "bliźniak",
	"market": "pierwotny",
	"voivodeship": "mazowieckie"
}`

func fields(t *testing.T, err error) []string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %T", err)
	out := make([]string, len(verr.Details))
	for i, d := range verr.Details {
		out[i] = d.Field
		assert.NotEmpty(t, d.Message)
	}
	return out
}

func TestValidatePredictRequest_Valid(t *testing.T) {
	attrs, err := ValidatePredictRequest([]byte(validBody))

	require.NoError(t, err)
	assert.Equal(t, 120.5, attrs.Area)
	assert.Equal(t, 4, attrs.Rooms)
	assert.Equal(t, 2020, attrs.YearConstructed)
	assert.Equal(t, "cegła", attrs.BuildingMaterial)
	assert.Equal(t, "mazowieckie", attrs.Voivodeship)
	assert.Empty(t, attrs.City)
}

func TestValidatePredictRequest_OptionalLocation(t *testing.T) {
	body := `{"area": 50, "rooms": 2, "year_constructed": 1999, "heating": "miejskie",
		"building_material": "cegła", "building_type": "blok", "market": "wtórny",
		"voivodeship": "pomorskie", "city": "Gdańsk", "county": "Oliwa", "extra": true}`

	attrs, err := ValidatePredictRequest([]byte(body))

	require.NoError(t, err)
	assert.Equal(t, "Gdańsk", attrs.City)
	assert.Equal(t, "Oliwa", attrs.County)
}

func TestValidatePredictRequest_DistrictAlias(t *testing.T) {
	base := `{"area": 50, "rooms": 2, "year_constructed": 1999, "heating": "miejskie",
		"building_material": "cegła", "building_type": "blok", "market": "wtórny",
		"voivodeship": "mazowieckie", "city": "Warszawa", `

	attrs, err := ValidatePredictRequest([]byte(base + `"district": "Wawer"}`))
	require.NoError(t, err)
	assert.Equal(t, "Wawer", attrs.County)

	attrs, err = ValidatePredictRequest([]byte(base + `"county": "Mokotów", "district": "Wawer"}`))
	require.NoError(t, err)
	assert.Equal(t, "Mokotów", attrs.County)

	_, err = ValidatePredictRequest([]byte(base + `"district": 3}`))
	assert.Equal(t, []string{"district"}, fields(t, err))
}

func TestValidatePredictRequest_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		fields []string
	}{
		{
			name:   "malformed json",
			body:   `{"area": `,
			fields: []string{"body"},
		},
		{
			name:   "empty body",
			body:   ``,
			fields: []string{"body"},
		},
		{
			name:   "trailing data",
			body:   validBody + ` {}`,
			fields: []string{"body"},
		},
		{
			name:   "not an object",
			body:   `[1, 2]`,
			fields: []string{"body"},
		},
		{
			name: "missing fields",
			body: `{"area": 50, "rooms": 2, "year_constructed": 1999, "heating": "miejskie",
				"building_material": "cegła", "building_type": "blok"}`,
			fields: []string{"market", "voivodeship"},
		},
		{
			name: "wrong types",
			body: `{"area": "big", "rooms": 2.5, "year_constructed": 1999, "heating": "miejskie",
				"building_material": "cegła", "building_type": "blok", "market": "wtórny",
				"voivodeship": null}`,
			fields: []string{"area", "rooms", "voivodeship"},
		},
		{
			name: "optional field with wrong type",
			body: `{"area": 50, "rooms": 2, "year_constructed": 1999, "heating": "miejskie",
				"building_material": "cegła", "building_type": "blok", "market": "wtórny",
				"voivodeship": "pomorskie", "city": 7}`,
			fields: []string{"city"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidatePredictRequest([]byte(tt.body))

			require.Error(t, err)
			assert.Equal(t, tt.fields, fields(t, err))
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Details: []FieldError{
		{Field: "area", Message: "expected number"},
		{Field: "rooms", Message: "field required"},
	}}

	assert.Equal(t, "request validation failed: area: expected number; rooms: field required", err.Error())
}

func TestJoinField(t *testing.T) {
	assert.Equal(t, "body", joinField("", ""))
	assert.Equal(t, "area", joinField("", "area"))
	assert.Equal(t, "area", joinField("/area", ""))
	assert.Equal(t, "a.b", joinField("/a", "b"))
}
