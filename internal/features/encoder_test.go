package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-price-api/internal/models"
)

var trainingOrder = []string{
	FeatureArea,
	FeatureRooms,
	FeatureYear,
	FeatureHeating,
	FeatureBuildingMaterial,
	FeatureBuildingType,
	FeatureMarket,
	FeatureVoivodeship,
}

func testEncoders(t *testing.T) EncoderSet {
	t.Helper()
	set, err := NewEncoderSet(map[string][]string{
		FeatureHeating:          {"elektryczne", "gazowe", "miejskie"},
		FeatureBuildingMaterial: {"beton", "cegła", "pustak"},
		FeatureBuildingType:     {"blok", "bliźniak", "kamienica"},
		FeatureMarket:           {models.MarketPrimary, models.MarketSecondary},
		FeatureVoivodeship:      {"małopolskie", "mazowieckie", "pomorskie"},
	})
	require.NoError(t, err)
	return set
}

func testRanges() Ranges {
	return Ranges{MinArea: 1, MaxArea: 10000, MinRooms: 1, MaxRooms: 50, MinYear: 1800, MaxYear: 2027}
}

func sampleAttributes() models.PropertyAttributes {
	return models.PropertyAttributes{
		Area:             120.5,
		Rooms:            4,
		YearConstructed:  2020,
		Heating:          "gazowe",
		BuildingMaterial: "cegła",
		BuildingType:     "bliźniak",
		Market:           models.MarketPrimary,
		Voivodeship:      "mazowieckie",
	}
}

func TestEncode_FollowsFeatureOrder(t *testing.T) {
	vec, err := Encode(sampleAttributes(), testEncoders(t), trainingOrder, testRanges())

	require.NoError(t, err)
	require.Len(t, vec, len(trainingOrder))
	assert.Equal(t, Vector{120.5, 4, 2020, 1, 1, 1, 0, 1}, vec)
}

func TestEncode_ReorderedFeatureList(t *testing.T) {
	order := []string{FeatureVoivodeship, FeatureArea, FeatureMarket, FeatureYear, FeatureRooms,
		FeatureHeating, FeatureBuildingType, FeatureBuildingMaterial}

	vec, err := Encode(sampleAttributes(), testEncoders(t), order, testRanges())

	require.NoError(t, err)
	assert.Equal(t, Vector{1, 120.5, 0, 2020, 4, 1, 1, 1}, vec)
}

func TestEncode_Deterministic(t *testing.T) {
	encoders := testEncoders(t)
	first, err := Encode(sampleAttributes(), encoders, trainingOrder, testRanges())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		again, err := Encode(sampleAttributes(), encoders, trainingOrder, testRanges())
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestEncode_UnknownCategory(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.PropertyAttributes)
		field   string
		feature string
		value   string
	}{
		{"voivodeship", func(a *models.PropertyAttributes) { a.Voivodeship = "atlantis" }, "voivodeship", FeatureVoivodeship, "atlantis"},
		{"heating", func(a *models.PropertyAttributes) { a.Heating = "atomowe" }, "heating", FeatureHeating, "atomowe"},
		{"market case sensitive", func(a *models.PropertyAttributes) { a.Market = "Pierwotny" }, "market", FeatureMarket, "Pierwotny"},
		{"empty building type", func(a *models.PropertyAttributes) { a.BuildingType = "" }, "building_type", FeatureBuildingType, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := sampleAttributes()
			tt.mutate(&attrs)

			vec, err := Encode(attrs, testEncoders(t), trainingOrder, testRanges())

			require.Nil(t, vec)
			var unknown *UnknownCategoryError
			require.ErrorAs(t, err, &unknown)
			assert.Equal(t, tt.field, unknown.Field)
			assert.Equal(t, tt.feature, unknown.Feature)
			assert.Equal(t, tt.value, unknown.Value)
		})
	}
}

func TestEncode_OutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.PropertyAttributes)
		field  string
	}{
		{"zero area", func(a *models.PropertyAttributes) { a.Area = 0 }, "area"},
		{"negative area", func(a *models.PropertyAttributes) { a.Area = -12 }, "area"},
		{"huge area", func(a *models.PropertyAttributes) { a.Area = 20000 }, "area"},
		{"zero rooms", func(a *models.PropertyAttributes) { a.Rooms = 0 }, "rooms"},
		{"negative rooms", func(a *models.PropertyAttributes) { a.Rooms = -1 }, "rooms"},
		{"too many rooms", func(a *models.PropertyAttributes) { a.Rooms = 51 }, "rooms"},
		{"ancient year", func(a *models.PropertyAttributes) { a.YearConstructed = 1500 }, "year_constructed"},
		{"future year", func(a *models.PropertyAttributes) { a.YearConstructed = 2100 }, "year_constructed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := sampleAttributes()
			tt.mutate(&attrs)

			_, err := Encode(attrs, testEncoders(t), trainingOrder, testRanges())

			var oor *OutOfRangeError
			require.ErrorAs(t, err, &oor)
			assert.Equal(t, tt.field, oor.Field)
		})
	}
}

func TestRanges_AreaPositiveEvenWithZeroMinimum(t *testing.T) {
	attrs := sampleAttributes()
	attrs.Area = 0

	err := Ranges{}.Check(attrs)

	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, "area", oor.Field)
}

func TestValidate(t *testing.T) {
	encoders := testEncoders(t)

	tests := []struct {
		name    string
		order   []string
		wantErr string
	}{
		{"training order", trainingOrder, ""},
		{"empty", nil, "empty feature list"},
		{"duplicate", append(append([]string(nil), trainingOrder...), FeatureArea), "duplicate feature"},
		{"unknown name", append(append([]string(nil), trainingOrder...), "Floor"), "unknown feature"},
		{"encoder not in list", trainingOrder[:7], "not in the feature list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.order, encoders)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidFeatureOrder))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CategoricalWithoutEncoder(t *testing.T) {
	set, err := NewEncoderSet(map[string][]string{FeatureHeating: {"gazowe"}})
	require.NoError(t, err)

	err = Validate([]string{FeatureHeating, FeatureMarket}, set)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Market" has no encoder`)
}

func TestValidate_NumericWithEncoder(t *testing.T) {
	set, err := NewEncoderSet(map[string][]string{FeatureRooms: {"1", "2"}})
	require.NoError(t, err)

	err = Validate([]string{FeatureRooms}, set)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "has an encoder")
}

func TestNewEncoder_CopiesOrder(t *testing.T) {
	order := append([]string(nil), trainingOrder...)
	enc, err := NewEncoder(testEncoders(t), order, testRanges())
	require.NoError(t, err)

	order[0], order[1] = order[1], order[0]

	vec, err := enc.Encode(sampleAttributes())
	require.NoError(t, err)
	assert.Equal(t, 120.5, vec[0])
	assert.Equal(t, len(trainingOrder), enc.Width())
}

func TestLookup(t *testing.T) {
	field, kind, ok := Lookup(FeatureVoivodeship)
	require.True(t, ok)
	assert.Equal(t, "voivodeship", field)
	assert.Equal(t, Categorical, kind)

	field, kind, ok = Lookup(FeatureArea)
	require.True(t, ok)
	assert.Equal(t, "area", field)
	assert.Equal(t, Numeric, kind)

	_, _, ok = Lookup("Floor")
	assert.False(t, ok)
}
