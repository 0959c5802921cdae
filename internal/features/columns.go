package features

import "property-price-api/internal/models"

// Kind tells whether a model input is passed through or label-encoded
type Kind int

const (
	Numeric Kind = iota
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Feature names exactly as the training pipeline wrote them into features.json
const (
	FeatureArea             = "Area (m²)"
	FeatureRooms            = "Number of rooms"
	FeatureYear             = "year_const"
	FeatureHeating          = "Heating"
	FeatureBuildingMaterial = "Building material"
	FeatureBuildingType     = "Building type"
	FeatureMarket           = "Market"
	FeatureVoivodeship      = "voivodeship"
)

type column struct {
	field   string
	kind    Kind
	numeric func(models.PropertyAttributes) float64
	label   func(models.PropertyAttributes) string
}

var columns = map[string]column{
	FeatureArea: {
		field:   "area",
		kind:    Numeric,
		numeric: func(a models.PropertyAttributes) float64 { return a.Area },
	},
	FeatureRooms: {
		field:   "rooms",
		kind:    Numeric,
		numeric: func(a models.PropertyAttributes) float64 { return float64(a.Rooms) },
	},
	FeatureYear: {
		field:   "year_constructed",
		kind:    Numeric,
		numeric: func(a models.PropertyAttributes) float64 { return float64(a.YearConstructed) },
	},
	FeatureHeating: {
		field: "heating",
		kind:  Categorical,
		label: func(a models.PropertyAttributes) string { return a.Heating },
	},
	FeatureBuildingMaterial: {
		field: "building_material",
		kind:  Categorical,
		label: func(a models.PropertyAttributes) string { return a.BuildingMaterial },
	},
	FeatureBuildingType: {
		field: "building_type",
		kind:  Categorical,
		label: func(a models.PropertyAttributes) string { return a.BuildingType },
	},
	FeatureMarket: {
		field: "market",
		kind:  Categorical,
		label: func(a models.PropertyAttributes) string { return a.Market },
	},
	FeatureVoivodeship: {
		field: "voivodeship",
		kind:  Categorical,
		label: func(a models.PropertyAttributes) string { return a.Voivodeship },
	},
}

// Lookup reports the request field and kind backing a model feature name
func Lookup(name string) (field string, kind Kind, ok bool) {
	col, ok := columns[name]
	if !ok {
		return "", Numeric, false
	}
	return col.field, col.kind, true
}
