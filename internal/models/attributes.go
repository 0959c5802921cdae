package models

// PropertyAttributes is one prediction request. Values are passed around by
// value and never modified after decoding.
type PropertyAttributes struct {
	Area             float64 `json:"area"`
	Rooms            int     `json:"rooms"`
	YearConstructed  int     `json:"year_constructed"`
	Heating          string  `json:"heating"`
	BuildingMaterial string  `json:"building_material"`
	BuildingType     string  `json:"building_type"`
	Market           string  `json:"market"`
	Voivodeship      string  `json:"voivodeship"`

	// Optional, only used to attach local statistics to the response
	City   string `json:"city,omitempty"`
	County string `json:"county,omitempty"`
}

// Market values seen in the training data
const (
	MarketPrimary   = "pierwotny"
	MarketSecondary = "wtórny"
)

// Voivodeships lists the 16 top-level administrative regions of Poland
var Voivodeships = []string{
	"dolnośląskie",
	"kujawsko-pomorskie",
	"lubelskie",
	"lubuskie",
	"łódzkie",
	"małopolskie",
	"mazowieckie",
	"opolskie",
	"podkarpackie",
	"podlaskie",
	"pomorskie",
	"śląskie",
	"świętokrzyskie",
	"warmińsko-mazurskie",
	"wielkopolskie",
	"zachodniopomorskie",
}
