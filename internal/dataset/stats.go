package dataset

import (
	"iter"
	"math"

	"github.com/shopspring/decimal"

	"property-price-api/internal/models"
)

// Stats aggregates a set of reference records. Averages are omitted when
// Count is zero.
type Stats struct {
	Count    int     `json:"count"`
	AvgPrice float64 `json:"avg_price,omitempty"`
	MinPrice float64 `json:"min_price,omitempty"`
	MaxPrice float64 `json:"max_price,omitempty"`
	AvgArea  float64 `json:"avg_area,omitempty"`
	AvgRooms float64 `json:"avg_rooms,omitempty"`
	AvgYear  int     `json:"avg_year,omitempty"`
}

// Summarize consumes seq once and returns its statistics, rounded to 2 decimals
func Summarize(seq iter.Seq[models.PropertyRecord]) Stats {
	var (
		n                 int
		sumPrice, sumArea float64
		sumRooms, sumYear int
		minPrice          = math.Inf(1)
		maxPrice          = math.Inf(-1)
	)
	for r := range seq {
		n++
		sumPrice += r.Price
		sumArea += r.Area
		sumRooms += r.Rooms
		sumYear += r.YearConstructed
		minPrice = math.Min(minPrice, r.Price)
		maxPrice = math.Max(maxPrice, r.Price)
	}
	if n == 0 {
		return Stats{}
	}

	count := float64(n)
	return Stats{
		Count:    n,
		AvgPrice: round2(sumPrice / count),
		MinPrice: round2(minPrice),
		MaxPrice: round2(maxPrice),
		AvgArea:  round2(sumArea / count),
		AvgRooms: round2(float64(sumRooms) / count),
		AvgYear:  sumYear / n,
	}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
