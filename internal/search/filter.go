package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"property-price-api/internal/dataset"
	"property-price-api/internal/models"
)

// document is a record as stored in the index. The *_key fields hold the
// normalised filter values so index filters match like dataset.Filter.
type document struct {
	models.PropertyRecord
	VoivodeshipKey string `json:"voivodeship_key"`
	CityKey        string `json:"city_key"`
	CountyKey      string `json:"county_key"`
}

func toDocuments(records []models.PropertyRecord) []document {
	docs := make([]document, len(records))
	for i, r := range records {
		docs[i] = document{
			PropertyRecord: r,
			VoivodeshipKey: dataset.Normalize(r.Voivodeship),
			CityKey:        dataset.Normalize(r.City),
			CountyKey:      dataset.Normalize(r.County),
		}
	}
	return docs
}

// BuildFilter turns a region query into a meilisearch filter expression.
// An empty query yields "".
func BuildFilter(q dataset.Query) string {
	var filters []string
	add := func(attr, value string) {
		if v := dataset.Normalize(value); v != "" {
			filters = append(filters, fmt.Sprintf("%s = %s", attr, quote(v)))
		}
	}
	add("voivodeship_key", q.Voivodeship)
	add("city_key", q.City)
	add("county_key", q.County)

	return strings.Join(filters, " AND ")
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// decodeHits converts raw hits back into records, skipping any that don't fit
func decodeHits(hits []interface{}) []models.PropertyRecord {
	records := make([]models.PropertyRecord, 0, len(hits))
	for _, hit := range hits {
		// Convert hit to JSON then to PropertyRecord
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}

		var record models.PropertyRecord
		if err := json.Unmarshal(hitJSON, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records
}
