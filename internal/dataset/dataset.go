package dataset

import (
	"iter"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"property-price-api/internal/models"
)

// Query holds the optional region filters. Empty fields do not constrain.
type Query struct {
	Voivodeship string
	City        string
	County      string
}

// IsEmpty reports whether no filter is set
func (q Query) IsEmpty() bool {
	return Normalize(q.Voivodeship) == "" && Normalize(q.City) == "" && Normalize(q.County) == ""
}

type normalizedKeys struct {
	voivodeship string
	city        string
	county      string
}

// Dataset is the in-memory reference dataset. It is read-only after New.
type Dataset struct {
	records []models.PropertyRecord
	keys    []normalizedKeys
}

// New copies records into a Dataset and precomputes normalised filter keys
func New(records []models.PropertyRecord) *Dataset {
	d := &Dataset{
		records: append([]models.PropertyRecord(nil), records...),
		keys:    make([]normalizedKeys, len(records)),
	}
	for i, r := range d.records {
		d.keys[i] = normalizedKeys{
			voivodeship: Normalize(r.Voivodeship),
			city:        Normalize(r.City),
			county:      Normalize(r.County),
		}
	}
	return d
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// All yields every record in dataset order
func (d *Dataset) All() iter.Seq[models.PropertyRecord] {
	return d.Filter(Query{})
}

// Filter lazily yields the records matching q in dataset order. A parameter
// matches by case-insensitive exact comparison of the normalised values.
func (d *Dataset) Filter(q Query) iter.Seq[models.PropertyRecord] {
	want := normalizedKeys{
		voivodeship: Normalize(q.Voivodeship),
		city:        Normalize(q.City),
		county:      Normalize(q.County),
	}
	return func(yield func(models.PropertyRecord) bool) {
		for i := range d.records {
			k := d.keys[i]
			if want.voivodeship != "" && k.voivodeship != want.voivodeship {
				continue
			}
			if want.city != "" && k.city != want.city {
				continue
			}
			if want.county != "" && k.county != want.county {
				continue
			}
			if !yield(d.records[i]) {
				return
			}
		}
	}
}

// Normalize trims, composes (NFC) and case-folds s so "Łódź", "łódź" and a
// decomposed "łódź" compare equal.
func Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	// a Caser keeps state, so each call gets its own
	return cases.Fold().String(norm.NFC.String(s))
}
