package database

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"property-price-api/internal/models"
)

// Column headers accepted for each record field. The first entries are the
// headers written by the training pipeline's data_processed.csv.
var csvHeaders = map[string][]string{
	"price":             {"Price", "price"},
	"area":              {"Area (m²)", "area"},
	"rooms":             {"Number of rooms", "rooms"},
	"year_constructed":  {"year_const", "year_constructed"},
	"heating":           {"Heating", "heating"},
	"building_material": {"Building material", "building_material"},
	"building_type":     {"Building type", "building_type"},
	"market":            {"Market", "market"},
	"voivodeship":       {"voivodeship", "Voivodeship"},
	"city":              {"city", "City"},
	"county":            {"county", "district", "County", "District"},
}

var requiredCSVFields = []string{"price", "area", "rooms", "voivodeship"}

// LoadCSV reads the reference dataset from a CSV file with a header row
func LoadCSV(path string) ([]models.PropertyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ReadCSV parses reference records from r. Rows are numbered from 1 as IDs.
func ReadCSV(r io.Reader) ([]models.PropertyRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("dataset is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	index := mapHeader(header)
	for _, field := range requiredCSVFields {
		if _, ok := index[field]; !ok {
			return nil, fmt.Errorf("missing column %q", csvHeaders[field][0])
		}
	}
	reader.FieldsPerRecord = len(header)

	var records []models.PropertyRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec, err := parseRow(row, index)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec.ID = uint(len(records) + 1)
		records = append(records, rec)
	}
	return records, nil
}

func mapHeader(header []string) map[string]int {
	index := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		for field, names := range csvHeaders {
			if _, done := index[field]; done {
				continue
			}
			for _, name := range names {
				if h == name {
					index[field] = i
					break
				}
			}
		}
	}
	return index
}

func parseRow(row []string, index map[string]int) (models.PropertyRecord, error) {
	get := func(field string) string {
		i, ok := index[field]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var rec models.PropertyRecord
	var err error
	if rec.Price, err = strconv.ParseFloat(get("price"), 64); err != nil {
		return rec, fmt.Errorf("invalid price: %w", err)
	}
	if rec.Area, err = strconv.ParseFloat(get("area"), 64); err != nil {
		return rec, fmt.Errorf("invalid area: %w", err)
	}
	if rec.Rooms, err = parseInt(get("rooms")); err != nil {
		return rec, fmt.Errorf("invalid rooms: %w", err)
	}
	if v := get("year_constructed"); v != "" {
		if rec.YearConstructed, err = parseInt(v); err != nil {
			return rec, fmt.Errorf("invalid year: %w", err)
		}
	}
	rec.Heating = get("heating")
	rec.BuildingMaterial = get("building_material")
	rec.BuildingType = get("building_type")
	rec.Market = get("market")
	rec.Voivodeship = get("voivodeship")
	rec.City = get("city")
	rec.County = get("county")
	return rec, nil
}

// parseInt accepts "3" as well as pandas-style "3.0"
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%q is not a whole number", s)
	}
	return int(f), nil
}
