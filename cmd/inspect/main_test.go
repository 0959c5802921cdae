package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"property-price-api/internal/config"
	"property-price-api/internal/features"
	"property-price-api/internal/logging"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Artifacts.Dir = "../../testdata/artifacts"
	return cfg
}

func TestRun_FixtureArtifacts(t *testing.T) {
	logger := logging.NewWithWriter(config.LoggingConfig{Level: "error"}, io.Discard)
	report := &Report{}

	run(logger, testConfig(), "../../testdata/reference.csv", false, report)

	require.Len(t, report.Results, 3)
	assert.Equal(t, "2025-06-01T12-00-00-rf", report.RunID)
	for _, r := range report.Results {
		assert.True(t, r.Success, "%s: %s", r.Name, r.Message)
	}

	d, ok := report.Results[2].Details.(backtestDetails)
	require.True(t, ok)
	assert.Equal(t, 7, d.Records)
	// "Mazowieckie" is not a trained label; encoding is case-sensitive
	assert.Equal(t, 6, d.Scored)
	assert.Equal(t, map[string]int{"unknown_voivodeship": 1}, d.Rejected)
	assert.Positive(t, d.MAE)
	assert.GreaterOrEqual(t, d.RMSE, d.MAE)
}

func TestRun_MissingArtifacts(t *testing.T) {
	cfg := testConfig()
	cfg.Artifacts.Dir = t.TempDir()
	report := &Report{}

	run(logging.NewWithWriter(config.LoggingConfig{}, io.Discard), cfg, "", false, report)

	require.Len(t, report.Results, 1)
	assert.False(t, report.Results[0].Success)
}

func TestCheckCoverage_ReportsMissing(t *testing.T) {
	encoders, err := features.NewEncoderSet(map[string][]string{
		features.FeatureVoivodeship: {"mazowieckie"},
		features.FeatureMarket:      {"pierwotny", "wtórny"},
	})
	require.NoError(t, err)

	res := checkCoverage(encoders)

	assert.False(t, res.Success)
	details := res.Details.(map[string]any)
	missing := details["missing"].(map[string][]string)
	assert.Len(t, missing[features.FeatureVoivodeship], 15)
	assert.NotContains(t, missing, features.FeatureMarket)
}

func TestImportRecords_RequiresDatabaseSource(t *testing.T) {
	res := importRecords(testConfig(), nil)

	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "mysql or postgres")
}

func TestPredictOne(t *testing.T) {
	body := `{"area": 120.5, "rooms": 4, "year_constructed": 2020, "heating": "gazowe",
		"building_material": "cegła", "building_type": "bliźniak", "market": "pierwotny",
		"voivodeship": "mazowieckie"}`

	res := predictOne(testConfig(), body)

	require.True(t, res.Success, res.Message)
	assert.Equal(t, "1065000.00 PLN (High)", res.Message)

	res = predictOne(testConfig(), `{"area": 1}`)
	assert.False(t, res.Success)
}
