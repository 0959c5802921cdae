package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"property-price-api/internal/artifact"
	"property-price-api/internal/config"
	"property-price-api/internal/database"
	"property-price-api/internal/features"
	"property-price-api/internal/logging"
	"property-price-api/internal/models"
	"property-price-api/internal/predictor"
	"property-price-api/internal/schema"
)

// inspect checks a set of model artifacts before deployment: that they load,
// that their encoders cover the known regions and how the model scores the
// reference dataset. With -import it also seeds the configured database
// from the reference CSV, and -predict scores a single request body.

type CheckResult struct {
	Name      string    `json:"name"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Details   any       `json:"details,omitempty"`
}

type Report struct {
	ArtifactsDir   string        `json:"artifacts_dir"`
	RunID          string        `json:"run_id,omitempty"`
	Results        []CheckResult `json:"results"`
	OverallSuccess bool          `json:"overall_success"`
	ExecutedAt     time.Time     `json:"executed_at"`
}

func (r *Report) add(res CheckResult) {
	res.Timestamp = time.Now()
	r.Results = append(r.Results, res)
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	csvPath := flag.String("csv", "", "reference dataset CSV (defaults to dataset.csv_path)")
	importDB := flag.Bool("import", false, "load the CSV into the configured mysql/postgres database")
	outPath := flag.String("out", "", "write the JSON report to this file instead of stdout")
	predictBody := flag.String("predict", "", "score one request body (same JSON as POST /predict)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)
	if *csvPath == "" {
		*csvPath = cfg.Dataset.CSVPath
	}

	report := &Report{ArtifactsDir: cfg.Artifacts.Dir, ExecutedAt: time.Now()}
	run(logger, cfg, *csvPath, *importDB, report)
	if *predictBody != "" {
		report.add(predictOne(cfg, *predictBody))
	}

	report.OverallSuccess = true
	for _, r := range report.Results {
		if !r.Success {
			report.OverallSuccess = false
		}
	}

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			logger.Error("failed to create report file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		logger.Error("failed to write report", slog.String("error", err.Error()))
	}

	if !report.OverallSuccess {
		os.Exit(2)
	}
}

func run(logger *slog.Logger, cfg *config.Config, csvPath string, importDB bool, report *Report) {
	// Check 1: artifacts load and agree on run_id
	bundle, err := artifact.Load(cfg.Artifacts)
	if err != nil {
		report.add(CheckResult{Name: "artifacts", Message: err.Error()})
		return
	}
	report.RunID = bundle.RunID()
	report.add(CheckResult{
		Name:    "artifacts",
		Success: true,
		Message: "model, encoders and feature list are consistent",
		Details: bundle.Info(),
	})

	// Check 2: encoder coverage of the known category values
	report.add(checkCoverage(bundle.Encoders()))

	records, err := database.LoadCSV(csvPath)
	if err != nil {
		report.add(CheckResult{Name: "reference_dataset", Message: err.Error()})
		return
	}
	logger.Info("reference dataset loaded", slog.String("path", csvPath), slog.Int("records", len(records)))

	// Check 3: backtest over the reference dataset
	report.add(backtest(cfg, bundle, records))

	// Optional: seed the database
	if importDB {
		report.add(importRecords(cfg, records))
	}
}

func checkCoverage(encoders features.EncoderSet) CheckResult {
	missing := map[string][]string{}
	for feature, want := range map[string][]string{
		features.FeatureVoivodeship: models.Voivodeships,
		features.FeatureMarket:      {models.MarketPrimary, models.MarketSecondary},
	} {
		for _, label := range want {
			if _, ok := encoders.Code(feature, label); !ok {
				missing[feature] = append(missing[feature], label)
			}
		}
	}

	classes := map[string]int{}
	for _, f := range encoders.Features() {
		classes[f] = len(encoders.Labels(f))
	}
	details := map[string]any{"classes": classes}

	if len(missing) > 0 {
		details["missing"] = missing
		return CheckResult{Name: "encoder_coverage", Message: "encoders do not cover every known value", Details: details}
	}
	return CheckResult{Name: "encoder_coverage", Success: true, Message: "all voivodeships and markets are encodable", Details: details}
}

type backtestDetails struct {
	Records      int            `json:"records"`
	Scored       int            `json:"scored"`
	Rejected     map[string]int `json:"rejected,omitempty"`
	MAE          float64        `json:"mae"`
	RMSE         float64        `json:"rmse"`
	Confidence   map[string]int `json:"confidence"`
	TrainingMAE  float64        `json:"training_mae"`
	TrainingRMSE float64        `json:"training_rmse"`
}

func backtest(cfg *config.Config, bundle *artifact.Bundle, records []models.PropertyRecord) CheckResult {
	encoder, err := features.NewEncoder(bundle.Encoders(), bundle.Features(),
		features.RangesFromConfig(cfg.Validation, time.Now()))
	if err != nil {
		return CheckResult{Name: "backtest", Message: err.Error()}
	}
	policy, err := predictor.NewPolicy(cfg.Confidence, bundle.Metadata())
	if err != nil {
		return CheckResult{Name: "backtest", Message: err.Error()}
	}
	p := predictor.New(bundle.Model(), policy)

	d := backtestDetails{
		Records:      len(records),
		Rejected:     map[string]int{},
		Confidence:   map[string]int{},
		TrainingMAE:  bundle.Metadata().TestMAE,
		TrainingRMSE: bundle.Metadata().TestRMSE,
	}
	var absSum, sqSum float64
	for _, rec := range records {
		vec, err := encoder.Encode(rec.Attributes())
		if err != nil {
			var catErr *features.UnknownCategoryError
			var rangeErr *features.OutOfRangeError
			switch {
			case errors.As(err, &catErr):
				d.Rejected["unknown_"+catErr.Field]++
			case errors.As(err, &rangeErr):
				d.Rejected["out_of_range_"+rangeErr.Field]++
			default:
				d.Rejected["other"]++
			}
			continue
		}
		res, err := p.Predict(vec)
		if err != nil {
			return CheckResult{Name: "backtest", Message: fmt.Sprintf("record %d: %v", rec.ID, err)}
		}
		diff := res.PredictedPrice - rec.Price
		absSum += math.Abs(diff)
		sqSum += diff * diff
		d.Scored++
		d.Confidence[string(res.Confidence)]++
	}

	if d.Scored == 0 {
		return CheckResult{Name: "backtest", Message: "no reference record could be scored", Details: d}
	}
	n := float64(d.Scored)
	d.MAE = round2(absSum / n)
	d.RMSE = round2(math.Sqrt(sqSum / n))
	return CheckResult{
		Name:    "backtest",
		Success: true,
		Message: fmt.Sprintf("scored %d of %d records", d.Scored, d.Records),
		Details: d,
	}
}

func importRecords(cfg *config.Config, records []models.PropertyRecord) CheckResult {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	var err error
	switch cfg.Dataset.Source {
	case "mysql":
		m := cfg.Database.MySQL
		var db *database.GormDB
		if db, err = database.NewGormDB(m.Host, fmt.Sprint(m.Port), m.User, m.Password, m.Database); err == nil {
			defer db.Close()
			if err = db.InitSchema(); err == nil {
				err = db.SaveRecords(ctx, records)
			}
		}
	case "postgres":
		p := cfg.Database.Postgres
		var db *database.DB
		if db, err = database.NewDB(p.Host, fmt.Sprint(p.Port), p.User, p.Password, p.Database, p.SSLMode); err == nil {
			defer db.Close()
			if err = db.InitSchema(); err == nil {
				err = db.SaveRecords(ctx, records)
			}
		}
	default:
		return CheckResult{Name: "import", Message: "dataset.source must be mysql or postgres to import"}
	}
	if err != nil {
		return CheckResult{Name: "import", Message: err.Error()}
	}
	return CheckResult{
		Name:    "import",
		Success: true,
		Message: fmt.Sprintf("imported %d records into %s", len(records), cfg.Dataset.Source),
	}
}

func predictOne(cfg *config.Config, body string) CheckResult {
	attrs, err := schema.ValidatePredictRequest([]byte(body))
	if err != nil {
		return CheckResult{Name: "prediction", Message: err.Error()}
	}
	bundle, err := artifact.Load(cfg.Artifacts)
	if err != nil {
		return CheckResult{Name: "prediction", Message: err.Error()}
	}
	vec, err := features.Encode(attrs, bundle.Encoders(), bundle.Features(),
		features.RangesFromConfig(cfg.Validation, time.Now()))
	if err != nil {
		return CheckResult{Name: "prediction", Message: err.Error()}
	}
	policy, err := predictor.NewPolicy(cfg.Confidence, bundle.Metadata())
	if err != nil {
		return CheckResult{Name: "prediction", Message: err.Error()}
	}
	res, err := predictor.Predict(vec, bundle.Model(), policy)
	if err != nil {
		return CheckResult{Name: "prediction", Message: err.Error()}
	}
	return CheckResult{
		Name:    "prediction",
		Success: true,
		Message: fmt.Sprintf("%.2f %s (%s)", res.PredictedPrice, res.Currency, res.Confidence),
		Details: map[string]any{"input": attrs, "vector": vec},
	}
}

func round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
