package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"property-price-api/internal/config"
	"property-price-api/internal/features"
	"property-price-api/internal/models"
)

// Metadata describes the training run that produced the model
type Metadata struct {
	ModelType       string  `json:"model_type"`
	AlgorithmName   string  `json:"algorithm_name"`
	TrainingSamples int     `json:"training_samples"`
	TestR2          float64 `json:"test_r2_score"`
	TestRMSE        float64 `json:"test_rmse"`
	TestMAE         float64 `json:"test_mae"`
	PriceMin        float64 `json:"price_min"`
	PriceMax        float64 `json:"price_max"`
	TrainedAt       string  `json:"trained_at"`
}

type modelFile struct {
	RunID        string    `json:"run_id"`
	Algorithm    string    `json:"algorithm"`
	NFeatures    int       `json:"n_features"`
	Trees        []Tree    `json:"trees,omitempty"`
	Coefficients []float64 `json:"coefficients,omitempty"`
	Intercept    float64   `json:"intercept"`
	Metadata     Metadata  `json:"metadata"`
}

type encodersFile struct {
	RunID    string              `json:"run_id"`
	Encoders map[string][]string `json:"encoders"`
}

type featuresFile struct {
	RunID    string   `json:"run_id"`
	Features []string `json:"features"`
}

// LoadError is a startup failure: an artifact is missing, corrupt or does not
// belong to the same training run as the others.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("artifact load failed: %v", e.Err)
	}
	return fmt.Sprintf("artifact load failed: %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Paths locates the three artifacts on disk
type Paths struct {
	Model    string
	Encoders string
	Features string
}

// PathsFromConfig joins the configured file names onto the artifacts directory
func PathsFromConfig(cfg config.ArtifactsConfig) Paths {
	return Paths{
		Model:    filepath.Join(cfg.Dir, cfg.ModelFile),
		Encoders: filepath.Join(cfg.Dir, cfg.EncodersFile),
		Features: filepath.Join(cfg.Dir, cfg.FeaturesFile),
	}
}

// Load reads and cross-checks the artifacts named by cfg
func Load(cfg config.ArtifactsConfig) (*Bundle, error) {
	return LoadPaths(PathsFromConfig(cfg))
}

// LoadPaths reads the three artifacts and returns an immutable Bundle
func LoadPaths(p Paths) (*Bundle, error) {
	var mf modelFile
	if err := readJSON(p.Model, &mf); err != nil {
		return nil, err
	}
	var ef encodersFile
	if err := readJSON(p.Encoders, &ef); err != nil {
		return nil, err
	}
	var ff featuresFile
	if err := readJSON(p.Features, &ff); err != nil {
		return nil, err
	}

	if mf.RunID == "" {
		return nil, &LoadError{Path: p.Model, Err: errors.New("missing run_id")}
	}
	if ef.RunID != mf.RunID {
		return nil, &LoadError{Path: p.Encoders, Err: fmt.Errorf("run_id %q does not match model run_id %q", ef.RunID, mf.RunID)}
	}
	if ff.RunID != mf.RunID {
		return nil, &LoadError{Path: p.Features, Err: fmt.Errorf("run_id %q does not match model run_id %q", ff.RunID, mf.RunID)}
	}

	model, err := buildModel(mf)
	if err != nil {
		return nil, &LoadError{Path: p.Model, Err: err}
	}
	encoders, err := features.NewEncoderSet(ef.Encoders)
	if err != nil {
		return nil, &LoadError{Path: p.Encoders, Err: err}
	}

	return NewBundle(model, encoders, ff.Features, mf.Metadata, mf.RunID)
}

func buildModel(mf modelFile) (Regressor, error) {
	switch mf.Algorithm {
	case AlgorithmRandomForest:
		return NewForest(mf.Trees, mf.NFeatures)
	case AlgorithmLinear:
		return NewLinear(mf.Coefficients, mf.Intercept, mf.NFeatures)
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", mf.Algorithm)
	}
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &LoadError{Path: path, Err: fmt.Errorf("failed to parse: %w", err)}
	}
	return nil
}

// Bundle holds everything one training run produced. It is built once at
// startup and shared read-only by all requests.
type Bundle struct {
	model    Regressor
	encoders features.EncoderSet
	features []string
	metadata Metadata
	runID    string
	loadedAt time.Time
}

// NewBundle checks that model, encoders and feature order agree
func NewBundle(model Regressor, encoders features.EncoderSet, order []string, meta Metadata, runID string) (*Bundle, error) {
	if model == nil {
		return nil, &LoadError{Err: errors.New("no model")}
	}
	if len(order) != model.NumFeatures() {
		return nil, &LoadError{Err: fmt.Errorf("feature list has %d names but model expects %d inputs", len(order), model.NumFeatures())}
	}
	if err := features.Validate(order, encoders); err != nil {
		return nil, &LoadError{Err: err}
	}
	if meta.PriceMin < 0 || (meta.PriceMax != 0 && meta.PriceMax <= meta.PriceMin) {
		return nil, &LoadError{Err: fmt.Errorf("invalid training price range [%g, %g]", meta.PriceMin, meta.PriceMax)}
	}

	return &Bundle{
		model:    model,
		encoders: encoders,
		features: append([]string(nil), order...),
		metadata: meta,
		runID:    runID,
		loadedAt: time.Now(),
	}, nil
}

func (b *Bundle) Model() Regressor             { return b.model }
func (b *Bundle) Encoders() features.EncoderSet { return b.encoders }
func (b *Bundle) Metadata() Metadata           { return b.metadata }
func (b *Bundle) RunID() string                { return b.runID }
func (b *Bundle) LoadedAt() time.Time          { return b.loadedAt }

// Features returns a copy of the ordered feature list
func (b *Bundle) Features() []string {
	return append([]string(nil), b.features...)
}

// Ready reports whether the bundle can serve predictions
func (b *Bundle) Ready() error {
	if b == nil || b.model == nil {
		return errors.New("artifacts not loaded")
	}
	if len(b.features) != b.model.NumFeatures() {
		return fmt.Errorf("feature list has %d names but model expects %d inputs", len(b.features), b.model.NumFeatures())
	}
	return nil
}

// Info describes the model for the /info endpoint
func (b *Bundle) Info() models.ModelInfo {
	modelType := b.metadata.ModelType
	if modelType == "" {
		modelType = "Regression"
	}
	algorithm := b.metadata.AlgorithmName
	if algorithm == "" {
		algorithm = algorithmLabel(b.model)
	}
	return models.ModelInfo{
		ModelType:       modelType,
		Algorithm:       algorithm,
		FeaturesUsed:    b.Features(),
		TrainingSamples: b.metadata.TrainingSamples,
		TestR2Score:     b.metadata.TestR2,
		TestRMSE:        b.metadata.TestRMSE,
		TestMAE:         b.metadata.TestMAE,
		LastUpdated:     b.metadata.TrainedAt,
		RunID:           b.runID,
	}
}

func algorithmLabel(m Regressor) string {
	switch m.(type) {
	case *Forest:
		return "Random Forest Regressor"
	case *Linear:
		return "Linear Regression"
	default:
		return "unknown"
	}
}
