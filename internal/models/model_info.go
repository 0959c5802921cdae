package models

// ModelInfo is the public description of the loaded model, served by /info
type ModelInfo struct {
	ModelType       string   `json:"model_type"`
	Algorithm       string   `json:"algorithm"`
	FeaturesUsed    []string `json:"features_used"`
	TrainingSamples int      `json:"training_samples"`
	TestR2Score     float64  `json:"test_r2_score"`
	TestRMSE        float64  `json:"test_rmse"`
	TestMAE         float64  `json:"test_mae"`
	LastUpdated     string   `json:"last_updated"`
	RunID           string   `json:"run_id"`
}
