package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Dataset    DatasetConfig    `yaml:"dataset"`
	Database   DatabaseConfig   `yaml:"database"`
	Search     SearchConfig     `yaml:"search"`
	Validation ValidationConfig `yaml:"validation"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                   string   `yaml:"port"`
	Mode                   string   `yaml:"mode"`
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
	// Proxies (IPs or CIDRs) whose X-Forwarded-For is believed. Empty means
	// the client IP is always the socket peer.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// ArtifactsConfig points at the three artifacts produced by one training run
type ArtifactsConfig struct {
	Dir          string `yaml:"dir"`
	ModelFile    string `yaml:"model_file"`
	EncodersFile string `yaml:"encoders_file"`
	FeaturesFile string `yaml:"features_file"`
}

// DatasetConfig selects where the reference dataset is loaded from
type DatasetConfig struct {
	Source  string `yaml:"source"` // csv, mysql or postgres
	CSVPath string `yaml:"csv_path"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	APIKey  string `yaml:"api_key"`
	Index   string `yaml:"index"`
}

// ValidationConfig holds the sane ranges for numeric attributes.
// MaxYear 0 means "current year + 1".
type ValidationConfig struct {
	MinArea  float64 `yaml:"min_area"`
	MaxArea  float64 `yaml:"max_area"`
	MinRooms int     `yaml:"min_rooms"`
	MaxRooms int     `yaml:"max_rooms"`
	MinYear  int     `yaml:"min_year"`
	MaxYear  int     `yaml:"max_year"`
}

// ConfidenceConfig tunes the confidence label heuristic.
// MinPrice/MaxPrice of 0 fall back to the training range from model metadata.
type ConfidenceConfig struct {
	EdgeFraction float64 `yaml:"edge_fraction"`
	MinPrice     float64 `yaml:"min_price"`
	MaxPrice     float64 `yaml:"max_price"`
}

// RateLimitConfig contains rate limiting settings for /predict
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // text, json or color
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8000",
			Mode:                   "release",
			CORSOrigins:            []string{"*"},
			ShutdownTimeoutSeconds: 10,
		},
		Artifacts: ArtifactsConfig{
			Dir:          "models",
			ModelFile:    "price_model.json",
			EncodersFile: "label_encoders.json",
			FeaturesFile: "features.json",
		},
		Dataset: DatasetConfig{
			Source:  "csv",
			CSVPath: "data/processed/data_processed.csv",
		},
		Database: DatabaseConfig{
			MySQL: MySQLConfig{
				Host:     "mysql",
				Port:     3306,
				User:     "realestate_user",
				Database: "realestate_db",
			},
			Postgres: PostgresConfig{
				Host:     "db",
				Port:     5432,
				User:     "realestate_user",
				Database: "realestate_db",
				SSLMode:  "disable",
			},
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{
				Host:  "http://meilisearch:7700",
				Index: "property_records",
			},
		},
		Validation: ValidationConfig{
			MinArea:  1,
			MaxArea:  10000,
			MinRooms: 1,
			MaxRooms: 50,
			MinYear:  1800,
		},
		Confidence: ConfidenceConfig{
			EdgeFraction: 0.1,
		},
		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 120,
			RequestsPerHour:   3600,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment overrides.
// A .env file in the working directory is loaded first when present.
func LoadConfig(filepath string) (*Config, error) {
	_ = godotenv.Load()

	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Artifacts.Dir = getEnv("ARTIFACTS_DIR", c.Artifacts.Dir)
	c.Dataset.Source = getEnv("DATASET_SOURCE", c.Dataset.Source)
	c.Dataset.CSVPath = getEnv("DATASET_CSV_PATH", c.Dataset.CSVPath)

	// DB_* apply to whichever database the dataset is read from
	switch c.Dataset.Source {
	case "mysql":
		m := &c.Database.MySQL
		m.Host = getEnv("DB_HOST", m.Host)
		m.Port = getEnvInt("DB_PORT", m.Port)
		m.User = getEnv("DB_USER", m.User)
		m.Password = getEnv("DB_PASSWORD", m.Password)
		m.Database = getEnv("DB_NAME", m.Database)
	case "postgres":
		p := &c.Database.Postgres
		p.Host = getEnv("DB_HOST", p.Host)
		p.Port = getEnvInt("DB_PORT", p.Port)
		p.User = getEnv("DB_USER", p.User)
		p.Password = getEnv("DB_PASSWORD", p.Password)
		p.Database = getEnv("DB_NAME", p.Database)
	}

	c.Search.Meilisearch.Host = getEnv("MEILISEARCH_HOST", c.Search.Meilisearch.Host)
	c.Search.Meilisearch.APIKey = getEnv("MEILISEARCH_KEY", c.Search.Meilisearch.APIKey)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	v := c.Validation
	if v.MinArea < 0 || (v.MaxArea > 0 && v.MaxArea < v.MinArea) {
		return fmt.Errorf("invalid area range [%g, %g]", v.MinArea, v.MaxArea)
	}
	if v.MinRooms < 0 || (v.MaxRooms > 0 && v.MaxRooms < v.MinRooms) {
		return fmt.Errorf("invalid rooms range [%d, %d]", v.MinRooms, v.MaxRooms)
	}
	if v.MaxYear != 0 && v.MaxYear < v.MinYear {
		return fmt.Errorf("invalid year range [%d, %d]", v.MinYear, v.MaxYear)
	}
	if c.Confidence.EdgeFraction < 0 || c.Confidence.EdgeFraction >= 0.5 {
		return fmt.Errorf("confidence.edge_fraction must be in [0, 0.5), got %g", c.Confidence.EdgeFraction)
	}
	if c.Confidence.MaxPrice != 0 && c.Confidence.MaxPrice <= c.Confidence.MinPrice {
		return fmt.Errorf("confidence.max_price must exceed min_price")
	}
	switch c.Dataset.Source {
	case "csv", "mysql", "postgres":
	default:
		return fmt.Errorf("unknown dataset source %q", c.Dataset.Source)
	}
	if c.Artifacts.Dir == "" {
		return errors.New("artifacts.dir is required")
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				return fmt.Errorf("server.trusted_proxies: invalid IP or CIDR %q", p)
			}
		}
	}
	return nil
}

// GetShutdownTimeout returns the graceful shutdown timeout as a duration
func (c *ServerConfig) GetShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// EffectiveMaxYear resolves MaxYear 0 to next year
func (v ValidationConfig) EffectiveMaxYear(now time.Time) int {
	if v.MaxYear != 0 {
		return v.MaxYear
	}
	return now.Year() + 1
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
