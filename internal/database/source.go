package database

import (
	"context"
	"fmt"
	"strconv"

	"property-price-api/internal/config"
	"property-price-api/internal/models"
)

// RecordSource yields the reference dataset. It is read once at startup.
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]models.PropertyRecord, error)
	Close() error
}

// CSVSource reads records from a processed CSV file
type CSVSource struct {
	Path string
}

func (s CSVSource) LoadRecords(context.Context) ([]models.PropertyRecord, error) {
	return LoadCSV(s.Path)
}

func (CSVSource) Close() error { return nil }

// OpenSource connects to the dataset source named in cfg.Dataset.Source
func OpenSource(cfg *config.Config) (RecordSource, error) {
	switch cfg.Dataset.Source {
	case "csv":
		return CSVSource{Path: cfg.Dataset.CSVPath}, nil
	case "mysql":
		m := cfg.Database.MySQL
		db, err := NewGormDB(m.Host, strconv.Itoa(m.Port), m.User, m.Password, m.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mysql: %w", err)
		}
		return db, nil
	case "postgres":
		p := cfg.Database.Postgres
		db, err := NewDB(p.Host, strconv.Itoa(p.Port), p.User, p.Password, p.Database, p.SSLMode)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown dataset source %q", cfg.Dataset.Source)
	}
}

// Load opens the configured source, reads every record and closes it
func Load(ctx context.Context, cfg *config.Config) ([]models.PropertyRecord, error) {
	src, err := OpenSource(cfg)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return src.LoadRecords(ctx)
}
