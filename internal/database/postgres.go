package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"property-price-api/internal/models"
)

type DB struct {
	conn *sql.DB
}

func postgresDSN(host, port, user, password, dbname, sslmode string) string {
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)
}

func NewDB(host, port, user, password, dbname, sslmode string) (*DB, error) {
	conn, err := sql.Open("postgres", postgresDSN(host, port, user, password, dbname, sslmode))
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the property_records table if it doesn't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS property_records (
		id SERIAL PRIMARY KEY,

		-- Filter fields
		voivodeship VARCHAR(64) NOT NULL,
		city VARCHAR(128),
		county VARCHAR(128),

		area DECIMAL(10, 2) NOT NULL,
		rooms INTEGER NOT NULL,
		year_constructed INTEGER,
		heating VARCHAR(64),
		building_material VARCHAR(64),
		building_type VARCHAR(64),
		market VARCHAR(32),

		price DECIMAL(14, 2) NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_property_records_voivodeship ON property_records(voivodeship);
	CREATE INDEX IF NOT EXISTS idx_property_records_city ON property_records(city);
	`

	_, err := db.conn.Exec(query)
	return err
}

// LoadRecords reads the whole reference dataset ordered by id
func (db *DB) LoadRecords(ctx context.Context) ([]models.PropertyRecord, error) {
	query := `
	SELECT id, voivodeship, COALESCE(city, ''), COALESCE(county, ''),
		area, rooms, COALESCE(year_constructed, 0),
		COALESCE(heating, ''), COALESCE(building_material, ''),
		COALESCE(building_type, ''), COALESCE(market, ''), price
	FROM property_records
	ORDER BY id ASC
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query property records: %w", err)
	}
	defer rows.Close()

	var records []models.PropertyRecord
	for rows.Next() {
		var r models.PropertyRecord
		if err := rows.Scan(
			&r.ID, &r.Voivodeship, &r.City, &r.County,
			&r.Area, &r.Rooms, &r.YearConstructed,
			&r.Heating, &r.BuildingMaterial, &r.BuildingType, &r.Market, &r.Price,
		); err != nil {
			return nil, fmt.Errorf("failed to scan property record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveRecords bulk-loads records with COPY inside one transaction
func (db *DB) SaveRecords(ctx context.Context, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("property_records",
		"voivodeship", "city", "county", "area", "rooms", "year_constructed",
		"heating", "building_material", "building_type", "market", "price"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.Voivodeship, r.City, r.County, r.Area, r.Rooms,
			r.YearConstructed, r.Heating, r.BuildingMaterial, r.BuildingType, r.Market, r.Price); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy record: %w", err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return err
	}
	return tx.Commit()
}
