package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"property-price-api/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func mysqlDSN(host, port, user, password, dbname string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	db, err := gorm.Open(mysql.Open(mysqlDSN(host, port, user, password, dbname)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates the property_records table using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(&models.PropertyRecord{})
}

// LoadRecords reads the whole reference dataset ordered by id
func (gdb *GormDB) LoadRecords(ctx context.Context) ([]models.PropertyRecord, error) {
	var records []models.PropertyRecord
	if err := gdb.db.WithContext(ctx).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load property records: %w", err)
	}
	return records, nil
}

// SaveRecords inserts records in batches inside one transaction
func (gdb *GormDB) SaveRecords(ctx context.Context, records []models.PropertyRecord) error {
	if len(records) == 0 {
		return nil
	}
	return gdb.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(records, 500).Error
	})
}
