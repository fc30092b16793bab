package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// contentEntry is one collection row: the storage key and its JSON array.
type contentEntry struct {
	Key       string `gorm:"column:storage_key;primaryKey"`
	Value     string `gorm:"type:text;not null"`
	Version   int64  `gorm:"not null"`
	UpdatedAt time.Time
}

func (contentEntry) TableName() string { return "content_entries" }

// GormKV stores entries in a SQL table through gorm.
type GormKV struct {
	db *gorm.DB
}

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// a single connection keeps SQLite from answering "database is locked"
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewGormKV migrates the schema and returns the backend.
func NewGormKV(db *gorm.DB) (*GormKV, error) {
	if err := db.AutoMigrate(&contentEntry{}); err != nil {
		return nil, fmt.Errorf("migrate content entries: %w", err)
	}
	return &GormKV{db: db}, nil
}

func (g *GormKV) Get(ctx context.Context, key string) (Entry, error) {
	var row contentEntry
	err := g.db.WithContext(ctx).Where("storage_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Entry{}, nil
	}
	if err != nil {
		return Entry{}, fmt.Errorf("read %s: %w", key, err)
	}
	return Entry{Value: []byte(row.Value), Version: row.Version}, nil
}

func (g *GormKV) CompareAndSwap(ctx context.Context, key string, version int64, value []byte) (bool, error) {
	db := g.db.WithContext(ctx)
	if version == 0 {
		row := contentEntry{Key: key, Value: string(value), Version: 1}
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return false, fmt.Errorf("insert %s: %w", key, result.Error)
		}
		return result.RowsAffected == 1, nil
	}

	result := db.Model(&contentEntry{}).
		Where("storage_key = ? AND version = ?", key, version).
		Updates(map[string]interface{}{"value": string(value), "version": version + 1})
	if result.Error != nil {
		return false, fmt.Errorf("update %s: %w", key, result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (g *GormKV) PutAll(ctx context.Context, values map[string][]byte) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range values {
			var row contentEntry
			err := tx.Where("storage_key = ?", key).Take(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&contentEntry{Key: key, Value: string(value), Version: 1}).Error; err != nil {
					return fmt.Errorf("insert %s: %w", key, err)
				}
			case err != nil:
				return fmt.Errorf("read %s: %w", key, err)
			default:
				if err := tx.Model(&row).Updates(map[string]interface{}{
					"value":   string(value),
					"version": row.Version + 1,
				}).Error; err != nil {
					return fmt.Errorf("update %s: %w", key, err)
				}
			}
			log.Debugf("import wrote %s", key)
		}
		return nil
	})
}

// Raw writes value under key without a version check. It exists for
// maintenance and tests that need to plant a corrupt value.
func (g *GormKV) Raw(ctx context.Context, key string, value []byte) error {
	row := contentEntry{Key: key, Value: string(value), Version: 1}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&row).Error
}
