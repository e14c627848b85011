// Package kvstore provides the durable key-value storage backing sessions,
// the user registry, favorites and the theme preference.
//
// # Usage
//
//	store, err := kvstore.Open(cfg.Database.Path)
//	value, err := store.Get(entities.SettingKeyFavorites)
package kvstore

import (
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelkine/edushelf/internal/entities"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("key not found")

// Store is a string-keyed durable store over a local SQLite database.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at dbPath and migrates the schema.
func Open(dbPath string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&entities.Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Get retrieves the value stored under key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var setting entities.Setting
	err := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// Set creates or updates the value stored under key.
func (s *Store) Set(key, value string) error {
	var setting entities.Setting
	result := s.db.Where("key = ?", key).First(&setting)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		setting = entities.Setting{Key: key, Value: value}
		return s.db.Create(&setting).Error
	} else if result.Error != nil {
		return result.Error
	}

	setting.Value = value
	return s.db.Save(&setting).Error
}

// Delete removes the value stored under key. Deleting an absent key is not
// an error.
func (s *Store) Delete(key string) error {
	return s.db.Where("key = ?", key).Delete(&entities.Setting{}).Error
}

// SQLDB exposes the underlying *sql.DB for components that need raw access
// (HTTP session storage, task queue).
func (s *Store) SQLDB() (*sql.DB, error) {
	return s.db.DB()
}

// Close releases the database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
