package store

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glefebvre/shufflarr/internal/config"
	"github.com/glefebvre/shufflarr/internal/errors"
	"github.com/glefebvre/shufflarr/internal/logger"
	"github.com/glefebvre/shufflarr/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// configBlob is the single-row table holding the serialized configuration.
// The whole blob is rewritten on every mutating operation; there is no
// incremental persistence.
type configBlob struct {
	ID        uint   `gorm:"primaryKey"`
	Data      string `gorm:"type:text"`
	UpdatedAt time.Time
}

const blobID = 1

// Store provides atomic load/save of the whole configuration blob.
// It does not serialize conflicting mutations; callers that read, decide,
// and write must not interleave with each other.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the configured backend and runs migrations
func Open(cfg config.DatabaseConfig, logLevel string) (*Store, error) {
	log := logger.StoreLogger()
	gormCfg := &gorm.Config{
		Logger: logger.NewGormAdapter(log, logLevel),
	}

	var db *gorm.DB
	var err error

	switch cfg.Backend {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
		)
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	default:
		if mkErr := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); mkErr != nil {
			return nil, errors.Wrap(mkErr, errors.CodeStoreConnection, "failed to create data directory")
		}
		db, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreConnection, "failed to connect to store backend")
	}

	if err := db.AutoMigrate(&configBlob{}); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreConnection, "failed to run store migrations")
	}

	return &Store{db: db, log: log}, nil
}

// OpenWithDB wraps an existing gorm connection (primarily for testing)
func OpenWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&configBlob{}); err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreConnection, "failed to run store migrations")
	}
	return &Store{db: db, log: logger.StoreLogger()}, nil
}

// Load reads the persisted configuration. A missing or corrupt blob falls
// back to an empty configuration with default settings rather than failing.
func (s *Store) Load() (*models.ConfigData, error) {
	var blob configBlob
	err := s.db.First(&blob, blobID).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewConfigData(), nil
		}
		return nil, errors.PersistenceError("failed to read configuration blob", err)
	}

	data := models.NewConfigData()
	if err := json.Unmarshal([]byte(blob.Data), data); err != nil {
		s.log.Error("configuration blob is corrupt, falling back to defaults", err)
		return models.NewConfigData(), nil
	}

	normalizeSettings(data)
	return data, nil
}

// Save rewrites the whole configuration blob
func (s *Store) Save(data *models.ConfigData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.PersistenceError("failed to serialize configuration", err)
	}

	blob := configBlob{ID: blobID, Data: string(raw), UpdatedAt: time.Now()}
	if err := s.db.Save(&blob).Error; err != nil {
		return errors.PersistenceError("failed to write configuration blob", err)
	}
	return nil
}

// HealthCheck verifies store connectivity
func (s *Store) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreConnection, "failed to get store instance")
	}
	if err := sqlDB.Ping(); err != nil {
		return errors.Wrap(err, errors.CodeStoreConnection, "store ping failed")
	}
	return nil
}

// Close closes the underlying connection
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreConnection, "failed to get store instance")
	}
	return sqlDB.Close()
}

// normalizeSettings fills zero-valued settings with defaults so an older
// blob keeps working after upgrades
func normalizeSettings(data *models.ConfigData) {
	defaults := models.DefaultSettings()
	if data.Settings.DefaultItemLimit <= 0 {
		data.Settings.DefaultItemLimit = defaults.DefaultItemLimit
	}
	if data.Settings.RefreshIntervalHours < 0 {
		data.Settings.RefreshIntervalHours = defaults.RefreshIntervalHours
	}
	if data.Lists == nil {
		data.Lists = make([]*models.SourceList, 0)
	}
	if data.Slots == nil {
		data.Slots = make([]*models.CatalogSlot, 0)
	}
}
