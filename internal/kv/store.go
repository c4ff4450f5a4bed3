package kv

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the key-value collaborator the gate wraps. Implementations may
// fault on any call; absence of a key is reported through the found flag, not
// an error. There are no transactions and no compare-and-swap.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Put(ctx context.Context, key, value string) error
}

// Entry is a persisted key-value row.
type Entry struct {
	Key       string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt int64  `gorm:"autoUpdateTime"`
}

// TableName defines the table name for the Entry model.
func (Entry) TableName() string {
	return "kv_entries"
}

// GormStore persists entries using a Gorm database connection.
type GormStore struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewGormStore constructs a Gorm-backed store implementation.
func NewGormStore(db *gorm.DB, logger *logrus.Logger) (*GormStore, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &GormStore{db: db, logger: logger}, nil
}

var _ Store = (*GormStore)(nil)

// Migrate applies the key-value schema using Gorm's AutoMigrate.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "kv.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying key-value schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&Entry{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("key-value schema migration failed")
		}
		return eris.Wrap(err, "auto migrating key-value schema")
	}

	return nil
}

// Get returns the value stored under key, reporting absence through found.
func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", false, eris.New("key is required")
	}

	var entry Entry
	err := s.db.WithContext(ctx).First(&entry, "key = ?", trimmed).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, eris.Wrapf(err, "fetching entry: %s", trimmed)
	}

	return entry.Value, true, nil
}

// Put stores value under key, inserting or updating the row as needed.
func (s *GormStore) Put(ctx context.Context, key, value string) error {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return eris.New("key is required")
	}

	entry := Entry{Key: trimmed, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return eris.Wrapf(err, "storing entry: %s", trimmed)
	}

	return nil
}
