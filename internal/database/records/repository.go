// Package records stores keyed JSON documents in the application database.
//
// It is the database-backed storage.Backend behind the queue and settings
// stores; each store owns exactly one record.
//
// # Usage
//
//	repo := records.NewRepository(db)
//	queue := queuestore.New(repo)
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/khelo/internal/entities"
	"github.com/mrlokans/khelo/internal/storage"
)

// Repository handles all record database operations.
type Repository struct {
	db         *gorm.DB
	lockPrefix string
}

type Option func(*Repository)

// WithLockFiles makes Lock take a file lock at <prefix>.<key>.lock. Pass the
// database path so every process sharing the database shares the locks.
func WithLockFiles(prefix string) Option {
	return func(r *Repository) { r.lockPrefix = prefix }
}

// NewRepository creates a new records repository.
func NewRepository(db *gorm.DB, opts ...Option) *Repository {
	r := &Repository{db: db}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Lock serializes a read-modify-write of one record across processes.
// The stores hold it from their Load to their Save; a transaction around
// Save alone would still let two writers load the same old value. Without
// WithLockFiles it only returns a no-op unlock.
func (r *Repository) Lock(ctx context.Context, key string) (func(), error) {
	if r.lockPrefix == "" {
		return func() {}, nil
	}
	if key == "" || strings.ContainsAny(key, `/\`) {
		return nil, fmt.Errorf("invalid record key %q", key)
	}
	return storage.LockFile(ctx, r.lockPrefix+"."+key+".lock")
}

// Load returns the value stored under key, or storage.ErrNotFound.
func (r *Repository) Load(ctx context.Context, key string) ([]byte, error) {
	var record entities.Record
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(record.Value), nil
}

// Save creates or replaces the record in a single transaction.
func (r *Repository) Save(ctx context.Context, key string, data []byte) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record entities.Record
		result := tx.Where("key = ?", key).First(&record)

		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			record = entities.Record{
				Key:   key,
				Value: string(data),
			}
			return tx.Create(&record).Error
		} else if result.Error != nil {
			return result.Error
		}

		record.Value = string(data)
		return tx.Save(&record).Error
	})
}

// Keys lists the keys of all stored records.
func (r *Repository) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := r.db.WithContext(ctx).Model(&entities.Record{}).Order("key ASC").Pluck("key", &keys).Error
	return keys, err
}
