package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEntityStore is a GORM-backed EntityStore. It works against any dialect
// GORM supports; the app wires it with SQLite or PostgreSQL.
type GormEntityStore[T any, PT interface {
	*T
	Entity
}] struct {
	db *gorm.DB
}

// NewGormEntityStore creates a new GormEntityStore on top of db. The caller
// is responsible for migrating the schema for T.
func NewGormEntityStore[T any, PT interface {
	*T
	Entity
}](db *gorm.DB) *GormEntityStore[T, PT] {
	return &GormEntityStore[T, PT]{
		db: db,
	}
}

// GetAll retrieves every record of type T. Ordering is unspecified.
func (s *GormEntityStore[T, PT]) GetAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := s.db.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, unavailable("list entities", err)
	}
	return entities, nil
}

// Get retrieves a single record by its key pair, or ErrNotFound.
func (s *GormEntityStore[T, PT]) Get(ctx context.Context, partitionKey, rowKey string) (*T, error) {
	var entity T
	err := s.db.WithContext(ctx).
		Where("partition_key = ? AND row_key = ?", partitionKey, rowKey).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("get %s/%s: %w", partitionKey, rowKey, ErrNotFound)
		}
		return nil, unavailable(fmt.Sprintf("get %s/%s", partitionKey, rowKey), err)
	}
	return &entity, nil
}

// Add inserts a new record, assigning a row key when absent and a fresh ETag.
// The composite primary key backs the duplicate check.
func (s *GormEntityStore[T, PT]) Add(ctx context.Context, entity PT) error {
	partitionKey, rowKey := entity.EntityKeys()
	if rowKey == "" {
		rowKey = uuid.New().String()
		entity.SetRowKey(rowKey)
	}
	if _, err := s.Get(ctx, partitionKey, rowKey); err == nil {
		return fmt.Errorf("add %s/%s: %w", partitionKey, rowKey, ErrConflict)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	entity.SetETag(uuid.New().String())
	if err := s.db.WithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("add %s/%s: %w", partitionKey, rowKey, ErrConflict)
		}
		return unavailable(fmt.Sprintf("add %s/%s", partitionKey, rowKey), err)
	}
	return nil
}

// Update writes the record conditionally on its ETag still being current: the
// UPDATE matches on key pair plus the ETag from the caller's prior read, and
// zero affected rows distinguishes a missing record from a stale token.
func (s *GormEntityStore[T, PT]) Update(ctx context.Context, entity PT) error {
	partitionKey, rowKey := entity.EntityKeys()
	priorEtag := entity.ETag()
	if priorEtag == "" {
		return fmt.Errorf("update %s/%s: etag from a prior read is required: %w", partitionKey, rowKey, ErrConcurrency)
	}

	entity.SetETag(uuid.New().String())
	res := s.db.WithContext(ctx).
		Model(entity).
		Select("*").
		Where("etag = ?", priorEtag).
		Updates(entity)
	if res.Error != nil {
		entity.SetETag(priorEtag)
		return unavailable(fmt.Sprintf("update %s/%s", partitionKey, rowKey), res.Error)
	}
	if res.RowsAffected == 0 {
		entity.SetETag(priorEtag)
		if _, err := s.Get(ctx, partitionKey, rowKey); errors.Is(err, ErrNotFound) {
			return fmt.Errorf("update %s/%s: %w", partitionKey, rowKey, ErrNotFound)
		}
		return fmt.Errorf("update %s/%s: %w", partitionKey, rowKey, ErrConcurrency)
	}
	return nil
}

// Delete removes a record. A missing row is a success, not an error.
func (s *GormEntityStore[T, PT]) Delete(ctx context.Context, partitionKey, rowKey string) error {
	var entity T
	res := s.db.WithContext(ctx).
		Where("partition_key = ? AND row_key = ?", partitionKey, rowKey).
		Delete(&entity)
	if res.Error != nil {
		return unavailable(fmt.Sprintf("delete %s/%s", partitionKey, rowKey), res.Error)
	}
	return nil
}
