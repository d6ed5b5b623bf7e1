package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/kubev2v/stock-importer/internal/store/model"
	"gorm.io/gorm"
)

// Item exposes the two operations the ingestion pipeline needs: one bulk
// fetch of every known external id, used to seed the duplicate index, and one
// bulk persist per commit. Persist runs in a single transaction, so each call
// succeeds or fails as a unit.
type Item interface {
	FetchAllExternalIDs(ctx context.Context) ([]string, error)
	Persist(ctx context.Context, items []model.Item) error
	Count(ctx context.Context) (int64, error)
	InitialMigration() error
}

type ItemStore struct {
	db *gorm.DB
}

// Make sure we conform to Item interface
var _ Item = (*ItemStore)(nil)

func NewItemStore(db *gorm.DB) Item {
	return &ItemStore{db: db}
}

func (s *ItemStore) InitialMigration() error {
	return s.db.AutoMigrate(&model.Item{})
}

func (s *ItemStore) FetchAllExternalIDs(ctx context.Context) ([]string, error) {
	var ids []string
	result := s.getDB(ctx).Model(&model.Item{}).Pluck("external_id", &ids)
	if result.Error != nil {
		return nil, fmt.Errorf("fetching external ids: %w", result.Error)
	}
	return ids, nil
}

func (s *ItemStore) Persist(ctx context.Context, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	result := s.getDB(ctx).Create(&items)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("persisting %d items: %w", len(items), ErrDuplicateKey)
		}
		return fmt.Errorf("persisting %d items: %w", len(items), result.Error)
	}
	return nil
}

func (s *ItemStore) Count(ctx context.Context) (int64, error) {
	var count int64
	result := s.getDB(ctx).Model(&model.Item{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}

func (s *ItemStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
