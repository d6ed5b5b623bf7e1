package store

import (
	"context"

	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Item() Item
	InitialMigration() error
	Close() error
}

type DataStore struct {
	item Item
	db   *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		item: NewItemStore(db),
		db:   db,
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Item() Item {
	return s.item
}

func (s *DataStore) InitialMigration() error {
	return s.item.InitialMigration()
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
