package model

import (
	"encoding/json"
	"time"
)

// Item is a persisted stock record. ExternalId is the caller-supplied
// identity and is unique across the whole store; ID is the storage key.
type Item struct {
	ID         uint   `gorm:"primaryKey"`
	ExternalID string `gorm:"column:external_id;type:VARCHAR;size:100;uniqueIndex:items_external_id_key;not null"`
	Name       string `gorm:"type:VARCHAR;size:255;not null"`
	Quantity   *int64
	ExpiryDate *time.Time `gorm:"type:date"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (i Item) String() string {
	val, _ := json.Marshal(i)
	return string(val)
}
