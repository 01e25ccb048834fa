package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// CollectionItem is the denormalized per-user index of owned artworks.
// Only settlement mutates it.
type CollectionItem struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_collection_user_artwork"`
	ArtworkID     uuid.UUID      `gorm:"column:artwork_id;type:uuid;not null;uniqueIndex:idx_collection_user_artwork"`
	TransactionID uuid.UUID      `gorm:"column:transaction_id;type:uuid;not null"`
	PriceCents    int64          `gorm:"column:price_cents;not null"`
	Currency      enums.Currency `gorm:"column:currency;type:currency_enum;not null"`
	PurchasedAt   time.Time      `gorm:"column:purchased_at;not null"`
	CreatedAt     time.Time      `gorm:"column:created_at;autoCreateTime"`
}
