package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// ArtworkOwnership is one row per completed transfer, appended by settlement.
type ArtworkOwnership struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ArtworkID     uuid.UUID      `gorm:"column:artwork_id;type:uuid;not null;index"`
	OwnerID       uuid.UUID      `gorm:"column:owner_id;type:uuid;not null;index"`
	TransactionID *uuid.UUID     `gorm:"column:transaction_id;type:uuid"`
	PriceCents    int64          `gorm:"column:price_cents;not null"`
	Currency      enums.Currency `gorm:"column:currency;type:currency_enum;not null"`
	AcquiredAt    time.Time      `gorm:"column:acquired_at;autoCreateTime"`
}
