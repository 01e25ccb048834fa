package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// Offer is a resale price proposal from a prospective buyer on a sold
// artwork. At most one offer per artwork may be accepted at a time; accepting
// one rejects all pending siblings in the same transaction.
type Offer struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ArtworkID   uuid.UUID         `gorm:"column:artwork_id;type:uuid;not null;index"`
	BuyerID     uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	AmountCents int64             `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency    `gorm:"column:currency;type:currency_enum;not null"`
	Message     *string           `gorm:"column:message"`
	Status      enums.OfferStatus `gorm:"column:status;type:offer_status_enum;not null;default:'pending'"`
	DecidedAt   *time.Time        `gorm:"column:decided_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
