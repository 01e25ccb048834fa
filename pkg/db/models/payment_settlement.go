package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// PaymentSettlement is the idempotency record for the settlement worker. The
// unique index on payment_id is what makes settlement exactly-once: the row is
// inserted in the same transaction as the ledger append, so a duplicate
// delivery hits the constraint instead of double-debiting.
type PaymentSettlement struct {
	ID            uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PaymentID     string                  `gorm:"column:payment_id;not null;uniqueIndex"`
	SessionID     string                  `gorm:"column:session_id;not null;index"`
	ArtworkID     uuid.UUID               `gorm:"column:artwork_id;type:uuid;not null"`
	BuyerID       uuid.UUID               `gorm:"column:buyer_id;type:uuid;not null"`
	WalletID      uuid.UUID               `gorm:"column:wallet_id;type:uuid;not null"`
	TransactionID *uuid.UUID              `gorm:"column:transaction_id;type:uuid"`
	OfferID       *uuid.UUID              `gorm:"column:offer_id;type:uuid"`
	Trigger       enums.SettlementTrigger `gorm:"column:trigger;type:settlement_trigger_enum;not null"`
	Status        enums.SettlementStatus  `gorm:"column:status;type:settlement_status_enum;not null"`
	AmountCents   int64                   `gorm:"column:amount_cents;not null"`
	Currency      enums.Currency          `gorm:"column:currency;type:currency_enum;not null"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
}
