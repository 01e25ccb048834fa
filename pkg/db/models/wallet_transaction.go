package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// WalletTransaction is an immutable ledger row. Append is the only mutation;
// rows are never updated or deleted.
type WalletTransaction struct {
	ID          uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID    uuid.UUID             `gorm:"column:wallet_id;type:uuid;not null;index"`
	Type        enums.TransactionType `gorm:"column:type;type:transaction_type_enum;not null"`
	AmountCents int64                 `gorm:"column:amount_cents;not null"`
	Currency    enums.Currency        `gorm:"column:currency;type:currency_enum;not null"`
	ArtworkID   *uuid.UUID            `gorm:"column:artwork_id;type:uuid"`
	PaymentID   *string               `gorm:"column:payment_id;index"`
	Memo        *string               `gorm:"column:memo"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
}
