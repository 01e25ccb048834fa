package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// Wallet holds a user's balance. The balance column is derived state: it must
// always equal the signed sum of the wallet's transactions. Version guards the
// conditional balance update so two settlements cannot both apply.
type Wallet struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID      `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BalanceCents int64          `gorm:"column:balance_cents;not null;default:0"`
	Currency     enums.Currency `gorm:"column:currency;type:currency_enum;not null;default:'usd'"`
	Version      int64          `gorm:"column:version;not null;default:0"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
