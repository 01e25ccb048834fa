package wallets

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// WalletDTO is the wire shape for a wallet. Balance is rendered as a decimal
// string alongside the canonical cents value.
type WalletDTO struct {
	ID           uuid.UUID      `json:"id"`
	UserID       uuid.UUID      `json:"user_id"`
	BalanceCents int64          `json:"balance_cents"`
	Balance      string         `json:"balance"`
	Currency     enums.Currency `json:"currency"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TransactionDTO is the wire shape for one immutable ledger row.
type TransactionDTO struct {
	ID          uuid.UUID             `json:"id"`
	WalletID    uuid.UUID             `json:"wallet_id"`
	Type        enums.TransactionType `json:"type"`
	AmountCents int64                 `json:"amount_cents"`
	Amount      string                `json:"amount"`
	Currency    enums.Currency        `json:"currency"`
	ArtworkID   *uuid.UUID            `json:"artwork_id,omitempty"`
	PaymentID   *string               `json:"payment_id,omitempty"`
	Memo        *string               `json:"memo,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// FromModel maps a persisted wallet onto the wire shape.
func FromModel(m *models.Wallet) WalletDTO {
	return WalletDTO{
		ID:           m.ID,
		UserID:       m.UserID,
		BalanceCents: m.BalanceCents,
		Balance:      centsString(m.BalanceCents),
		Currency:     m.Currency,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// TransactionFromModel maps one ledger row onto the wire shape.
func TransactionFromModel(m *models.WalletTransaction) TransactionDTO {
	return TransactionDTO{
		ID:          m.ID,
		WalletID:    m.WalletID,
		Type:        m.Type,
		AmountCents: m.AmountCents,
		Amount:      centsString(m.AmountCents),
		Currency:    m.Currency,
		ArtworkID:   m.ArtworkID,
		PaymentID:   m.PaymentID,
		Memo:        m.Memo,
		CreatedAt:   m.CreatedAt,
	}
}

// TransactionsFromModels maps a ledger page onto the wire shape.
func TransactionsFromModels(items []models.WalletTransaction) []TransactionDTO {
	dtos := make([]TransactionDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, TransactionFromModel(&items[i]))
	}
	return dtos
}

func centsString(cents int64) string {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).StringFixed(2)
}
