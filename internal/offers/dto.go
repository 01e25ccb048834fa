package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// OfferDTO is the wire shape for one offer.
type OfferDTO struct {
	ID          uuid.UUID         `json:"id"`
	ArtworkID   uuid.UUID         `json:"artwork_id"`
	BuyerID     uuid.UUID         `json:"buyer_id"`
	AmountCents int64             `json:"amount_cents"`
	Amount      string            `json:"amount"`
	Currency    enums.Currency    `json:"currency"`
	Message     *string           `json:"message,omitempty"`
	Status      enums.OfferStatus `json:"status"`
	DecidedAt   *time.Time        `json:"decided_at,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// FromModel maps a persisted offer onto the wire shape.
func FromModel(m *models.Offer) OfferDTO {
	return OfferDTO{
		ID:          m.ID,
		ArtworkID:   m.ArtworkID,
		BuyerID:     m.BuyerID,
		AmountCents: m.AmountCents,
		Amount:      decimal.NewFromInt(m.AmountCents).Div(decimal.NewFromInt(100)).StringFixed(2),
		Currency:    m.Currency,
		Message:     m.Message,
		Status:      m.Status,
		DecidedAt:   m.DecidedAt,
		CreatedAt:   m.CreatedAt,
	}
}

// CreateOfferInput is the buyer-facing offer payload.
type CreateOfferInput struct {
	AmountCents int64   `json:"amount_cents" validate:"required,gt=0"`
	Message     *string `json:"message,omitempty" validate:"omitempty,max=1000"`
}

// DecisionInput carries the owner's accept/reject verdict.
type DecisionInput struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}
