package collection

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// ItemDTO is one owned artwork in the collection screen, joined with the
// artwork's display metadata.
type ItemDTO struct {
	ArtworkID     uuid.UUID             `json:"artwork_id"`
	Title         string                `json:"title"`
	Category      enums.ArtworkCategory `json:"category"`
	ArtistID      uuid.UUID             `json:"artist_id"`
	Status        enums.ArtworkStatus   `json:"status"`
	ImageURL      *string               `json:"image_url,omitempty"`
	TransactionID uuid.UUID             `json:"transaction_id"`
	PriceCents    int64                 `json:"price_cents"`
	Price         string                `json:"price"`
	Currency      enums.Currency        `json:"currency"`
	PurchasedAt   time.Time             `json:"purchased_at"`
}

func itemFromModels(item models.CollectionItem, artwork *models.Artwork, imageURL *string) ItemDTO {
	dto := ItemDTO{
		ArtworkID:     item.ArtworkID,
		TransactionID: item.TransactionID,
		PriceCents:    item.PriceCents,
		Price:         decimal.NewFromInt(item.PriceCents).Div(decimal.NewFromInt(100)).StringFixed(2),
		Currency:      item.Currency,
		PurchasedAt:   item.PurchasedAt,
	}
	if artwork != nil {
		dto.Title = artwork.Title
		dto.Category = artwork.Category
		dto.ArtistID = artwork.ArtistID
		dto.Status = artwork.Status
		dto.ImageURL = imageURL
	}
	return dto
}

// UpdatedEvent is the collection.updated payload published after settlement.
type UpdatedEvent struct {
	ArtworkID       uuid.UUID  `json:"artwork_id"`
	NewOwnerID      uuid.UUID  `json:"new_owner_id"`
	PreviousOwnerID *uuid.UUID `json:"previous_owner_id,omitempty"`
	TransactionID   uuid.UUID  `json:"transaction_id"`
	OccurredAt      time.Time  `json:"occurred_at"`
}
