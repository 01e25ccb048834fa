package artworks

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// ArtworkDTO is the wire shape for a single artwork. Price is rendered as a
// decimal string alongside the canonical cents value.
type ArtworkDTO struct {
	ID             uuid.UUID             `json:"id"`
	ArtistID       uuid.UUID             `json:"artist_id"`
	Title          string                `json:"title"`
	Description    *string               `json:"description,omitempty"`
	Category       enums.ArtworkCategory `json:"category"`
	PriceCents     int64                 `json:"price_cents"`
	Price          string                `json:"price"`
	Currency       enums.Currency        `json:"currency"`
	Status         enums.ArtworkStatus   `json:"status"`
	ImageObject    *string               `json:"image_object,omitempty"`
	ImageURL       *string               `json:"image_url,omitempty"`
	CurrentOwnerID *uuid.UUID            `json:"current_owner_id,omitempty"`
	PublishedAt    *time.Time            `json:"published_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// FromModel maps a persisted artwork onto the wire shape.
func FromModel(m *models.Artwork) ArtworkDTO {
	return ArtworkDTO{
		ID:             m.ID,
		ArtistID:       m.ArtistID,
		Title:          m.Title,
		Description:    m.Description,
		Category:       m.Category,
		PriceCents:     m.PriceCents,
		Price:          decimal.NewFromInt(m.PriceCents).Div(decimal.NewFromInt(100)).StringFixed(2),
		Currency:       m.Currency,
		Status:         m.Status,
		ImageObject:    m.ImageObject,
		CurrentOwnerID: m.CurrentOwnerID,
		PublishedAt:    m.PublishedAt,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// CreateArtworkInput is the artist-facing creation payload.
type CreateArtworkInput struct {
	Title       string  `json:"title" validate:"required,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	Category    string  `json:"category" validate:"required"`
	PriceCents  int64   `json:"price_cents" validate:"required,gt=0"`
	Currency    string  `json:"currency,omitempty"`
	ImageObject *string `json:"image_object,omitempty" validate:"omitempty,max=512"`
}

// UpdateArtworkInput carries the patchable fields. Nil means unchanged.
type UpdateArtworkInput struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	Category    *string `json:"category,omitempty"`
	PriceCents  *int64  `json:"price_cents,omitempty" validate:"omitempty,gt=0"`
	ImageObject *string `json:"image_object,omitempty" validate:"omitempty,max=512"`
}

// ResaleInput relists a sold artwork at a new asking price.
type ResaleInput struct {
	PriceCents int64 `json:"price_cents" validate:"required,gt=0"`
}

// PresignInput requests a signed upload URL for an artwork image.
type PresignInput struct {
	FileName    string `json:"file_name" validate:"required,min=1,max=256"`
	ContentType string `json:"content_type" validate:"required,oneof=image/jpeg image/png image/webp"`
}

// PresignResult is the signed upload URL plus the object name the client
// should echo back on artwork create/update.
type PresignResult struct {
	UploadURL   string    `json:"upload_url"`
	ObjectName  string    `json:"object_name"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// OwnershipDTO is one provenance row.
type OwnershipDTO struct {
	OwnerID       uuid.UUID      `json:"owner_id"`
	TransactionID *uuid.UUID     `json:"transaction_id,omitempty"`
	PriceCents    int64          `json:"price_cents"`
	Currency      enums.Currency `json:"currency"`
	AcquiredAt    time.Time      `json:"acquired_at"`
}
