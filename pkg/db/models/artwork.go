package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// Artwork is the sellable entity. CurrentOwnerID is nil until the first sale;
// the full transfer history lives in artwork_ownerships. Version is the
// optimistic lock for ownership transfer and relisting.
type Artwork struct {
	ID             uuid.UUID             `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ArtistID       uuid.UUID             `gorm:"column:artist_id;type:uuid;not null;index"`
	Title          string                `gorm:"column:title;not null"`
	Description    *string               `gorm:"column:description"`
	Category       enums.ArtworkCategory `gorm:"column:category;type:artwork_category_enum;not null"`
	PriceCents     int64                 `gorm:"column:price_cents;not null"`
	Currency       enums.Currency        `gorm:"column:currency;type:currency_enum;not null;default:'usd'"`
	Status         enums.ArtworkStatus   `gorm:"column:status;type:artwork_status_enum;not null;default:'draft'"`
	ImageObject    *string               `gorm:"column:image_object"`
	CurrentOwnerID *uuid.UUID            `gorm:"column:current_owner_id;type:uuid;index"`
	Version        int64                 `gorm:"column:version;not null;default:0"`
	PublishedAt    *time.Time            `gorm:"column:published_at"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
