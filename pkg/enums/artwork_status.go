package enums

import "fmt"

// ArtworkStatus maps to the artwork_status_enum enum in Postgres.
//
// Lifecycle: draft -> sale -> sold -> resale -> sold -> ...
type ArtworkStatus string

const (
	ArtworkStatusDraft  ArtworkStatus = "draft"
	ArtworkStatusSale   ArtworkStatus = "sale"
	ArtworkStatusResale ArtworkStatus = "resale"
	ArtworkStatusSold   ArtworkStatus = "sold"
)

var validArtworkStatuses = []ArtworkStatus{
	ArtworkStatusDraft,
	ArtworkStatusSale,
	ArtworkStatusResale,
	ArtworkStatusSold,
}

func (s ArtworkStatus) IsValid() bool {
	for _, candidate := range validArtworkStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// Purchasable reports whether checkout may start without an accepted offer.
func (s ArtworkStatus) Purchasable() bool {
	return s == ArtworkStatusSale || s == ArtworkStatusResale
}

func ParseArtworkStatus(value string) (ArtworkStatus, error) {
	for _, candidate := range validArtworkStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artwork status %q", value)
}
