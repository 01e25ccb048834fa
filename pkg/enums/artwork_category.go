package enums

import "fmt"

// ArtworkCategory maps to the artwork_category_enum enum in Postgres.
type ArtworkCategory string

const (
	ArtworkCategoryPainting     ArtworkCategory = "painting"
	ArtworkCategoryIllustration ArtworkCategory = "illustration"
	ArtworkCategoryPhotography  ArtworkCategory = "photography"
	ArtworkCategoryGenerative   ArtworkCategory = "generative"
	ArtworkCategoryPixel        ArtworkCategory = "pixel"
	ArtworkCategoryMixedMedia   ArtworkCategory = "mixed_media"
)

var validArtworkCategories = []ArtworkCategory{
	ArtworkCategoryPainting,
	ArtworkCategoryIllustration,
	ArtworkCategoryPhotography,
	ArtworkCategoryGenerative,
	ArtworkCategoryPixel,
	ArtworkCategoryMixedMedia,
}

func (c ArtworkCategory) IsValid() bool {
	for _, candidate := range validArtworkCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

func ParseArtworkCategory(value string) (ArtworkCategory, error) {
	for _, candidate := range validArtworkCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid artwork category %q", value)
}
