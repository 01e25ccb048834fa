package artworks

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
	"github.com/nmoreau/galleria-backend/pkg/pagination"
	"gorm.io/gorm"
)

// URLSigner mints signed GCS URLs. Satisfied by *gcs.Client.
type URLSigner interface {
	DefaultBucket() string
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
}

// Service exposes artwork lifecycle operations: create, browse, edit,
// publish, relist, and upload presigning.
type Service interface {
	Create(ctx context.Context, artistID uuid.UUID, role enums.UserRole, input CreateArtworkInput) (*models.Artwork, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	List(ctx context.Context, limit int, cursor string, category *enums.ArtworkCategory) ([]models.Artwork, string, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error)
	Update(ctx context.Context, requesterID uuid.UUID, id uuid.UUID, input UpdateArtworkInput) (*models.Artwork, error)
	Publish(ctx context.Context, requesterID uuid.UUID, id uuid.UUID) (*models.Artwork, error)
	Resale(ctx context.Context, requesterID uuid.UUID, id uuid.UUID, input ResaleInput) (*models.Artwork, error)
	Presign(ctx context.Context, artistID uuid.UUID, role enums.UserRole, input PresignInput) (*PresignResult, error)
	OwnershipHistory(ctx context.Context, artworkID uuid.UUID) ([]OwnershipDTO, error)
	ImageURL(artwork *models.Artwork) *string
}

// ServiceParams wires the artwork service dependencies.
type ServiceParams struct {
	Repo   Repository
	Signer URLSigner
	GCS    config.GCSConfig
	Logger *logger.Logger
}

type service struct {
	repo   Repository
	signer URLSigner
	gcs    config.GCSConfig
	logg   *logger.Logger
}

// NewService validates dependencies and returns the artwork service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("artworks repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:   params.Repo,
		signer: params.Signer,
		gcs:    params.GCS,
		logg:   params.Logger,
	}, nil
}

func (s *service) Create(ctx context.Context, artistID uuid.UUID, role enums.UserRole, input CreateArtworkInput) (*models.Artwork, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist id is required")
	}
	if role != enums.UserRoleArtist {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only artists can create artworks")
	}

	category := enums.ArtworkCategory(strings.ToLower(strings.TrimSpace(input.Category)))
	if !category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid artwork category")
	}

	currency := enums.Currency(strings.ToLower(strings.TrimSpace(input.Currency)))
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	artwork := &models.Artwork{
		ArtistID:    artistID,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Category:    category,
		PriceCents:  input.PriceCents,
		Currency:    currency,
		Status:      enums.ArtworkStatusDraft,
		ImageObject: input.ImageObject,
	}
	if err := s.repo.Create(ctx, artwork); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create artwork")
	}
	return artwork, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}
	artwork, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	return artwork, nil
}

// List returns publicly visible artworks (sale, resale, sold) newest first,
// with an opaque cursor for the next page.
func (s *service) List(ctx context.Context, limit int, cursor string, category *enums.ArtworkCategory) ([]models.Artwork, string, error) {
	limit = pagination.NormalizeLimit(limit)

	filter := ListFilter{
		Statuses: []enums.ArtworkStatus{
			enums.ArtworkStatusSale,
			enums.ArtworkStatusResale,
			enums.ArtworkStatusSold,
		},
		Category: category,
		Limit:    limit + 1,
	}
	decoded, err := pagination.ParseCursor(cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	filter.Cursor = decoded

	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artworks")
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

func (s *service) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error) {
	if artistID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artist id is required")
	}
	rows, err := s.repo.ListByArtist(ctx, artistID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list artist artworks")
	}
	return rows, nil
}

// Update applies a partial edit. The artist may edit freely while the piece
// is unsold; after a sale only the current owner may touch it, and only the
// listing fields (price, image), never the artist-authored metadata.
func (s *service) Update(ctx context.Context, requesterID uuid.UUID, id uuid.UUID, input UpdateArtworkInput) (*models.Artwork, error) {
	artwork, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	sold := artwork.Status == enums.ArtworkStatusSold || artwork.Status == enums.ArtworkStatusResale

	switch {
	case !sold && requesterID == artwork.ArtistID:
		// artist editing an unsold piece: all fields allowed
	case sold && artwork.CurrentOwnerID != nil && requesterID == *artwork.CurrentOwnerID:
		if input.Title != nil || input.Description != nil || input.Category != nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "owners cannot edit artist metadata")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to edit this artwork")
	}

	if input.Title != nil {
		artwork.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		artwork.Description = input.Description
	}
	if input.Category != nil {
		category := enums.ArtworkCategory(strings.ToLower(strings.TrimSpace(*input.Category)))
		if !category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid artwork category")
		}
		artwork.Category = category
	}
	if input.PriceCents != nil {
		artwork.PriceCents = *input.PriceCents
	}
	if input.ImageObject != nil {
		artwork.ImageObject = input.ImageObject
	}

	if err := s.repo.Update(ctx, artwork); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update artwork")
	}
	return artwork, nil
}

// Publish moves a draft onto the market.
func (s *service) Publish(ctx context.Context, requesterID uuid.UUID, id uuid.UUID) (*models.Artwork, error) {
	artwork, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if requesterID != artwork.ArtistID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the artist can publish")
	}
	if artwork.Status != enums.ArtworkStatusDraft {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "artwork is not a draft")
	}
	if artwork.ImageObject == nil || *artwork.ImageObject == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork needs an image before publishing")
	}

	now := time.Now().UTC()
	artwork.Status = enums.ArtworkStatusSale
	artwork.PublishedAt = &now
	if err := s.repo.Update(ctx, artwork); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "publish artwork")
	}
	return artwork, nil
}

// Resale relists a sold artwork at the owner's asking price.
func (s *service) Resale(ctx context.Context, requesterID uuid.UUID, id uuid.UUID, input ResaleInput) (*models.Artwork, error) {
	artwork, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if artwork.CurrentOwnerID == nil || requesterID != *artwork.CurrentOwnerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the current owner can relist")
	}
	if artwork.Status != enums.ArtworkStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only sold artworks can be relisted")
	}

	artwork.Status = enums.ArtworkStatusResale
	artwork.PriceCents = input.PriceCents
	if err := s.repo.Update(ctx, artwork); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "relist artwork")
	}
	return artwork, nil
}

// Presign issues a short-lived signed PUT URL under the artist's prefix.
func (s *service) Presign(ctx context.Context, artistID uuid.UUID, role enums.UserRole, input PresignInput) (*PresignResult, error) {
	if role != enums.UserRoleArtist {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only artists can upload images")
	}
	if s.signer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "storage is not configured")
	}

	ext := strings.ToLower(path.Ext(input.FileName))
	object := fmt.Sprintf("artworks/%s/%s%s", artistID, uuid.NewString(), ext)

	url, err := s.signer.SignedURL(s.gcs.BucketName, object, input.ContentType, s.gcs.UploadURLExpiry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignResult{
		UploadURL:   url,
		ObjectName:  object,
		ContentType: input.ContentType,
		ExpiresAt:   time.Now().UTC().Add(s.gcs.UploadURLExpiry),
	}, nil
}

func (s *service) OwnershipHistory(ctx context.Context, artworkID uuid.UUID) ([]OwnershipDTO, error) {
	if artworkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}
	rows, err := s.repo.ListOwnershipHistory(ctx, artworkID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ownership history")
	}
	out := make([]OwnershipDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, OwnershipDTO{
			OwnerID:       row.OwnerID,
			TransactionID: row.TransactionID,
			PriceCents:    row.PriceCents,
			Currency:      row.Currency,
			AcquiredAt:    row.AcquiredAt,
		})
	}
	return out, nil
}

// ImageURL resolves a signed read URL for the artwork image, or nil when the
// piece has no image or storage is unavailable. Signing failures are logged
// and swallowed: a missing thumbnail should not fail a listing.
func (s *service) ImageURL(artwork *models.Artwork) *string {
	if artwork == nil || artwork.ImageObject == nil || *artwork.ImageObject == "" || s.signer == nil {
		return nil
	}
	url, err := s.signer.SignedReadURL(s.gcs.BucketName, *artwork.ImageObject, s.gcs.DownloadURLExpiry)
	if err != nil {
		ctx := s.logg.WithArtworkID(context.Background(), artwork.ID.String())
		s.logg.Warn(ctx, "signing read url failed: "+err.Error())
		return nil
	}
	return &url
}
