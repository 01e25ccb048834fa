package artworks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	"github.com/nmoreau/galleria-backend/pkg/pagination"
)

// Repository manages artwork persistence, including the compare-and-set
// ownership transfer used by settlement.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, artwork *models.Artwork) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error)
	List(ctx context.Context, filter ListFilter) ([]models.Artwork, error)
	ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error)
	Update(ctx context.Context, artwork *models.Artwork) error
	// TransferOwnership performs the CAS on (id, version): it only succeeds
	// when the version still matches, bumping it and marking the piece sold.
	TransferOwnership(ctx context.Context, id uuid.UUID, newOwnerID uuid.UUID, expectedVersion int64) (bool, error)
	AppendOwnership(ctx context.Context, row *models.ArtworkOwnership) error
	ListOwnershipHistory(ctx context.Context, artworkID uuid.UUID) ([]models.ArtworkOwnership, error)
}

// ListFilter narrows the public artwork listing.
type ListFilter struct {
	Statuses []enums.ArtworkStatus
	Category *enums.ArtworkCategory
	Limit    int
	Cursor   *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an artworks repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, artwork *models.Artwork) error {
	return r.db.WithContext(ctx).Create(artwork).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	var artwork models.Artwork
	if err := r.db.WithContext(ctx).First(&artwork, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &artwork, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Artwork, error) {
	q := r.db.WithContext(ctx).Model(&models.Artwork{})
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.Category != nil {
		q = q.Where("category = ?", *filter.Category)
	}
	if filter.Cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	q = q.Order("created_at DESC, id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var artworks []models.Artwork
	if err := q.Find(&artworks).Error; err != nil {
		return nil, err
	}
	return artworks, nil
}

func (r *repository) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error) {
	var artworks []models.Artwork
	if err := r.db.WithContext(ctx).
		Where("artist_id = ?", artistID).
		Order("created_at DESC").
		Find(&artworks).Error; err != nil {
		return nil, err
	}
	return artworks, nil
}

func (r *repository) Update(ctx context.Context, artwork *models.Artwork) error {
	return r.db.WithContext(ctx).Save(artwork).Error
}

func (r *repository) TransferOwnership(ctx context.Context, id uuid.UUID, newOwnerID uuid.UUID, expectedVersion int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Artwork{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]any{
			"current_owner_id": newOwnerID,
			"status":           enums.ArtworkStatusSold,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendOwnership(ctx context.Context, row *models.ArtworkOwnership) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) ListOwnershipHistory(ctx context.Context, artworkID uuid.UUID) ([]models.ArtworkOwnership, error) {
	var rows []models.ArtworkOwnership
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ?", artworkID).
		Order("acquired_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
