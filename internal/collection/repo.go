package collection

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
)

// Repository manages the per-user collection index. Only settlement writes
// to it; reads back the profile collection screen.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Add(ctx context.Context, item *models.CollectionItem) error
	Remove(ctx context.Context, userID, artworkID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CollectionItem, error)
	FindByUserAndArtwork(ctx context.Context, userID, artworkID uuid.UUID) (*models.CollectionItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a collection repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Add(ctx context.Context, item *models.CollectionItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) Remove(ctx context.Context, userID, artworkID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND artwork_id = ?", userID, artworkID).
		Delete(&models.CollectionItem{})
	return res.RowsAffected, res.Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CollectionItem, error) {
	var items []models.CollectionItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("purchased_at DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindByUserAndArtwork(ctx context.Context, userID, artworkID uuid.UUID) (*models.CollectionItem, error) {
	var item models.CollectionItem
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND artwork_id = ?", userID, artworkID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}
