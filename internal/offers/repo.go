package offers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// Repository manages offer persistence. Accept/reject decisions ride the
// caller's transaction via WithTx so sibling rejection commits atomically.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	ListPending(ctx context.Context, artworkID uuid.UUID) ([]models.Offer, error)
	CountPending(ctx context.Context, artworkID uuid.UUID) (int64, error)
	FindAccepted(ctx context.Context, artworkID uuid.UUID) (*models.Offer, error)
	FindPendingByBuyer(ctx context.Context, artworkID, buyerID uuid.UUID) (*models.Offer, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error
	RejectPendingSiblings(ctx context.Context, artworkID, acceptedID uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an offers repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListPending returns pending offers best-first: highest amount, earliest
// created_at as the tie-break.
func (r *repository) ListPending(ctx context.Context, artworkID uuid.UUID) ([]models.Offer, error) {
	var offers []models.Offer
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ? AND status = ?", artworkID, enums.OfferStatusPending).
		Order("amount_cents DESC, created_at ASC").
		Find(&offers).Error; err != nil {
		return nil, err
	}
	return offers, nil
}

func (r *repository) CountPending(ctx context.Context, artworkID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("artwork_id = ? AND status = ?", artworkID, enums.OfferStatusPending).
		Count(&count).Error
	return count, err
}

func (r *repository) FindAccepted(ctx context.Context, artworkID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ? AND status = ?", artworkID, enums.OfferStatusAccepted).
		First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindPendingByBuyer(ctx context.Context, artworkID, buyerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	if err := r.db.WithContext(ctx).
		Where("artwork_id = ? AND buyer_id = ? AND status = ?", artworkID, buyerID, enums.OfferStatusPending).
		First(&offer).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"decided_at": time.Now().UTC(),
		}).Error
}

func (r *repository) RejectPendingSiblings(ctx context.Context, artworkID, acceptedID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("artwork_id = ? AND id <> ? AND status = ?", artworkID, acceptedID, enums.OfferStatusPending).
		Updates(map[string]any{
			"status":     enums.OfferStatusRejected,
			"decided_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
