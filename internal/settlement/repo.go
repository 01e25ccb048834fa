package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
)

// Repository manages payment settlement records. The unique index on
// payment_id is the idempotency claim: the insert rides the same transaction
// as the ledger append, so a duplicate delivery fails the claim before any
// money moves.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.PaymentSettlement) error
	FindByPaymentID(ctx context.Context, paymentID string) (*models.PaymentSettlement, error)
	SetTransaction(ctx context.Context, id, transactionID uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status enums.SettlementStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a settlement repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, row *models.PaymentSettlement) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repository) FindByPaymentID(ctx context.Context, paymentID string) (*models.PaymentSettlement, error) {
	var row models.PaymentSettlement
	if err := r.db.WithContext(ctx).First(&row, "payment_id = ?", paymentID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) SetTransaction(ctx context.Context, id, transactionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentSettlement{}).
		Where("id = ?", id).
		UpdateColumn("transaction_id", transactionID).Error
}

func (r *repository) SetStatus(ctx context.Context, id uuid.UUID, status enums.SettlementStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentSettlement{}).
		Where("id = ?", id).
		UpdateColumn("status", status).Error
}
