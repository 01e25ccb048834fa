package wallets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
)

// Service defines wallet ledger operations. Balances are derived state: every
// balance change travels through Append so the signed transaction sum and the
// wallet row can never drift inside a committed transaction.
type Service interface {
	CreateForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, currency enums.Currency) (*models.Wallet, error)
	GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error)
	Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletTransaction, error)
	VerifyBalance(ctx context.Context, walletID uuid.UUID) error
}

// AppendInput captures one immutable ledger row plus the balance delta it implies.
type AppendInput struct {
	WalletID    uuid.UUID
	Type        enums.TransactionType
	AmountCents int64
	Currency    enums.Currency
	ArtworkID   *uuid.UUID
	PaymentID   *string
	Memo        *string
}

type service struct {
	repo Repository
}

// NewService wires a wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wallets repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, currency enums.Currency) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if currency == "" {
		currency = enums.CurrencyUSD
	}
	if !currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	wallet := &models.Wallet{
		UserID:   userID,
		Currency: currency,
	}
	if err := s.repo.WithTx(tx).CreateWallet(ctx, wallet); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
	}
	return wallet, nil
}

func (s *service) GetWallet(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	wallet, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	return wallet, nil
}

func (s *service) ListTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletTransaction, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	txns, err := s.repo.ListTransactions(ctx, walletID, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}

// Append writes the ledger row and applies the signed delta to the wallet
// balance with a version guard. Both writes ride the caller's transaction.
func (s *service) Append(ctx context.Context, tx *gorm.DB, input AppendInput) (*models.WalletTransaction, error) {
	if input.WalletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction type")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Currency.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}

	repo := s.repo.WithTx(tx)

	wallet, err := repo.FindByID(ctx, input.WalletID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
	}
	if wallet.Currency != input.Currency {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "transaction currency does not match wallet")
	}

	txn := &models.WalletTransaction{
		WalletID:    input.WalletID,
		Type:        input.Type,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		ArtworkID:   input.ArtworkID,
		PaymentID:   input.PaymentID,
		Memo:        input.Memo,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append transaction")
	}

	delta := int64(input.Type.Sign()) * input.AmountCents
	applied, err := repo.ApplyBalanceDelta(ctx, input.WalletID, delta, wallet.Version)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply balance delta")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "wallet version changed")
	}

	return txn, nil
}

// VerifyBalance asserts the wallet row equals the signed sum of its
// transactions. Used by reconciliation and tests after ledger mutations.
func (s *service) VerifyBalance(ctx context.Context, walletID uuid.UUID) error {
	wallet, err := s.GetWallet(ctx, walletID)
	if err != nil {
		return err
	}
	sum, err := s.repo.SumTransactions(ctx, walletID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum transactions")
	}
	if wallet.BalanceCents != sum {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("wallet balance %d does not equal transaction sum %d", wallet.BalanceCents, sum))
	}
	return nil
}
