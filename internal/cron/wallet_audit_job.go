package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/nmoreau/galleria-backend/pkg/logger"
)

const (
	walletAuditJobName      = "wallet_audit"
	defaultWalletAuditBatch = 500
)

// WalletIDLister pages wallet ids for the audit sweep.
type WalletIDLister interface {
	ListWalletIDs(ctx context.Context, afterID uuid.UUID, limit int) ([]uuid.UUID, error)
}

// BalanceVerifier recomputes a wallet balance from its ledger and reports drift.
type BalanceVerifier interface {
	VerifyBalance(ctx context.Context, walletID uuid.UUID) error
}

// WalletAuditJobParams configure the wallet audit job.
type WalletAuditJobParams struct {
	Logger    *logger.Logger
	Repo      WalletIDLister
	Wallets   BalanceVerifier
	BatchSize int
}

// WalletAuditJob sweeps every wallet and checks that the stored balance
// matches the signed sum of its ledger. Drift is reported, never repaired:
// a mismatched wallet means a write path bug and needs a human.
type WalletAuditJob struct {
	logg      *logger.Logger
	repo      WalletIDLister
	wallets   BalanceVerifier
	batchSize int
}

// NewWalletAuditJob builds the wallet audit job.
func NewWalletAuditJob(params WalletAuditJobParams) (*WalletAuditJob, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultWalletAuditBatch
	}
	return &WalletAuditJob{
		logg:      params.Logger,
		repo:      params.Repo,
		wallets:   params.Wallets,
		batchSize: batchSize,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *WalletAuditJob) Name() string { return walletAuditJobName }

// Run audits every wallet once. Individual failures are collected so one
// drifted wallet does not hide the rest of the sweep.
func (j *WalletAuditJob) Run(ctx context.Context) error {
	var (
		audited int
		failed  int
		errs    []error
		afterID uuid.UUID
	)

	for {
		ids, err := j.repo.ListWalletIDs(ctx, afterID, j.batchSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("list wallets after %s: %w", afterID, err))
			break
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return err
			}
			audited++
			if err := j.wallets.VerifyBalance(ctx, id); err != nil {
				failed++
				errs = append(errs, fmt.Errorf("wallet %s: %w", id, err))
			}
		}
		afterID = ids[len(ids)-1]
	}

	summary := j.logg.WithFields(ctx, map[string]any{
		"audited": audited,
		"failed":  failed,
	})
	if failed > 0 {
		j.logg.Warn(summary, "wallet audit found drifted wallets")
	} else {
		j.logg.Info(summary, "wallet audit clean")
	}

	return multierr.Combine(errs...)
}
