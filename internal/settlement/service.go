package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/internal/collection"
	"github.com/nmoreau/galleria-backend/internal/offers"
	"github.com/nmoreau/galleria-backend/internal/wallets"
	"github.com/nmoreau/galleria-backend/pkg/db"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
	"github.com/nmoreau/galleria-backend/pkg/metrics"
)

// SettleInput identifies one completed payment. Both the webhook and the
// manual fallback build this from the Stripe session and call the same Settle.
type SettleInput struct {
	Trigger     enums.SettlementTrigger
	PaymentID   string
	SessionID   string
	ArtworkID   uuid.UUID
	BuyerID     uuid.UUID
	WalletID    uuid.UUID
	OfferID     *uuid.UUID
	AmountCents int64
	Currency    enums.Currency
}

// SettleResult reports what the settlement attempt did.
type SettleResult struct {
	TransactionID    *uuid.UUID             `json:"transaction_id,omitempty"`
	Status           enums.SettlementStatus `json:"status"`
	AlreadyProcessed bool                   `json:"already_processed"`
}

// EventPublisher emits the post-commit collection.updated event. Failures are
// the publisher's to log; settlement never blocks on it.
type EventPublisher interface {
	PublishCollectionUpdated(ctx context.Context, event collection.UpdatedEvent)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reconciles completed payments into the ledger, ownership, and
// collection index.
type Service interface {
	Settle(ctx context.Context, input SettleInput) (*SettleResult, error)
}

// ServiceParams wires the settlement worker dependencies.
type ServiceParams struct {
	Repo         Repository
	Wallets      wallets.Service
	ArtworkRepo  artworks.Repository
	Collection   collection.Repository
	CollectionSv collection.Service
	Offers       offers.Service
	Transactions txRunner
	Publisher    EventPublisher
	Metrics      *metrics.SettlementMetrics
	Logger       *logger.Logger
}

type service struct {
	repo          Repository
	wallets       wallets.Service
	artworkRepo   artworks.Repository
	collection    collection.Repository
	collectionSvc collection.Service
	offers        offers.Service
	txRunner      txRunner
	publisher     EventPublisher
	metrics       *metrics.SettlementMetrics
	logg          *logger.Logger
}

// NewService validates dependencies and returns the settlement worker.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if params.Wallets == nil {
		return nil, fmt.Errorf("wallets service required")
	}
	if params.ArtworkRepo == nil {
		return nil, fmt.Errorf("artworks repository required")
	}
	if params.Collection == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers service required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          params.Repo,
		wallets:       params.Wallets,
		artworkRepo:   params.ArtworkRepo,
		collection:    params.Collection,
		collectionSvc: params.CollectionSv,
		offers:        params.Offers,
		txRunner:      params.Transactions,
		publisher:     params.Publisher,
		metrics:       params.Metrics,
		logg:          params.Logger,
	}, nil
}

type settleState struct {
	settlementID  uuid.UUID
	transactionID uuid.UUID
	status        enums.SettlementStatus
	prevOwnerID   *uuid.UUID
}

// Settle runs the idempotency claim, ledger append, ownership compare-and-set,
// and collection index update in one transaction. A duplicate payment id
// short-circuits to the recorded outcome; a lost ownership race marks the
// settlement superseded and leaves the index untouched.
func (s *service) Settle(ctx context.Context, input SettleInput) (*SettleResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	ctx = s.logg.WithPaymentID(ctx, input.PaymentID)
	started := time.Now()

	var state settleState
	err := s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		return s.settleTx(ctx, tx, input, &state)
	})
	s.metrics.ObserveDuration(string(input.Trigger), time.Since(started))

	if err != nil {
		if db.IsUniqueViolation(err, "idx_payment_settlements_payment_id") {
			return s.alreadyProcessed(ctx, input)
		}
		s.metrics.IncOutcome(string(input.Trigger), metrics.OutcomeFailed)
		s.logg.Error(ctx, "settlement failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "settle payment")
	}

	s.afterCommit(ctx, input, state)

	result := &SettleResult{Status: state.status}
	if state.transactionID != uuid.Nil {
		result.TransactionID = &state.transactionID
	}
	return result, nil
}

func (s *service) settleTx(ctx context.Context, tx *gorm.DB, input SettleInput, state *settleState) error {
	repo := s.repo.WithTx(tx)

	row := &models.PaymentSettlement{
		PaymentID:   input.PaymentID,
		SessionID:   input.SessionID,
		ArtworkID:   input.ArtworkID,
		BuyerID:     input.BuyerID,
		WalletID:    input.WalletID,
		OfferID:     input.OfferID,
		Trigger:     input.Trigger,
		Status:      enums.SettlementStatusCompleted,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
	}
	if err := repo.Create(ctx, row); err != nil {
		return err
	}
	state.settlementID = row.ID

	memo := "artwork purchase"
	txn, err := s.wallets.Append(ctx, tx, wallets.AppendInput{
		WalletID:    input.WalletID,
		Type:        enums.TransactionTypeDebit,
		AmountCents: input.AmountCents,
		Currency:    input.Currency,
		ArtworkID:   &input.ArtworkID,
		PaymentID:   &input.PaymentID,
		Memo:        &memo,
	})
	if err != nil {
		return fmt.Errorf("ledger append: %w", err)
	}
	state.transactionID = txn.ID
	if err := repo.SetTransaction(ctx, row.ID, txn.ID); err != nil {
		return fmt.Errorf("link transaction: %w", err)
	}

	artworkRepo := s.artworkRepo.WithTx(tx)
	artwork, err := artworkRepo.FindByID(ctx, input.ArtworkID)
	if err != nil {
		return fmt.Errorf("load artwork: %w", err)
	}
	state.prevOwnerID = artwork.CurrentOwnerID

	transferred, err := artworkRepo.TransferOwnership(ctx, artwork.ID, input.BuyerID, artwork.Version)
	if err != nil {
		return fmt.Errorf("transfer ownership: %w", err)
	}
	if !transferred {
		// another settlement won the artwork between our read and the CAS;
		// the payment is recorded but the piece stays with the winner
		if err := repo.SetStatus(ctx, row.ID, enums.SettlementStatusSuperseded); err != nil {
			return fmt.Errorf("mark superseded: %w", err)
		}
		state.status = enums.SettlementStatusSuperseded
		return nil
	}

	if err := artworkRepo.AppendOwnership(ctx, &models.ArtworkOwnership{
		ArtworkID:     artwork.ID,
		OwnerID:       input.BuyerID,
		TransactionID: &txn.ID,
		PriceCents:    input.AmountCents,
		Currency:      input.Currency,
	}); err != nil {
		return fmt.Errorf("append ownership history: %w", err)
	}

	collectionRepo := s.collection.WithTx(tx)
	if state.prevOwnerID != nil && *state.prevOwnerID != input.BuyerID {
		if _, err := collectionRepo.Remove(ctx, *state.prevOwnerID, artwork.ID); err != nil {
			return fmt.Errorf("remove previous collection entry: %w", err)
		}
	}
	if err := collectionRepo.Add(ctx, &models.CollectionItem{
		UserID:        input.BuyerID,
		ArtworkID:     artwork.ID,
		TransactionID: txn.ID,
		PriceCents:    input.AmountCents,
		Currency:      input.Currency,
		PurchasedAt:   time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("add collection entry: %w", err)
	}

	if input.OfferID != nil {
		if err := s.offers.MarkCompleted(ctx, tx, *input.OfferID); err != nil {
			return fmt.Errorf("complete offer: %w", err)
		}
	}

	state.status = enums.SettlementStatusCompleted
	return nil
}

// alreadyProcessed resolves a duplicate delivery to the recorded outcome.
func (s *service) alreadyProcessed(ctx context.Context, input SettleInput) (*SettleResult, error) {
	existing, err := s.repo.FindByPaymentID(ctx, input.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load existing settlement")
	}
	s.metrics.IncOutcome(string(input.Trigger), metrics.OutcomeAlreadyProcessed)
	s.logg.Info(ctx, "payment already settled")
	return &SettleResult{
		TransactionID:    existing.TransactionID,
		Status:           existing.Status,
		AlreadyProcessed: true,
	}, nil
}

// afterCommit runs the non-transactional tail: confirmation read, cache
// invalidation, event publish, metrics. None of it can fail the settlement.
func (s *service) afterCommit(ctx context.Context, input SettleInput, state settleState) {
	if state.status == enums.SettlementStatusSuperseded {
		s.metrics.IncOutcome(string(input.Trigger), metrics.OutcomeSuperseded)
		s.logg.Warn(ctx, "settlement superseded by concurrent transfer")
		return
	}

	if confirmed, err := s.artworkRepo.FindByID(ctx, input.ArtworkID); err != nil {
		s.logg.Warn(ctx, "confirmation read failed: "+err.Error())
	} else if confirmed.CurrentOwnerID == nil || *confirmed.CurrentOwnerID != input.BuyerID {
		s.logg.Warn(ctx, "confirmation read shows unexpected owner")
	}

	if s.collectionSvc != nil {
		ids := []uuid.UUID{input.BuyerID}
		if state.prevOwnerID != nil {
			ids = append(ids, *state.prevOwnerID)
		}
		s.collectionSvc.Invalidate(ctx, ids...)
	}

	if s.publisher != nil {
		s.publisher.PublishCollectionUpdated(ctx, collection.UpdatedEvent{
			ArtworkID:       input.ArtworkID,
			NewOwnerID:      input.BuyerID,
			PreviousOwnerID: state.prevOwnerID,
			TransactionID:   state.transactionID,
			OccurredAt:      time.Now().UTC(),
		})
	}

	s.metrics.IncOutcome(string(input.Trigger), metrics.OutcomeCompleted)
	s.logg.Info(ctx, "settlement completed")
}

func validateInput(input SettleInput) error {
	switch {
	case !input.Trigger.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid settlement trigger")
	case input.PaymentID == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	case input.ArtworkID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	case input.BuyerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer id is required")
	case input.WalletID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	case input.AmountCents <= 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	case !input.Currency.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid currency")
	}
	return nil
}

