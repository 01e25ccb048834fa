package offers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

// TxRunner executes fn inside one database transaction. Satisfied by
// *db.Client.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service manages resale offers: creation by prospective buyers, listing and
// decisions by the current owner, and the completion mark set by settlement.
type Service interface {
	Create(ctx context.Context, buyerID, artworkID uuid.UUID, input CreateOfferInput) (*models.Offer, error)
	ListPending(ctx context.Context, requesterID, artworkID uuid.UUID) ([]models.Offer, error)
	CountPending(ctx context.Context, requesterID, artworkID uuid.UUID) (int64, error)
	Decide(ctx context.Context, requesterID, artworkID, offerID uuid.UUID, input DecisionInput) (*models.Offer, error)
	AcceptedForBuyer(ctx context.Context, buyerID, artworkID uuid.UUID) (*models.Offer, error)
	Accepted(ctx context.Context, artworkID uuid.UUID) (*models.Offer, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, offerID uuid.UUID) error
}

// ServiceParams wires the offer service dependencies.
type ServiceParams struct {
	Repo         Repository
	ArtworkRepo  artworks.Repository
	Transactions TxRunner
	Logger       *logger.Logger
}

type service struct {
	repo        Repository
	artworkRepo artworks.Repository
	txRunner    TxRunner
	logg        *logger.Logger
}

// NewService validates dependencies and returns the offer service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if params.ArtworkRepo == nil {
		return nil, fmt.Errorf("artworks repository required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:        params.Repo,
		artworkRepo: params.ArtworkRepo,
		txRunner:    params.Transactions,
		logg:        params.Logger,
	}, nil
}

func (s *service) loadArtwork(ctx context.Context, artworkID uuid.UUID) (*models.Artwork, error) {
	artwork, err := s.artworkRepo.FindByID(ctx, artworkID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load artwork")
	}
	return artwork, nil
}

func requireOwner(artwork *models.Artwork, requesterID uuid.UUID) error {
	if artwork.CurrentOwnerID == nil || *artwork.CurrentOwnerID != requesterID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the current owner can manage offers")
	}
	return nil
}

// Create records a pending offer on a sold artwork. The current owner cannot
// bid on their own piece.
func (s *service) Create(ctx context.Context, buyerID, artworkID uuid.UUID, input CreateOfferInput) (*models.Offer, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer amount must be positive")
	}

	artwork, err := s.loadArtwork(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	if artwork.Status != enums.ArtworkStatusSold {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "offers are only open on sold artworks")
	}
	if artwork.CurrentOwnerID != nil && *artwork.CurrentOwnerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "owners cannot offer on their own artwork")
	}

	offer := &models.Offer{
		ArtworkID:   artworkID,
		BuyerID:     buyerID,
		AmountCents: input.AmountCents,
		Currency:    artwork.Currency,
		Message:     input.Message,
		Status:      enums.OfferStatusPending,
	}
	if err := s.repo.Create(ctx, offer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
	}
	return offer, nil
}

func (s *service) ListPending(ctx context.Context, requesterID, artworkID uuid.UUID) ([]models.Offer, error) {
	artwork, err := s.loadArtwork(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(artwork, requesterID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListPending(ctx, artworkID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return rows, nil
}

func (s *service) CountPending(ctx context.Context, requesterID, artworkID uuid.UUID) (int64, error) {
	artwork, err := s.loadArtwork(ctx, artworkID)
	if err != nil {
		return 0, err
	}
	if err := requireOwner(artwork, requesterID); err != nil {
		return 0, err
	}
	count, err := s.repo.CountPending(ctx, artworkID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count offers")
	}
	return count, nil
}

// Decide accepts or rejects a pending offer. Accepting rejects every pending
// sibling inside the same transaction, so at most one accepted offer exists
// per artwork; the asking price is then updated to the accepted amount as a
// best-effort step outside the transaction.
func (s *service) Decide(ctx context.Context, requesterID, artworkID, offerID uuid.UUID, input DecisionInput) (*models.Offer, error) {
	var verdict enums.OfferStatus
	switch input.Status {
	case string(enums.OfferStatusAccepted):
		verdict = enums.OfferStatusAccepted
	case string(enums.OfferStatusRejected):
		verdict = enums.OfferStatusRejected
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be accepted or rejected")
	}

	artwork, err := s.loadArtwork(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(artwork, requesterID); err != nil {
		return nil, err
	}

	offer, err := s.repo.FindByID(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.ArtworkID != artworkID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
	}
	if offer.Status != enums.OfferStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "offer has already been decided")
	}

	if verdict == enums.OfferStatusRejected {
		if err := s.repo.UpdateStatus(ctx, offerID, enums.OfferStatusRejected); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject offer")
		}
		return s.repo.FindByID(ctx, offerID)
	}

	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateStatus(ctx, offerID, enums.OfferStatusAccepted); err != nil {
			return fmt.Errorf("accept offer: %w", err)
		}
		if _, err := repo.RejectPendingSiblings(ctx, artworkID, offerID); err != nil {
			return fmt.Errorf("reject sibling offers: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decide offer")
	}

	// Price follows the accepted amount so checkout charges what was agreed.
	// Failure here is logged, not surfaced: the offer decision already
	// committed and checkout prices from the offer when one is accepted.
	artwork.PriceCents = offer.AmountCents
	if err := s.artworkRepo.Update(ctx, artwork); err != nil {
		lctx := s.logg.WithArtworkID(ctx, artworkID.String())
		s.logg.Warn(lctx, "updating price after accept failed: "+err.Error())
	}

	return s.repo.FindByID(ctx, offerID)
}

// AcceptedForBuyer reports the accepted offer on the artwork when it belongs
// to the requesting buyer, and NotFound otherwise.
func (s *service) AcceptedForBuyer(ctx context.Context, buyerID, artworkID uuid.UUID) (*models.Offer, error) {
	offer, err := s.Accepted(ctx, artworkID)
	if err != nil {
		return nil, err
	}
	if offer.BuyerID != buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no accepted offer")
	}
	return offer, nil
}

func (s *service) Accepted(ctx context.Context, artworkID uuid.UUID) (*models.Offer, error) {
	offer, err := s.repo.FindAccepted(ctx, artworkID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no accepted offer")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load accepted offer")
	}
	return offer, nil
}

// MarkCompleted is called by settlement once the offer-priced purchase has
// cleared. Rides the settlement transaction.
func (s *service) MarkCompleted(ctx context.Context, tx *gorm.DB, offerID uuid.UUID) error {
	if offerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	if err := s.repo.WithTx(tx).UpdateStatus(ctx, offerID, enums.OfferStatusCompleted); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete offer")
	}
	return nil
}
