package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/internal/offers"
	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

// Metadata keys carried on the Stripe session and read back by settlement.
const (
	MetadataArtworkID = "artwork_id"
	MetadataUserID    = "user_id"
	MetadataWalletID  = "wallet_id"
	MetadataOfferID   = "offer_id"
)

// Service starts hosted checkout sessions. The artwork, buyer, and wallet
// travel as session metadata so settlement can reconcile the payment without
// any state of its own.
type Service interface {
	CreateSession(ctx context.Context, buyerID, walletID uuid.UUID, req CreateSessionRequest) (*CreateSessionResponse, error)
}

// ServiceParams wires the checkout service dependencies.
type ServiceParams struct {
	Artworks artworks.Service
	Offers   offers.Service
	Stripe   StripeCheckoutClient
	Config   config.CheckoutConfig
	Logger   *logger.Logger
}

type service struct {
	artworks artworks.Service
	offers   offers.Service
	stripe   StripeCheckoutClient
	cfg      config.CheckoutConfig
	logg     *logger.Logger
}

// NewService validates dependencies and returns the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Artworks == nil {
		return nil, fmt.Errorf("artworks service required")
	}
	if params.Offers == nil {
		return nil, fmt.Errorf("offers service required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		artworks: params.Artworks,
		offers:   params.Offers,
		stripe:   params.Stripe,
		cfg:      params.Config,
		logg:     params.Logger,
	}, nil
}

// CreateSession checks purchase eligibility and opens a Stripe Checkout
// session priced either at the listing price or, for a sold piece, at the
// buyer's accepted offer.
func (s *service) CreateSession(ctx context.Context, buyerID, walletID uuid.UUID, req CreateSessionRequest) (*CreateSessionResponse, error) {
	if buyerID == uuid.Nil || walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated buyer required")
	}
	if req.ArtworkID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork id is required")
	}

	artwork, err := s.artworks.Get(ctx, req.ArtworkID)
	if err != nil {
		return nil, err
	}
	// The artist stays excluded even after a collector relists the piece.
	if artwork.ArtistID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artists cannot buy their own artwork")
	}
	if artwork.CurrentOwnerID != nil && *artwork.CurrentOwnerID == buyerID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "you already own this artwork")
	}

	amountCents := artwork.PriceCents
	var offerID *uuid.UUID
	switch {
	case artwork.Status.Purchasable():
		// listing price stands
	case artwork.Status == enums.ArtworkStatusSold:
		accepted, err := s.offers.AcceptedForBuyer(ctx, buyerID, artwork.ID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork is not for sale")
		}
		amountCents = accepted.AmountCents
		offerID = &accepted.ID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "artwork is not for sale")
	}

	params := s.sessionParams(artwork, buyerID, walletID, offerID, amountCents)
	sess, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, processorMessage(err))
	}

	lctx := s.logg.WithArtworkID(ctx, artwork.ID.String())
	s.logg.Info(lctx, "checkout session created: "+sess.ID)

	return &CreateSessionResponse{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// processorMessage surfaces Stripe's own error message so the client sees
// why the processor declined, falling back to a generic line for transport
// failures that carry no Stripe payload.
func processorMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return "payment processor error: " + stripeErr.Msg
	}
	return "payment processor unavailable"
}

func (s *service) sessionParams(artwork *models.Artwork, buyerID, walletID uuid.UUID, offerID *uuid.UUID, amountCents int64) *stripe.CheckoutSessionParams {
	metadata := map[string]string{
		MetadataArtworkID: artwork.ID.String(),
		MetadataUserID:    buyerID.String(),
		MetadataWalletID:  walletID.String(),
	}
	if offerID != nil {
		metadata[MetadataOfferID] = offerID.String()
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.cfg.SuccessURL),
		CancelURL:  stripe.String(s.cfg.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(string(artwork.Currency)),
					UnitAmount: stripe.Int64(amountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(artwork.Title),
					},
				},
			},
		},
		Metadata: metadata,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	return params
}
