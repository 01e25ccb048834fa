package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/nmoreau/galleria-backend/internal/checkout"
	"github.com/nmoreau/galleria-backend/internal/settlement"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

// ServiceParams wires the webhook handler dependencies. Guard is optional:
// settlement is already idempotent on payment id, the Redis guard just skips
// redeliveries before they touch the database.
type ServiceParams struct {
	Settlement settlement.Service
	Guard      *IdempotencyGuard
	Logger     *logger.Logger
}

// Service routes verified Stripe events into settlement.
type Service struct {
	settlement settlement.Service
	guard      *IdempotencyGuard
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Settlement == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement service required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		settlement: params.Settlement,
		guard:      params.Guard,
		logg:       params.Logger,
	}, nil
}

// HandleEvent dispatches one verified event. Completed checkouts settle;
// payment failures are logged; everything else is acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		return s.handleCheckoutCompleted(ctx, event)
	case stripe.EventTypePaymentIntentPaymentFailed, stripe.EventTypeChargeFailed:
		s.logg.Warn(ctx, "payment failed event received: "+string(event.ID))
		return nil
	default:
		return nil
	}
}

func (s *Service) handleCheckoutCompleted(ctx context.Context, event *stripe.Event) error {
	if s.guard != nil {
		seen, err := s.guard.CheckAndMark(ctx, string(event.ID))
		if err != nil {
			// guard trouble is not a reason to drop the event; settlement
			// dedupes on payment id anyway
			s.logg.Warn(ctx, "webhook idempotency guard unavailable: "+err.Error())
		} else if seen {
			s.logg.Info(ctx, "duplicate webhook delivery skipped")
			return nil
		}
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session")
	}

	input, err := SettleInputFromSession(&session, enums.SettlementTriggerWebhook)
	if err != nil {
		return err
	}

	if _, err := s.settlement.Settle(ctx, *input); err != nil {
		if s.guard != nil {
			// let Stripe redeliver
			if delErr := s.guard.Delete(ctx, string(event.ID)); delErr != nil {
				s.logg.Warn(ctx, "clearing idempotency mark failed: "+delErr.Error())
			}
		}
		return err
	}
	return nil
}

// SettleInputFromSession maps a completed checkout session onto the
// settlement input. Shared with the manual fallback endpoint.
func SettleInputFromSession(session *stripe.CheckoutSession, trigger enums.SettlementTrigger) (*settlement.SettleInput, error) {
	if session == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session required")
	}

	artworkID, err := uuid.Parse(session.Metadata[checkout.MetadataArtworkID])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session missing artwork metadata")
	}
	buyerID, err := uuid.Parse(session.Metadata[checkout.MetadataUserID])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session missing user metadata")
	}
	walletID, err := uuid.Parse(session.Metadata[checkout.MetadataWalletID])
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session missing wallet metadata")
	}

	var offerID *uuid.UUID
	if raw, ok := session.Metadata[checkout.MetadataOfferID]; ok && raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "session has malformed offer metadata")
		}
		offerID = &parsed
	}

	paymentID := session.ID
	if session.PaymentIntent != nil && session.PaymentIntent.ID != "" {
		paymentID = session.PaymentIntent.ID
	}

	return &settlement.SettleInput{
		Trigger:     trigger,
		PaymentID:   paymentID,
		SessionID:   session.ID,
		ArtworkID:   artworkID,
		BuyerID:     buyerID,
		WalletID:    walletID,
		OfferID:     offerID,
		AmountCents: session.AmountTotal,
		Currency:    enums.Currency(session.Currency),
	}, nil
}
