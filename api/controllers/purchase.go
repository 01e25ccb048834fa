package controllers

import (
	"net/http"

	"github.com/stripe/stripe-go/v84"

	"github.com/nmoreau/galleria-backend/api/responses"
	"github.com/nmoreau/galleria-backend/api/validators"
	checkoutsvc "github.com/nmoreau/galleria-backend/internal/checkout"
	"github.com/nmoreau/galleria-backend/internal/settlement"
	stripewebhook "github.com/nmoreau/galleria-backend/internal/webhooks/stripe"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

type processPurchaseRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

// PurchaseCheckout opens a hosted checkout session for the authenticated buyer.
func PurchaseCheckout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		walletID, err := requireWalletID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutsvc.CreateSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateSession(r.Context(), userID, walletID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// PurchaseProcess settles a paid checkout session on demand. It backs up the
// webhook: when Stripe's delivery is delayed the buyer's return page can push
// the same settlement, and the payment-id claim keeps the two paths from
// double-applying.
func PurchaseProcess(stripeClient checkoutsvc.StripeCheckoutClient, settler settlement.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if stripeClient == nil || settler == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "settlement unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body processPurchaseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := stripeClient.GetSession(r.Context(), body.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session"))
			return
		}

		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "payment not completed"))
			return
		}
		if sess.Metadata[checkoutsvc.MetadataUserID] != userID.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "session belongs to another buyer"))
			return
		}

		input, err := stripewebhook.SettleInputFromSession(sess, enums.SettlementTriggerFallback)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := settler.Settle(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(r.Context(), "purchase processed via fallback: "+body.SessionID)
		}
		responses.WriteSuccess(w, result)
	}
}
