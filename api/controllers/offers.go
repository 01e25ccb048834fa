package controllers

import (
	"net/http"

	"github.com/nmoreau/galleria-backend/api/responses"
	"github.com/nmoreau/galleria-backend/api/validators"
	offersvc "github.com/nmoreau/galleria-backend/internal/offers"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

type offerListResponse struct {
	Items []offersvc.OfferDTO `json:"items"`
	Count int64               `json:"count"`
}

// CreateOffer places a bid on a sold artwork.
func CreateOffer(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artworkID, err := artworkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body offersvc.CreateOfferInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Create(r.Context(), userID, artworkID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, offersvc.FromModel(offer))
	}
}

// ListPendingOffers shows the owner their open bids, highest first.
func ListPendingOffers(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artworkID, err := artworkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListPending(r.Context(), userID, artworkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.CountPending(r.Context(), userID, artworkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offerListFromModels(items, count))
	}
}

// DecideOffer accepts or rejects a pending offer. Accepting rejects every
// other pending offer on the artwork.
func DecideOffer(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artworkID, err := artworkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offerID, err := pathUUID(r, "offerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body offersvc.DecisionInput
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.Decide(r.Context(), userID, artworkID, offerID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offersvc.FromModel(offer))
	}
}

// CountPendingOffers returns only the pending-bid count, for owners polling
// an artwork card without loading the full list.
func CountPendingOffers(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artworkID, err := artworkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := svc.CountPending(r.Context(), userID, artworkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]int64{"count": count})
	}
}

// MyAcceptedOffer lets a buyer confirm their accepted bid before paying.
func MyAcceptedOffer(svc offersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "offer service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		artworkID, err := artworkIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		offer, err := svc.AcceptedForBuyer(r.Context(), userID, artworkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, offersvc.FromModel(offer))
	}
}

func offerListFromModels(items []models.Offer, count int64) offerListResponse {
	dtos := make([]offersvc.OfferDTO, 0, len(items))
	for i := range items {
		dtos = append(dtos, offersvc.FromModel(&items[i]))
	}
	return offerListResponse{Items: dtos, Count: count}
}
