package controllers

import (
	"net/http"

	"github.com/nmoreau/galleria-backend/api/responses"
	collectionsvc "github.com/nmoreau/galleria-backend/internal/collection"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

// GetCollection returns the caller's owned artworks, newest purchase first.
func GetCollection(svc collectionsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "collection service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
