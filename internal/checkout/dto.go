package checkout

import "github.com/google/uuid"

// CreateSessionRequest starts a hosted checkout for one artwork.
type CreateSessionRequest struct {
	ArtworkID uuid.UUID `json:"artwork_id" validate:"required"`
}

// CreateSessionResponse returns the hosted payment page handle.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}
