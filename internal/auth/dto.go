package auth

import (
	"github.com/google/uuid"

	"github.com/nmoreau/galleria-backend/internal/users"
)

// RegisterRequest captures the signup payload. Role selects the buyer or
// artist experience; artists can also buy.
type RegisterRequest struct {
	Email       string  `json:"email" validate:"required,email"`
	Password    string  `json:"password" validate:"required,min=8,max=128"`
	DisplayName string  `json:"display_name" validate:"required,min=1,max=100"`
	Role        string  `json:"role" validate:"required,oneof=buyer artist"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
}

// RegisterResponse returns the created user and their wallet id.
type RegisterResponse struct {
	User     *users.UserDTO `json:"user"`
	WalletID uuid.UUID      `json:"wallet_id"`
}

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the token pair and profile produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	WalletID     uuid.UUID      `json:"wallet_id"`
}

// RefreshRequest carries the expired access token's refresh credential.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse returns the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
