package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/internal/users"
	"github.com/nmoreau/galleria-backend/internal/wallets"
	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/security"
)

// RegisterService handles the signup transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type registerUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type registerWalletRepository interface {
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
}

// RegisterServiceParams packages the dependencies for the registration flow.
// Factories default to the GORM repositories when only DB is provided.
type RegisterServiceParams struct {
	DB                *db.Client
	TxRunner          txRunner
	UserRepoFactory   func(tx *gorm.DB) registerUserRepository
	WalletRepoFactory func(tx *gorm.DB) registerWalletRepository
	PasswordConfig    config.PasswordConfig
}

type registerService struct {
	txRunner    txRunner
	userRepos   func(tx *gorm.DB) registerUserRepository
	walletRepos func(tx *gorm.DB) registerWalletRepository
	passwordCfg config.PasswordConfig
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	runner := params.TxRunner
	if runner == nil {
		if params.DB == nil {
			return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
		}
		runner = params.DB
	}
	userRepos := params.UserRepoFactory
	if userRepos == nil {
		userRepos = func(tx *gorm.DB) registerUserRepository { return users.NewRepository(tx) }
	}
	walletRepos := params.WalletRepoFactory
	if walletRepos == nil {
		walletRepos = func(tx *gorm.DB) registerWalletRepository { return wallets.NewRepository(tx) }
	}
	return &registerService{
		txRunner:    runner,
		userRepos:   userRepos,
		walletRepos: walletRepos,
		passwordCfg: params.PasswordConfig,
	}, nil
}

// Register creates the user and their wallet in one transaction: a user
// without a wallet cannot check out, so neither row exists without the other.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	role := enums.UserRole(strings.ToLower(strings.TrimSpace(req.Role)))
	if !role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role must be buyer or artist")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var resp *RegisterResponse
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.userRepos(tx)
		walletRepo := s.walletRepos(tx)

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
		}

		user, err := userRepo.Create(ctx, users.CreateUserDTO{
			Email:        email,
			PasswordHash: passwordHash,
			DisplayName:  strings.TrimSpace(req.DisplayName),
			Role:         role,
			Bio:          req.Bio,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
		}

		wallet := &models.Wallet{UserID: user.ID, Currency: enums.CurrencyUSD}
		if err := walletRepo.CreateWallet(ctx, wallet); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create wallet")
		}

		resp = &RegisterResponse{
			User:     users.FromModel(user),
			WalletID: wallet.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
