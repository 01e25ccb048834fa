package checkout

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/internal/offers"
	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

type stubStripe struct {
	lastParams *stripe.CheckoutSessionParams
	createErr  error
}

func (s *stubStripe) CreateSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.lastParams = params
	return &stripe.CheckoutSession{
		ID:  "cs_test_123",
		URL: "https://checkout.stripe.com/c/pay/cs_test_123",
	}, nil
}

func (s *stubStripe) GetSession(ctx context.Context, id string) (*stripe.CheckoutSession, error) {
	return nil, errors.New("not implemented")
}

type fakeArtworkRepo struct {
	artworks map[uuid.UUID]*models.Artwork
}

func (f *fakeArtworkRepo) WithTx(tx *gorm.DB) artworks.Repository { return f }

func (f *fakeArtworkRepo) Create(ctx context.Context, artwork *models.Artwork) error {
	if artwork.ID == uuid.Nil {
		artwork.ID = uuid.New()
	}
	f.artworks[artwork.ID] = artwork
	return nil
}

func (f *fakeArtworkRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Artwork, error) {
	if a, ok := f.artworks[id]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeArtworkRepo) List(ctx context.Context, filter artworks.ListFilter) ([]models.Artwork, error) {
	return nil, nil
}

func (f *fakeArtworkRepo) ListByArtist(ctx context.Context, artistID uuid.UUID) ([]models.Artwork, error) {
	return nil, nil
}

func (f *fakeArtworkRepo) Update(ctx context.Context, artwork *models.Artwork) error {
	f.artworks[artwork.ID] = artwork
	return nil
}

func (f *fakeArtworkRepo) TransferOwnership(ctx context.Context, id uuid.UUID, newOwnerID uuid.UUID, expectedVersion int64) (bool, error) {
	return false, nil
}

func (f *fakeArtworkRepo) AppendOwnership(ctx context.Context, row *models.ArtworkOwnership) error {
	return nil
}

func (f *fakeArtworkRepo) ListOwnershipHistory(ctx context.Context, artworkID uuid.UUID) ([]models.ArtworkOwnership, error) {
	return nil, nil
}

type fakeOfferRepo struct {
	offers map[uuid.UUID]*models.Offer
}

func (f *fakeOfferRepo) WithTx(tx *gorm.DB) offers.Repository { return f }

func (f *fakeOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	f.offers[offer.ID] = offer
	return nil
}

func (f *fakeOfferRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	if o, ok := f.offers[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOfferRepo) ListPending(ctx context.Context, artworkID uuid.UUID) ([]models.Offer, error) {
	return nil, nil
}

func (f *fakeOfferRepo) CountPending(ctx context.Context, artworkID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeOfferRepo) FindAccepted(ctx context.Context, artworkID uuid.UUID) (*models.Offer, error) {
	for _, o := range f.offers {
		if o.ArtworkID == artworkID && o.Status == enums.OfferStatusAccepted {
			copied := *o
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOfferRepo) FindPendingByBuyer(ctx context.Context, artworkID, buyerID uuid.UUID) (*models.Offer, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOfferRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	if o, ok := f.offers[id]; ok {
		o.Status = status
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeOfferRepo) RejectPendingSiblings(ctx context.Context, artworkID, acceptedID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type checkoutTestSetup struct {
	service     Service
	stripe      *stubStripe
	artworkRepo *fakeArtworkRepo
	offerRepo   *fakeOfferRepo
}

func newCheckoutTestSetup(t *testing.T) *checkoutTestSetup {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	artworkRepo := &fakeArtworkRepo{artworks: map[uuid.UUID]*models.Artwork{}}
	artworkSvc, err := artworks.NewService(artworks.ServiceParams{
		Repo:   artworkRepo,
		GCS:    config.GCSConfig{BucketName: "galleria-test", UploadURLExpiry: time.Minute},
		Logger: logg,
	})
	require.NoError(t, err)

	offerRepo := &fakeOfferRepo{offers: map[uuid.UUID]*models.Offer{}}
	offerSvc, err := offers.NewService(offers.ServiceParams{
		Repo:         offerRepo,
		ArtworkRepo:  artworkRepo,
		Transactions: stubTxRunner{},
		Logger:       logg,
	})
	require.NoError(t, err)

	stripeStub := &stubStripe{}
	svc, err := NewService(ServiceParams{
		Artworks: artworkSvc,
		Offers:   offerSvc,
		Stripe:   stripeStub,
		Config: config.CheckoutConfig{
			SuccessURL: "https://galleria.art/purchase/success",
			CancelURL:  "https://galleria.art/purchase/cancel",
		},
		Logger: logg,
	})
	require.NoError(t, err)

	return &checkoutTestSetup{
		service:     svc,
		stripe:      stripeStub,
		artworkRepo: artworkRepo,
		offerRepo:   offerRepo,
	}
}

func (s *checkoutTestSetup) seedArtwork(t *testing.T, status enums.ArtworkStatus, ownerID *uuid.UUID) *models.Artwork {
	t.Helper()
	artwork := &models.Artwork{
		ArtistID:       uuid.New(),
		Title:          "Dusk",
		Category:       enums.ArtworkCategoryIllustration,
		PriceCents:     10000,
		Currency:       enums.CurrencyUSD,
		Status:         status,
		CurrentOwnerID: ownerID,
	}
	require.NoError(t, s.artworkRepo.Create(context.Background(), artwork))
	return artwork
}

func TestCreateSessionForSaleArtwork(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	artwork := setup.seedArtwork(t, enums.ArtworkStatusSale, nil)

	buyerID := uuid.New()
	walletID := uuid.New()

	resp, err := setup.service.CreateSession(context.Background(), buyerID, walletID, CreateSessionRequest{ArtworkID: artwork.ID})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", resp.SessionID)
	assert.NotEmpty(t, resp.URL)

	params := setup.stripe.lastParams
	require.NotNil(t, params)
	require.Len(t, params.LineItems, 1)
	assert.Equal(t, int64(10000), *params.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, artwork.ID.String(), params.Metadata[MetadataArtworkID])
	assert.Equal(t, buyerID.String(), params.Metadata[MetadataUserID])
	assert.Equal(t, walletID.String(), params.Metadata[MetadataWalletID])
	_, hasOffer := params.Metadata[MetadataOfferID]
	assert.False(t, hasOffer)
}

func TestCreateSessionNotFound(t *testing.T) {
	setup := newCheckoutTestSetup(t)

	_, err := setup.service.CreateSession(context.Background(), uuid.New(), uuid.New(), CreateSessionRequest{ArtworkID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateSessionRejectsDraft(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	artwork := setup.seedArtwork(t, enums.ArtworkStatusDraft, nil)

	_, err := setup.service.CreateSession(context.Background(), uuid.New(), uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateSessionRejectsArtistAndOwner(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	artwork := setup.seedArtwork(t, enums.ArtworkStatusSale, nil)

	_, err := setup.service.CreateSession(context.Background(), artwork.ArtistID, uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	ownerID := uuid.New()
	sold := setup.seedArtwork(t, enums.ArtworkStatusSold, &ownerID)
	_, err = setup.service.CreateSession(context.Background(), ownerID, uuid.New(), CreateSessionRequest{ArtworkID: sold.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateSessionRejectsArtistOnRelistedArtwork(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	ownerID := uuid.New()
	artwork := setup.seedArtwork(t, enums.ArtworkStatusResale, &ownerID)

	_, err := setup.service.CreateSession(context.Background(), artwork.ArtistID, uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Nil(t, setup.stripe.lastParams, "no session may be opened for the artist")
}

func TestCreateSessionSoldRequiresAcceptedOffer(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	ownerID := uuid.New()
	buyerID := uuid.New()
	artwork := setup.seedArtwork(t, enums.ArtworkStatusSold, &ownerID)

	_, err := setup.service.CreateSession(context.Background(), buyerID, uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	offer := &models.Offer{
		ArtworkID:   artwork.ID,
		BuyerID:     buyerID,
		AmountCents: 15000,
		Currency:    enums.CurrencyUSD,
		Status:      enums.OfferStatusAccepted,
	}
	require.NoError(t, setup.offerRepo.Create(context.Background(), offer))

	resp, err := setup.service.CreateSession(context.Background(), buyerID, uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_123", resp.SessionID)

	params := setup.stripe.lastParams
	require.NotNil(t, params)
	assert.Equal(t, int64(15000), *params.LineItems[0].PriceData.UnitAmount, "offer price wins over listing price")
	assert.Equal(t, offer.ID.String(), params.Metadata[MetadataOfferID])
}

func TestCreateSessionProcessorFailure(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	artwork := setup.seedArtwork(t, enums.ArtworkStatusSale, nil)
	setup.stripe.createErr = errors.New("stripe: api unavailable")

	_, err := setup.service.CreateSession(context.Background(), uuid.New(), uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeDependency, pkgerrors.As(err).Code())
	assert.Equal(t, "payment processor unavailable", pkgerrors.As(err).Message())
}

func TestCreateSessionSurfacesProcessorMessage(t *testing.T) {
	setup := newCheckoutTestSetup(t)
	artwork := setup.seedArtwork(t, enums.ArtworkStatusSale, nil)
	setup.stripe.createErr = &stripe.Error{Msg: "Your card was declined."}

	_, err := setup.service.CreateSession(context.Background(), uuid.New(), uuid.New(), CreateSessionRequest{ArtworkID: artwork.ID})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeDependency, typed.Code())
	assert.Equal(t, "payment processor error: Your card was declined.", typed.Message())
}
