package offers

import (
	"context"
	"io"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

type fakeOfferRepo struct {
	offers map[uuid.UUID]*models.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: map[uuid.UUID]*models.Offer{}}
}

func (f *fakeOfferRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOfferRepo) Create(ctx context.Context, offer *models.Offer) error {
	if offer.ID == uuid.Nil {
		offer.ID = uuid.New()
	}
	offer.CreatedAt = time.Now().UTC()
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
	var out []models.Offer
	for _, o := range f.offers {
		if o.ArtworkID == artworkID && o.Status == enums.OfferStatusPending {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AmountCents != out[j].AmountCents {
			return out[i].AmountCents > out[j].AmountCents
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeOfferRepo) CountPending(ctx context.Context, artworkID uuid.UUID) (int64, error) {
	rows, _ := f.ListPending(ctx, artworkID)
	return int64(len(rows)), nil
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
	for _, o := range f.offers {
		if o.ArtworkID == artworkID && o.BuyerID == buyerID && o.Status == enums.OfferStatusPending {
			copied := *o
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOfferRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	o, ok := f.offers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now().UTC()
	o.Status = status
	o.DecidedAt = &now
	return nil
}

func (f *fakeOfferRepo) RejectPendingSiblings(ctx context.Context, artworkID, acceptedID uuid.UUID) (int64, error) {
	var n int64
	now := time.Now().UTC()
	for _, o := range f.offers {
		if o.ArtworkID == artworkID && o.ID != acceptedID && o.Status == enums.OfferStatusPending {
			o.Status = enums.OfferStatusRejected
			o.DecidedAt = &now
			n++
		}
	}
	return n, nil
}

type fakeArtworkRepo struct {
	artworks map[uuid.UUID]*models.Artwork
}

func newFakeArtworkRepo() *fakeArtworkRepo {
	return &fakeArtworkRepo{artworks: map[uuid.UUID]*models.Artwork{}}
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

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository, artworkRepo artworks.Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:         repo,
		ArtworkRepo:  artworkRepo,
		Transactions: fakeTxRunner{},
		Logger:       logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc
}

func soldArtwork(t *testing.T, repo *fakeArtworkRepo, ownerID uuid.UUID) *models.Artwork {
	t.Helper()
	artwork := &models.Artwork{
		ArtistID:       uuid.New(),
		Title:          "Dusk",
		Category:       enums.ArtworkCategoryGenerative,
		PriceCents:     10000,
		Currency:       enums.CurrencyUSD,
		Status:         enums.ArtworkStatusSold,
		CurrentOwnerID: &ownerID,
	}
	require.NoError(t, repo.Create(context.Background(), artwork))
	return artwork
}

func TestCreateOfferRules(t *testing.T) {
	ownerID := uuid.New()
	buyerID := uuid.New()

	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)
	artwork := soldArtwork(t, artworkRepo, ownerID)

	_, err := svc.Create(context.Background(), ownerID, artwork.ID, CreateOfferInput{AmountCents: 5000})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.Create(context.Background(), buyerID, artwork.ID, CreateOfferInput{AmountCents: 0})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	offer, err := svc.Create(context.Background(), buyerID, artwork.ID, CreateOfferInput{AmountCents: 5000})
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusPending, offer.Status)
	assert.Equal(t, artwork.Currency, offer.Currency)
}

func TestCreateOfferRequiresSoldStatus(t *testing.T) {
	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)

	artwork := &models.Artwork{
		ArtistID:   uuid.New(),
		Title:      "Dusk",
		Category:   enums.ArtworkCategoryPainting,
		PriceCents: 10000,
		Currency:   enums.CurrencyUSD,
		Status:     enums.ArtworkStatusSale,
	}
	require.NoError(t, artworkRepo.Create(context.Background(), artwork))

	_, err := svc.Create(context.Background(), uuid.New(), artwork.ID, CreateOfferInput{AmountCents: 5000})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestListPendingOwnerOnlySorted(t *testing.T) {
	ownerID := uuid.New()
	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)
	artwork := soldArtwork(t, artworkRepo, ownerID)

	for _, cents := range []int64{5000, 9000, 7000} {
		_, err := svc.Create(context.Background(), uuid.New(), artwork.ID, CreateOfferInput{AmountCents: cents})
		require.NoError(t, err)
	}

	_, err := svc.ListPending(context.Background(), uuid.New(), artwork.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	rows, err := svc.ListPending(context.Background(), ownerID, artwork.ID)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(9000), rows[0].AmountCents)
	assert.Equal(t, int64(7000), rows[1].AmountCents)
	assert.Equal(t, int64(5000), rows[2].AmountCents)

	count, err := svc.CountPending(context.Background(), ownerID, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestAcceptRejectsSiblingsAndUpdatesPrice(t *testing.T) {
	ownerID := uuid.New()
	winnerID := uuid.New()

	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)
	artwork := soldArtwork(t, artworkRepo, ownerID)

	winner, err := svc.Create(context.Background(), winnerID, artwork.ID, CreateOfferInput{AmountCents: 9000})
	require.NoError(t, err)
	for range 3 {
		_, err := svc.Create(context.Background(), uuid.New(), artwork.ID, CreateOfferInput{AmountCents: 4000})
		require.NoError(t, err)
	}

	decided, err := svc.Decide(context.Background(), ownerID, artwork.ID, winner.ID, DecisionInput{Status: "accepted"})
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusAccepted, decided.Status)

	// at most one accepted offer per artwork after any accept sequence
	accepted := 0
	for _, o := range offerRepo.offers {
		switch o.Status {
		case enums.OfferStatusAccepted:
			accepted++
		case enums.OfferStatusPending:
			t.Fatalf("offer %s still pending after accept", o.ID)
		}
	}
	assert.Equal(t, 1, accepted)

	updated, err := artworkRepo.FindByID(context.Background(), artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(9000), updated.PriceCents)
}

func TestDecideRejectLeavesSiblingsPending(t *testing.T) {
	ownerID := uuid.New()
	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)
	artwork := soldArtwork(t, artworkRepo, ownerID)

	first, err := svc.Create(context.Background(), uuid.New(), artwork.ID, CreateOfferInput{AmountCents: 5000})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), uuid.New(), artwork.ID, CreateOfferInput{AmountCents: 6000})
	require.NoError(t, err)

	decided, err := svc.Decide(context.Background(), ownerID, artwork.ID, first.ID, DecisionInput{Status: "rejected"})
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusRejected, decided.Status)

	count, err := svc.CountPending(context.Background(), ownerID, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = svc.Decide(context.Background(), ownerID, artwork.ID, first.ID, DecisionInput{Status: "accepted"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestAcceptedForBuyer(t *testing.T) {
	ownerID := uuid.New()
	buyerID := uuid.New()

	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)
	artwork := soldArtwork(t, artworkRepo, ownerID)

	offer, err := svc.Create(context.Background(), buyerID, artwork.ID, CreateOfferInput{AmountCents: 8000})
	require.NoError(t, err)

	_, err = svc.AcceptedForBuyer(context.Background(), buyerID, artwork.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.Decide(context.Background(), ownerID, artwork.ID, offer.ID, DecisionInput{Status: "accepted"})
	require.NoError(t, err)

	held, err := svc.AcceptedForBuyer(context.Background(), buyerID, artwork.ID)
	require.NoError(t, err)
	assert.Equal(t, offer.ID, held.ID)

	_, err = svc.AcceptedForBuyer(context.Background(), uuid.New(), artwork.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestMarkCompleted(t *testing.T) {
	ownerID := uuid.New()
	buyerID := uuid.New()

	offerRepo := newFakeOfferRepo()
	artworkRepo := newFakeArtworkRepo()
	svc := newTestService(t, offerRepo, artworkRepo)
	artwork := soldArtwork(t, artworkRepo, ownerID)

	offer, err := svc.Create(context.Background(), buyerID, artwork.ID, CreateOfferInput{AmountCents: 8000})
	require.NoError(t, err)
	_, err = svc.Decide(context.Background(), ownerID, artwork.ID, offer.ID, DecisionInput{Status: "accepted"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkCompleted(context.Background(), nil, offer.ID))

	stored, err := offerRepo.FindByID(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OfferStatusCompleted, stored.Status)
}
