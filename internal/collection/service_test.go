package collection

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	"github.com/nmoreau/galleria-backend/pkg/config"
	"github.com/nmoreau/galleria-backend/pkg/db/models"
	"github.com/nmoreau/galleria-backend/pkg/enums"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

type fakeRepo struct {
	items     []models.CollectionItem
	listCalls int
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) Add(ctx context.Context, item *models.CollectionItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items = append(f.items, *item)
	return nil
}

func (f *fakeRepo) Remove(ctx context.Context, userID, artworkID uuid.UUID) (int64, error) {
	var kept []models.CollectionItem
	var removed int64
	for _, item := range f.items {
		if item.UserID == userID && item.ArtworkID == artworkID {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	f.items = kept
	return removed, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.CollectionItem, error) {
	f.listCalls++
	var out []models.CollectionItem
	for _, item := range f.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeRepo) FindByUserAndArtwork(ctx context.Context, userID, artworkID uuid.UUID) (*models.CollectionItem, error) {
	for _, item := range f.items {
		if item.UserID == userID && item.ArtworkID == artworkID {
			copied := item
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeCache struct {
	entries map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]string{}} }

func (f *fakeCache) Get(ctx context.Context, key string) (string, error) {
	if v, ok := f.entries[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (f *fakeCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.entries[key] = value.(string)
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.entries, key)
	}
	return nil
}

func (f *fakeCache) CollectionCacheKey(userID string) string {
	return "gal:collection:" + userID
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

func newTestService(t *testing.T, repo Repository, cache Cache) (Service, *fakeArtworkRepo) {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})

	artworkRepo := &fakeArtworkRepo{artworks: map[uuid.UUID]*models.Artwork{}}
	artworkSvc, err := artworks.NewService(artworks.ServiceParams{
		Repo:   artworkRepo,
		GCS:    config.GCSConfig{BucketName: "galleria-test"},
		Logger: logg,
	})
	require.NoError(t, err)

	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Artworks: artworkSvc,
		Cache:    cache,
		Logger:   logg,
	})
	require.NoError(t, err)
	return svc, artworkRepo
}

func seedItem(t *testing.T, repo *fakeRepo, artworkRepo *fakeArtworkRepo, userID uuid.UUID) *models.CollectionItem {
	t.Helper()
	ownerID := userID
	artwork := &models.Artwork{
		ArtistID:       uuid.New(),
		Title:          "Dusk",
		Category:       enums.ArtworkCategoryPhotography,
		PriceCents:     10000,
		Currency:       enums.CurrencyUSD,
		Status:         enums.ArtworkStatusSold,
		CurrentOwnerID: &ownerID,
	}
	require.NoError(t, artworkRepo.Create(context.Background(), artwork))

	item := &models.CollectionItem{
		UserID:        userID,
		ArtworkID:     artwork.ID,
		TransactionID: uuid.New(),
		PriceCents:    10000,
		Currency:      enums.CurrencyUSD,
		PurchasedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Add(context.Background(), item))
	return item
}

func TestListCachesSecondRead(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	svc, artworkRepo := newTestService(t, repo, cache)

	userID := uuid.New()
	item := seedItem(t, repo, artworkRepo, userID)

	first, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, item.ArtworkID, first[0].ArtworkID)
	assert.Equal(t, "Dusk", first[0].Title)
	assert.Equal(t, "100.00", first[0].Price)
	assert.Equal(t, 1, repo.listCalls)

	second, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, 1, repo.listCalls, "second read should hit the cache")
}

func TestInvalidateDropsCache(t *testing.T) {
	repo := &fakeRepo{}
	cache := newFakeCache()
	svc, artworkRepo := newTestService(t, repo, cache)

	userID := uuid.New()
	seedItem(t, repo, artworkRepo, userID)

	_, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	svc.Invalidate(context.Background(), userID)
	assert.Empty(t, cache.entries)

	_, err = svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestListKeepsRecordWhenArtworkMissing(t *testing.T) {
	repo := &fakeRepo{}
	svc, _ := newTestService(t, repo, nil)

	userID := uuid.New()
	item := &models.CollectionItem{
		UserID:        userID,
		ArtworkID:     uuid.New(),
		TransactionID: uuid.New(),
		PriceCents:    5000,
		Currency:      enums.CurrencyUSD,
		PurchasedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Add(context.Background(), item))

	items, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, item.ArtworkID, items[0].ArtworkID)
	assert.Empty(t, items[0].Title)
}
