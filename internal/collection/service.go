package collection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/nmoreau/galleria-backend/internal/artworks"
	pkgerrors "github.com/nmoreau/galleria-backend/pkg/errors"
	"github.com/nmoreau/galleria-backend/pkg/logger"
)

const cacheTTL = 5 * time.Minute

// Cache is the Redis surface the collection list uses. Satisfied by
// *redis.Client.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CollectionCacheKey(userID string) string
}

// Service reads the per-user collection index. Writes happen inside the
// settlement transaction through the Repository; the service only caches
// reads and drops cache entries when ownership moves.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Invalidate(ctx context.Context, userIDs ...uuid.UUID)
}

// ServiceParams wires the collection service dependencies.
type ServiceParams struct {
	Repo     Repository
	Artworks artworks.Service
	Cache    Cache
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	artworks artworks.Service
	cache    Cache
	logg     *logger.Logger
}

// NewService validates dependencies and returns the collection service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("collection repository required")
	}
	if params.Artworks == nil {
		return nil, fmt.Errorf("artworks service required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     params.Repo,
		artworks: params.Artworks,
		cache:    params.Cache,
		logg:     params.Logger,
	}, nil
}

// List returns the user's collection, newest purchase first. Served from
// Redis when the cached copy is still warm; cache trouble falls through to
// the database.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}

	var cacheKey string
	if s.cache != nil {
		cacheKey = s.cache.CollectionCacheKey(userID.String())
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []ItemDTO
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, goredis.Nil) {
			s.logg.Warn(ctx, "collection cache read failed: "+err.Error())
		}
	}

	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list collection")
	}

	items := make([]ItemDTO, 0, len(rows))
	for _, row := range rows {
		artwork, err := s.artworks.Get(ctx, row.ArtworkID)
		if err != nil {
			// index row without a live artwork; keep the purchase record
			items = append(items, itemFromModels(row, nil, nil))
			continue
		}
		items = append(items, itemFromModels(row, artwork, s.artworks.ImageURL(artwork)))
	}

	if s.cache != nil {
		if payload, err := json.Marshal(items); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(payload), cacheTTL); err != nil {
				s.logg.Warn(ctx, "collection cache write failed: "+err.Error())
			}
		}
	}
	return items, nil
}

// Invalidate drops the cached collection for each user. Failures are logged
// only; the entry expires on its own TTL.
func (s *service) Invalidate(ctx context.Context, userIDs ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id == uuid.Nil {
			continue
		}
		keys = append(keys, s.cache.CollectionCacheKey(id.String()))
	}
	if len(keys) == 0 {
		return
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.logg.Warn(ctx, "collection cache invalidation failed: "+err.Error())
	}
}
