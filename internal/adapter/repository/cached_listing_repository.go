package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"skipped/internal/domain/entity"
	"skipped/internal/domain/repository"
	"skipped/pkg/logger"
)

const (
	listingCachePrefix  = "listing:"
	listingCacheTimeout = 300 * time.Millisecond
)

// CachedListingRepository serves GetByID from Redis and drops the entry on every write.
// Search always goes to the underlying store.
type CachedListingRepository struct {
	repository.ListingRepository
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedListingRepository(next repository.ListingRepository, client *redis.Client, ttl time.Duration) *CachedListingRepository {
	return &CachedListingRepository{
		ListingRepository: next,
		redis:             client,
		ttl:               ttl,
	}
}

func (r *CachedListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	cacheCtx, cancel := context.WithTimeout(ctx, listingCacheTimeout)
	raw, err := r.redis.Get(cacheCtx, listingCachePrefix+id).Bytes()
	cancel()

	if err == nil {
		var listing entity.Listing
		if err := json.Unmarshal(raw, &listing); err == nil {
			return &listing, nil
		}
	} else if !stderrors.Is(err, redis.Nil) {
		logger.Warn("Listing cache read failed for %s: %v", id, err)
	}

	listing, err := r.ListingRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(listing); err == nil {
		cacheCtx, cancel := context.WithTimeout(ctx, listingCacheTimeout)
		if err := r.redis.Set(cacheCtx, listingCachePrefix+id, raw, r.ttl).Err(); err != nil {
			logger.Warn("Listing cache write failed for %s: %v", id, err)
		}
		cancel()
	}
	return listing, nil
}

func (r *CachedListingRepository) Update(ctx context.Context, listing *entity.Listing) error {
	defer r.invalidate(ctx, listing.ID)
	return r.ListingRepository.Update(ctx, listing)
}

func (r *CachedListingRepository) UpdateStatusIfActive(ctx context.Context, id, status string) error {
	defer r.invalidate(ctx, id)
	return r.ListingRepository.UpdateStatusIfActive(ctx, id, status)
}

func (r *CachedListingRepository) AddImage(ctx context.Context, id, imageURL string) error {
	defer r.invalidate(ctx, id)
	return r.ListingRepository.AddImage(ctx, id, imageURL)
}

// Invalidate drops a cached listing. Writers outside this repository, such as
// the sale recorder, call it after changing a listing's status.
func (r *CachedListingRepository) Invalidate(ctx context.Context, id string) {
	r.invalidate(ctx, id)
}

func (r *CachedListingRepository) invalidate(ctx context.Context, id string) {
	cacheCtx, cancel := context.WithTimeout(ctx, listingCacheTimeout)
	defer cancel()
	if err := r.redis.Del(cacheCtx, listingCachePrefix+id).Err(); err != nil {
		logger.Warn("Listing cache invalidation failed for %s: %v", id, err)
	}
}
