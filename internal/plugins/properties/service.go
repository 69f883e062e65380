package properties

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/petfolio/petfolio/internal/apperror"
)

// cacheKeyPrefix is the Redis key prefix for cached property values.
const cacheKeyPrefix = "property:"

// PropertyService is the read/write surface for configuration properties.
// The auth core consumes only Value; the admin endpoints use the rest.
type PropertyService interface {
	// Get returns the full property record for a key.
	Get(ctx context.Context, key string) (*Property, error)

	// Value returns just the value for a key. This is the narrow accessor
	// the cipher and token code depend on.
	Value(ctx context.Context, key string) (string, error)

	// Set updates a property and invalidates its cache entry.
	Set(ctx context.Context, key, value string) error

	// List returns all properties.
	List(ctx context.Context) ([]Property, error)
}

// propertyService implements PropertyService with a short-TTL Redis
// read-through cache in front of the repository. The TTL bounds how long a
// rotated secret can keep being served from cache; verification otherwise
// round-trips to the store on every operation.
type propertyService struct {
	repo     PropertyRepository
	redis    *redis.Client
	cacheTTL time.Duration
}

// NewPropertyService creates a property service. rdb may be nil, in which
// case every read goes straight to the repository.
func NewPropertyService(repo PropertyRepository, rdb *redis.Client, cacheTTL time.Duration) PropertyService {
	return &propertyService{
		repo:     repo,
		redis:    rdb,
		cacheTTL: cacheTTL,
	}
}

// Get returns the full property record, bypassing the cache (the record
// carries UpdatedAt, which the cache does not store).
func (s *propertyService) Get(ctx context.Context, key string) (*Property, error) {
	return s.repo.Get(ctx, key)
}

// Value returns the property value for a key, reading through the Redis
// cache. Cache failures fall back to the repository -- a degraded Redis must
// never take down token verification.
func (s *propertyService) Value(ctx context.Context, key string) (string, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKeyPrefix+key).Result()
		if err == nil {
			return cached, nil
		}
		if err != redis.Nil {
			slog.Warn("property cache read failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}

	prop, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, cacheKeyPrefix+key, prop.Value, s.cacheTTL).Err(); err != nil {
			slog.Warn("property cache write failed",
				slog.String("key", key),
				slog.Any("error", err),
			)
		}
	}

	return prop.Value, nil
}

// Set updates a property and drops its cache entry so the new value is
// visible on the next read.
func (s *propertyService) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return apperror.NewValidation("property key must not be empty")
	}

	if err := s.repo.Set(ctx, key, value); err != nil {
		return err
	}

	if s.redis != nil {
		if err := s.redis.Del(ctx, cacheKeyPrefix+key).Err(); err != nil {
			return apperror.NewInternal(fmt.Errorf("invalidating property cache for %q: %w", key, err))
		}
	}

	slog.Info("property updated", slog.String("key", key))
	return nil
}

// List returns all properties.
func (s *propertyService) List(ctx context.Context) ([]Property, error) {
	return s.repo.GetAll(ctx)
}
