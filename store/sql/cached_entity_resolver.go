package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
)

const entityCacheKeyPrefix = "go-tokens::entity::v1"

// CachedEntityResolver memoizes entity name resolution. Failed lookups are
// not cached.
type CachedEntityResolver struct {
	base  EntityNameResolver
	cache repositorycache.CacheService
}

func NewCachedEntityResolver(
	base EntityNameResolver,
	cacheService repositorycache.CacheService,
) (*CachedEntityResolver, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base entity resolver is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: entity cache service is required")
	}
	return &CachedEntityResolver{base: base, cache: cacheService}, nil
}

// EntityCacheKey returns go-tokens::entity::v1::<reference> with the
// trimmed reference URL-path escaped.
func EntityCacheKey(reference string) (string, error) {
	normalized := strings.TrimSpace(reference)
	if normalized == "" {
		return "", fmt.Errorf("sqlstore: entity reference is required")
	}
	return entityCacheKeyPrefix + "::" + url.PathEscape(normalized), nil
}

func (r *CachedEntityResolver) Resolve(ctx context.Context, name string) (string, error) {
	if r == nil || r.base == nil || r.cache == nil {
		return "", fmt.Errorf("sqlstore: cached entity resolver is not configured")
	}
	cacheKey, err := EntityCacheKey(name)
	if err != nil {
		return r.base.Resolve(ctx, name)
	}
	return repositorycache.GetOrFetch(ctx, r.cache, cacheKey, func(ctx context.Context) (string, error) {
		return r.base.Resolve(ctx, name)
	})
}

// Invalidate drops the cached resolution of reference, e.g. after a new
// alias was registered on the base resolver.
func (r *CachedEntityResolver) Invalidate(ctx context.Context, reference string) error {
	if r == nil || r.cache == nil {
		return fmt.Errorf("sqlstore: cached entity resolver is not configured")
	}
	cacheKey, err := EntityCacheKey(reference)
	if err != nil {
		return err
	}
	return r.cache.Delete(ctx, cacheKey)
}
