package discovery

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/sumire/firstissues/internal/cache"
	"github.com/sumire/firstissues/internal/domain"
)

// RepositoryFetcher is the repository-detail endpoint of the GitHub gateway.
type RepositoryFetcher interface {
	Repository(ctx context.Context, token, repositoryURL string) (*domain.RepositoryMetadata, error)
}

// RepositoryCache memoizes repository metadata by repository URL.
// Failures are not cached.
type RepositoryCache struct {
	fetch RepositoryFetcher
	cache cache.Cache[domain.RepositoryMetadata]
	group singleflight.Group
}

// NewRepositoryCache creates a RepositoryCache backed by c.
func NewRepositoryCache(fetch RepositoryFetcher, c cache.Cache[domain.RepositoryMetadata]) *RepositoryCache {
	return &RepositoryCache{fetch: fetch, cache: c}
}

// Get returns cached metadata or fetches and stores it. Concurrent misses
// for the same URL and token share one request.
func (c *RepositoryCache) Get(ctx context.Context, repositoryURL, token string) (domain.RepositoryMetadata, error) {
	if m, ok := c.cache.Get(ctx, repositoryURL); ok {
		return m, nil
	}

	// The shared fetch outlives any single caller; the gateway timeout bounds it.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(cache.ContentKey(repositoryURL, token), func() (any, error) {
		m, err := c.fetch.Repository(fetchCtx, token, repositoryURL)
		if err != nil {
			return nil, err
		}
		c.cache.Set(fetchCtx, repositoryURL, *m)
		return *m, nil
	})

	select {
	case <-ctx.Done():
		return domain.RepositoryMetadata{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.RepositoryMetadata{}, res.Err
		}
		return res.Val.(domain.RepositoryMetadata), nil
	}
}
