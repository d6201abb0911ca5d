package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/vasifvortex/azercell-project3/domain"
)

// CachedRetriever memoises successful lookups per query and top-k.
// Failures are never cached.
type CachedRetriever struct {
	next   domain.Retriever
	hasher domain.Hasher
	cache  *expirable.LRU[string, []domain.Passage]

	OnHit  func()
	OnMiss func()
}

func NewCachedRetriever(next domain.Retriever, hasher domain.Hasher, size int, ttl time.Duration) *CachedRetriever {
	return &CachedRetriever{
		next:   next,
		hasher: hasher,
		cache:  expirable.NewLRU[string, []domain.Passage](size, nil, ttl),
	}
}

func (c *CachedRetriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	key := fmt.Sprintf("%s:%d", c.hasher.Hash([]byte(query)), topK)
	if passages, ok := c.cache.Get(key); ok {
		if c.OnHit != nil {
			c.OnHit()
		}
		return passages, nil
	}
	if c.OnMiss != nil {
		c.OnMiss()
	}

	passages, err := c.next.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, passages)
	return passages, nil
}

func (c *CachedRetriever) Len() int { return c.cache.Len() }

var _ domain.Retriever = (*CachedRetriever)(nil)
