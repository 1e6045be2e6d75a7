package roi

import (
	"context"
	"fmt"
	"math"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lru"
	"github.com/couchcryptid/lyon-flood-lab/internal/observability"
)

// CachedEstimator wraps an ROIEstimator with an in-memory LRU cache.
type CachedEstimator struct {
	inner   domain.ROIEstimator
	cache   *lru.Cache[string, domain.ROIEstimate]
	metrics *observability.Metrics
}

// NewCachedEstimator creates a cache decorator around an estimator.
func NewCachedEstimator(inner domain.ROIEstimator, maxEntries int, metrics *observability.Metrics) *CachedEstimator {
	return &CachedEstimator{
		inner:   inner,
		cache:   lru.New[string, domain.ROIEstimate](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedEstimator) EstimateROI(ctx context.Context, req domain.ROIRequest) (domain.ROIEstimate, error) {
	key := cacheKey(req)
	if est, ok := c.cache.Get(key); ok {
		c.metrics.ROICache.WithLabelValues("hit").Inc()
		return est, nil
	}
	c.metrics.ROICache.WithLabelValues("miss").Inc()

	est, err := c.inner.EstimateROI(ctx, req)
	if err != nil {
		return est, err
	}
	c.cache.Put(key, est)
	return est, nil
}

// Damages are rounded to whole euros so float noise does not split entries.
func cacheKey(req domain.ROIRequest) string {
	return fmt.Sprintf("%s|%.0f|%.0f", req.State.Query(), math.Round(req.BaselineDamage), math.Round(req.MitigatedDamage))
}
