package predictor

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/okian/t20score/internal/domain/model"
	"github.com/okian/t20score/pkg/metrics"
	cache "github.com/patrickmn/go-cache"
)

// CachedPredictor memoizes model output per feature vector for a fixed TTL.
// Identical match states produce identical vectors, so repeated submissions
// of the same ball skip the model.
type CachedPredictor struct {
	next  Predictor
	ttl   time.Duration
	cache *cache.Cache
}

// NewCachedPredictor wraps next. A non-positive ttl disables caching and
// every call goes to next.
func NewCachedPredictor(next Predictor, ttl time.Duration) *CachedPredictor {
	c := &CachedPredictor{next: next, ttl: ttl}
	if ttl > 0 {
		c.cache = cache.New(ttl, 2*ttl)
	}
	return c
}

// Predict implements Predictor.
func (c *CachedPredictor) Predict(ctx context.Context, fv model.FeatureVector) (float64, error) {
	v, _, err := c.Fetch(ctx, fv)
	return v, err
}

// Fetch is Predict that also reports whether the value came from cache.
// Failures are not cached.
func (c *CachedPredictor) Fetch(ctx context.Context, fv model.FeatureVector) (float64, bool, error) {
	if c.cache == nil {
		v, err := c.next.Predict(ctx, fv)
		return v, false, err
	}

	key := cacheKey(fv)
	if hit, found := c.cache.Get(key); found {
		if v, ok := hit.(float64); ok {
			metrics.RecordCacheHit()
			return v, true, nil
		}
	}
	metrics.RecordCacheMiss()

	v, err := c.next.Predict(ctx, fv)
	if err != nil {
		return 0, false, err
	}
	c.cache.Set(key, v, c.ttl)
	return v, false, nil
}

// Unwrap returns the wrapped predictor.
func (c *CachedPredictor) Unwrap() Predictor {
	return c.next
}

// Len returns the number of cached entries, expired ones included until the
// janitor runs.
func (c *CachedPredictor) Len() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.ItemCount()
}

func cacheKey(fv model.FeatureVector) string {
	var b strings.Builder
	for i, v := range fv.Values() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}
