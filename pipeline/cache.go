package pipeline

import (
	"diabetesapi/ml"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Inference is the raw output of one predictor call.
type Inference struct {
	Label         int
	Probabilities []float64
}

type cacheKey struct {
	generation uint64
	features   [7]float64
}

// Cache memoises inferences per model generation. Predictors are pure, so a
// cached answer is the answer the same model would give again.
type Cache struct {
	entries *lru.Cache[cacheKey, Inference]
}

// NewCache returns nil when size is not positive; a nil *Cache is a no-op.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		return nil, nil
	}
	entries, err := lru.New[cacheKey, Inference](size)
	if err != nil {
		return nil, err
	}
	return &Cache{entries: entries}, nil
}

func (c *Cache) Get(generation uint64, v ml.FeatureVector) (Inference, bool) {
	key, ok := keyFor(generation, v)
	if c == nil || !ok {
		return Inference{}, false
	}
	return c.entries.Get(key)
}

func (c *Cache) Add(generation uint64, v ml.FeatureVector, inf Inference) {
	key, ok := keyFor(generation, v)
	if c == nil || !ok {
		return
	}
	c.entries.Add(key, inf)
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}

func keyFor(generation uint64, v ml.FeatureVector) (cacheKey, bool) {
	key := cacheKey{generation: generation}
	if len(v) != len(key.features) {
		return key, false
	}
	copy(key.features[:], v)
	return key, true
}
