package services

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultAnalysisTTL bounds how stale a cached team analysis may get even
// when the underlying data never changes (the engine's copy drifts).
const DefaultAnalysisTTL = 15 * time.Minute

type cacheItem struct {
	analysis  *TeamAnalysis
	expiresAt time.Time
}

// AnalysisCache is a fingerprint-keyed LRU with per-entry expiry. Keys are
// content hashes, so invalidation is automatic: changed inputs hash to a
// different key and the stale entry ages out.
type AnalysisCache struct {
	lruCache *lru.Cache[string, cacheItem]
	ttl      time.Duration
}

func NewAnalysisCache(size int, ttl time.Duration) (*AnalysisCache, error) {
	l, err := lru.New[string, cacheItem](size)
	if err != nil {
		return nil, err
	}
	return &AnalysisCache{lruCache: l, ttl: ttl}, nil
}

func (c *AnalysisCache) Get(key string) *TeamAnalysis {
	item, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}
	if time.Now().After(item.expiresAt) {
		c.lruCache.Remove(key)
		return nil
	}
	return item.analysis
}

func (c *AnalysisCache) Set(key string, analysis *TeamAnalysis) {
	c.lruCache.Add(key, cacheItem{
		analysis:  analysis,
		expiresAt: time.Now().Add(c.ttl),
	})
}

func (c *AnalysisCache) Delete(key string) {
	c.lruCache.Remove(key)
}
