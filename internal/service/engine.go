package service

import (
	"time"

	"github.com/Harshitk-cp/recommender/internal/cache"
	"github.com/Harshitk-cp/recommender/internal/domain"
	"go.uber.org/zap"
)

type EngineConfig struct {
	ResultCacheTTL      time.Duration
	ResultCacheCapacity int
	BundleTTL           time.Duration
	BundleCacheCapacity int
	ProfileQueueSize    int
	// RecordTimeout bounds each interaction write. Zero keeps the recorder default.
	RecordTimeout time.Duration
	// Now is the clock shared by every component. Defaults to time.Now.
	Now func() time.Time
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.ResultCacheTTL <= 0 {
		c.ResultCacheTTL = cache.DefaultTTL
	}
	if c.ResultCacheCapacity <= 0 {
		c.ResultCacheCapacity = cache.DefaultCapacity
	}
	if c.BundleTTL <= 0 {
		c.BundleTTL = DefaultBundleTTL
	}
	if c.BundleCacheCapacity <= 0 {
		c.BundleCacheCapacity = cache.DefaultCapacity
	}
	if c.ProfileQueueSize <= 0 {
		c.ProfileQueueSize = defaultProfileQueueSize
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Engine owns one instance of every scorer and the caches they share.
type Engine struct {
	Recorder      *RecorderService
	Collaborative *CollaborativeScorer
	Content       *ContentScorer
	Trending      *TrendingScorer
	Similarity    *SimilarityScorer
	Blender       *HybridBlender
	Bundles       *BundleService
	Profiles      *ProfileRefresher

	results *cache.LRU[[]domain.Recommendation]
	bundles *cache.LRU[*domain.PersonalizedBundle]
}

func NewEngine(
	interactions domain.InteractionStore,
	products domain.ProductStore,
	preferences domain.PreferenceStore,
	cfg EngineConfig,
	logger *zap.Logger,
	metrics *Metrics,
) *Engine {
	cfg = cfg.withDefaults()

	results := cache.New(cfg.ResultCacheCapacity, cfg.ResultCacheTTL,
		cache.WithClock[[]domain.Recommendation](cfg.Now))
	bundles := cache.New(cfg.BundleCacheCapacity, cfg.BundleTTL,
		cache.WithClock[*domain.PersonalizedBundle](cfg.Now))

	collaborative := NewCollaborativeScorer(interactions, logger, metrics)

	content := NewContentScorer(interactions, products, logger, metrics)
	content.SetClock(cfg.Now)

	trending := NewTrendingScorer(interactions, results, logger, metrics)
	trending.SetClock(cfg.Now)

	similarity := NewSimilarityScorer(products, results, logger, metrics)

	blender := NewHybridBlender(collaborative, content, trending, logger, metrics)
	blender.SetClock(cfg.Now)

	bundleSvc := NewBundleService(blender, trending, similarity, interactions, bundles, logger)
	bundleSvc.SetClock(cfg.Now)

	profiles := NewProfileRefresher(interactions, preferences, cfg.ProfileQueueSize, logger, metrics)
	profiles.SetClock(cfg.Now)

	recorder := NewRecorderService(interactions, logger, metrics)
	recorder.SetTimeout(cfg.RecordTimeout)
	recorder.SetProfileQueue(profiles)
	recorder.SetBundleInvalidator(bundleSvc)

	return &Engine{
		Recorder:      recorder,
		Collaborative: collaborative,
		Content:       content,
		Trending:      trending,
		Similarity:    similarity,
		Blender:       blender,
		Bundles:       bundleSvc,
		Profiles:      profiles,
		results:       results,
		bundles:       bundles,
	}
}

// InvalidateCache drops every cached result and bundle.
func (e *Engine) InvalidateCache() {
	e.results.Purge()
	e.bundles.Purge()
}

// CleanupExpired drops expired entries from both caches and returns how many
// were removed. Expired entries are otherwise only dropped when read.
func (e *Engine) CleanupExpired() int {
	return e.results.CleanupExpired() + e.bundles.CleanupExpired()
}

type CacheStats struct {
	Results cache.Stats `json:"results"`
	Bundles cache.Stats `json:"bundles"`
}

func (e *Engine) CacheStats() CacheStats {
	return CacheStats{
		Results: e.results.Stats(),
		Bundles: e.bundles.Stats(),
	}
}
