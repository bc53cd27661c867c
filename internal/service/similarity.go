package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Harshitk-cp/recommender/internal/cache"
	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/Harshitk-cp/recommender/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	similarityCandidateLimit = 100
	similarityFloor          = 0.2

	similarityCategoryWeight = 0.4
	similarityBrandWeight    = 0.3
	similarityPriceWeight    = 0.2
	similarityTagWeight      = 0.1
	// similarityMaxPriceDiff is the relative price gap at which the price
	// term reaches zero.
	similarityMaxPriceDiff = 0.5
	// similarityFeatureThreshold is the tag Jaccard above which a pair is
	// described as sharing features.
	similarityFeatureThreshold = 0.3
)

// SimilarityScorer ranks in-stock products by attribute similarity to an
// anchor product. Results are memoized in the engine's result cache.
type SimilarityScorer struct {
	products domain.ProductStore
	cache    *cache.LRU[[]domain.Recommendation]
	group    singleflight.Group
	logger   *zap.Logger
	metrics  *Metrics
}

func NewSimilarityScorer(ps domain.ProductStore, results *cache.LRU[[]domain.Recommendation], logger *zap.Logger, metrics *Metrics) *SimilarityScorer {
	return &SimilarityScorer{
		products: ps,
		cache:    results,
		logger:   logger,
		metrics:  metrics,
	}
}

// Score returns at most limit products similar to productID. Unknown
// products yield an empty list.
func (s *SimilarityScorer) Score(ctx context.Context, productID uuid.UUID, limit int) ([]domain.Recommendation, error) {
	if err := requireProduct(productID); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	s.metrics.scorerRequest(domain.AlgorithmSimilarity)

	key := fmt.Sprintf("similar_%s_%d", productID, limit)
	if recs, ok := s.cache.Get(key); ok {
		s.metrics.cacheLookup("similarity", true)
		return cloneRecommendations(recs), nil
	}
	s.metrics.cacheLookup("similarity", false)

	return coalesce(ctx, &s.group, key, func(ctx context.Context) []domain.Recommendation {
		recs, ok := s.compute(ctx, productID, limit)
		if ok {
			s.cache.Set(key, recs)
		}
		return recs
	}), nil
}

// compute reports whether the result may be cached: store failures and
// unknown anchors are not.
func (s *SimilarityScorer) compute(ctx context.Context, productID uuid.UUID, limit int) ([]domain.Recommendation, bool) {
	source, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.metrics.scorerDegradedTo(domain.AlgorithmSimilarity, degradedColdStart)
			return []domain.Recommendation{}, false
		}
		s.logger.Warn("similarity scorer: failed to fetch product",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		s.metrics.scorerDegradedTo(domain.AlgorithmSimilarity, degradedUpstream)
		return []domain.Recommendation{}, false
	}
	if source == nil {
		s.metrics.scorerDegradedTo(domain.AlgorithmSimilarity, degradedColdStart)
		return []domain.Recommendation{}, false
	}

	candidates, err := s.products.List(ctx, domain.ProductFilter{
		MinInventory: 1,
		ExcludeIDs:   []uuid.UUID{source.ID},
	}, similarityCandidateLimit)
	if err != nil {
		s.logger.Warn("similarity scorer: failed to fetch candidates",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		s.metrics.scorerDegradedTo(domain.AlgorithmSimilarity, degradedUpstream)
		return []domain.Recommendation{}, false
	}

	recs := make([]domain.Recommendation, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if c.ID == source.ID || !c.InStock() {
			continue
		}
		score, matched := ProductSimilarity(source, c)
		if score <= similarityFloor {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ProductID:   c.ID,
			Score:       clampUnit(score),
			Reason:      capitalize(joinPhrases(matched)),
			Algorithm:   domain.AlgorithmSimilarity,
			Explanation: fmt.Sprintf("similarity %.2f to %s", score, source.Name),
		})
	}
	return rankRecommendations(recs, limit), true
}

// ProductSimilarity scores how alike two products are and names the
// dimensions that matched.
func ProductSimilarity(a, b *domain.Product) (float64, []string) {
	var (
		score   float64
		matched []string
	)

	if a.Category != "" && a.Category == b.Category {
		score += similarityCategoryWeight
		matched = append(matched, "same category")
	}
	if a.Brand != "" && a.Brand == b.Brand {
		score += similarityBrandWeight
		matched = append(matched, "same brand")
	}
	// An unpriced product has no proximity to score. It is also what keeps
	// two products that differ only in brand at exactly the category weight.
	if a.Price > 0 && b.Price > 0 {
		diff := math.Abs(a.Price-b.Price) / math.Max(a.Price, b.Price)
		if diff < similarityMaxPriceDiff {
			score += similarityPriceWeight * (1 - 2*diff)
			matched = append(matched, "similar price")
		}
	}

	j := jaccard(a.TagSet(), b.TagSet())
	score += similarityTagWeight * j
	if j > similarityFeatureThreshold {
		matched = append(matched, "similar features")
	}
	return score, matched
}

func jaccard(a, b map[string]struct{}) float64 {
	union := len(a)
	inter := 0
	for t := range b {
		if _, ok := a[t]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
