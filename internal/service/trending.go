package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/recommender/internal/cache"
	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// trendingNormalizer maps momentum-weighted totals onto [0,1]. Tunable.
const trendingNormalizer = 100.0

var trendingWeights = map[domain.InteractionType]float64{
	domain.InteractionView:     1,
	domain.InteractionCart:     2,
	domain.InteractionPurchase: 3,
}

var trendingTypes = []domain.InteractionType{
	domain.InteractionView,
	domain.InteractionCart,
	domain.InteractionPurchase,
}

// TrendingQuery selects a trending list. An empty Period means 24h.
type TrendingQuery struct {
	Limit    int               `validate:"min=1,max=100"`
	Category string            `validate:"max=200"`
	Period   domain.TimePeriod `validate:"oneof=1h 24h 7d 30d"`
}

func (q TrendingQuery) cacheKey() string {
	category := q.Category
	if category == "" {
		category = "all"
	}
	return fmt.Sprintf("trending_%s_%s_%d", category, q.Period, q.Limit)
}

// TrendingScorer ranks in-stock products by recent, recency-weighted activity.
// Results are memoized in the engine's result cache.
type TrendingScorer struct {
	interactions domain.InteractionStore
	cache        *cache.LRU[[]domain.Recommendation]
	group        singleflight.Group
	logger       *zap.Logger
	metrics      *Metrics
	now          func() time.Time
}

func NewTrendingScorer(is domain.InteractionStore, results *cache.LRU[[]domain.Recommendation], logger *zap.Logger, metrics *Metrics) *TrendingScorer {
	return &TrendingScorer{
		interactions: is,
		cache:        results,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (s *TrendingScorer) SetClock(now func() time.Time) {
	s.now = now
}

func (s *TrendingScorer) Score(ctx context.Context, q TrendingQuery) ([]domain.Recommendation, error) {
	if q.Period == "" {
		q.Period = domain.PeriodDay
	}
	if err := validateStruct(q); err != nil {
		return nil, err
	}
	s.metrics.scorerRequest(domain.AlgorithmTrending)

	key := q.cacheKey()
	if recs, ok := s.cache.Get(key); ok {
		s.metrics.cacheLookup("trending", true)
		return cloneRecommendations(recs), nil
	}
	s.metrics.cacheLookup("trending", false)

	return coalesce(ctx, &s.group, key, func(ctx context.Context) []domain.Recommendation {
		recs, ok := s.compute(ctx, q)
		if ok {
			s.cache.Set(key, recs)
		}
		return recs
	}), nil
}

// compute reports false when the store failed, so the empty result is not
// cached.
func (s *TrendingScorer) compute(ctx context.Context, q TrendingQuery) ([]domain.Recommendation, bool) {
	since := s.now().Add(-q.Period.Window())
	rows, err := s.interactions.List(ctx, domain.InteractionFilter{
		Types:       trendingTypes,
		Since:       &since,
		Category:    q.Category,
		InStockOnly: true,
	})
	if err != nil {
		s.logger.Warn("trending scorer: failed to fetch interactions",
			zap.String("category", q.Category),
			zap.String("period", string(q.Period)),
			zap.Error(err))
		s.metrics.scorerDegradedTo(domain.AlgorithmTrending, degradedUpstream)
		return []domain.Recommendation{}, false
	}

	type tally struct {
		total float64
		count int
	}
	tallies := make(map[uuid.UUID]*tally)
	for _, r := range rows {
		w, ok := trendingWeights[r.Type]
		if !ok || !r.Product.InStock() {
			continue
		}
		if q.Category != "" && r.Product.Category != q.Category {
			continue
		}
		t := tallies[r.ProductID]
		if t == nil {
			t = &tally{}
			tallies[r.ProductID] = t
		}
		t.total += w
		t.count++
	}

	momentum := q.Period.Momentum()
	recs := make([]domain.Recommendation, 0, len(tallies))
	for productID, t := range tallies {
		weighted := t.total * momentum
		recs = append(recs, domain.Recommendation{
			ProductID:   productID,
			Score:       clampUnit(weighted / trendingNormalizer),
			Reason:      fmt.Sprintf("Trending now — %d recent interactions", t.count),
			Algorithm:   domain.AlgorithmTrending,
			Explanation: fmt.Sprintf("activity %.0f x momentum %.1f over %s", t.total, momentum, q.Period),
		})
	}
	return rankRecommendations(recs, q.Limit), true
}

func cloneRecommendations(recs []domain.Recommendation) []domain.Recommendation {
	if recs == nil {
		return []domain.Recommendation{}
	}
	out := make([]domain.Recommendation, len(recs))
	copy(out, recs)
	return out
}
