package service

import (
	"context"
	"time"

	"github.com/Harshitk-cp/recommender/internal/cache"
	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBundleTTL = time.Hour

	bundleSectionLimit     = 10
	bundleTopCategories    = 3
	bundleCategoryLimit    = 5
	bundleCartAnchors      = 3
	bundleCartSimilarLimit = 5
	bundleHistoryLimit     = 50
)

// SimilaritySource ranks products similar to an anchor.
type SimilaritySource interface {
	Score(ctx context.Context, productID uuid.UUID, limit int) ([]domain.Recommendation, error)
}

// Blender merges several scorers into one list for a user.
type Blender interface {
	Blend(ctx context.Context, userID uuid.UUID, cfg domain.BlendConfig) (*domain.BlendResult, error)
}

// BundleService assembles and caches a user's personalized bundle. A cached
// bundle is returned until it expires, then regenerated from scratch.
type BundleService struct {
	blender      Blender
	trending     TrendingSource
	similarity   SimilaritySource
	interactions domain.InteractionStore
	cache        *cache.LRU[*domain.PersonalizedBundle]
	ttl          time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

func NewBundleService(
	blender Blender,
	trending TrendingSource,
	similarity SimilaritySource,
	is domain.InteractionStore,
	bundles *cache.LRU[*domain.PersonalizedBundle],
	logger *zap.Logger,
) *BundleService {
	ttl := DefaultBundleTTL
	if bundles != nil && bundles.TTL() > 0 {
		ttl = bundles.TTL()
	}
	return &BundleService{
		blender:      blender,
		trending:     trending,
		similarity:   similarity,
		interactions: is,
		cache:        bundles,
		ttl:          ttl,
		logger:       logger,
		now:          time.Now,
	}
}

func (s *BundleService) SetClock(now func() time.Time) {
	s.now = now
}

// Get returns the user's bundle, generating it when absent or stale.
func (s *BundleService) Get(ctx context.Context, userID uuid.UUID) (*domain.PersonalizedBundle, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	key := userID.String()
	if b, ok := s.cache.Get(key); ok && !b.IsStale(s.now()) {
		return b, nil
	}

	b := s.generate(ctx, userID)
	s.cache.Set(key, b)
	return b, nil
}

// Invalidate discards the cached bundle of one user.
func (s *BundleService) Invalidate(userID uuid.UUID) {
	s.cache.Remove(userID.String())
}

// Purge discards every cached bundle.
func (s *BundleService) Purge() {
	s.cache.Purge()
}

type bundleContext struct {
	profile    *domain.PreferenceProfile
	lastViewed uuid.UUID
	cart       []uuid.UUID
}

func (s *BundleService) loadContext(ctx context.Context, userID uuid.UUID) bundleContext {
	bc := bundleContext{}
	history, err := s.interactions.List(ctx, domain.InteractionFilter{
		UserID: &userID,
		Types:  ProfileInteractionTypes,
		Limit:  bundleHistoryLimit,
	})
	if err != nil {
		s.logger.Warn("bundle: failed to fetch history",
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return bc
	}

	bc.profile = BuildPreferenceProfile(userID, history, s.now())
	inCart := make(map[uuid.UUID]struct{})
	// History is newest first.
	for _, h := range history {
		switch h.Type {
		case domain.InteractionView:
			if bc.lastViewed == uuid.Nil {
				bc.lastViewed = h.ProductID
			}
		case domain.InteractionCart:
			if _, ok := inCart[h.ProductID]; !ok && len(bc.cart) < bundleCartAnchors {
				inCart[h.ProductID] = struct{}{}
				bc.cart = append(bc.cart, h.ProductID)
			}
		}
	}
	return bc
}

func (s *BundleService) generate(ctx context.Context, userID uuid.UUID) *domain.PersonalizedBundle {
	bc := s.loadContext(ctx, userID)

	var (
		forYou, viewed, trending, cart []domain.Recommendation
		g                              errgroup.Group
	)
	g.Go(func() error {
		forYou = s.forYou(ctx, userID)
		return nil
	})
	g.Go(func() error {
		viewed = s.becauseYouViewed(ctx, bc)
		return nil
	})
	g.Go(func() error {
		trending = s.trendingInCategories(ctx, bc)
		return nil
	})
	g.Go(func() error {
		cart = s.similarToCart(ctx, bc)
		return nil
	})
	_ = g.Wait()

	now := s.now()
	return &domain.PersonalizedBundle{
		UserID: userID,
		Sections: map[string][]domain.Recommendation{
			domain.SectionForYou:               forYou,
			domain.SectionBecauseYouViewed:     viewed,
			domain.SectionTrendingInCategories: trending,
			domain.SectionSimilarToCart:        cart,
		},
		GeneratedAt: now,
		ExpiresAt:   now.Add(s.ttl),
	}
}

// forYou falls back to trending so the main surface is never empty.
func (s *BundleService) forYou(ctx context.Context, userID uuid.UUID) []domain.Recommendation {
	res, err := s.blender.Blend(ctx, userID, domain.BlendConfig{
		Weights: domain.DefaultWeights(),
		Limit:   bundleSectionLimit,
	})
	if err == nil && len(res.Recommendations) > 0 {
		return res.Recommendations
	}
	if err != nil {
		s.logger.Warn("bundle: blend failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
	return s.trendingList(ctx, "", bundleSectionLimit)
}

func (s *BundleService) becauseYouViewed(ctx context.Context, bc bundleContext) []domain.Recommendation {
	if bc.lastViewed == uuid.Nil {
		return []domain.Recommendation{}
	}
	recs, err := s.similarity.Score(ctx, bc.lastViewed, bundleSectionLimit)
	if err != nil {
		return []domain.Recommendation{}
	}
	return recs
}

func (s *BundleService) trendingInCategories(ctx context.Context, bc bundleContext) []domain.Recommendation {
	if bc.profile.IsEmpty() {
		return []domain.Recommendation{}
	}
	var lists [][]domain.Recommendation
	for _, category := range bc.profile.TopCategories(bundleTopCategories) {
		lists = append(lists, s.trendingList(ctx, category, bundleCategoryLimit))
	}
	return mergeSections(lists, nil, bundleSectionLimit)
}

func (s *BundleService) similarToCart(ctx context.Context, bc bundleContext) []domain.Recommendation {
	if len(bc.cart) == 0 {
		return []domain.Recommendation{}
	}
	var lists [][]domain.Recommendation
	for _, id := range bc.cart {
		recs, err := s.similarity.Score(ctx, id, bundleCartSimilarLimit)
		if err != nil {
			continue
		}
		lists = append(lists, recs)
	}
	return mergeSections(lists, idSet(bc.cart), bundleSectionLimit)
}

func (s *BundleService) trendingList(ctx context.Context, category string, limit int) []domain.Recommendation {
	recs, err := s.trending.Score(ctx, TrendingQuery{
		Limit:    limit,
		Category: category,
		Period:   domain.PeriodDay,
	})
	if err != nil {
		return []domain.Recommendation{}
	}
	return recs
}

// mergeSections combines lists keeping each product's best entry, drops
// excluded products and ranks the result.
func mergeSections(lists [][]domain.Recommendation, exclude map[uuid.UUID]struct{}, limit int) []domain.Recommendation {
	best := make(map[uuid.UUID]domain.Recommendation)
	for _, list := range lists {
		for _, r := range list {
			if _, skip := exclude[r.ProductID]; skip {
				continue
			}
			if cur, ok := best[r.ProductID]; !ok || r.Score > cur.Score {
				best[r.ProductID] = r
			}
		}
	}
	out := make([]domain.Recommendation, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	return rankRecommendations(out, limit)
}
