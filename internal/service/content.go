package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	contentHistoryLimit   = 50
	contentTopN           = 5
	contentCandidateLimit = 100
	// contentPriceSlack widens the preferred price band when selecting candidates.
	contentPriceSlack = 0.2
	// contentNoiseFloor drops weak matches. Tunable.
	contentNoiseFloor = 0.1

	contentCategoryWeight = 0.4
	contentBrandWeight    = 0.3
	contentTagWeight      = 0.2
	contentPriceBonus     = 0.1
)

// ContentScorer ranks catalog products by how well they match the user's
// preference profile.
type ContentScorer struct {
	interactions domain.InteractionStore
	products     domain.ProductStore
	logger       *zap.Logger
	metrics      *Metrics
	now          func() time.Time
}

func NewContentScorer(is domain.InteractionStore, ps domain.ProductStore, logger *zap.Logger, metrics *Metrics) *ContentScorer {
	return &ContentScorer{
		interactions: is,
		products:     ps,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (s *ContentScorer) SetClock(now func() time.Time) {
	s.now = now
}

// Score returns at most limit recommendations for userID. Users without
// history get an empty list.
func (s *ContentScorer) Score(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	s.metrics.scorerRequest(domain.AlgorithmContent)

	history, err := s.interactions.List(ctx, domain.InteractionFilter{
		UserID: &userID,
		Types:  ProfileInteractionTypes,
		Limit:  contentHistoryLimit,
	})
	if err != nil {
		return s.degrade(userID, "failed to fetch history", err), nil
	}

	profile := BuildPreferenceProfile(userID, history, s.now())
	if profile.IsEmpty() {
		s.metrics.scorerDegradedTo(domain.AlgorithmContent, degradedColdStart)
		return []domain.Recommendation{}, nil
	}

	categories := profile.TopCategories(contentTopN)
	brands := profile.TopBrands(contentTopN)
	if len(categories) == 0 && len(brands) == 0 {
		s.metrics.scorerDegradedTo(domain.AlgorithmContent, degradedColdStart)
		return []domain.Recommendation{}, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(history))
	for _, h := range history {
		seen[h.ProductID] = struct{}{}
	}

	band := profile.PriceBand.Widen(contentPriceSlack)
	candidates, err := s.products.List(ctx, domain.ProductFilter{
		CategoryIn:   categories,
		BrandIn:      brands,
		PriceMin:     &band.Min,
		PriceMax:     &band.Max,
		MinInventory: 1,
		ExcludeIDs:   setKeys(seen),
	}, contentCandidateLimit)
	if err != nil {
		return s.degrade(userID, "failed to fetch candidates", err), nil
	}

	recs := make([]domain.Recommendation, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		if _, ok := seen[p.ID]; ok || !p.InStock() {
			continue
		}
		m := matchProfile(profile, p)
		if m.score <= contentNoiseFloor {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ProductID:   p.ID,
			Score:       clampUnit(m.score),
			Reason:      m.reason(),
			Algorithm:   domain.AlgorithmContent,
			Explanation: m.explanation(),
		})
	}
	return rankRecommendations(recs, limit), nil
}

func (s *ContentScorer) degrade(userID uuid.UUID, msg string, err error) []domain.Recommendation {
	s.logger.Warn("content scorer: "+msg,
		zap.String("user_id", userID.String()),
		zap.Error(err))
	s.metrics.scorerDegradedTo(domain.AlgorithmContent, degradedUpstream)
	return []domain.Recommendation{}
}

type profileMatch struct {
	category, brand, tags, price float64
	score                        float64
	categoryName, brandName      string
	matchedTags                  []string
}

// matchProfile scores a product against a profile. Each affinity is divided
// by the profile's maximum in that dimension.
func matchProfile(profile *domain.PreferenceProfile, p *domain.Product) profileMatch {
	m := profileMatch{}

	if maxCat := profile.MaxCategory(); maxCat > 0 && p.Category != "" {
		m.category = profile.CategoryScores[p.Category] / maxCat
		if m.category > 0 {
			m.categoryName = p.Category
		}
	}
	if maxBrand := profile.MaxBrand(); maxBrand > 0 && p.Brand != "" {
		m.brand = profile.BrandScores[p.Brand] / maxBrand
		if m.brand > 0 {
			m.brandName = p.Brand
		}
	}
	if maxTag := profile.MaxTag(); maxTag > 0 {
		tags := p.TagSet()
		var sum float64
		for t := range tags {
			if v := profile.TagScores[t]; v > 0 {
				sum += v / maxTag
				m.matchedTags = append(m.matchedTags, t)
			}
		}
		if len(tags) > 0 {
			m.tags = sum / float64(len(tags))
		}
		sort.Slice(m.matchedTags, func(i, j int) bool {
			a, b := profile.TagScores[m.matchedTags[i]], profile.TagScores[m.matchedTags[j]]
			if a != b {
				return a > b
			}
			return m.matchedTags[i] < m.matchedTags[j]
		})
	}
	if profile.PriceBand.Contains(p.Price) {
		m.price = 1
	}

	m.score = contentCategoryWeight*m.category +
		contentBrandWeight*m.brand +
		contentTagWeight*m.tags +
		contentPriceBonus*m.price
	return m
}

func (m profileMatch) reason() string {
	var dims []string
	if m.categoryName != "" {
		dims = append(dims, m.categoryName)
	}
	if m.brandName != "" {
		dims = append(dims, m.brandName)
	}
	tags := m.matchedTags
	if len(tags) > 2 {
		tags = tags[:2]
	}
	dims = append(dims, tags...)
	if len(dims) == 0 {
		return "Because it fits your usual price range"
	}
	return "Because you like " + joinPhrases(dims)
}

func (m profileMatch) explanation() string {
	return fmt.Sprintf("category %.2f, brand %.2f, tags %.2f, price band %.0f",
		m.category, m.brand, m.tags, m.price)
}
