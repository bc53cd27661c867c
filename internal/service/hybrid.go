package service

import (
	"context"
	"strings"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fractions of the requested limit asked from each blend leg.
const (
	blendCollaborativeShare = 0.4
	blendContentShare       = 0.4
	blendTrendingShare      = 0.3
)

// blendOrder fixes the leg order, which is also the order of contributors
// in explanations.
var blendOrder = []domain.Algorithm{
	domain.AlgorithmCollaborative,
	domain.AlgorithmContent,
	domain.AlgorithmTrending,
}

// weightedAlgorithms is every algorithm a Weights value configures, in the
// order reported by AlgorithmsUsed. Similarity has no per-user leg.
var weightedAlgorithms = []domain.Algorithm{
	domain.AlgorithmCollaborative,
	domain.AlgorithmContent,
	domain.AlgorithmTrending,
	domain.AlgorithmSimilarity,
}

// UserScorer ranks products for one user.
type UserScorer interface {
	Score(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error)
}

// TrendingSource ranks popular products.
type TrendingSource interface {
	Score(ctx context.Context, q TrendingQuery) ([]domain.Recommendation, error)
}

// HybridBlender runs the collaborative, content and trending scorers
// concurrently and merges their output under configurable weights.
type HybridBlender struct {
	collaborative UserScorer
	content       UserScorer
	trending      TrendingSource
	logger        *zap.Logger
	metrics       *Metrics
	now           func() time.Time
}

func NewHybridBlender(collaborative, content UserScorer, trending TrendingSource, logger *zap.Logger, metrics *Metrics) *HybridBlender {
	return &HybridBlender{
		collaborative: collaborative,
		content:       content,
		trending:      trending,
		logger:        logger,
		metrics:       metrics,
		now:           time.Now,
	}
}

func (b *HybridBlender) SetClock(now func() time.Time) {
	b.now = now
}

type blendLeg struct {
	algorithm domain.Algorithm
	weight    float64
	recs      []domain.Recommendation
}

type blendAccumulator struct {
	productID    uuid.UUID
	score        float64
	reason       string
	contributors []string
}

// Blend produces one ranked list for userID. Scorer failures degrade to an
// empty contribution; the only error is ErrInvalidInput.
func (b *HybridBlender) Blend(ctx context.Context, userID uuid.UUID, cfg domain.BlendConfig) (*domain.BlendResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if cfg.Weights == (domain.Weights{}) {
		cfg.Weights = domain.DefaultWeights()
	}
	if err := validateStruct(cfg); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() { b.metrics.observeBlend(time.Since(start)) }()

	legs := make([]*blendLeg, 0, len(blendOrder))
	for _, a := range blendOrder {
		legs = append(legs, &blendLeg{algorithm: a, weight: cfg.Weights.For(a)})
	}

	var g errgroup.Group
	for _, leg := range legs {
		if leg.weight <= 0 {
			continue
		}
		leg := leg
		g.Go(func() error {
			leg.recs = b.runLeg(ctx, leg.algorithm, userID, cfg)
			return nil
		})
	}
	_ = g.Wait()

	excluded := idSet(cfg.Filters.ExcludeProductIDs)
	merged := make(map[uuid.UUID]*blendAccumulator)
	order := make([]uuid.UUID, 0)

	for _, leg := range legs {
		if leg.weight <= 0 {
			continue
		}
		for _, r := range leg.recs {
			if _, skip := excluded[r.ProductID]; skip {
				continue
			}
			acc, ok := merged[r.ProductID]
			if !ok {
				acc = &blendAccumulator{productID: r.ProductID, reason: r.Reason}
				merged[r.ProductID] = acc
				order = append(order, r.ProductID)
			}
			acc.score += r.Score * leg.weight
			acc.contributors = append(acc.contributors, string(leg.algorithm))
		}
	}

	recs := make([]domain.Recommendation, 0, len(merged))
	for _, id := range order {
		acc := merged[id]
		score := clampUnit(acc.score)
		if score < cfg.Filters.MinScore {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ProductID:   id,
			Score:       score,
			Reason:      acc.reason,
			Algorithm:   domain.AlgorithmHybrid,
			Explanation: "Blended from " + strings.Join(acc.contributors, ", "),
		})
	}
	recs = rankRecommendations(recs, cfg.Limit)

	var total float64
	for _, r := range recs {
		total += r.Score
	}

	return &domain.BlendResult{
		Recommendations: recs,
		TotalScore:      total,
		AlgorithmsUsed:  algorithmsUsed(cfg.Weights),
		GeneratedAt:     b.now(),
	}, nil
}

func (b *HybridBlender) runLeg(ctx context.Context, a domain.Algorithm, userID uuid.UUID, cfg domain.BlendConfig) []domain.Recommendation {
	var (
		recs []domain.Recommendation
		err  error
	)
	switch a {
	case domain.AlgorithmCollaborative:
		recs, err = b.collaborative.Score(ctx, userID, subLimit(cfg.Limit, blendCollaborativeShare))
	case domain.AlgorithmContent:
		recs, err = b.content.Score(ctx, userID, subLimit(cfg.Limit, blendContentShare))
	case domain.AlgorithmTrending:
		recs, err = b.trending.Score(ctx, TrendingQuery{
			Limit:    subLimit(cfg.Limit, blendTrendingShare),
			Category: cfg.Filters.Category,
			Period:   domain.PeriodDay,
		})
	}
	if err != nil {
		b.logger.Warn("blend leg failed",
			zap.String("algorithm", string(a)),
			zap.String("user_id", userID.String()),
			zap.Error(err))
		return nil
	}
	return recs
}

func algorithmsUsed(w domain.Weights) []domain.Algorithm {
	used := make([]domain.Algorithm, 0, len(weightedAlgorithms))
	for _, a := range weightedAlgorithms {
		if w.For(a) > 0 {
			used = append(used, a)
		}
	}
	return used
}
