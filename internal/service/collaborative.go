package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	collabNeighborLimit = 20
	// collabNormalizer maps raw co-occurrence weight onto [0,1]. Tunable.
	collabNormalizer = 10.0
	collabReason     = "Customers like you also bought this"
)

// Weight of a neighbor's interaction on a product the target user shares.
var collabNeighborWeights = map[domain.InteractionType]float64{
	domain.InteractionPurchase: 3,
	domain.InteractionCart:     2,
	domain.InteractionWishlist: 1,
}

// Weight of a neighbor's interaction on a candidate product.
var collabCandidateWeights = map[domain.InteractionType]float64{
	domain.InteractionPurchase: 2,
	domain.InteractionCart:     1,
}

// CollaborativeScorer ranks products bought or carted by users whose
// strong-signal history overlaps the target user's.
type CollaborativeScorer struct {
	interactions domain.InteractionStore
	logger       *zap.Logger
	metrics      *Metrics
}

func NewCollaborativeScorer(is domain.InteractionStore, logger *zap.Logger, metrics *Metrics) *CollaborativeScorer {
	return &CollaborativeScorer{
		interactions: is,
		logger:       logger,
		metrics:      metrics,
	}
}

// Score returns at most limit recommendations for userID. An empty list is
// returned for cold-start users and when the store is unavailable; the only
// error is ErrInvalidInput.
func (s *CollaborativeScorer) Score(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validateLimit(limit); err != nil {
		return nil, err
	}
	s.metrics.scorerRequest(domain.AlgorithmCollaborative)

	own, err := s.interactions.List(ctx, domain.InteractionFilter{
		UserID: &userID,
		Types:  domain.StrongSignalTypes,
	})
	if err != nil {
		return s.degrade(userID, "failed to fetch user signals", err), nil
	}

	seen := make(map[uuid.UUID]struct{}, len(own))
	for _, i := range own {
		seen[i.ProductID] = struct{}{}
	}
	if len(seen) == 0 {
		s.metrics.scorerDegradedTo(domain.AlgorithmCollaborative, degradedColdStart)
		return []domain.Recommendation{}, nil
	}
	seenIDs := setKeys(seen)

	overlap, err := s.interactions.List(ctx, domain.InteractionFilter{
		ProductIDs:    seenIDs,
		ExcludeUserID: &userID,
		Types:         domain.StrongSignalTypes,
	})
	if err != nil {
		return s.degrade(userID, "failed to fetch co-interactions", err), nil
	}

	neighborScores := make(map[uuid.UUID]float64)
	for _, i := range overlap {
		if i.UserID == userID {
			continue
		}
		neighborScores[i.UserID] += collabNeighborWeights[i.Type]
	}
	neighbors := topNeighbors(neighborScores, collabNeighborLimit)
	if len(neighbors) == 0 {
		s.metrics.scorerDegradedTo(domain.AlgorithmCollaborative, degradedColdStart)
		return []domain.Recommendation{}, nil
	}

	candidates, err := s.interactions.List(ctx, domain.InteractionFilter{
		UserIDs:           neighbors,
		Types:             []domain.InteractionType{domain.InteractionPurchase, domain.InteractionCart},
		ExcludeProductIDs: seenIDs,
		InStockOnly:       true,
	})
	if err != nil {
		return s.degrade(userID, "failed to fetch neighbor purchases", err), nil
	}

	raw := make(map[uuid.UUID]float64)
	for _, c := range candidates {
		if _, ok := seen[c.ProductID]; ok {
			continue
		}
		if !c.Product.InStock() {
			continue
		}
		raw[c.ProductID] += collabCandidateWeights[c.Type]
	}

	recs := make([]domain.Recommendation, 0, len(raw))
	for productID, total := range raw {
		if total <= 0 {
			continue
		}
		recs = append(recs, domain.Recommendation{
			ProductID:   productID,
			Score:       clampUnit(total / collabNormalizer),
			Reason:      collabReason,
			Algorithm:   domain.AlgorithmCollaborative,
			Explanation: fmt.Sprintf("co-purchase weight %.0f from %d similar customers", total, len(neighbors)),
		})
	}
	return rankRecommendations(recs, limit), nil
}

func (s *CollaborativeScorer) degrade(userID uuid.UUID, msg string, err error) []domain.Recommendation {
	s.logger.Warn("collaborative scorer: "+msg,
		zap.String("user_id", userID.String()),
		zap.Error(err))
	s.metrics.scorerDegradedTo(domain.AlgorithmCollaborative, degradedUpstream)
	return []domain.Recommendation{}
}

// topNeighbors returns up to n user IDs with positive score, highest first.
func topNeighbors(scores map[uuid.UUID]float64, n int) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(scores))
	for id, score := range scores {
		if score > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		if scores[ids[i]] != scores[ids[j]] {
			return scores[ids[i]] > scores[ids[j]]
		}
		return ids[i].String() < ids[j].String()
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}
