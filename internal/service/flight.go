package service

import (
	"context"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"golang.org/x/sync/singleflight"
)

// sharedComputeTimeout bounds a coalesced computation, which no longer
// belongs to any single request.
const sharedComputeTimeout = 10 * time.Second

// coalesce runs compute at most once per key across concurrent callers.
// The computation ignores the cancellation of whichever caller started it.
// Each caller stops waiting when its own ctx is done and then gets an empty
// list.
func coalesce(ctx context.Context, g *singleflight.Group, key string, compute func(ctx context.Context) []domain.Recommendation) []domain.Recommendation {
	ch := g.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedComputeTimeout)
		defer cancel()
		return compute(shared), nil
	})

	select {
	case res := <-ch:
		recs, _ := res.Val.([]domain.Recommendation)
		return cloneRecommendations(recs)
	case <-ctx.Done():
		return []domain.Recommendation{}
	}
}
