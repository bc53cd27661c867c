package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileInteractionTypes are the interactions that shape a preference profile.
var ProfileInteractionTypes = []domain.InteractionType{
	domain.InteractionView,
	domain.InteractionCart,
	domain.InteractionPurchase,
	domain.InteractionWishlist,
}

var profileWeights = map[domain.InteractionType]float64{
	domain.InteractionPurchase: 3,
	domain.InteractionCart:     2,
	domain.InteractionWishlist: 2,
	domain.InteractionView:     1,
}

// Price band assumed when a user has no priced history. Tunable.
var defaultPriceBand = domain.PriceBand{Min: 0, Max: 1000}

// BuildPreferenceProfile folds an interaction history into weighted category,
// brand and tag affinities plus the p25..p75 band of observed prices.
func BuildPreferenceProfile(userID uuid.UUID, history []domain.InteractionWithProduct, now time.Time) *domain.PreferenceProfile {
	p := &domain.PreferenceProfile{
		UserID:         userID,
		CategoryScores: make(map[string]float64),
		BrandScores:    make(map[string]float64),
		TagScores:      make(map[string]float64),
		PriceBand:      defaultPriceBand,
		UpdatedAt:      now,
	}

	prices := make([]float64, 0, len(history))
	for _, h := range history {
		w, ok := profileWeights[h.Type]
		if !ok {
			continue
		}
		p.InteractionCount++
		if h.Product.Category != "" {
			p.CategoryScores[h.Product.Category] += w
		}
		if h.Product.Brand != "" {
			p.BrandScores[h.Product.Brand] += w
		}
		for t := range h.Product.TagSet() {
			p.TagScores[t] += w
		}
		prices = append(prices, h.Product.Price)
	}

	if len(prices) > 0 {
		sort.Float64s(prices)
		p.PriceBand = domain.PriceBand{
			Min: percentile(prices, 0.25),
			Max: percentile(prices, 0.75),
		}
	}
	return p
}

// percentile picks the element at floor(n*q) of an ascending slice.
func percentile(sorted []float64, q float64) float64 {
	i := int(math.Floor(float64(len(sorted)) * q))
	if i >= len(sorted) {
		i = len(sorted) - 1
	}
	return sorted[i]
}

const (
	defaultProfileQueueSize = 256
	profileRefreshTimeout   = 10 * time.Second

	refreshOK      = "ok"
	refreshError   = "error"
	refreshDropped = "dropped"
)

// ProfileRefresher recomputes stored preference profiles in the background.
// Submissions never block: when the queue is full the request is dropped.
type ProfileRefresher struct {
	interactions domain.InteractionStore
	preferences  domain.PreferenceStore
	logger       *zap.Logger
	metrics      *Metrics
	now          func() time.Time

	queue  chan uuid.UUID
	stopCh chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func NewProfileRefresher(is domain.InteractionStore, ps domain.PreferenceStore, queueSize int, logger *zap.Logger, metrics *Metrics) *ProfileRefresher {
	if queueSize <= 0 {
		queueSize = defaultProfileQueueSize
	}
	return &ProfileRefresher{
		interactions: is,
		preferences:  ps,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
		queue:        make(chan uuid.UUID, queueSize),
		stopCh:       make(chan struct{}),
	}
}

func (r *ProfileRefresher) SetClock(now func() time.Time) {
	r.now = now
}

// Enqueue submits a refresh for userID and reports whether it was accepted.
func (r *ProfileRefresher) Enqueue(userID uuid.UUID) bool {
	select {
	case r.queue <- userID:
		return true
	default:
		r.logger.Debug("profile refresh queue full, dropping",
			zap.String("user_id", userID.String()))
		r.metrics.profileRefresh(refreshDropped)
		return false
	}
}

// Start runs the refresh worker in a background goroutine.
func (r *ProfileRefresher) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.logger.Info("profile refresher started", zap.Int("queue_size", cap(r.queue)))

		for {
			select {
			case userID := <-r.queue:
				r.refreshSafely(userID)
			case <-r.stopCh:
				r.logger.Info("profile refresher stopped", zap.Int("pending", len(r.queue)))
				return
			}
		}
	}()
}

// Stop halts the worker and waits for the in-flight refresh to finish.
// Pending submissions are discarded.
func (r *ProfileRefresher) Stop() {
	r.once.Do(func() { close(r.stopCh) })
	r.wg.Wait()
}

func (r *ProfileRefresher) refreshSafely(userID uuid.UUID) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("profile refresh panicked",
				zap.String("user_id", userID.String()),
				zap.Any("panic", rec))
			r.metrics.profileRefresh(refreshError)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), profileRefreshTimeout)
	defer cancel()

	if err := r.Refresh(ctx, userID); err != nil {
		r.logger.Warn("failed to refresh preference profile",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
}

// Refresh rebuilds and stores the profile of one user.
func (r *ProfileRefresher) Refresh(ctx context.Context, userID uuid.UUID) error {
	history, err := r.interactions.List(ctx, domain.InteractionFilter{
		UserID: &userID,
		Types:  ProfileInteractionTypes,
		Limit:  contentHistoryLimit,
	})
	if err != nil {
		r.metrics.profileRefresh(refreshError)
		return fmt.Errorf("list history: %w", err)
	}

	profile := BuildPreferenceProfile(userID, history, r.now())
	if err := r.preferences.Upsert(ctx, profile); err != nil {
		r.metrics.profileRefresh(refreshError)
		return fmt.Errorf("upsert profile: %w", err)
	}
	r.metrics.profileRefresh(refreshOK)
	return nil
}
