package store

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// BreakerConfig controls the circuit breakers placed in front of the
// relational store. An open breaker fails reads immediately; it never retries.
type BreakerConfig struct {
	FailureThreshold uint32
	OpenTimeout      time.Duration
	Logger           *zap.Logger
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	if c.FailureThreshold == 0 {
		c.FailureThreshold = 5
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

func newBreaker[T any](name string, cfg BreakerConfig) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// A missing row is an answer, not an outage. A caller that gave up
		// says nothing about the database either.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	})
}

type BreakerInteractionStore struct {
	next   domain.InteractionStore
	reads  *gobreaker.CircuitBreaker[[]domain.InteractionWithProduct]
	writes *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerInteractionStore(next domain.InteractionStore, cfg BreakerConfig) *BreakerInteractionStore {
	cfg = cfg.withDefaults()
	return &BreakerInteractionStore{
		next:   next,
		reads:  newBreaker[[]domain.InteractionWithProduct]("interactions.read", cfg),
		writes: newBreaker[struct{}]("interactions.write", cfg),
	}
}

func (s *BreakerInteractionStore) Create(ctx context.Context, i *domain.Interaction) error {
	_, err := s.writes.Execute(func() (struct{}, error) {
		return struct{}{}, s.next.Create(ctx, i)
	})
	return err
}

func (s *BreakerInteractionStore) List(ctx context.Context, f domain.InteractionFilter) ([]domain.InteractionWithProduct, error) {
	return s.reads.Execute(func() ([]domain.InteractionWithProduct, error) {
		return s.next.List(ctx, f)
	})
}

type BreakerProductStore struct {
	next  domain.ProductStore
	get   *gobreaker.CircuitBreaker[*domain.Product]
	reads *gobreaker.CircuitBreaker[[]domain.Product]
}

func NewBreakerProductStore(next domain.ProductStore, cfg BreakerConfig) *BreakerProductStore {
	cfg = cfg.withDefaults()
	return &BreakerProductStore{
		next:  next,
		get:   newBreaker[*domain.Product]("products.get", cfg),
		reads: newBreaker[[]domain.Product]("products.read", cfg),
	}
}

func (s *BreakerProductStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.get.Execute(func() (*domain.Product, error) {
		return s.next.GetByID(ctx, id)
	})
}

func (s *BreakerProductStore) List(ctx context.Context, f domain.ProductFilter, limit int) ([]domain.Product, error) {
	return s.reads.Execute(func() ([]domain.Product, error) {
		return s.next.List(ctx, f, limit)
	})
}

var (
	_ domain.InteractionStore = (*InteractionStore)(nil)
	_ domain.InteractionStore = (*BreakerInteractionStore)(nil)
	_ domain.ProductStore     = (*ProductStore)(nil)
	_ domain.ProductStore     = (*BreakerProductStore)(nil)
	_ domain.PreferenceStore  = (*PreferenceStore)(nil)
)
