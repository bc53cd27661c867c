package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// defaultRecordTimeout caps how long Record waits on the store. Tracking sits
// on the path of a shopper's action.
const defaultRecordTimeout = 500 * time.Millisecond

// ProfileQueue accepts background profile refresh requests without blocking.
type ProfileQueue interface {
	Enqueue(userID uuid.UUID) bool
}

// BundleInvalidator drops a user's cached bundle.
type BundleInvalidator interface {
	Invalidate(userID uuid.UUID)
}

// RecorderService appends interactions. Tracking must never fail the action
// that triggered it, so persistence errors are logged and swallowed.
type RecorderService struct {
	interactions domain.InteractionStore
	profiles     ProfileQueue
	bundles      BundleInvalidator
	logger       *zap.Logger
	metrics      *Metrics
	timeout      time.Duration
}

func NewRecorderService(is domain.InteractionStore, logger *zap.Logger, metrics *Metrics) *RecorderService {
	return &RecorderService{
		interactions: is,
		logger:       logger,
		metrics:      metrics,
		timeout:      defaultRecordTimeout,
	}
}

func (s *RecorderService) SetProfileQueue(q ProfileQueue) {
	s.profiles = q
}

func (s *RecorderService) SetBundleInvalidator(b BundleInvalidator) {
	s.bundles = b
}

func (s *RecorderService) SetTimeout(d time.Duration) {
	if d > 0 {
		s.timeout = d
	}
}

// Record validates and stores one interaction. It returns an error only for
// malformed input.
func (s *RecorderService) Record(ctx context.Context, userID, productID uuid.UUID, t domain.InteractionType, data *domain.InteractionData) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := requireProduct(productID); err != nil {
		return err
	}
	if !domain.ValidInteractionType(string(t)) {
		return fmt.Errorf("%w: %w %q", ErrInvalidInput, ErrInvalidInteractionType, t)
	}
	if err := data.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	// The write outlives the caller's request.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	interaction := &domain.Interaction{
		UserID:    userID,
		ProductID: productID,
		Type:      t,
		Data:      data,
	}
	if err := s.interactions.Create(writeCtx, interaction); err != nil {
		s.logger.Error("failed to record interaction",
			zap.String("user_id", userID.String()),
			zap.String("product_id", productID.String()),
			zap.String("interaction_type", string(t)),
			zap.Error(err))
		s.metrics.interactionRecorded(t, false)
		return nil
	}
	s.metrics.interactionRecorded(t, true)

	if s.profiles != nil {
		s.profiles.Enqueue(userID)
	}
	if s.bundles != nil && t.IsStrongSignal() {
		s.bundles.Invalidate(userID)
	}
	return nil
}
