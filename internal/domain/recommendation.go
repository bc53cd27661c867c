package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInteractionData = errors.New("invalid interaction data")

type Algorithm string

const (
	AlgorithmCollaborative Algorithm = "collaborative"
	AlgorithmContent       Algorithm = "content"
	AlgorithmTrending      Algorithm = "trending"
	AlgorithmSimilarity    Algorithm = "similarity"
	AlgorithmHybrid        Algorithm = "hybrid"
)

func ValidAlgorithm(a string) bool {
	switch Algorithm(a) {
	case AlgorithmCollaborative, AlgorithmContent, AlgorithmTrending, AlgorithmSimilarity, AlgorithmHybrid:
		return true
	}
	return false
}

type Recommendation struct {
	ProductID   uuid.UUID `json:"product_id"`
	Score       float64   `json:"score"`
	Reason      string    `json:"reason"`
	Algorithm   Algorithm `json:"algorithm_used"`
	Explanation string    `json:"explanation,omitempty"`
}

type TimePeriod string

const (
	PeriodHour  TimePeriod = "1h"
	PeriodDay   TimePeriod = "24h"
	PeriodWeek  TimePeriod = "7d"
	PeriodMonth TimePeriod = "30d"
)

func ValidTimePeriod(p string) bool {
	switch TimePeriod(p) {
	case PeriodHour, PeriodDay, PeriodWeek, PeriodMonth:
		return true
	}
	return false
}

// Window returns the look-back duration of the period. Unknown periods
// fall back to the 24h window; callers validate before scoring.
func (p TimePeriod) Window() time.Duration {
	switch p {
	case PeriodHour:
		return time.Hour
	case PeriodWeek:
		return 7 * 24 * time.Hour
	case PeriodMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Momentum is the recency multiplier applied to a trending total.
func (p TimePeriod) Momentum() float64 {
	switch p {
	case PeriodHour:
		return 2
	case PeriodDay:
		return 1.5
	default:
		return 1
	}
}

// Weights controls how much each scorer contributes to a hybrid blend.
type Weights struct {
	Collaborative float64 `json:"collaborative" validate:"min=0,max=1"`
	Content       float64 `json:"content" validate:"min=0,max=1"`
	Trending      float64 `json:"trending" validate:"min=0,max=1"`
	Similarity    float64 `json:"similarity" validate:"min=0,max=1"`
}

func DefaultWeights() Weights {
	return Weights{
		Collaborative: 0.3,
		Content:       0.3,
		Trending:      0.2,
		Similarity:    0.2,
	}
}

// For returns the configured weight of an algorithm.
func (w Weights) For(a Algorithm) float64 {
	switch a {
	case AlgorithmCollaborative:
		return w.Collaborative
	case AlgorithmContent:
		return w.Content
	case AlgorithmTrending:
		return w.Trending
	case AlgorithmSimilarity:
		return w.Similarity
	}
	return 0
}

type BlendFilters struct {
	Category          string      `json:"category,omitempty"`
	ExcludeProductIDs []uuid.UUID `json:"exclude_product_ids,omitempty"`
	MinScore          float64     `json:"min_score,omitempty" validate:"min=0,max=1"`
}

type BlendConfig struct {
	Weights Weights      `json:"weights"`
	Limit   int          `json:"limit" validate:"min=1,max=100"`
	Filters BlendFilters `json:"filters"`
}

type BlendResult struct {
	Recommendations []Recommendation `json:"recommendations"`
	TotalScore      float64          `json:"total_score"`
	AlgorithmsUsed  []Algorithm      `json:"algorithms_used"`
	GeneratedAt     time.Time        `json:"generated_at"`
}
