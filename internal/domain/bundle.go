package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SectionForYou               = "for_you"
	SectionBecauseYouViewed     = "because_you_viewed"
	SectionTrendingInCategories = "trending_in_categories"
	SectionSimilarToCart        = "similar_to_cart"
)

// PersonalizedBundle groups named recommendation lists for one user. A bundle
// is never updated in place: once stale it is discarded and regenerated.
type PersonalizedBundle struct {
	UserID      uuid.UUID                   `json:"user_id"`
	Sections    map[string][]Recommendation `json:"sections"`
	GeneratedAt time.Time                   `json:"generated_at"`
	ExpiresAt   time.Time                   `json:"expires_at"`
}

func (b *PersonalizedBundle) IsStale(now time.Time) bool {
	return b == nil || now.After(b.ExpiresAt)
}
