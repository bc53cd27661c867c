package domain

import (
	"time"

	"github.com/google/uuid"
)

type InteractionType string

const (
	InteractionView       InteractionType = "view"
	InteractionCart       InteractionType = "cart"
	InteractionPurchase   InteractionType = "purchase"
	InteractionWishlist   InteractionType = "wishlist"
	InteractionImpression InteractionType = "impression"
	InteractionClick      InteractionType = "click"
)

func ValidInteractionType(t string) bool {
	switch InteractionType(t) {
	case InteractionView, InteractionCart, InteractionPurchase, InteractionWishlist,
		InteractionImpression, InteractionClick:
		return true
	}
	return false
}

// IsStrongSignal reports whether the interaction expresses intent
// (purchase, cart or wishlist) rather than passive exposure.
func (t InteractionType) IsStrongSignal() bool {
	switch t {
	case InteractionPurchase, InteractionCart, InteractionWishlist:
		return true
	}
	return false
}

// StrongSignalTypes are the interaction types used for collaborative profiling.
var StrongSignalTypes = []InteractionType{InteractionPurchase, InteractionCart, InteractionWishlist}

// InteractionData carries the known optional fields analytics consumers read
// from an interaction. Unknown keys go into Attributes.
type InteractionData struct {
	RecommendationReason string            `json:"recommendation_reason,omitempty"`
	Category             string            `json:"category,omitempty"`
	Algorithm            Algorithm         `json:"algorithm,omitempty"`
	Score                *float64          `json:"score,omitempty"`
	Source               string            `json:"source,omitempty"`
	Attributes           map[string]string `json:"attributes,omitempty"`
}

// Validate checks the typed fields. A zero InteractionData is valid.
func (d *InteractionData) Validate() error {
	if d == nil {
		return nil
	}
	if d.Algorithm != "" && !ValidAlgorithm(string(d.Algorithm)) {
		return ErrInvalidInteractionData
	}
	if d.Score != nil && (*d.Score < 0 || *d.Score > 1) {
		return ErrInvalidInteractionData
	}
	return nil
}

type Interaction struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	ProductID uuid.UUID        `json:"product_id"`
	Type      InteractionType  `json:"interaction_type"`
	Data      *InteractionData `json:"interaction_data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

// InteractionWithProduct is an interaction joined to the product it references.
type InteractionWithProduct struct {
	Interaction
	Product Product `json:"product"`
}
