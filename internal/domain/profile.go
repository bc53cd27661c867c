package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

type PriceBand struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether price falls inside the band, bounds included.
func (b PriceBand) Contains(price float64) bool {
	return price >= b.Min && price <= b.Max
}

// Widen returns the band stretched by the given fraction on both sides.
func (b PriceBand) Widen(fraction float64) PriceBand {
	return PriceBand{Min: b.Min * (1 - fraction), Max: b.Max * (1 + fraction)}
}

// PreferenceProfile is a user's weighted affinity towards catalog attributes,
// derived from their recent interaction history.
type PreferenceProfile struct {
	UserID           uuid.UUID          `json:"user_id"`
	CategoryScores   map[string]float64 `json:"category_scores"`
	BrandScores      map[string]float64 `json:"brand_scores"`
	TagScores        map[string]float64 `json:"tag_scores"`
	PriceBand        PriceBand          `json:"price_band"`
	InteractionCount int                `json:"interaction_count"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func (p *PreferenceProfile) IsEmpty() bool {
	return p == nil || p.InteractionCount == 0
}

func (p *PreferenceProfile) TopCategories(n int) []string {
	return topKeys(p.CategoryScores, n)
}

func (p *PreferenceProfile) TopBrands(n int) []string {
	return topKeys(p.BrandScores, n)
}

func (p *PreferenceProfile) MaxCategory() float64 { return maxValue(p.CategoryScores) }
func (p *PreferenceProfile) MaxBrand() float64    { return maxValue(p.BrandScores) }
func (p *PreferenceProfile) MaxTag() float64      { return maxValue(p.TagScores) }

// topKeys returns up to n keys ordered by descending score, ties broken by key.
func topKeys(scores map[string]float64, n int) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if scores[keys[i]] != scores[keys[j]] {
			return scores[keys[i]] > scores[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if n >= 0 && len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func maxValue(scores map[string]float64) float64 {
	var m float64
	for _, v := range scores {
		if v > m {
			m = v
		}
	}
	return m
}
