package service

import (
	"math"
	"sort"
	"strings"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/google/uuid"
)

// rankRecommendations sorts by descending score and truncates to limit.
// Equal scores are ordered by product ID so output is deterministic.
func rankRecommendations(recs []domain.Recommendation, limit int) []domain.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].ProductID.String() < recs[j].ProductID.String()
	})
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs
}

// clampUnit bounds a score to [0, 1].
func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// subLimit is the candidate count requested from one blend leg.
func subLimit(limit int, fraction float64) int {
	n := int(math.Ceil(float64(limit) * fraction))
	if n < 1 {
		n = 1
	}
	return n
}

func idSet(ids []uuid.UUID) map[uuid.UUID]struct{} {
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func setKeys(set map[uuid.UUID]struct{}) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// joinPhrases renders "a", "a and b" or "a, b and c".
func joinPhrases(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
