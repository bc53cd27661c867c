package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/Harshitk-cp/recommender/internal/service"
)

type RecommendationHandler struct {
	engine *service.Engine
}

func NewRecommendationHandler(engine *service.Engine) *RecommendationHandler {
	return &RecommendationHandler{engine: engine}
}

type recommendationsResponse struct {
	Recommendations []domain.Recommendation `json:"recommendations"`
	Algorithm       domain.Algorithm        `json:"algorithm"`
	Count           int                     `json:"count"`
}

func listResponse(a domain.Algorithm, recs []domain.Recommendation) recommendationsResponse {
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return recommendationsResponse{Recommendations: recs, Algorithm: a, Count: len(recs)}
}

// ForUser serves the hybrid blend. Weight parameters replace the defaults
// only when at least one of them is supplied.
func (h *RecommendationHandler) ForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cfg, err := parseBlendConfig(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Blender.Blend(r.Context(), userID, cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result.Recommendations == nil {
		result.Recommendations = []domain.Recommendation{}
	}

	writeJSON(w, http.StatusOK, result)
}

func parseBlendConfig(r *http.Request) (domain.BlendConfig, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return domain.BlendConfig{}, err
	}

	cfg := domain.BlendConfig{
		Weights: domain.DefaultWeights(),
		Limit:   limit,
		Filters: domain.BlendFilters{Category: r.URL.Query().Get("category")},
	}

	var custom domain.Weights
	supplied := false
	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"w_collaborative", &custom.Collaborative},
		{"w_content", &custom.Content},
		{"w_trending", &custom.Trending},
	} {
		v, ok, err := queryFloat(r, p.name)
		if err != nil {
			return domain.BlendConfig{}, err
		}
		if ok {
			*p.dst = v
			supplied = true
		}
	}
	if supplied {
		cfg.Weights = custom
	}

	minScore, _, err := queryFloat(r, "min_score")
	if err != nil {
		return domain.BlendConfig{}, err
	}
	cfg.Filters.MinScore = minScore

	exclude, err := queryUUIDs(r, "exclude")
	if err != nil {
		return domain.BlendConfig{}, err
	}
	cfg.Filters.ExcludeProductIDs = exclude

	return cfg, nil
}

func (h *RecommendationHandler) Collaborative(w http.ResponseWriter, r *http.Request) {
	h.userList(w, r, domain.AlgorithmCollaborative, h.engine.Collaborative.Score)
}

func (h *RecommendationHandler) Content(w http.ResponseWriter, r *http.Request) {
	h.userList(w, r, domain.AlgorithmContent, h.engine.Content.Score)
}

type userScoreFunc func(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Recommendation, error)

func (h *RecommendationHandler) userList(w http.ResponseWriter, r *http.Request, a domain.Algorithm, score userScoreFunc) {
	userID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := score(r.Context(), userID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse(a, recs))
}

func (h *RecommendationHandler) Bundle(w http.ResponseWriter, r *http.Request) {
	userID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bundle, err := h.engine.Bundles.Get(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bundle)
}

func (h *RecommendationHandler) Trending(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	period := r.URL.Query().Get("period")
	if period != "" && !domain.ValidTimePeriod(period) {
		writeError(w, http.StatusBadRequest, "period must be one of 1h, 24h, 7d, 30d")
		return
	}

	q := service.TrendingQuery{
		Limit:    limit,
		Category: r.URL.Query().Get("category"),
		Period:   domain.TimePeriod(period),
	}
	recs, err := h.engine.Trending.Score(r.Context(), q)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse(domain.AlgorithmTrending, recs))
}

func (h *RecommendationHandler) Similar(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := queryLimit(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recs, err := h.engine.Similarity.Score(r.Context(), productID, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, listResponse(domain.AlgorithmSimilarity, recs))
}

type cacheResponse struct {
	Status string             `json:"status,omitempty"`
	Stats  service.CacheStats `json:"stats"`
}

// InvalidateCache drops every cached result and bundle. The reported stats
// are taken before the purge.
func (h *RecommendationHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.CacheStats()
	h.engine.InvalidateCache()
	writeJSON(w, http.StatusOK, cacheResponse{Status: "cleared", Stats: stats})
}

func (h *RecommendationHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, cacheResponse{Stats: h.engine.CacheStats()})
}
