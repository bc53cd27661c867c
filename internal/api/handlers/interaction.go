package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/Harshitk-cp/recommender/internal/domain"
	"github.com/Harshitk-cp/recommender/internal/service"
)

type InteractionHandler struct {
	svc *service.RecorderService
}

func NewInteractionHandler(svc *service.RecorderService) *InteractionHandler {
	return &InteractionHandler{svc: svc}
}

type createInteractionRequest struct {
	UserID          string                  `json:"user_id"`
	ProductID       string                  `json:"product_id"`
	InteractionType string                  `json:"interaction_type"`
	InteractionData *domain.InteractionData `json:"interaction_data,omitempty"`
}

// Create records an interaction. Storage failures are not reported to the
// caller, so a valid request is always accepted.
func (h *InteractionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product_id")
		return
	}

	err = h.svc.Record(r.Context(), userID, productID, domain.InteractionType(req.InteractionType), req.InteractionData)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
