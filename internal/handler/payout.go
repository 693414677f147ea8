package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/repository"
)

// PayoutHandler serves payout status endpoints.
type PayoutHandler struct {
	pool    *pgxpool.Pool
	payouts repository.PayoutRepository
}

// NewPayoutHandler creates a new PayoutHandler.
func NewPayoutHandler(pool *pgxpool.Pool, payouts repository.PayoutRepository) *PayoutHandler {
	return &PayoutHandler{pool: pool, payouts: payouts}
}

// ListPayouts handles GET /payouts?user_id=...
func (h *PayoutHandler) ListPayouts(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("user_id is required"))
		return
	}

	limit := queryLimit(r, defaultListLimit)
	payouts, err := h.payouts.ListByUser(r.Context(), h.pool, userID, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"payouts": payouts})
}

// GetPayout handles GET /payouts/{id}.
func (h *PayoutHandler) GetPayout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("invalid payout id"))
		return
	}

	p, err := h.payouts.FindByID(r.Context(), h.pool, id)
	if err != nil {
		RespondError(w, err)
		return
	}
	if p == nil {
		RespondError(w, domain.ErrNotFound("payout", id.String()))
		return
	}
	RespondJSON(w, http.StatusOK, p)
}
