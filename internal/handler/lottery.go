package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/repository"
)

// LotteryHandler serves the lottery catalogue.
type LotteryHandler struct {
	pool      *pgxpool.Pool
	lotteries repository.LotteryRepository
	draws     repository.DrawRepository
}

// NewLotteryHandler creates a new LotteryHandler.
func NewLotteryHandler(pool *pgxpool.Pool, lotteries repository.LotteryRepository, draws repository.DrawRepository) *LotteryHandler {
	return &LotteryHandler{pool: pool, lotteries: lotteries, draws: draws}
}

// ListLotteries handles GET /lotteries.
func (h *LotteryHandler) ListLotteries(w http.ResponseWriter, r *http.Request) {
	lotteries, err := h.lotteries.ListActive(r.Context(), h.pool)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"lotteries": lotteries})
}

// GetLottery handles GET /lotteries/{slug}. The response includes the
// currently open draw, when one exists.
func (h *LotteryHandler) GetLottery(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	lottery, err := h.lotteries.FindBySlug(r.Context(), h.pool, slug)
	if err != nil {
		RespondError(w, err)
		return
	}
	if lottery == nil {
		RespondError(w, domain.ErrNotFound("lottery", slug))
		return
	}

	open, err := h.draws.FindOpenByLottery(r.Context(), h.pool, lottery.ID, time.Now().UTC())
	if err != nil {
		RespondError(w, err)
		return
	}

	resp := map[string]interface{}{"lottery": lottery}
	if open != nil {
		resp["current_draw"] = PublicDraw(open)
	}
	RespondJSON(w, http.StatusOK, resp)
}
