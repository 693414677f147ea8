package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/fair"
	"github.com/tonlotto/platform/internal/repository"
)

const defaultListLimit = 50

// DrawHandler serves draw history, results and fairness verification.
type DrawHandler struct {
	pool      *pgxpool.Pool
	draws     repository.DrawRepository
	lotteries repository.LotteryRepository
}

// NewDrawHandler creates a new DrawHandler.
func NewDrawHandler(pool *pgxpool.Pool, draws repository.DrawRepository, lotteries repository.LotteryRepository) *DrawHandler {
	return &DrawHandler{pool: pool, draws: draws, lotteries: lotteries}
}

// PublicDraw strips fields that must stay hidden while a draw is running.
// The server seed is revealed only once the draw has executed; until then
// readers get the commitment hash alone.
func PublicDraw(d *domain.Draw) *domain.Draw {
	switch d.Status {
	case domain.DrawOpen, domain.DrawLocked, domain.DrawDrawing:
		clone := *d
		clone.ServerSeed = nil
		return &clone
	default:
		return d
	}
}

// ListDraws handles GET /lotteries/{slug}/draws.
func (h *DrawHandler) ListDraws(w http.ResponseWriter, r *http.Request) {
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

	limit := queryLimit(r, defaultListLimit)
	draws, err := h.draws.ListRecentByLottery(r.Context(), h.pool, lottery.ID, limit)
	if err != nil {
		RespondError(w, err)
		return
	}

	public := make([]*domain.Draw, len(draws))
	for i := range draws {
		public[i] = PublicDraw(&draws[i])
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"draws": public})
}

// GetDraw handles GET /draws/{id}.
func (h *DrawHandler) GetDraw(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraw(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, PublicDraw(d))
}

// VerifyDraw handles GET /draws/{id}/verify. It re-runs the whole fairness
// chain server-side and returns the inputs so clients can repeat the check
// independently.
func (h *DrawHandler) VerifyDraw(w http.ResponseWriter, r *http.Request) {
	d, err := h.loadDraw(r)
	if err != nil {
		RespondError(w, err)
		return
	}
	if d.ServerSeed == nil || d.ClientSeed == nil || len(d.WinningNumbers) == 0 {
		RespondError(w, domain.ErrWrongState("draw has not revealed its results yet"))
		return
	}

	lottery, err := h.lotteries.FindByID(r.Context(), h.pool, d.LotteryID)
	if err != nil {
		RespondError(w, err)
		return
	}
	if lottery == nil {
		RespondError(w, domain.ErrNotFound("lottery", d.LotteryID.String()))
		return
	}

	verifyErr := fair.VerifyDraw(*d.ServerSeed, d.ServerSeedHash, *d.ClientSeed, d.Nonce, d.WinningNumbers, lottery.NumbersMax)

	resp := map[string]interface{}{
		"draw_id":          d.ID,
		"draw_number":      d.DrawNumber,
		"server_seed":      *d.ServerSeed,
		"server_seed_hash": d.ServerSeedHash,
		"client_seed":      *d.ClientSeed,
		"nonce":            d.Nonce,
		"numbers_count":    lottery.NumbersCount,
		"numbers_max":      lottery.NumbersMax,
		"winning_numbers":  d.WinningNumbers,
		"valid":            verifyErr == nil,
	}
	if verifyErr != nil {
		resp["error"] = verifyErr.Error()
	}
	RespondJSON(w, http.StatusOK, resp)
}

func (h *DrawHandler) loadDraw(r *http.Request) (*domain.Draw, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, domain.ErrValidation("invalid draw id")
	}
	d, err := h.draws.FindByID(r.Context(), h.pool, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound("draw", id.String())
	}
	return d, nil
}

// queryLimit parses the limit query parameter, clamped to [1, 200].
func queryLimit(r *http.Request, def int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	if n > 200 {
		return 200
	}
	return n
}
