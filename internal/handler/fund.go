package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/fund"
	"github.com/tonlotto/platform/internal/repository"
)

// FundHandler serves operator views of the fund ledger.
type FundHandler struct {
	pool      *pgxpool.Pool
	lotteries repository.LotteryRepository
	funds     repository.FundRepository
	engine    *fund.Engine
}

// NewFundHandler creates a new FundHandler.
func NewFundHandler(pool *pgxpool.Pool, lotteries repository.LotteryRepository, funds repository.FundRepository, engine *fund.Engine) *FundHandler {
	return &FundHandler{pool: pool, lotteries: lotteries, funds: funds, engine: engine}
}

// GetFund handles GET /admin/funds/{slug}/{currency}.
func (h *FundHandler) GetFund(w http.ResponseWriter, r *http.Request) {
	lottery, currency, err := h.resolve(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	f, err := h.funds.Find(r.Context(), h.pool, lottery.ID, currency)
	if err != nil {
		RespondError(w, err)
		return
	}
	if f == nil {
		RespondError(w, domain.ErrNotFound("fund", lottery.Slug))
		return
	}
	RespondJSON(w, http.StatusOK, f)
}

// ReplayFund handles GET /admin/funds/{slug}/{currency}/replay. It walks the
// full transaction log and reports every invariant check, so operators can
// audit that the pools reconstruct from history.
func (h *FundHandler) ReplayFund(w http.ResponseWriter, r *http.Request) {
	lottery, currency, err := h.resolve(r)
	if err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.engine.Replay(r.Context(), h.pool, lottery.ID, currency)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, result)
}

func (h *FundHandler) resolve(r *http.Request) (*domain.Lottery, domain.Currency, error) {
	slug := chi.URLParam(r, "slug")
	currency := domain.Currency(strings.ToUpper(chi.URLParam(r, "currency")))
	if err := domain.ValidateCurrency(currency); err != nil {
		return nil, "", err
	}

	lottery, err := h.lotteries.FindBySlug(r.Context(), h.pool, slug)
	if err != nil {
		return nil, "", err
	}
	if lottery == nil {
		return nil, "", domain.ErrNotFound("lottery", slug)
	}
	return lottery, currency, nil
}
