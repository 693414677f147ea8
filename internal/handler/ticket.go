package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/repository"
	"github.com/tonlotto/platform/internal/service"
)

// TicketHandler serves ticket purchase and history endpoints.
type TicketHandler struct {
	pool    *pgxpool.Pool
	svc     *service.TicketService
	tickets repository.TicketRepository
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(pool *pgxpool.Pool, svc *service.TicketService, tickets repository.TicketRepository) *TicketHandler {
	return &TicketHandler{pool: pool, svc: svc, tickets: tickets}
}

type buyTicketsRequest struct {
	UserID        uuid.UUID `json:"user_id" validate:"required"`
	Lottery       string    `json:"lottery" validate:"required"`
	Numbers       [][]int32 `json:"numbers" validate:"required,min=1,max=100"`
	TxHash        string    `json:"tx_hash" validate:"required"`
	SenderAddress string    `json:"sender_address" validate:"required"`
}

// BuyTickets handles POST /tickets.
func (h *TicketHandler) BuyTickets(w http.ResponseWriter, r *http.Request) {
	var req buyTicketsRequest
	if err := DecodeValid(r, &req); err != nil {
		RespondError(w, err)
		return
	}

	result, err := h.svc.BuyTickets(r.Context(), service.BuyTicketsParams{
		UserID:        req.UserID,
		LotterySlug:   req.Lottery,
		Numbers:       req.Numbers,
		TxHash:        req.TxHash,
		SenderAddress: req.SenderAddress,
	})
	if err != nil {
		RespondError(w, err)
		return
	}

	result.Draw = PublicDraw(result.Draw)
	RespondJSON(w, http.StatusCreated, result)
}

// MyTickets handles GET /tickets?user_id=...
func (h *TicketHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		RespondError(w, domain.ErrValidation("user_id is required"))
		return
	}

	limit := queryLimit(r, defaultListLimit)
	tickets, err := h.tickets.ListByUser(r.Context(), h.pool, userID, limit)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"tickets": tickets})
}
