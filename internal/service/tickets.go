// Package service holds the orchestration layer between HTTP handlers and
// the core engines.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/chain"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/fund"
	"github.com/tonlotto/platform/internal/repository"
)

const (
	// MaxTicketsPerPurchase bounds one purchase request.
	MaxTicketsPerPurchase = 100

	// depositWindow is how far back a deposit may date and still pay for
	// tickets.
	depositWindow = time.Hour
)

// depositTolerance is the accepted shortfall on a deposit: 0.01 whole
// tokens in the lottery's minor units.
func depositTolerance(c domain.Currency) int64 {
	return c.MinorUnits() / 100
}

// TicketService handles verified on-chain ticket purchases.
type TicketService struct {
	pool           *pgxpool.Pool
	lotteries      repository.LotteryRepository
	draws          repository.DrawRepository
	tickets        repository.TicketRepository
	outbox         repository.OutboxRepository
	engine         *fund.Engine
	chain          chain.Chain
	depositAddress string
	logger         *slog.Logger
}

// NewTicketService creates a ticket service.
func NewTicketService(
	pool *pgxpool.Pool,
	lotteries repository.LotteryRepository,
	draws repository.DrawRepository,
	tickets repository.TicketRepository,
	outbox repository.OutboxRepository,
	engine *fund.Engine,
	ch chain.Chain,
	depositAddress string,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		pool:           pool,
		lotteries:      lotteries,
		draws:          draws,
		tickets:        tickets,
		outbox:         outbox,
		engine:         engine,
		chain:          ch,
		depositAddress: depositAddress,
		logger:         logger,
	}
}

// BuyTicketsParams is the input to BuyTickets.
type BuyTicketsParams struct {
	UserID        uuid.UUID
	LotterySlug   string
	Numbers       [][]int32
	TxHash        string
	SenderAddress string
}

// PurchaseResult is the outcome of a successful purchase.
type PurchaseResult struct {
	Tickets []domain.Ticket `json:"tickets"`
	Draw    *domain.Draw    `json:"draw"`
	// AmountCharged is the exact amount credited to the fund, after any
	// bulk discount.
	AmountCharged int64 `json:"amount_charged"`
}

// BuyTickets validates an on-chain deposit and attaches tickets to the
// currently open draw. Every database effect of the purchase commits in a
// single transaction; the unique constraint on the deposit hash makes
// concurrent retries of the same deposit resolve to exactly one winner.
func (s *TicketService) BuyTickets(ctx context.Context, params BuyTicketsParams) (*PurchaseResult, error) {
	if len(params.Numbers) < 1 || len(params.Numbers) > MaxTicketsPerPurchase {
		return nil, domain.ErrValidation(fmt.Sprintf("ticket count must be in [1, %d]", MaxTicketsPerPurchase))
	}
	if err := domain.ValidateTxHash(params.TxHash); err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress(params.SenderAddress); err != nil {
		return nil, err
	}

	lottery, err := s.lotteries.FindBySlug(ctx, s.pool, params.LotterySlug)
	if err != nil {
		return nil, err
	}
	if lottery == nil {
		return nil, domain.ErrNotFound("lottery", params.LotterySlug)
	}

	for _, picks := range params.Numbers {
		if err := domain.ValidateNumbers(picks, lottery.NumbersCount, lottery.NumbersMax); err != nil {
			return nil, err
		}
	}

	expected := domain.ExpectedPurchaseAmount(lottery.TicketPriceNano, len(params.Numbers))
	if err := s.verifyDeposit(ctx, params, lottery.Currency, expected); err != nil {
		return nil, err
	}

	var result *PurchaseResult
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		result, err = s.purchaseInTx(ctx, tx, params, lottery, expected)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrTransactionUsed(params.TxHash)
		}
		return nil, fmt.Errorf("buy tickets: %w", err)
	}

	s.logger.Info("tickets purchased",
		"user_id", params.UserID.String(), "lottery", params.LotterySlug,
		"tickets", len(result.Tickets), "amount", result.AmountCharged,
		"tx_hash", params.TxHash)
	return result, nil
}

// verifyDeposit fetches the deposit from the chain and checks recipient,
// sender, amount and age.
func (s *TicketService) verifyDeposit(ctx context.Context, params BuyTicketsParams, currency domain.Currency, expected int64) error {
	info, err := s.chain.FetchTransaction(ctx, params.TxHash, s.depositAddress, &params.SenderAddress)
	if err != nil {
		return err
	}
	if !info.Confirmed {
		return domain.ErrValidation("deposit transaction is not confirmed")
	}
	if info.Amount < expected-depositTolerance(currency) {
		return domain.ErrValidation(fmt.Sprintf("deposit %d below expected %d", info.Amount, expected))
	}
	if info.Timestamp.Before(time.Now().UTC().Add(-depositWindow)) {
		return domain.ErrValidation("deposit transaction is too old")
	}
	return nil
}

func (s *TicketService) purchaseInTx(ctx context.Context, tx pgx.Tx, params BuyTicketsParams, lottery *domain.Lottery, expected int64) (*PurchaseResult, error) {
	used, err := s.tickets.TxHashExists(ctx, tx, params.TxHash)
	if err != nil {
		return nil, err
	}
	if used {
		return nil, domain.ErrTransactionUsed(params.TxHash)
	}

	now := time.Now().UTC()
	d, err := s.draws.FindOpenByLottery(ctx, tx, lottery.ID, now)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrWrongState(fmt.Sprintf("lottery %s has no open draw", lottery.Slug))
	}

	tickets := make([]domain.Ticket, len(params.Numbers))
	for i, picks := range params.Numbers {
		sorted := append([]int32(nil), picks...)
		sort.Slice(sorted, func(a, b int) bool { return sorted[a] < sorted[b] })

		tickets[i] = domain.Ticket{
			ID:            uuid.New(),
			UserID:        params.UserID,
			LotteryID:     lottery.ID,
			DrawID:        d.ID,
			Numbers:       sorted,
			Price:         lottery.TicketPriceNano,
			Status:        domain.TicketActive,
			SenderAddress: params.SenderAddress,
		}
	}
	// the deposit hash lives on the first ticket only so the unique
	// constraint holds for multi-ticket purchases
	hash := params.TxHash
	tickets[0].TxHash = &hash

	if err := s.tickets.InsertBatch(ctx, tx, tickets); err != nil {
		return nil, err
	}

	drawRef := d.ID
	if _, _, err := s.engine.ProcessTicketSale(ctx, tx, fund.TicketSaleParams{
		LotteryID: lottery.ID,
		Currency:  lottery.Currency,
		DrawID:    &drawRef,
		Amount:    expected,
		Reference: params.TxHash,
	}); err != nil {
		return nil, err
	}

	if err := s.draws.IncrementSales(ctx, tx, d.ID, len(tickets), expected); err != nil {
		return nil, err
	}

	event := domain.NewTicketsPurchasedEvent(params.UserID, d.ID, len(tickets), expected, params.TxHash)
	if err := s.outbox.Insert(ctx, tx, event); err != nil {
		return nil, err
	}

	d.TotalTickets += len(tickets)
	d.TotalCollected += expected
	return &PurchaseResult{Tickets: tickets, Draw: d, AmountCharged: expected}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
