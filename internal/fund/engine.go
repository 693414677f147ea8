package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/repository"
)

// Engine provides the foundational fund ledger operations:
//  1. LockFundForUpdate — row-level pessimistic lock on the (lottery, currency) row
//  2. PostFundEntry — atomic pool update + append-only insert + outbox event
//
// All five public ledger commands delegate to these two primitives.
type Engine struct {
	lotteries repository.LotteryRepository
	funds     repository.FundRepository
	outbox    repository.OutboxRepository
}

// NewEngine creates a fund engine with the given repositories.
func NewEngine(
	lotteries repository.LotteryRepository,
	funds repository.FundRepository,
	outbox repository.OutboxRepository,
) *Engine {
	return &Engine{
		lotteries: lotteries,
		funds:     funds,
		outbox:    outbox,
	}
}

// LockFundForUpdate acquires a row-level lock and returns the fund, creating
// a zeroed row first when the (lottery, currency) pair has none yet.
// Must be called within a transaction.
func (e *Engine) LockFundForUpdate(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency) (*domain.Fund, error) {
	fund, err := e.funds.LockForUpdate(ctx, tx, lotteryID, currency)
	if err != nil {
		return nil, fmt.Errorf("lock fund: %w", err)
	}
	if fund == nil {
		if err := e.funds.Create(ctx, tx, &domain.Fund{LotteryID: lotteryID, Currency: currency}); err != nil {
			return nil, fmt.Errorf("create fund: %w", err)
		}
		fund, err = e.funds.LockForUpdate(ctx, tx, lotteryID, currency)
		if err != nil {
			return nil, fmt.Errorf("lock created fund: %w", err)
		}
	}
	return fund, nil
}

// PostFundEntry atomically applies a pool update and appends the ledger entry.
// This is the core write primitive.
//
// Steps:
//  1. Update pool balances using server-side arithmetic (dynamic SET clauses)
//  2. Insert the fund transaction with the post-update pool snapshot
//  3. Insert the outbox event
//
// All 3 steps run within the caller's transaction. The caller has already
// validated availability under the row lock; a negative balance after the
// update means the check was skipped and the transaction must abort.
func (e *Engine) PostFundEntry(ctx context.Context, tx pgx.Tx, params domain.PostFundEntryParams) (*domain.FundTransaction, *domain.Fund, error) {
	updated, err := e.funds.UpdatePools(ctx, tx, params.LotteryID, params.Currency, params.Update)
	if err != nil {
		return nil, nil, fmt.Errorf("update pools: %w", err)
	}
	if updated == nil {
		return nil, nil, domain.ErrNotFound("fund", params.LotteryID.String())
	}
	if !updated.Pools.NonNegative() {
		return nil, nil, domain.ErrIntegrity(fmt.Sprintf(
			"fund %s/%s pools negative after %s", params.LotteryID, params.Currency, params.Type))
	}

	entry, err := e.funds.InsertTransaction(ctx, tx, params, updated.Pools)
	if err != nil {
		return nil, nil, fmt.Errorf("insert fund transaction: %w", err)
	}

	event := domain.NewFundTransactionPostedEvent(entry)
	if err := e.outbox.Insert(ctx, tx, event); err != nil {
		return nil, nil, fmt.Errorf("insert outbox event: %w", err)
	}

	return entry, updated, nil
}

// payoutConfig loads and validates the lottery's share configuration.
func (e *Engine) payoutConfig(ctx context.Context, db repository.DBTX, lotteryID uuid.UUID) (*domain.PayoutConfig, error) {
	cfg, err := e.lotteries.GetPayoutConfig(ctx, db, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("get payout config: %w", err)
	}
	if cfg == nil {
		return nil, domain.ErrNotFound("payout config", lotteryID.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
