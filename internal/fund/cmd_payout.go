package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
)

// PayoutParams is the input to ProcessPayout.
type PayoutParams struct {
	LotteryID  uuid.UUID
	Currency   domain.Currency
	DrawID     *uuid.UUID
	Amount     int64
	MatchCount int
	Reference  string
}

// sourcePool maps a match tier to the pool its prize is paid from.
func sourcePool(matchCount int) (domain.PoolName, error) {
	switch matchCount {
	case 5:
		return domain.PoolJackpot, nil
	case 4, 3, 2:
		return domain.PoolPayout, nil
	case 1:
		return domain.PoolReserve, nil
	default:
		return "", domain.ErrValidation(fmt.Sprintf("no payout pool for match count %d", matchCount))
	}
}

// ProcessPayout debits a prize from the pool that funds its match tier.
// Fails with InsufficientPool when the source pool cannot cover the amount.
func (e *Engine) ProcessPayout(ctx context.Context, tx pgx.Tx, params PayoutParams) (*domain.FundTransaction, *domain.Fund, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, nil, err
	}

	pool, err := sourcePool(params.MatchCount)
	if err != nil {
		return nil, nil, err
	}

	fund, err := e.LockFundForUpdate(ctx, tx, params.LotteryID, params.Currency)
	if err != nil {
		return nil, nil, fmt.Errorf("process payout: %w", err)
	}

	var available int64
	update := domain.PoolUpdate{PaidOut: params.Amount}
	switch pool {
	case domain.PoolJackpot:
		available = fund.Pools.Jackpot
		update.Jackpot = -params.Amount
	case domain.PoolPayout:
		available = fund.Pools.Payout
		update.Payout = -params.Amount
	case domain.PoolReserve:
		available = fund.Pools.Reserve
		update.Reserve = -params.Amount
	}
	if available < params.Amount {
		return nil, nil, domain.ErrInsufficientPool(pool, available, params.Amount)
	}

	ref := params.Reference
	entry, updated, err := e.PostFundEntry(ctx, tx, domain.PostFundEntryParams{
		LotteryID: params.LotteryID,
		Currency:  params.Currency,
		DrawID:    params.DrawID,
		Type:      domain.FundTxPrizePayout,
		Amount:    params.Amount,
		Update:    update,
		FromPool:  &pool,
		Reference: &ref,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("process payout post: %w", err)
	}
	return entry, updated, nil
}
