package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
)

// TransferToReserve moves funds from the payout pool to the reserve pool.
// Used for zero-winner tier allocations after a draw and for operator moves.
func (e *Engine) TransferToReserve(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency, drawID *uuid.UUID, amount int64, reason string) (*domain.FundTransaction, error) {
	if err := domain.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}

	fund, err := e.LockFundForUpdate(ctx, tx, lotteryID, currency)
	if err != nil {
		return nil, fmt.Errorf("transfer to reserve: %w", err)
	}
	if fund.Pools.Payout < amount {
		return nil, domain.ErrInsufficientPool(domain.PoolPayout, fund.Pools.Payout, amount)
	}

	from, to := domain.PoolPayout, domain.PoolReserve
	entry, _, err := e.PostFundEntry(ctx, tx, domain.PostFundEntryParams{
		LotteryID: lotteryID,
		Currency:  currency,
		DrawID:    drawID,
		Type:      domain.FundTxToReserve,
		Amount:    amount,
		Update: domain.PoolUpdate{
			Payout:    -amount,
			Reserve:   amount,
			ToReserve: amount,
		},
		FromPool: &from,
		ToPool:   &to,
		Note:     &reason,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer to reserve post: %w", err)
	}
	return entry, nil
}

// TransferFromReserve moves funds back from the reserve pool to the payout
// pool, an operator action used to top up a drained payout pool.
func (e *Engine) TransferFromReserve(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency, amount int64, reason string) (*domain.FundTransaction, error) {
	if err := domain.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}

	fund, err := e.LockFundForUpdate(ctx, tx, lotteryID, currency)
	if err != nil {
		return nil, fmt.Errorf("transfer from reserve: %w", err)
	}
	if fund.Pools.Reserve < amount {
		return nil, domain.ErrInsufficientPool(domain.PoolReserve, fund.Pools.Reserve, amount)
	}

	from, to := domain.PoolReserve, domain.PoolPayout
	entry, _, err := e.PostFundEntry(ctx, tx, domain.PostFundEntryParams{
		LotteryID: lotteryID,
		Currency:  currency,
		Type:      domain.FundTxFromReserve,
		Amount:    amount,
		Update: domain.PoolUpdate{
			Reserve: -amount,
			Payout:  amount,
		},
		FromPool: &from,
		ToPool:   &to,
		Note:     &reason,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer from reserve post: %w", err)
	}
	return entry, nil
}
