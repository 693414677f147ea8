package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
)

// RolloverJackpot records an unclaimed jackpot rolling over to the next draw.
// The money stays in the jackpot pool; only the totalToJackpot counter moves,
// which makes the rollover visible in reporting and in the ledger log.
func (e *Engine) RolloverJackpot(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency, drawID *uuid.UUID, amount int64) (*domain.FundTransaction, error) {
	if err := domain.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}

	if _, err := e.LockFundForUpdate(ctx, tx, lotteryID, currency); err != nil {
		return nil, fmt.Errorf("rollover jackpot: %w", err)
	}

	pool := domain.PoolJackpot
	entry, _, err := e.PostFundEntry(ctx, tx, domain.PostFundEntryParams{
		LotteryID: lotteryID,
		Currency:  currency,
		DrawID:    drawID,
		Type:      domain.FundTxJackpotRollover,
		Amount:    amount,
		Update:    domain.PoolUpdate{ToJackpot: amount},
		ToPool:    &pool,
	})
	if err != nil {
		return nil, fmt.Errorf("rollover jackpot post: %w", err)
	}
	return entry, nil
}
