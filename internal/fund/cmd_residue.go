package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
)

// AbsorbResidue moves a division remainder from a prize pool into the
// platform pool. Settlement rounds every per-winner amount toward zero and
// parks the leftover here so pool balances stay exact.
func (e *Engine) AbsorbResidue(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency, drawID *uuid.UUID, from domain.PoolName, amount int64) (*domain.FundTransaction, error) {
	if err := domain.ValidatePositiveAmount(amount); err != nil {
		return nil, err
	}

	fund, err := e.LockFundForUpdate(ctx, tx, lotteryID, currency)
	if err != nil {
		return nil, fmt.Errorf("absorb residue: %w", err)
	}

	update := domain.PoolUpdate{Platform: amount}
	var available int64
	switch from {
	case domain.PoolJackpot:
		available = fund.Pools.Jackpot
		update.Jackpot = -amount
	case domain.PoolPayout:
		available = fund.Pools.Payout
		update.Payout = -amount
	default:
		return nil, domain.ErrValidation(fmt.Sprintf("cannot absorb residue from %s", from))
	}
	if available < amount {
		return nil, domain.ErrInsufficientPool(from, available, amount)
	}

	to := domain.PoolPlatform
	note := "rounding residue"
	entry, _, err := e.PostFundEntry(ctx, tx, domain.PostFundEntryParams{
		LotteryID: lotteryID,
		Currency:  currency,
		DrawID:    drawID,
		Type:      domain.FundTxManualAdjustment,
		Amount:    amount,
		Update:    update,
		FromPool:  &from,
		ToPool:    &to,
		Note:      &note,
	})
	if err != nil {
		return nil, fmt.Errorf("absorb residue post: %w", err)
	}
	return entry, nil
}
