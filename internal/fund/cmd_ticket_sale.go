package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
)

// TicketSaleParams is the input to ProcessTicketSale.
type TicketSaleParams struct {
	LotteryID uuid.UUID
	Currency  domain.Currency
	DrawID    *uuid.UUID
	Amount    int64 // minor units actually collected
	Reference string
}

// ProcessTicketSale credits a confirmed ticket sale to the fund. The amount
// is split across the pools per the lottery's payout config; pool rows for
// prize and platform carry the gross parent shares while jackpot, payout and
// reserve carry the carved-out sub-shares, mirroring the published split.
func (e *Engine) ProcessTicketSale(ctx context.Context, tx pgx.Tx, params TicketSaleParams) (*domain.FundTransaction, *domain.Fund, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, nil, err
	}

	cfg, err := e.payoutConfig(ctx, tx, params.LotteryID)
	if err != nil {
		return nil, nil, fmt.Errorf("ticket sale: %w", err)
	}

	if _, err := e.LockFundForUpdate(ctx, tx, params.LotteryID, params.Currency); err != nil {
		return nil, nil, fmt.Errorf("ticket sale: %w", err)
	}

	dist := DistributeSale(params.Amount, cfg)
	ref := params.Reference

	entry, updated, err := e.PostFundEntry(ctx, tx, domain.PostFundEntryParams{
		LotteryID: params.LotteryID,
		Currency:  params.Currency,
		DrawID:    params.DrawID,
		Type:      domain.FundTxTicketSale,
		Amount:    params.Amount,
		Update: domain.PoolUpdate{
			Prize:     dist.Prize,
			Jackpot:   dist.Jackpot,
			Payout:    dist.Payout,
			Platform:  dist.Platform,
			Reserve:   dist.Reserve,
			Collected: params.Amount,
		},
		Reference: &ref,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("ticket sale post: %w", err)
	}
	return entry, updated, nil
}
