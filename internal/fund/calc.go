package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/repository"
)

// ComputePayouts derives per-winner amounts from the current pool state and
// winner counts. Pure function, no I/O.
//
// Rules:
//   - 5/5 winners share the whole jackpot pool equally; with no winner the
//     pool stays put and its balance is reported as the rollover amount.
//   - Tiers 4/3/2 are each allocated their basis-point share of the payout
//     pool; a tier with winners divides its allocation equally, a tier with
//     none sends it to reserve.
//   - 1/5 pays the fixed amount per winner out of the reserve pool.
//
// All divisions round toward zero; per-tier residues are reported in
// ResidueToPlatform and absorbed by the platform pool at settlement.
func ComputePayouts(pools domain.Pools, cfg *domain.PayoutConfig, counts domain.WinnerCounts) (*domain.PayoutCalculation, error) {
	calc := &domain.PayoutCalculation{}

	if counts.Match5 > 0 {
		calc.JackpotPerWinner = pools.Jackpot / int64(counts.Match5)
		calc.ResidueToPlatform += pools.Jackpot - calc.JackpotPerWinner*int64(counts.Match5)
	} else {
		calc.ToJackpot = pools.Jackpot
	}

	tier := func(bp int32, winners int) int64 {
		alloc := pools.Payout * int64(bp) / domain.BasisPoints
		if winners == 0 {
			calc.ToReserve += alloc
			return 0
		}
		per := alloc / int64(winners)
		calc.ResidueToPlatform += alloc - per*int64(winners)
		return per
	}
	calc.Match4PerWinner = tier(cfg.Match4BP, counts.Match4)
	calc.Match3PerWinner = tier(cfg.Match3BP, counts.Match3)
	calc.Match2PerWinner = tier(cfg.Match2BP, counts.Match2)

	if counts.Match1 > 0 {
		required := cfg.Match1Fixed * int64(counts.Match1)
		if pools.Reserve < required {
			return nil, domain.ErrInsufficientReserve(pools.Reserve, required)
		}
		calc.Match1PerWinner = cfg.Match1Fixed
	}

	calc.TotalPayout = calc.JackpotPerWinner*int64(counts.Match5) +
		calc.Match4PerWinner*int64(counts.Match4) +
		calc.Match3PerWinner*int64(counts.Match3) +
		calc.Match2PerWinner*int64(counts.Match2) +
		calc.Match1PerWinner*int64(counts.Match1)

	return calc, nil
}

// CalculateDrawPayouts runs ComputePayouts against the stored fund state.
// Read-only; the caller decides when and how to apply the result.
func (e *Engine) CalculateDrawPayouts(ctx context.Context, db repository.DBTX, lotteryID uuid.UUID, currency domain.Currency, counts domain.WinnerCounts) (*domain.PayoutCalculation, error) {
	fund, err := e.funds.Find(ctx, db, lotteryID, currency)
	if err != nil {
		return nil, fmt.Errorf("calculate draw payouts: %w", err)
	}
	if fund == nil {
		return nil, domain.ErrNotFound("fund", lotteryID.String())
	}

	cfg, err := e.payoutConfig(ctx, db, lotteryID)
	if err != nil {
		return nil, fmt.Errorf("calculate draw payouts: %w", err)
	}

	return ComputePayouts(fund.Pools, cfg, counts)
}
