package fund

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/repository"
)

// ReplayResult holds the outcome of a ledger replay run.
type ReplayResult struct {
	LotteryID        uuid.UUID        `json:"lottery_id"`
	Currency         domain.Currency  `json:"currency"`
	TransactionCount int              `json:"transaction_count"`
	FinalPools       domain.Pools     `json:"final_pools"`
	Invariants       []InvariantCheck `json:"invariants"`
	AllPassed        bool             `json:"all_passed"`
}

// InvariantCheck records a single invariant validation.
type InvariantCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Replay walks the fund transaction log oldest-first and validates it
// against the current fund row.
//
// Invariants:
//  1. Snapshot non-negativity: every pool >= 0 in every snapshot
//  2. Movement consistency: the pool delta between consecutive snapshots
//     matches the transaction's type and amount
//  3. Ledger parity: the last snapshot equals the fund row
func (e *Engine) Replay(ctx context.Context, db repository.DBTX, lotteryID uuid.UUID, currency domain.Currency) (*ReplayResult, error) {
	fund, err := e.funds.Find(ctx, db, lotteryID, currency)
	if err != nil {
		return nil, fmt.Errorf("replay fetch fund: %w", err)
	}
	if fund == nil {
		return nil, domain.ErrNotFound("fund", lotteryID.String())
	}

	entries, err := e.funds.ListTransactions(ctx, db, lotteryID, currency, 0)
	if err != nil {
		return nil, fmt.Errorf("replay list transactions: %w", err)
	}

	result := &ReplayResult{
		LotteryID:        lotteryID,
		Currency:         currency,
		TransactionCount: len(entries),
		FinalPools:       fund.Pools,
		AllPassed:        true,
	}

	prev := domain.Pools{}
	nonNegative, consistent := true, true
	var firstBad string
	for i, entry := range entries {
		if !entry.Snapshot.NonNegative() {
			nonNegative = false
			if firstBad == "" {
				firstBad = fmt.Sprintf("entry %d (%s) snapshot negative", i, entry.Type)
			}
		}
		if detail := checkMovement(prev, entry); detail != "" {
			consistent = false
			if firstBad == "" {
				firstBad = fmt.Sprintf("entry %d: %s", i, detail)
			}
		}
		prev = entry.Snapshot
	}

	result.addCheck("snapshot_non_negative", nonNegative, firstBad)
	result.addCheck("movement_consistency", consistent, firstBad)

	result.addCheck("ledger_parity", prev == fund.Pools,
		fmt.Sprintf("fund=%+v lastSnapshot=%+v", fund.Pools, prev))

	return result, nil
}

func (r *ReplayResult) addCheck(name string, passed bool, detail string) {
	r.Invariants = append(r.Invariants, InvariantCheck{Name: name, Passed: passed, Detail: detail})
	if !passed {
		r.AllPassed = false
	}
}

// checkMovement verifies that the delta between the previous snapshot and
// the entry's snapshot matches the entry's declared type and amount.
// Returns an empty string when consistent.
func checkMovement(prev domain.Pools, entry domain.FundTransaction) string {
	d := domain.Pools{
		Prize:    entry.Snapshot.Prize - prev.Prize,
		Jackpot:  entry.Snapshot.Jackpot - prev.Jackpot,
		Payout:   entry.Snapshot.Payout - prev.Payout,
		Platform: entry.Snapshot.Platform - prev.Platform,
		Reserve:  entry.Snapshot.Reserve - prev.Reserve,
	}

	switch entry.Type {
	case domain.FundTxTicketSale:
		if d.Prize+d.Platform != entry.Amount {
			return fmt.Sprintf("ticket_sale prize+platform delta %d != amount %d", d.Prize+d.Platform, entry.Amount)
		}
		if d.Jackpot+d.Payout != d.Prize {
			return fmt.Sprintf("ticket_sale jackpot+payout delta %d != prize delta %d", d.Jackpot+d.Payout, d.Prize)
		}
	case domain.FundTxPrizePayout:
		if entry.FromPool == nil {
			return "prize_payout without from_pool"
		}
		if poolDelta(d, *entry.FromPool) != -entry.Amount {
			return fmt.Sprintf("prize_payout %s delta %d != -%d", *entry.FromPool, poolDelta(d, *entry.FromPool), entry.Amount)
		}
	case domain.FundTxToReserve:
		if d.Payout != -entry.Amount || d.Reserve != entry.Amount {
			return fmt.Sprintf("to_reserve deltas payout=%d reserve=%d amount=%d", d.Payout, d.Reserve, entry.Amount)
		}
	case domain.FundTxFromReserve:
		if d.Reserve != -entry.Amount || d.Payout != entry.Amount {
			return fmt.Sprintf("from_reserve deltas reserve=%d payout=%d amount=%d", d.Reserve, d.Payout, entry.Amount)
		}
	case domain.FundTxJackpotRollover:
		if d != (domain.Pools{}) {
			return fmt.Sprintf("jackpot_rollover moved pools: %+v", d)
		}
	case domain.FundTxManualAdjustment:
		// operator moves are unconstrained
	}
	return ""
}

func poolDelta(d domain.Pools, pool domain.PoolName) int64 {
	switch pool {
	case domain.PoolPrize:
		return d.Prize
	case domain.PoolJackpot:
		return d.Jackpot
	case domain.PoolPayout:
		return d.Payout
	case domain.PoolPlatform:
		return d.Platform
	case domain.PoolReserve:
		return d.Reserve
	}
	return 0
}
