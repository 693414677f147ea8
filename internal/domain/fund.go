package domain

import (
	"time"

	"github.com/google/uuid"
)

// PoolName identifies one of the five fund pools.
type PoolName string

const (
	PoolPrize    PoolName = "prize_pool"
	PoolJackpot  PoolName = "jackpot_pool"
	PoolPayout   PoolName = "payout_pool"
	PoolPlatform PoolName = "platform_pool"
	PoolReserve  PoolName = "reserve_pool"
)

// Pools holds the five pool balances of a fund, in minor units.
type Pools struct {
	Prize    int64 `json:"prize_pool"`
	Jackpot  int64 `json:"jackpot_pool"`
	Payout   int64 `json:"payout_pool"`
	Platform int64 `json:"platform_pool"`
	Reserve  int64 `json:"reserve_pool"`
}

// NonNegative reports whether every pool balance is >= 0.
func (p Pools) NonNegative() bool {
	return p.Prize >= 0 && p.Jackpot >= 0 && p.Payout >= 0 && p.Platform >= 0 && p.Reserve >= 0
}

// Fund is the ledger row for one (lottery, currency) pair.
// Mutated only through the fund engine, always inside a database transaction.
type Fund struct {
	LotteryID      uuid.UUID `json:"lottery_id"`
	Currency       Currency  `json:"currency"`
	Pools          Pools     `json:"pools"`
	TotalCollected int64     `json:"total_collected"`
	TotalPaidOut   int64     `json:"total_paid_out"`
	TotalToReserve int64     `json:"total_to_reserve"`
	TotalToJackpot int64     `json:"total_to_jackpot"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PoolUpdate describes which pool columns to change and by how much.
// The fund repository turns it into server-side arithmetic SET clauses.
type PoolUpdate struct {
	Prize    int64
	Jackpot  int64
	Payout   int64
	Platform int64
	Reserve  int64

	// Counter deltas, applied alongside the pool deltas.
	Collected int64
	PaidOut   int64
	ToReserve int64
	ToJackpot int64
}

// IsZero reports whether the update changes nothing.
func (u PoolUpdate) IsZero() bool {
	return u == PoolUpdate{}
}

// FundTransactionType enumerates all ledger movement types.
type FundTransactionType string

const (
	FundTxTicketSale       FundTransactionType = "ticket_sale"
	FundTxPrizePayout      FundTransactionType = "prize_payout"
	FundTxJackpotRollover  FundTransactionType = "jackpot_rollover"
	FundTxToReserve        FundTransactionType = "to_reserve"
	FundTxFromReserve      FundTransactionType = "from_reserve"
	FundTxManualAdjustment FundTransactionType = "manual_adjustment"
)

// FundTransaction is an append-only audit log entry. Every mutating fund
// operation writes exactly one, carrying a snapshot of all five pools
// immediately after the move.
type FundTransaction struct {
	ID        uuid.UUID           `json:"id"`
	LotteryID uuid.UUID           `json:"lottery_id"`
	Currency  Currency            `json:"currency"`
	DrawID    *uuid.UUID          `json:"draw_id,omitempty"`
	Type      FundTransactionType `json:"type"`
	Amount    int64               `json:"amount"`
	FromPool  *PoolName           `json:"from_pool,omitempty"`
	ToPool    *PoolName           `json:"to_pool,omitempty"`
	Snapshot  Pools               `json:"snapshot"`
	Reference *string             `json:"reference,omitempty"`
	Note      *string             `json:"note,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// SaleDistribution is the exact integer split of one ticket sale.
type SaleDistribution struct {
	Prize    int64 `json:"prize"`
	Platform int64 `json:"platform"`
	Jackpot  int64 `json:"jackpot"`
	Payout   int64 `json:"payout"`
	Reserve  int64 `json:"reserve"`
	Income   int64 `json:"income"`
}

// WinnerCounts holds the number of winning tickets per match tier.
type WinnerCounts struct {
	Match5 int `json:"match5"`
	Match4 int `json:"match4"`
	Match3 int `json:"match3"`
	Match2 int `json:"match2"`
	Match1 int `json:"match1"`
}

// PayoutCalculation is the pure result of calculating draw payouts against
// the current fund state. Amounts are per winner.
type PayoutCalculation struct {
	JackpotPerWinner int64 `json:"jackpot_per_winner"`
	Match4PerWinner  int64 `json:"match4_per_winner"`
	Match3PerWinner  int64 `json:"match3_per_winner"`
	Match2PerWinner  int64 `json:"match2_per_winner"`
	Match1PerWinner  int64 `json:"match1_per_winner"`

	// ToReserve is the payout-pool allocation of tiers that had no winners.
	ToReserve int64 `json:"to_reserve"`
	// ToJackpot is the unclaimed jackpot rolling over to the next draw.
	ToJackpot int64 `json:"to_jackpot"`
	// ResidueToPlatform is the division remainder absorbed by the platform pool.
	ResidueToPlatform int64 `json:"residue_to_platform"`
	// TotalPayout is the sum owed across all winners.
	TotalPayout int64 `json:"total_payout"`
}

// PostFundEntryParams is the input to the atomic fund write primitive.
type PostFundEntryParams struct {
	LotteryID uuid.UUID
	Currency  Currency
	DrawID    *uuid.UUID
	Type      FundTransactionType
	Amount    int64
	Update    PoolUpdate
	FromPool  *PoolName
	ToPool    *PoolName
	Reference *string
	Note      *string
}
