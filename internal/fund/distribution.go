package fund

import "github.com/tonlotto/platform/internal/domain"

// DistributeSale splits a ticket sale of amount minor units across the five
// pools using basis-point integer arithmetic. Each share is computed as the
// rounded-down fraction of its parent amount and the complement absorbs the
// remainder, so the split is exact:
//
//	prize + platform = amount
//	jackpot + payout = prize
//	reserve + income = platform
//
// Rounding bias therefore always accrues toward the platform side.
func DistributeSale(amount int64, cfg *domain.PayoutConfig) domain.SaleDistribution {
	prize := amount * int64(cfg.PrizeBP) / domain.BasisPoints
	platform := amount - prize

	jackpot := prize * int64(cfg.JackpotBP) / domain.BasisPoints
	payout := prize - jackpot

	reserve := platform * int64(cfg.ReserveBP) / domain.BasisPoints
	income := platform - reserve

	return domain.SaleDistribution{
		Prize:    prize,
		Platform: platform,
		Jackpot:  jackpot,
		Payout:   payout,
		Reserve:  reserve,
		Income:   income,
	}
}
