package policy

import (
	"fmt"

	"github.com/tonlotto/platform/internal/domain"
)

// PayoutLimits defines per-currency payout caps, in minor units.
type PayoutLimits struct {
	MaxSingleTON  int64 `json:"max_single_ton"`
	MaxSingleUSDT int64 `json:"max_single_usdt"`
	MaxDailyTON   int64 `json:"max_daily_ton"`
	MaxDailyUSDT  int64 `json:"max_daily_usdt"`
}

// DefaultPayoutLimits returns the production defaults: 50/500 TON and
// 250/2500 USDT for single/daily.
func DefaultPayoutLimits() PayoutLimits {
	return PayoutLimits{
		MaxSingleTON:  50 * 1_000_000_000,
		MaxSingleUSDT: 250 * 1_000_000,
		MaxDailyTON:   500 * 1_000_000_000,
		MaxDailyUSDT:  2_500 * 1_000_000,
	}
}

// MaxSingle returns the per-payout cap for the currency.
func (l PayoutLimits) MaxSingle(c domain.Currency) int64 {
	if c == domain.CurrencyUSDT {
		return l.MaxSingleUSDT
	}
	return l.MaxSingleTON
}

// MaxDaily returns the daily completed-volume cap for the currency.
func (l PayoutLimits) MaxDaily(c domain.Currency) int64 {
	if c == domain.CurrencyUSDT {
		return l.MaxDailyUSDT
	}
	return l.MaxDailyTON
}

// LimitEvaluation holds the result of a payout limit check.
type LimitEvaluation struct {
	Allowed       bool   `json:"allowed"`
	BreachedLimit string `json:"breached_limit,omitempty"`
	LimitValue    int64  `json:"limit_value,omitempty"`
	RequestedAmt  int64  `json:"requested_amount,omitempty"`
}

// EvaluateDailyLimit checks whether dispatching amount now would push the
// day's completed volume past the cap. todayCompleted is the running total
// for the current UTC day.
func EvaluateDailyLimit(limits PayoutLimits, currency domain.Currency, amount, todayCompleted int64) LimitEvaluation {
	max := limits.MaxDaily(currency)
	if max > 0 && todayCompleted+amount > max {
		return LimitEvaluation{
			Allowed:       false,
			BreachedLimit: fmt.Sprintf("daily_total_%s", currency),
			LimitValue:    max,
			RequestedAmt:  todayCompleted + amount,
		}
	}
	return LimitEvaluation{Allowed: true}
}
