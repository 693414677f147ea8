package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tonlotto/platform/internal/domain"
)

func TestMaxSingleAndDaily_PerCurrency(t *testing.T) {
	limits := DefaultPayoutLimits()

	assert.Equal(t, int64(50_000_000_000), limits.MaxSingle(domain.CurrencyTON))
	assert.Equal(t, int64(250_000_000), limits.MaxSingle(domain.CurrencyUSDT))
	assert.Equal(t, int64(500_000_000_000), limits.MaxDaily(domain.CurrencyTON))
	assert.Equal(t, int64(2_500_000_000), limits.MaxDaily(domain.CurrencyUSDT))
}

func TestEvaluateDailyLimit_Allows(t *testing.T) {
	limits := DefaultPayoutLimits()

	eval := EvaluateDailyLimit(limits, domain.CurrencyTON, 10_000_000_000, 0)
	assert.True(t, eval.Allowed)

	// exactly at the cap still passes
	eval = EvaluateDailyLimit(limits, domain.CurrencyTON, 100_000_000_000, 400_000_000_000)
	assert.True(t, eval.Allowed)
}

func TestEvaluateDailyLimit_Breach(t *testing.T) {
	limits := DefaultPayoutLimits()

	eval := EvaluateDailyLimit(limits, domain.CurrencyTON, 100_000_000_001, 400_000_000_000)
	assert.False(t, eval.Allowed)
	assert.Equal(t, "daily_total_TON", eval.BreachedLimit)
	assert.Equal(t, int64(500_000_000_000), eval.LimitValue)
	assert.Equal(t, int64(500_000_000_001), eval.RequestedAmt)
}

func TestEvaluateDailyLimit_ZeroCapDisablesCheck(t *testing.T) {
	eval := EvaluateDailyLimit(PayoutLimits{}, domain.CurrencyUSDT, 1_000_000_000_000, 0)
	assert.True(t, eval.Allowed)
}
