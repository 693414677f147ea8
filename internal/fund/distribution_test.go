package fund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tonlotto/platform/internal/domain"
)

func stdConfig() *domain.PayoutConfig {
	return &domain.PayoutConfig{
		PlatformBP: 3000,
		PrizeBP:    7000,
		JackpotBP:  2000,
		PayoutBP:   8000,
		Match4BP:   4000,
		Match3BP:   3500,
		Match2BP:   2500,
		ReserveBP:  5000,
		IncomeBP:   5000,
	}
}

func TestDistributeSale_RoundNumbers(t *testing.T) {
	dist := DistributeSale(1_000_000_000, stdConfig())

	assert.Equal(t, int64(700_000_000), dist.Prize)
	assert.Equal(t, int64(300_000_000), dist.Platform)
	assert.Equal(t, int64(140_000_000), dist.Jackpot)
	assert.Equal(t, int64(560_000_000), dist.Payout)
	assert.Equal(t, int64(150_000_000), dist.Reserve)
	assert.Equal(t, int64(150_000_000), dist.Income)
}

func TestDistributeSale_ExactPartition(t *testing.T) {
	// awkward amounts must still partition without losing a unit
	amounts := []int64{1, 3, 7, 99, 101, 12_345_677, 999_999_999_999}
	cfg := stdConfig()

	for _, amount := range amounts {
		dist := DistributeSale(amount, cfg)
		assert.Equal(t, amount, dist.Prize+dist.Platform, "amount %d", amount)
		assert.Equal(t, dist.Prize, dist.Jackpot+dist.Payout, "amount %d", amount)
		assert.Equal(t, dist.Platform, dist.Reserve+dist.Income, "amount %d", amount)
	}
}

func TestDistributeSale_RoundingFavorsComplement(t *testing.T) {
	// 7 units at 70%: prize rounds down to 4, platform absorbs 3
	dist := DistributeSale(7, stdConfig())
	assert.Equal(t, int64(4), dist.Prize)
	assert.Equal(t, int64(3), dist.Platform)
}

func TestDistributeSale_DegenerateSplits(t *testing.T) {
	allPrize := &domain.PayoutConfig{
		PrizeBP: 10_000, PlatformBP: 0,
		JackpotBP: 0, PayoutBP: 10_000,
		Match4BP: 4000, Match3BP: 3500, Match2BP: 2500,
		ReserveBP: 5000, IncomeBP: 5000,
	}
	dist := DistributeSale(1_000, allPrize)
	assert.Equal(t, int64(1_000), dist.Prize)
	assert.Equal(t, int64(0), dist.Platform)
	assert.Equal(t, int64(0), dist.Jackpot)
	assert.Equal(t, int64(1_000), dist.Payout)
	assert.Equal(t, int64(0), dist.Reserve)
	assert.Equal(t, int64(0), dist.Income)
}
