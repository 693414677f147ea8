package fund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonlotto/platform/internal/domain"
)

func stdPools() domain.Pools {
	return domain.Pools{
		Prize:    1_400_000_000,
		Jackpot:  280_000_000,
		Payout:   1_120_000_000,
		Platform: 600_000_000,
		Reserve:  300_000_000,
	}
}

func TestComputePayouts_NoWinners(t *testing.T) {
	calc, err := ComputePayouts(stdPools(), stdConfig(), domain.WinnerCounts{})
	require.NoError(t, err)

	assert.Equal(t, int64(0), calc.TotalPayout)
	assert.Equal(t, int64(280_000_000), calc.ToJackpot)
	// all three tier allocations roll to reserve
	assert.Equal(t, int64(1_120_000_000), calc.ToReserve)
	assert.Equal(t, int64(0), calc.ResidueToPlatform)
}

func TestComputePayouts_SingleJackpotWinner(t *testing.T) {
	calc, err := ComputePayouts(stdPools(), stdConfig(), domain.WinnerCounts{Match5: 1})
	require.NoError(t, err)

	assert.Equal(t, int64(280_000_000), calc.JackpotPerWinner)
	assert.Equal(t, int64(0), calc.ToJackpot)
	assert.Equal(t, int64(280_000_000), calc.TotalPayout)
	assert.Equal(t, int64(1_120_000_000), calc.ToReserve)
}

func TestComputePayouts_JackpotSplitWithResidue(t *testing.T) {
	pools := stdPools()
	pools.Jackpot = 100
	calc, err := ComputePayouts(pools, stdConfig(), domain.WinnerCounts{Match5: 3})
	require.NoError(t, err)

	assert.Equal(t, int64(33), calc.JackpotPerWinner)
	assert.Equal(t, int64(1), calc.ResidueToPlatform)
	assert.Equal(t, int64(99), calc.TotalPayout)
}

func TestComputePayouts_TierAllocationAndResidue(t *testing.T) {
	// payout pool 1_120_000_000: match4 448M, match3 392M, match2 280M
	counts := domain.WinnerCounts{Match4: 3, Match3: 7, Match2: 0}
	calc, err := ComputePayouts(stdPools(), stdConfig(), counts)
	require.NoError(t, err)

	assert.Equal(t, int64(149_333_333), calc.Match4PerWinner)
	assert.Equal(t, int64(56_000_000), calc.Match3PerWinner)
	assert.Equal(t, int64(0), calc.Match2PerWinner)

	// 448M - 3*149_333_333 = 1
	assert.Equal(t, int64(1), calc.ResidueToPlatform)
	// empty match2 tier rolls to reserve
	assert.Equal(t, int64(280_000_000), calc.ToReserve)
	assert.Equal(t, int64(3*149_333_333+7*56_000_000), calc.TotalPayout)
}

func TestComputePayouts_Match1FixedFromReserve(t *testing.T) {
	cfg := stdConfig()
	cfg.Match1Fixed = 50_000_000

	calc, err := ComputePayouts(stdPools(), cfg, domain.WinnerCounts{Match1: 4})
	require.NoError(t, err)
	assert.Equal(t, int64(50_000_000), calc.Match1PerWinner)
	assert.Equal(t, int64(200_000_000), calc.TotalPayout)
}

func TestComputePayouts_InsufficientReserve(t *testing.T) {
	cfg := stdConfig()
	cfg.Match1Fixed = 50_000_000
	pools := stdPools()
	pools.Reserve = 100_000_000

	_, err := ComputePayouts(pools, cfg, domain.WinnerCounts{Match1: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INSUFFICIENT_RESERVE")
}

func TestComputePayouts_AllTiersAtOnce(t *testing.T) {
	cfg := stdConfig()
	cfg.Match1Fixed = 10_000_000

	counts := domain.WinnerCounts{Match5: 1, Match4: 2, Match3: 4, Match2: 10, Match1: 5}
	calc, err := ComputePayouts(stdPools(), cfg, counts)
	require.NoError(t, err)

	want := calc.JackpotPerWinner*1 +
		calc.Match4PerWinner*2 +
		calc.Match3PerWinner*4 +
		calc.Match2PerWinner*10 +
		calc.Match1PerWinner*5
	assert.Equal(t, want, calc.TotalPayout)
	assert.Equal(t, int64(0), calc.ToJackpot)
	assert.Equal(t, int64(0), calc.ToReserve)
}
