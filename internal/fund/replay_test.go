package fund

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tonlotto/platform/internal/domain"
)

func saleEntry(amount int64, snapshot domain.Pools) domain.FundTransaction {
	return domain.FundTransaction{
		Type:     domain.FundTxTicketSale,
		Amount:   amount,
		Snapshot: snapshot,
	}
}

func TestCheckMovement_TicketSale(t *testing.T) {
	prev := domain.Pools{}
	entry := saleEntry(1_000_000_000, domain.Pools{
		Prize:    700_000_000,
		Jackpot:  140_000_000,
		Payout:   560_000_000,
		Platform: 300_000_000,
		Reserve:  150_000_000,
	})
	assert.Empty(t, checkMovement(prev, entry))
}

func TestCheckMovement_TicketSaleAmountMismatch(t *testing.T) {
	prev := domain.Pools{}
	entry := saleEntry(1_000_000_000, domain.Pools{
		Prize:    700_000_000,
		Jackpot:  140_000_000,
		Payout:   560_000_000,
		Platform: 200_000_000, // short 100M
		Reserve:  150_000_000,
	})
	detail := checkMovement(prev, entry)
	assert.Contains(t, detail, "ticket_sale")
}

func TestCheckMovement_TicketSaleChildPoolDrift(t *testing.T) {
	prev := domain.Pools{}
	entry := saleEntry(1_000_000_000, domain.Pools{
		Prize:    700_000_000,
		Jackpot:  200_000_000, // jackpot+payout != prize
		Payout:   560_000_000,
		Platform: 300_000_000,
		Reserve:  150_000_000,
	})
	detail := checkMovement(prev, entry)
	assert.Contains(t, detail, "jackpot+payout")
}

func TestCheckMovement_PrizePayout(t *testing.T) {
	prev := domain.Pools{Prize: 700, Jackpot: 140, Payout: 560, Platform: 300, Reserve: 150}
	from := domain.PoolJackpot
	entry := domain.FundTransaction{
		Type:     domain.FundTxPrizePayout,
		Amount:   140,
		FromPool: &from,
		Snapshot: domain.Pools{Prize: 700, Jackpot: 0, Payout: 560, Platform: 300, Reserve: 150},
	}
	assert.Empty(t, checkMovement(prev, entry))

	// same entry without from_pool is malformed
	entry.FromPool = nil
	assert.NotEmpty(t, checkMovement(prev, entry))
}

func TestCheckMovement_ToReserve(t *testing.T) {
	prev := domain.Pools{Payout: 560, Reserve: 150}
	entry := domain.FundTransaction{
		Type:     domain.FundTxToReserve,
		Amount:   560,
		Snapshot: domain.Pools{Payout: 0, Reserve: 710},
	}
	assert.Empty(t, checkMovement(prev, entry))

	entry.Snapshot.Reserve = 700
	assert.NotEmpty(t, checkMovement(prev, entry))
}

func TestCheckMovement_JackpotRolloverMovesNothing(t *testing.T) {
	prev := domain.Pools{Jackpot: 140}
	entry := domain.FundTransaction{
		Type:     domain.FundTxJackpotRollover,
		Amount:   140,
		Snapshot: prev,
	}
	assert.Empty(t, checkMovement(prev, entry))

	entry.Snapshot.Jackpot = 0
	assert.NotEmpty(t, checkMovement(prev, entry))
}

func TestCheckMovement_ManualAdjustmentUnconstrained(t *testing.T) {
	prev := domain.Pools{Reserve: 100}
	entry := domain.FundTransaction{
		Type:     domain.FundTxManualAdjustment,
		Amount:   12345,
		Snapshot: domain.Pools{Reserve: 99999, Platform: -5},
	}
	assert.Empty(t, checkMovement(prev, entry))
}
