//go:build integration

package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tonlotto/platform/internal/domain"
)

// SeedLottery inserts a 5-of-36 TON lottery with the standard revenue split:
// 70% prize (20% jackpot / 80% payout), 30% platform (50% reserve / 50%
// income), tiers 40/35/25. Ticket price is 1 TON.
func SeedLottery(t *testing.T, env *TestEnv, slug string) *domain.Lottery {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO lottery
		  (id, slug, active, numbers_count, numbers_max, ticket_price_nano,
		   base_jackpot, accumulated_jackpot, currency, cadence, draw_hour)
		VALUES ($1, $2, true, 5, 36, 1000000000, 0, 0, 'TON', 'daily', 20)`,
		id, slug)
	if err != nil {
		t.Fatalf("SeedLottery: insert lottery: %v", err)
	}

	_, err = env.Pool.Exec(ctx, `
		INSERT INTO payout_config
		  (lottery_id, platform_bp, prize_bp, jackpot_bp, payout_bp,
		   match4_bp, match3_bp, match2_bp, match1_fixed, reserve_bp, income_bp)
		VALUES ($1, 3000, 7000, 2000, 8000, 4000, 3500, 2500, 0, 5000, 5000)`,
		id)
	if err != nil {
		t.Fatalf("SeedLottery: insert payout config: %v", err)
	}

	lottery, err := env.App.Lotteries.FindBySlug(ctx, env.Pool, slug)
	if err != nil || lottery == nil {
		t.Fatalf("SeedLottery: reload lottery: %v", err)
	}
	return lottery
}
