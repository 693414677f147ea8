//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tonlotto/platform/test/integration/testutil"
)

// TestPickAllLotteryAccepted covers configurations that draw every number in
// the pool, e.g. pick 5 of 5.
func TestPickAllLotteryAccepted(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	_, err := env.Pool.Exec(ctx, `
		INSERT INTO lottery
		  (id, slug, active, numbers_count, numbers_max, ticket_price_nano,
		   base_jackpot, accumulated_jackpot, currency, cadence, draw_hour)
		VALUES ($1, 'pick-all', true, 5, 5, 1000000000, 0, 0, 'TON', 'daily', 20)`,
		uuid.New())
	require.NoError(t, err)
}
