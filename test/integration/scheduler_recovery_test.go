//go:build integration

package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/fair"
	"github.com/tonlotto/platform/test/integration/testutil"
)

// TestTickSettlesStrandedCalculatingDraw simulates a crash between the
// drawing commit and settlement: the draw sits in calculating past its draw
// time and the next scheduler pass must pick it up and settle it.
func TestTickSettlesStrandedCalculatingDraw(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	lottery := testutil.SeedLottery(t, env, "daily-ton")

	d, err := env.App.DrawSvc.CreateDraw(ctx, lottery, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)

	var serverSeed string
	require.NoError(t, env.Pool.QueryRow(ctx,
		"SELECT server_seed FROM draw WHERE id = $1", d.ID).Scan(&serverSeed))
	winning, err := fair.GenerateNumbers(serverSeed, env.Chain.BlockHash(), d.Nonce, lottery.NumbersCount, lottery.NumbersMax)
	require.NoError(t, err)
	losing := complementPicks(winning, lottery.NumbersMax, lottery.NumbersCount)

	// one losing ticket so settlement has tickets to grade but queues no
	// payouts and the draw completes in the same pass
	txHash := strings.Repeat("cd", 32)
	env.Chain.AddDeposit(txHash, winnerAddress, testutil.TestDepositAddress, 1_000_000_000)
	buyResp := postJSON(t, env, "/tickets", map[string]interface{}{
		"user_id":        uuid.New(),
		"lottery":        "daily-ton",
		"numbers":        [][]int32{losing},
		"tx_hash":        txHash,
		"sender_address": winnerAddress,
	})
	testutil.AssertStatus(t, buyResp, http.StatusCreated)

	require.NoError(t, env.App.DrawSvc.LockDraw(ctx, d.ID))
	executed, err := env.App.DrawSvc.ExecuteDraw(ctx, d.ID, serverSeed)
	require.NoError(t, err)
	require.Equal(t, domain.DrawCalculating, executed.Status)

	_, err = env.Pool.Exec(ctx,
		"UPDATE draw SET draw_time = now() - interval '1 hour' WHERE id = $1", d.ID)
	require.NoError(t, err)

	env.App.Scheduler.Tick(ctx)

	after, err := env.App.Draws.FindByID(ctx, env.Pool, d.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	require.Equal(t, domain.DrawCompleted, after.Status)

	rep, err := env.App.Engine.Replay(ctx, env.Pool, lottery.ID, domain.CurrencyTON)
	require.NoError(t, err)
	require.True(t, rep.AllPassed, "ledger replay: %+v", rep.Invariants)
}
