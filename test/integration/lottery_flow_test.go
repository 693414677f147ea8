//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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

const winnerAddress = "EQWinnerWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"

// TestFullDrawLifecycle walks one draw from creation through sale, drawing,
// settlement and on-chain payout, checking the ledger at every stage.
func TestFullDrawLifecycle(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	lottery := testutil.SeedLottery(t, env, "daily-ton")
	userID := uuid.New()

	d, err := env.App.DrawSvc.CreateDraw(ctx, lottery, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	require.Equal(t, domain.DrawOpen, d.Status)
	require.NotEmpty(t, d.ServerSeedHash)
	require.Equal(t, d.DrawNumber, d.Nonce)

	// the committed seed must stay hidden while sales are open
	var public struct {
		ServerSeed     *string `json:"server_seed"`
		ServerSeedHash string  `json:"server_seed_hash"`
	}
	resp, err := http.Get(env.Server.URL + "/draws/" + d.ID.String())
	require.NoError(t, err)
	testutil.AssertStatus(t, resp, http.StatusOK)
	testutil.DecodeJSON(t, resp, &public)
	require.Nil(t, public.ServerSeed)
	require.Equal(t, d.ServerSeedHash, public.ServerSeedHash)

	// the operator side of the commitment, straight from the database
	var serverSeed string
	err = env.Pool.QueryRow(ctx, "SELECT server_seed FROM draw WHERE id = $1", d.ID).Scan(&serverSeed)
	require.NoError(t, err)
	require.NoError(t, fair.VerifyCommitment(serverSeed, d.ServerSeedHash))

	// with the seed pair known the winning numbers are known too, so one
	// ticket can be made a jackpot winner up front
	winning, err := fair.GenerateNumbers(serverSeed, env.Chain.BlockHash(), d.Nonce, lottery.NumbersCount, lottery.NumbersMax)
	require.NoError(t, err)
	losing := complementPicks(winning, lottery.NumbersMax, lottery.NumbersCount)

	txHash := strings.Repeat("ab", 32)
	env.Chain.AddDeposit(txHash, winnerAddress, testutil.TestDepositAddress, 2_000_000_000)

	buyResp := postJSON(t, env, "/tickets", map[string]interface{}{
		"user_id":        userID,
		"lottery":        "daily-ton",
		"numbers":        [][]int32{winning, losing},
		"tx_hash":        txHash,
		"sender_address": winnerAddress,
	})
	testutil.AssertStatus(t, buyResp, http.StatusCreated)
	var purchase struct {
		Tickets       []domain.Ticket `json:"tickets"`
		AmountCharged int64           `json:"amount_charged"`
	}
	testutil.DecodeJSON(t, buyResp, &purchase)
	require.Len(t, purchase.Tickets, 2)
	require.Equal(t, int64(2_000_000_000), purchase.AmountCharged)

	// replaying the same deposit must not create more tickets
	replay := postJSON(t, env, "/tickets", map[string]interface{}{
		"user_id":        userID,
		"lottery":        "daily-ton",
		"numbers":        [][]int32{losing},
		"tx_hash":        txHash,
		"sender_address": winnerAddress,
	})
	testutil.AssertStatus(t, replay, http.StatusConflict)
	testutil.AssertErrorCode(t, replay, "TRANSACTION_USED")

	// 2 TON split 70/30, prize split 20/80, platform split 50/50
	testutil.AssertPools(t, env, lottery.ID, "TON",
		1_400_000_000, 280_000_000, 1_120_000_000, 600_000_000, 300_000_000)

	require.NoError(t, env.App.DrawSvc.LockDraw(ctx, d.ID))

	executed, err := env.App.DrawSvc.ExecuteDraw(ctx, d.ID, serverSeed)
	require.NoError(t, err)
	require.Equal(t, domain.DrawCalculating, executed.Status)
	require.Equal(t, winning, executed.WinningNumbers)
	require.Equal(t, int64(1_400_000_000), executed.PrizePoolSnapshot)
	require.Equal(t, int64(280_000_000), executed.JackpotPoolSnapshot)

	res, err := env.App.Settlement.Settle(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, 1, res.Counts.Match5)
	require.Equal(t, 0, res.Counts.Match4+res.Counts.Match3+res.Counts.Match2)
	require.Equal(t, int64(280_000_000), res.Calc.TotalPayout)
	require.Equal(t, 1, res.PayoutsQueued)
	require.Equal(t, 2, res.TicketsSettled)

	// jackpot paid out, empty winner tiers rolled into reserve
	testutil.AssertPools(t, env, lottery.ID, "TON",
		1_400_000_000, 0, 0, 600_000_000, 1_420_000_000)

	rep, err := env.App.Engine.Replay(ctx, env.Pool, lottery.ID, domain.CurrencyTON)
	require.NoError(t, err)
	require.True(t, rep.AllPassed, "ledger replay: %+v", rep.Invariants)

	// anyone can now reproduce the draw from the revealed seeds
	verifyResp, err := http.Get(env.Server.URL + "/draws/" + d.ID.String() + "/verify")
	require.NoError(t, err)
	testutil.AssertStatus(t, verifyResp, http.StatusOK)
	var verification struct {
		Valid bool `json:"valid"`
	}
	testutil.DecodeJSON(t, verifyResp, &verification)
	require.True(t, verification.Valid)

	// dispatch sends the prize on chain and closes the draw
	require.NoError(t, env.App.Dispatcher.DispatchBatch(ctx))

	sends := env.Chain.Sends()
	require.Len(t, sends, 1)
	require.Equal(t, winnerAddress, sends[0].To)
	require.Equal(t, int64(280_000_000), sends[0].Amount)

	payouts, err := env.App.Payouts.ListByUser(ctx, env.Pool, userID, 10)
	require.NoError(t, err)
	require.Len(t, payouts, 1)
	require.Equal(t, domain.PayoutCompleted, payouts[0].Status)
	require.NotNil(t, payouts[0].TxHash)

	final, err := env.App.Draws.FindByID(ctx, env.Pool, d.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DrawCompleted, final.Status)
	require.Equal(t, int64(280_000_000), final.TotalPaidOut)
	require.Equal(t, 1, final.Winners5)
}

// TestZeroWinnerRollover checks that a draw nobody wins completes
// immediately, keeps the jackpot in the pool and records the carry.
func TestZeroWinnerRollover(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	lottery := testutil.SeedLottery(t, env, "daily-ton")

	d, err := env.App.DrawSvc.CreateDraw(ctx, lottery, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)

	var serverSeed string
	err = env.Pool.QueryRow(ctx, "SELECT server_seed FROM draw WHERE id = $1", d.ID).Scan(&serverSeed)
	require.NoError(t, err)

	winning, err := fair.GenerateNumbers(serverSeed, env.Chain.BlockHash(), d.Nonce, lottery.NumbersCount, lottery.NumbersMax)
	require.NoError(t, err)
	losing := complementPicks(winning, lottery.NumbersMax, lottery.NumbersCount)

	txHash := strings.Repeat("12", 32)
	env.Chain.AddDeposit(txHash, winnerAddress, testutil.TestDepositAddress, 1_000_000_000)
	resp := postJSON(t, env, "/tickets", map[string]interface{}{
		"user_id":        uuid.New(),
		"lottery":        "daily-ton",
		"numbers":        [][]int32{losing},
		"tx_hash":        txHash,
		"sender_address": winnerAddress,
	})
	testutil.AssertStatus(t, resp, http.StatusCreated)

	require.NoError(t, env.App.DrawSvc.LockDraw(ctx, d.ID))
	_, err = env.App.DrawSvc.ExecuteDraw(ctx, d.ID, serverSeed)
	require.NoError(t, err)

	res, err := env.App.Settlement.Settle(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, int64(0), res.Calc.TotalPayout)
	require.Equal(t, 0, res.PayoutsQueued)

	// jackpot stays put, empty tiers roll to reserve
	testutil.AssertPools(t, env, lottery.ID, "TON",
		700_000_000, 140_000_000, 0, 300_000_000, 710_000_000)

	final, err := env.App.Draws.FindByID(ctx, env.Pool, d.ID)
	require.NoError(t, err)
	require.Equal(t, domain.DrawCompleted, final.Status)

	// the carry lands on the lottery for the next draw's headline jackpot
	reloaded, err := env.App.Lotteries.FindByID(ctx, env.Pool, lottery.ID)
	require.NoError(t, err)
	require.Equal(t, int64(140_000_000), reloaded.AccumulatedJackpot)

	rep, err := env.App.Engine.Replay(ctx, env.Pool, lottery.ID, domain.CurrencyTON)
	require.NoError(t, err)
	require.True(t, rep.AllPassed)
}

// TestPurchaseRejectedAfterLock checks the sales window closes with the draw.
func TestPurchaseRejectedAfterLock(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	lottery := testutil.SeedLottery(t, env, "daily-ton")

	d, err := env.App.DrawSvc.CreateDraw(ctx, lottery, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)
	require.NoError(t, env.App.DrawSvc.LockDraw(ctx, d.ID))

	txHash := strings.Repeat("cd", 32)
	env.Chain.AddDeposit(txHash, winnerAddress, testutil.TestDepositAddress, 1_000_000_000)

	resp := postJSON(t, env, "/tickets", map[string]interface{}{
		"user_id":        uuid.New(),
		"lottery":        "daily-ton",
		"numbers":        [][]int32{{1, 2, 3, 4, 5}},
		"tx_hash":        txHash,
		"sender_address": winnerAddress,
	})
	testutil.AssertStatus(t, resp, http.StatusConflict)
	testutil.AssertErrorCode(t, resp, "WRONG_STATE")
}

// TestUnderpaidDepositRejected checks the deposit amount guard.
func TestUnderpaidDepositRejected(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	lottery := testutil.SeedLottery(t, env, "daily-ton")
	_, err := env.App.DrawSvc.CreateDraw(ctx, lottery, time.Now().UTC().Add(2*time.Hour))
	require.NoError(t, err)

	// two tickets cost 2 TON, deposit covers half
	txHash := strings.Repeat("ef", 32)
	env.Chain.AddDeposit(txHash, winnerAddress, testutil.TestDepositAddress, 1_000_000_000)

	resp := postJSON(t, env, "/tickets", map[string]interface{}{
		"user_id":        uuid.New(),
		"lottery":        "daily-ton",
		"numbers":        [][]int32{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}},
		"tx_hash":        txHash,
		"sender_address": winnerAddress,
	})
	testutil.AssertStatus(t, resp, http.StatusBadRequest)
	testutil.AssertErrorCode(t, resp, "VALIDATION_ERROR")
}

func postJSON(t *testing.T, env *testutil.TestEnv, path string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(env.Server.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

// complementPicks returns count numbers in [1, max] disjoint from taken.
func complementPicks(taken []int32, max, count int) []int32 {
	used := make(map[int32]bool, len(taken))
	for _, n := range taken {
		used[n] = true
	}
	out := make([]int32, 0, count)
	for n := int32(1); int(n) <= max && len(out) < count; n++ {
		if !used[n] {
			out = append(out, n)
		}
	}
	if len(out) < count {
		panic(fmt.Sprintf("not enough numbers in [1, %d]", max))
	}
	return out
}
