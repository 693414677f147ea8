//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/test/integration/testutil"
)

// TestFetchDue_SplitPartsInIndexOrder enqueues a prize above the single cap
// and checks the parts come back for dispatch in part order. All parts of a
// split commit in one transaction, so created_at alone cannot order them.
func TestFetchDue_SplitPartsInIndexOrder(t *testing.T) {
	env := testutil.NewTestEnv(t)
	ctx := context.Background()

	// 130 TON against the 50 TON single cap splits into three parts, the
	// division remainder landing on the first
	err := pgx.BeginTxFunc(ctx, env.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := env.App.Queue.Enqueue(ctx, tx, domain.QueuePayoutParams{
			UserID:           uuid.New(),
			Amount:           130_000_000_000,
			Currency:         domain.CurrencyTON,
			RecipientAddress: winnerAddress,
		})
		return err
	})
	require.NoError(t, err)

	due, err := env.App.Payouts.FetchDue(ctx, env.Pool, time.Now().UTC(), 10)
	require.NoError(t, err)
	require.Len(t, due, 3)

	for i := range due {
		require.NotNil(t, due[i].SplitIndex)
		require.Equal(t, i+1, *due[i].SplitIndex)
		require.Equal(t, due[0].CreatedAt, due[i].CreatedAt)
	}
	require.Equal(t, int64(43_333_333_334), due[0].Amount)
	require.Equal(t, int64(43_333_333_333), due[1].Amount)
	require.Equal(t, int64(43_333_333_333), due[2].Amount)
}
