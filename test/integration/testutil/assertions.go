//go:build integration

package testutil

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
)

// DecodeJSON reads and decodes a JSON response body into dst.
func DecodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
}

// AssertStatus checks that the response has the expected HTTP status code.
func AssertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Errorf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

// AssertErrorCode checks that the response body contains the expected error code.
func AssertErrorCode(t *testing.T, resp *http.Response, expectedCode string) {
	t.Helper()
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	DecodeJSON(t, resp, &errResp)
	if errResp.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, errResp.Code, errResp.Message)
	}
}

// AssertPools queries lottery_fund and asserts the five pool balances.
func AssertPools(t *testing.T, env *TestEnv, lotteryID uuid.UUID, currency string, prize, jackpot, payout, platform, reserve int64) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var pr, ja, pa, pl, re int64
	err := env.Pool.QueryRow(ctx, `
		SELECT prize_pool, jackpot_pool, payout_pool, platform_pool, reserve_pool
		FROM lottery_fund WHERE lottery_id = $1 AND currency = $2`,
		lotteryID, currency).Scan(&pr, &ja, &pa, &pl, &re)
	if err != nil {
		t.Fatalf("AssertPools: query: %v", err)
	}
	if pr != prize {
		t.Errorf("prize_pool: expected %d, got %d", prize, pr)
	}
	if ja != jackpot {
		t.Errorf("jackpot_pool: expected %d, got %d", jackpot, ja)
	}
	if pa != payout {
		t.Errorf("payout_pool: expected %d, got %d", payout, pa)
	}
	if pl != platform {
		t.Errorf("platform_pool: expected %d, got %d", platform, pl)
	}
	if re != reserve {
		t.Errorf("reserve_pool: expected %d, got %d", reserve, re)
	}
}

// CountFundTransactions returns the number of ledger entries for a fund.
func CountFundTransactions(t *testing.T, env *TestEnv, lotteryID uuid.UUID, currency string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM fund_transaction WHERE lottery_id = $1 AND currency = $2",
		lotteryID, currency).Scan(&count)
	if err != nil {
		t.Fatalf("CountFundTransactions: %v", err)
	}
	return count
}

// CountOutboxEvents returns the number of outbox events for an aggregate.
func CountOutboxEvents(t *testing.T, env *TestEnv, aggregateID string) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var count int
	err := env.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM event_outbox WHERE aggregate_id = $1", aggregateID).Scan(&count)
	if err != nil {
		t.Fatalf("CountOutboxEvents: %v", err)
	}
	return count
}
