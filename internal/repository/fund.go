package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tonlotto/platform/internal/domain"
)

type fundRepo struct{}

// NewFundRepository returns a pgx-backed FundRepository.
func NewFundRepository() FundRepository {
	return &fundRepo{}
}

const fundColumns = `lottery_id, currency, prize_pool, jackpot_pool, payout_pool, platform_pool, reserve_pool,
       total_collected, total_paid_out, total_to_reserve, total_to_jackpot, updated_at`

func (r *fundRepo) Find(ctx context.Context, db DBTX, lotteryID uuid.UUID, currency domain.Currency) (*domain.Fund, error) {
	row := db.QueryRow(ctx, `
		SELECT `+fundColumns+`
		FROM lottery_fund WHERE lottery_id = $1 AND currency = $2`, lotteryID, currency)
	return scanFund(row)
}

func (r *fundRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency) (*domain.Fund, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+fundColumns+`
		FROM lottery_fund WHERE lottery_id = $1 AND currency = $2 FOR UPDATE`, lotteryID, currency)
	return scanFund(row)
}

func (r *fundRepo) Create(ctx context.Context, db DBTX, fund *domain.Fund) error {
	_, err := db.Exec(ctx, `
		INSERT INTO lottery_fund
		  (lottery_id, currency, prize_pool, jackpot_pool, payout_pool, platform_pool, reserve_pool,
		   total_collected, total_paid_out, total_to_reserve, total_to_jackpot)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		fund.LotteryID,
		fund.Currency,
		Int64ToNumeric(fund.Pools.Prize),
		Int64ToNumeric(fund.Pools.Jackpot),
		Int64ToNumeric(fund.Pools.Payout),
		Int64ToNumeric(fund.Pools.Platform),
		Int64ToNumeric(fund.Pools.Reserve),
		Int64ToNumeric(fund.TotalCollected),
		Int64ToNumeric(fund.TotalPaidOut),
		Int64ToNumeric(fund.TotalToReserve),
		Int64ToNumeric(fund.TotalToJackpot),
	)
	if err != nil {
		return fmt.Errorf("insert fund: %w", err)
	}
	return nil
}

// UpdatePools uses server-side arithmetic with dynamic SET clauses so the
// deltas apply against the locked row's current values.
func (r *fundRepo) UpdatePools(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency, delta domain.PoolUpdate) (*domain.Fund, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{}
	argIdx := 1

	add := func(column string, v int64) {
		if v == 0 {
			return
		}
		setClauses = append(setClauses, fmt.Sprintf("%s = %s + $%d", column, column, argIdx))
		args = append(args, Int64ToNumeric(v))
		argIdx++
	}

	add("prize_pool", delta.Prize)
	add("jackpot_pool", delta.Jackpot)
	add("payout_pool", delta.Payout)
	add("platform_pool", delta.Platform)
	add("reserve_pool", delta.Reserve)
	add("total_collected", delta.Collected)
	add("total_paid_out", delta.PaidOut)
	add("total_to_reserve", delta.ToReserve)
	add("total_to_jackpot", delta.ToJackpot)

	args = append(args, lotteryID, currency)
	query := fmt.Sprintf(`
		UPDATE lottery_fund SET %s
		WHERE lottery_id = $%d AND currency = $%d
		RETURNING `+fundColumns,
		strings.Join(setClauses, ", "), argIdx, argIdx+1)

	row := tx.QueryRow(ctx, query, args...)
	return scanFund(row)
}

func (r *fundRepo) InsertTransaction(ctx context.Context, db DBTX, params domain.PostFundEntryParams, snapshot domain.Pools) (*domain.FundTransaction, error) {
	row := db.QueryRow(ctx, `
		INSERT INTO fund_transaction
		  (lottery_id, currency, draw_id, type, amount, from_pool, to_pool,
		   snapshot_prize, snapshot_jackpot, snapshot_payout, snapshot_platform, snapshot_reserve,
		   reference, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, lottery_id, currency, draw_id, type, amount, from_pool, to_pool,
		          snapshot_prize, snapshot_jackpot, snapshot_payout, snapshot_platform, snapshot_reserve,
		          reference, note, created_at`,
		params.LotteryID,
		params.Currency,
		params.DrawID,
		string(params.Type),
		Int64ToNumeric(params.Amount),
		params.FromPool,
		params.ToPool,
		Int64ToNumeric(snapshot.Prize),
		Int64ToNumeric(snapshot.Jackpot),
		Int64ToNumeric(snapshot.Payout),
		Int64ToNumeric(snapshot.Platform),
		Int64ToNumeric(snapshot.Reserve),
		params.Reference,
		params.Note,
	)
	return scanFundTransaction(row)
}

func (r *fundRepo) ListTransactions(ctx context.Context, db DBTX, lotteryID uuid.UUID, currency domain.Currency, limit int) ([]domain.FundTransaction, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := db.Query(ctx, `
		SELECT id, lottery_id, currency, draw_id, type, amount, from_pool, to_pool,
		       snapshot_prize, snapshot_jackpot, snapshot_payout, snapshot_platform, snapshot_reserve,
		       reference, note, created_at
		FROM fund_transaction
		WHERE lottery_id = $1 AND currency = $2
		ORDER BY created_at ASC, id ASC
		LIMIT $3`, lotteryID, currency, limit)
	if err != nil {
		return nil, fmt.Errorf("query fund transactions: %w", err)
	}
	defer rows.Close()

	var entries []domain.FundTransaction
	for rows.Next() {
		entry, err := scanFundTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

func scanFund(row pgx.Row) (*domain.Fund, error) {
	var f domain.Fund
	var nums [9]pgtype.Numeric
	err := row.Scan(&f.LotteryID, &f.Currency,
		&nums[0], &nums[1], &nums[2], &nums[3], &nums[4],
		&nums[5], &nums[6], &nums[7], &nums[8], &f.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan fund: %w", err)
	}

	targets := []*int64{
		&f.Pools.Prize, &f.Pools.Jackpot, &f.Pools.Payout, &f.Pools.Platform, &f.Pools.Reserve,
		&f.TotalCollected, &f.TotalPaidOut, &f.TotalToReserve, &f.TotalToJackpot,
	}
	for i, target := range targets {
		v, convErr := NumericToInt64(nums[i])
		if convErr != nil {
			return nil, fmt.Errorf("convert fund column %d: %w", i, convErr)
		}
		*target = v
	}
	return &f, nil
}

func scanFundTransaction(row pgx.Row) (*domain.FundTransaction, error) {
	var e domain.FundTransaction
	var nums [6]pgtype.Numeric
	err := row.Scan(&e.ID, &e.LotteryID, &e.Currency, &e.DrawID, &e.Type,
		&nums[0], &e.FromPool, &e.ToPool,
		&nums[1], &nums[2], &nums[3], &nums[4], &nums[5],
		&e.Reference, &e.Note, &e.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan fund transaction: %w", err)
	}
	return convertFundTxNumerics(&e, nums)
}

func scanFundTransactionRows(rows pgx.Rows) (*domain.FundTransaction, error) {
	var e domain.FundTransaction
	var nums [6]pgtype.Numeric
	err := rows.Scan(&e.ID, &e.LotteryID, &e.Currency, &e.DrawID, &e.Type,
		&nums[0], &e.FromPool, &e.ToPool,
		&nums[1], &nums[2], &nums[3], &nums[4], &nums[5],
		&e.Reference, &e.Note, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan fund transaction row: %w", err)
	}
	return convertFundTxNumerics(&e, nums)
}

func convertFundTxNumerics(e *domain.FundTransaction, nums [6]pgtype.Numeric) (*domain.FundTransaction, error) {
	targets := []*int64{
		&e.Amount,
		&e.Snapshot.Prize, &e.Snapshot.Jackpot, &e.Snapshot.Payout, &e.Snapshot.Platform, &e.Snapshot.Reserve,
	}
	for i, target := range targets {
		v, err := NumericToInt64(nums[i])
		if err != nil {
			return nil, fmt.Errorf("convert fund transaction column %d: %w", i, err)
		}
		*target = v
	}
	return e, nil
}
