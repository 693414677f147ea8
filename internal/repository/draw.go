package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tonlotto/platform/internal/domain"
)

type drawRepo struct{}

// NewDrawRepository returns a pgx-backed DrawRepository.
func NewDrawRepository() DrawRepository {
	return &drawRepo{}
}

const drawColumns = `id, lottery_id, draw_number, status, currency,
       sales_open_at, sales_close_at, draw_time, locked_at, drawn_at, completed_at,
       server_seed_hash, server_seed, client_seed, client_seed_block, nonce, winning_numbers,
       prize_pool_snapshot, jackpot_pool_snapshot,
       winners5, winners4, winners3, winners2, winners1,
       jackpot_amount, match4_amount, match3_amount, match2_amount, match1_amount,
       total_tickets, total_collected, total_paid_out, created_at, updated_at`

func (r *drawRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Draw, error) {
	row := db.QueryRow(ctx, `SELECT `+drawColumns+` FROM draw WHERE id = $1`, id)
	return scanDraw(row)
}

func (r *drawRepo) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Draw, error) {
	row := tx.QueryRow(ctx, `SELECT `+drawColumns+` FROM draw WHERE id = $1 FOR UPDATE`, id)
	return scanDraw(row)
}

func (r *drawRepo) FindOpenByLottery(ctx context.Context, db DBTX, lotteryID uuid.UUID, now time.Time) (*domain.Draw, error) {
	row := db.QueryRow(ctx, `
		SELECT `+drawColumns+`
		FROM draw
		WHERE lottery_id = $1 AND status = $2 AND sales_close_at > $3
		ORDER BY draw_number ASC
		LIMIT 1`, lotteryID, domain.DrawOpen, now)
	return scanDraw(row)
}

func (r *drawRepo) Create(ctx context.Context, db DBTX, d *domain.Draw) error {
	_, err := db.Exec(ctx, `
		INSERT INTO draw
		  (id, lottery_id, draw_number, status, currency,
		   sales_open_at, sales_close_at, draw_time,
		   server_seed_hash, server_seed, nonce, winning_numbers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		d.ID, d.LotteryID, d.DrawNumber, d.Status, d.Currency,
		d.SalesOpenAt, d.SalesCloseAt, d.DrawTime,
		d.ServerSeedHash, d.ServerSeed, d.Nonce, d.WinningNumbers,
	)
	if err != nil {
		return fmt.Errorf("insert draw: %w", err)
	}
	return nil
}

func (r *drawRepo) NextDrawNumber(ctx context.Context, db DBTX, lotteryID uuid.UUID) (int64, error) {
	var next int64
	err := db.QueryRow(ctx, `
		SELECT COALESCE(MAX(draw_number), 0) + 1 FROM draw WHERE lottery_id = $1`, lotteryID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next draw number: %w", err)
	}
	return next, nil
}

func (r *drawRepo) UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, to domain.DrawStatus) error {
	var stamp string
	switch to {
	case domain.DrawLocked:
		stamp = ", locked_at = now()"
	case domain.DrawCalculating:
		stamp = ", drawn_at = now()"
	case domain.DrawCompleted, domain.DrawCancelled:
		stamp = ", completed_at = now()"
	}

	tag, err := tx.Exec(ctx,
		`UPDATE draw SET status = $1, updated_at = now()`+stamp+` WHERE id = $2`, to, id)
	if err != nil {
		return fmt.Errorf("update draw status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound("draw", id.String())
	}
	return nil
}

func (r *drawRepo) SetResults(ctx context.Context, tx pgx.Tx, id uuid.UUID, res domain.DrawResultUpdate) error {
	_, err := tx.Exec(ctx, `
		UPDATE draw SET
		  server_seed = $1,
		  client_seed = $2,
		  client_seed_block = $3,
		  winning_numbers = $4,
		  prize_pool_snapshot = $5,
		  jackpot_pool_snapshot = $6,
		  updated_at = now()
		WHERE id = $7`,
		res.ServerSeed, res.ClientSeed, res.ClientSeedBlock, res.WinningNumbers,
		Int64ToNumeric(res.PrizePoolSnapshot),
		Int64ToNumeric(res.JackpotPoolSnapshot),
		id)
	if err != nil {
		return fmt.Errorf("set draw results: %w", err)
	}
	return nil
}

func (r *drawRepo) SetPayouts(ctx context.Context, tx pgx.Tx, id uuid.UUID, pay domain.DrawPayoutUpdate) error {
	_, err := tx.Exec(ctx, `
		UPDATE draw SET
		  winners5 = $1, winners4 = $2, winners3 = $3, winners2 = $4, winners1 = $5,
		  jackpot_amount = $6, match4_amount = $7, match3_amount = $8,
		  match2_amount = $9, match1_amount = $10,
		  total_paid_out = $11,
		  updated_at = now()
		WHERE id = $12`,
		pay.Counts.Match5, pay.Counts.Match4, pay.Counts.Match3, pay.Counts.Match2, pay.Counts.Match1,
		Int64ToNumeric(pay.JackpotAmount),
		Int64ToNumeric(pay.Match4Amount),
		Int64ToNumeric(pay.Match3Amount),
		Int64ToNumeric(pay.Match2Amount),
		Int64ToNumeric(pay.Match1Amount),
		Int64ToNumeric(pay.TotalPaidOut),
		id)
	if err != nil {
		return fmt.Errorf("set draw payouts: %w", err)
	}
	return nil
}

func (r *drawRepo) IncrementSales(ctx context.Context, tx pgx.Tx, id uuid.UUID, tickets int, collected int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE draw SET
		  total_tickets = total_tickets + $1,
		  total_collected = total_collected + $2,
		  updated_at = now()
		WHERE id = $3`,
		tickets, Int64ToNumeric(collected), id)
	if err != nil {
		return fmt.Errorf("increment draw sales: %w", err)
	}
	return nil
}

func (r *drawRepo) ListByStatusDue(ctx context.Context, db DBTX, status domain.DrawStatus, cutoff time.Time, limit int) ([]domain.Draw, error) {
	rows, err := db.Query(ctx, `
		SELECT `+drawColumns+`
		FROM draw
		WHERE status = $1 AND draw_time <= $2
		ORDER BY draw_time ASC
		LIMIT $3`, status, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("query due draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		d, err := scanDrawValues(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, *d)
	}
	return draws, rows.Err()
}

func (r *drawRepo) ListRecentByLottery(ctx context.Context, db DBTX, lotteryID uuid.UUID, limit int) ([]domain.Draw, error) {
	rows, err := db.Query(ctx, `
		SELECT `+drawColumns+`
		FROM draw
		WHERE lottery_id = $1
		ORDER BY draw_number DESC
		LIMIT $2`, lotteryID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent draws: %w", err)
	}
	defer rows.Close()

	var draws []domain.Draw
	for rows.Next() {
		d, err := scanDrawValues(rows)
		if err != nil {
			return nil, err
		}
		draws = append(draws, *d)
	}
	return draws, rows.Err()
}

func scanDraw(row pgx.Row) (*domain.Draw, error) {
	d, err := scanDrawValues(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// scanDrawValues scans the drawColumns list from either a Row or Rows.
func scanDrawValues(row pgx.Row) (*domain.Draw, error) {
	var d domain.Draw
	var nums [9]pgtype.Numeric
	err := row.Scan(
		&d.ID, &d.LotteryID, &d.DrawNumber, &d.Status, &d.Currency,
		&d.SalesOpenAt, &d.SalesCloseAt, &d.DrawTime, &d.LockedAt, &d.DrawnAt, &d.CompletedAt,
		&d.ServerSeedHash, &d.ServerSeed, &d.ClientSeed, &d.ClientSeedBlock, &d.Nonce, &d.WinningNumbers,
		&nums[0], &nums[1],
		&d.Winners5, &d.Winners4, &d.Winners3, &d.Winners2, &d.Winners1,
		&nums[2], &nums[3], &nums[4], &nums[5], &nums[6],
		&d.TotalTickets, &nums[7], &nums[8], &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scan draw: %w", err)
	}

	targets := []*int64{
		&d.PrizePoolSnapshot, &d.JackpotPoolSnapshot,
		&d.JackpotAmount, &d.Match4Amount, &d.Match3Amount, &d.Match2Amount, &d.Match1Amount,
		&d.TotalCollected, &d.TotalPaidOut,
	}
	for i, target := range targets {
		v, convErr := NumericToInt64(nums[i])
		if convErr != nil {
			return nil, fmt.Errorf("convert draw column %d: %w", i, convErr)
		}
		*target = v
	}
	return &d, nil
}
