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

type payoutRepo struct{}

// NewPayoutRepository returns a pgx-backed PayoutRepository.
func NewPayoutRepository() PayoutRepository {
	return &payoutRepo{}
}

const payoutColumns = `id, user_id, ticket_id, draw_id, amount, currency, recipient_address,
       status, attempts, max_attempts, last_error, next_attempt_at, processed_at, completed_at,
       tx_hash, total_amount, split_index, split_total, created_at, updated_at`

func (r *payoutRepo) Insert(ctx context.Context, db DBTX, p *domain.Payout) error {
	var totalNum interface{}
	if p.TotalAmount != nil {
		totalNum = Int64ToNumeric(*p.TotalAmount)
	}
	_, err := db.Exec(ctx, `
		INSERT INTO payout
		  (id, user_id, ticket_id, draw_id, amount, currency, recipient_address,
		   status, attempts, max_attempts, next_attempt_at, total_amount, split_index, split_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.UserID, p.TicketID, p.DrawID,
		Int64ToNumeric(p.Amount), p.Currency, p.RecipientAddress,
		p.Status, p.Attempts, p.MaxAttempts, p.NextAttemptAt,
		totalNum, p.SplitIndex, p.SplitTotal,
	)
	if err != nil {
		return fmt.Errorf("insert payout: %w", err)
	}
	return nil
}

func (r *payoutRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payout, error) {
	row := db.QueryRow(ctx, `SELECT `+payoutColumns+` FROM payout WHERE id = $1`, id)
	p, err := scanPayout(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *payoutRepo) FetchDue(ctx context.Context, db DBTX, now time.Time, limit int) ([]domain.Payout, error) {
	rows, err := db.Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payout
		WHERE status = $1
		  AND attempts < max_attempts
		  AND (next_attempt_at IS NULL OR next_attempt_at <= $2)
		ORDER BY created_at ASC, split_index ASC NULLS FIRST, id ASC
		LIMIT $3`, domain.PayoutPending, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due payouts: %w", err)
	}
	defer rows.Close()

	return collectPayouts(rows)
}

func (r *payoutRepo) MarkProcessing(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	tag, err := db.Exec(ctx, `
		UPDATE payout SET status = $1, attempts = attempts + 1, processed_at = now(), updated_at = now()
		WHERE id = $2 AND status = $3`,
		domain.PayoutProcessing, id, domain.PayoutPending)
	if err != nil {
		return false, fmt.Errorf("mark payout processing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *payoutRepo) MarkCompleted(ctx context.Context, db DBTX, id uuid.UUID, txHash string) error {
	_, err := db.Exec(ctx, `
		UPDATE payout SET status = $1, tx_hash = $2, completed_at = now(), updated_at = now()
		WHERE id = $3`,
		domain.PayoutCompleted, txHash, id)
	if err != nil {
		return fmt.Errorf("mark payout completed: %w", err)
	}
	return nil
}

func (r *payoutRepo) MarkFailed(ctx context.Context, db DBTX, id uuid.UUID, lastError string) error {
	_, err := db.Exec(ctx, `
		UPDATE payout SET status = $1, last_error = $2, updated_at = now()
		WHERE id = $3`,
		domain.PayoutFailed, lastError, id)
	if err != nil {
		return fmt.Errorf("mark payout failed: %w", err)
	}
	return nil
}

func (r *payoutRepo) ReturnToPending(ctx context.Context, db DBTX, id uuid.UUID, lastError string, nextAttemptAt time.Time) error {
	_, err := db.Exec(ctx, `
		UPDATE payout SET status = $1, last_error = $2, next_attempt_at = $3, updated_at = now()
		WHERE id = $4`,
		domain.PayoutPending, lastError, nextAttemptAt, id)
	if err != nil {
		return fmt.Errorf("return payout to pending: %w", err)
	}
	return nil
}

func (r *payoutRepo) DailyCompletedSum(ctx context.Context, db DBTX, currency domain.Currency) (int64, error) {
	var sumNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payout
		WHERE currency = $1 AND status = $2
		  AND completed_at >= date_trunc('day', now() AT TIME ZONE 'utc')`,
		currency, domain.PayoutCompleted).Scan(&sumNum)
	if err != nil {
		return 0, fmt.Errorf("daily completed sum: %w", err)
	}
	sum, err := NumericToInt64(sumNum)
	if err != nil {
		return 0, fmt.Errorf("convert daily sum: %w", err)
	}
	return sum, nil
}

func (r *payoutRepo) ListInDoubt(ctx context.Context, db DBTX, cutoff time.Time) ([]domain.Payout, error) {
	rows, err := db.Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payout
		WHERE status = $1 AND processed_at < $2
		ORDER BY processed_at ASC`, domain.PayoutProcessing, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query in-doubt payouts: %w", err)
	}
	defer rows.Close()

	return collectPayouts(rows)
}

func (r *payoutRepo) SumByDraw(ctx context.Context, db DBTX, drawID uuid.UUID) (int64, error) {
	var sumNum pgtype.Numeric
	err := db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM payout WHERE draw_id = $1 AND status = $2`,
		drawID, domain.PayoutCompleted).Scan(&sumNum)
	if err != nil {
		return 0, fmt.Errorf("sum payouts by draw: %w", err)
	}
	sum, err := NumericToInt64(sumNum)
	if err != nil {
		return 0, fmt.Errorf("convert draw sum: %w", err)
	}
	return sum, nil
}

func (r *payoutRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Payout, error) {
	rows, err := db.Query(ctx, `
		SELECT `+payoutColumns+`
		FROM payout
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user payouts: %w", err)
	}
	defer rows.Close()

	return collectPayouts(rows)
}

func scanPayout(row pgx.Row) (*domain.Payout, error) {
	var p domain.Payout
	var amountNum pgtype.Numeric
	var totalNum *pgtype.Numeric
	err := row.Scan(&p.ID, &p.UserID, &p.TicketID, &p.DrawID, &amountNum, &p.Currency,
		&p.RecipientAddress, &p.Status, &p.Attempts, &p.MaxAttempts, &p.LastError,
		&p.NextAttemptAt, &p.ProcessedAt, &p.CompletedAt, &p.TxHash,
		&totalNum, &p.SplitIndex, &p.SplitTotal, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return convertPayoutNumerics(&p, amountNum, totalNum)
}

func collectPayouts(rows pgx.Rows) ([]domain.Payout, error) {
	var payouts []domain.Payout
	for rows.Next() {
		var p domain.Payout
		var amountNum pgtype.Numeric
		var totalNum *pgtype.Numeric
		err := rows.Scan(&p.ID, &p.UserID, &p.TicketID, &p.DrawID, &amountNum, &p.Currency,
			&p.RecipientAddress, &p.Status, &p.Attempts, &p.MaxAttempts, &p.LastError,
			&p.NextAttemptAt, &p.ProcessedAt, &p.CompletedAt, &p.TxHash,
			&totalNum, &p.SplitIndex, &p.SplitTotal, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan payout row: %w", err)
		}
		converted, convErr := convertPayoutNumerics(&p, amountNum, totalNum)
		if convErr != nil {
			return nil, convErr
		}
		payouts = append(payouts, *converted)
	}
	return payouts, rows.Err()
}

func convertPayoutNumerics(p *domain.Payout, amountNum pgtype.Numeric, totalNum *pgtype.Numeric) (*domain.Payout, error) {
	var err error
	p.Amount, err = NumericToInt64(amountNum)
	if err != nil {
		return nil, fmt.Errorf("convert payout amount: %w", err)
	}
	if totalNum != nil && totalNum.Valid {
		total, convErr := NumericToInt64(*totalNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert payout total: %w", convErr)
		}
		p.TotalAmount = &total
	}
	return p, nil
}
