package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tonlotto/platform/internal/domain"
)

type ticketRepo struct{}

// NewTicketRepository returns a pgx-backed TicketRepository.
func NewTicketRepository() TicketRepository {
	return &ticketRepo{}
}

const ticketColumns = `id, user_id, lottery_id, draw_id, numbers, price, status,
       matched_numbers, prize_amount, prize_claimed, tx_hash, sender_address, created_at`

func (r *ticketRepo) InsertBatch(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error {
	batch := &pgx.Batch{}
	for _, t := range tickets {
		batch.Queue(`
			INSERT INTO ticket
			  (id, user_id, lottery_id, draw_id, numbers, price, status, tx_hash, sender_address)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID, t.UserID, t.LotteryID, t.DrawID, t.Numbers,
			Int64ToNumeric(t.Price), t.Status, t.TxHash, t.SenderAddress)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range tickets {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert ticket: %w", err)
		}
	}
	return nil
}

func (r *ticketRepo) ListByDraw(ctx context.Context, db DBTX, drawID uuid.UUID) ([]domain.Ticket, error) {
	rows, err := db.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM ticket WHERE draw_id = $1
		ORDER BY created_at ASC, id ASC`, drawID)
	if err != nil {
		return nil, fmt.Errorf("query draw tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

func (r *ticketRepo) CountByDraw(ctx context.Context, db DBTX, drawID uuid.UUID) (int, error) {
	var count int
	err := db.QueryRow(ctx, `SELECT COUNT(*) FROM ticket WHERE draw_id = $1`, drawID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count draw tickets: %w", err)
	}
	return count, nil
}

func (r *ticketRepo) TxHashExists(ctx context.Context, db DBTX, txHash string) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ticket WHERE tx_hash = $1)`, txHash).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check tx hash: %w", err)
	}
	return exists, nil
}

// UpdateResult only touches active tickets, so re-running settlement after a
// partial failure never rewrites an already-settled ticket.
func (r *ticketRepo) UpdateResult(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, matched int, prize int64, status domain.TicketStatus) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE ticket SET matched_numbers = $1, prize_amount = $2, status = $3
		WHERE id = $4 AND status = $5`,
		matched, Int64ToNumeric(prize), status, ticketID, domain.TicketActive)
	if err != nil {
		return false, fmt.Errorf("update ticket result: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *ticketRepo) ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Ticket, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := db.Query(ctx, `
		SELECT `+ticketColumns+`
		FROM ticket WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query user tickets: %w", err)
	}
	defer rows.Close()

	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		var priceNum, prizeNum pgtype.Numeric
		err := rows.Scan(&t.ID, &t.UserID, &t.LotteryID, &t.DrawID, &t.Numbers,
			&priceNum, &t.Status, &t.MatchedNumbers, &prizeNum, &t.PrizeClaimed,
			&t.TxHash, &t.SenderAddress, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan ticket row: %w", err)
		}
		var convErr error
		t.Price, convErr = NumericToInt64(priceNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert ticket price: %w", convErr)
		}
		t.PrizeAmount, convErr = NumericToInt64(prizeNum)
		if convErr != nil {
			return nil, fmt.Errorf("convert prize amount: %w", convErr)
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}
