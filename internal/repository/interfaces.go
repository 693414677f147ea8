package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tonlotto/platform/internal/domain"
)

// DBTX abstracts pgx.Tx and pgxpool.Pool so repositories work with both.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// LotteryRepository provides access to lotteries and their payout configs.
type LotteryRepository interface {
	// FindBySlug returns an active lottery by its slug.
	FindBySlug(ctx context.Context, db DBTX, slug string) (*domain.Lottery, error)

	// FindByID returns a lottery by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Lottery, error)

	// ListActive returns all active lotteries.
	ListActive(ctx context.Context, db DBTX) ([]domain.Lottery, error)

	// GetPayoutConfig returns the share configuration for a lottery.
	GetPayoutConfig(ctx context.Context, db DBTX, lotteryID uuid.UUID) (*domain.PayoutConfig, error)

	// AddAccumulatedJackpot increments the rollover carried to the next draw.
	AddAccumulatedJackpot(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, delta int64) error

	// TakeAccumulatedJackpot resets the rollover to zero and returns the
	// previous value, so the successor draw can absorb it exactly once.
	TakeAccumulatedJackpot(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID) (int64, error)
}

// FundRepository provides access to the lottery_fund ledger rows and the
// append-only fund_transaction log.
type FundRepository interface {
	// Find returns the fund for a (lottery, currency) pair.
	Find(ctx context.Context, db DBTX, lotteryID uuid.UUID, currency domain.Currency) (*domain.Fund, error)

	// LockForUpdate acquires a row-level lock (SELECT FOR UPDATE) on the fund.
	LockForUpdate(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency) (*domain.Fund, error)

	// Create inserts a zeroed fund row.
	Create(ctx context.Context, db DBTX, fund *domain.Fund) error

	// UpdatePools atomically applies deltas using server-side arithmetic.
	UpdatePools(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, currency domain.Currency, delta domain.PoolUpdate) (*domain.Fund, error)

	// InsertTransaction appends a ledger entry with the post-move snapshot.
	InsertTransaction(ctx context.Context, db DBTX, params domain.PostFundEntryParams, snapshot domain.Pools) (*domain.FundTransaction, error)

	// ListTransactions returns ledger entries oldest-first for replay.
	ListTransactions(ctx context.Context, db DBTX, lotteryID uuid.UUID, currency domain.Currency, limit int) ([]domain.FundTransaction, error)
}

// DrawRepository provides access to draws.
type DrawRepository interface {
	// FindByID returns a draw by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Draw, error)

	// LockForUpdate acquires a row-level lock on the draw. Per-draw state
	// transitions always read the status under this lock.
	LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Draw, error)

	// FindOpenByLottery returns the single open draw still accepting sales.
	FindOpenByLottery(ctx context.Context, db DBTX, lotteryID uuid.UUID, now time.Time) (*domain.Draw, error)

	// Create inserts a new draw.
	Create(ctx context.Context, db DBTX, draw *domain.Draw) error

	// NextDrawNumber returns max(draw_number)+1 for the lottery.
	NextDrawNumber(ctx context.Context, db DBTX, lotteryID uuid.UUID) (int64, error)

	// UpdateStatus moves the draw to the given status, stamping the
	// matching timestamp column (locked_at, drawn_at, completed_at).
	UpdateStatus(ctx context.Context, tx pgx.Tx, id uuid.UUID, to domain.DrawStatus) error

	// SetResults reveals seeds, winning numbers and pool snapshots.
	SetResults(ctx context.Context, tx pgx.Tx, id uuid.UUID, res domain.DrawResultUpdate) error

	// SetPayouts records winner counts and per-tier amounts.
	SetPayouts(ctx context.Context, tx pgx.Tx, id uuid.UUID, pay domain.DrawPayoutUpdate) error

	// IncrementSales bumps total_tickets and total_collected inside the
	// purchase transaction.
	IncrementSales(ctx context.Context, tx pgx.Tx, id uuid.UUID, tickets int, collected int64) error

	// ListByStatusDue returns draws in the given status whose draw_time is
	// at or before the cutoff, oldest first, capped at limit.
	ListByStatusDue(ctx context.Context, db DBTX, status domain.DrawStatus, cutoff time.Time, limit int) ([]domain.Draw, error)

	// ListRecentByLottery returns a lottery's draws, newest first.
	ListRecentByLottery(ctx context.Context, db DBTX, lotteryID uuid.UUID, limit int) ([]domain.Draw, error)
}

// TicketRepository provides access to tickets.
type TicketRepository interface {
	// InsertBatch inserts all tickets of one purchase.
	InsertBatch(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error

	// ListByDraw returns every ticket of a draw.
	ListByDraw(ctx context.Context, db DBTX, drawID uuid.UUID) ([]domain.Ticket, error)

	// CountByDraw returns the number of tickets attached to a draw.
	CountByDraw(ctx context.Context, db DBTX, drawID uuid.UUID) (int, error)

	// TxHashExists reports whether a deposit hash is already claimed.
	TxHashExists(ctx context.Context, db DBTX, txHash string) (bool, error)

	// UpdateResult writes matched count, prize and status for one ticket.
	// Only tickets still in status active are touched, which makes repeated
	// settlement runs idempotent.
	UpdateResult(ctx context.Context, tx pgx.Tx, ticketID uuid.UUID, matched int, prize int64, status domain.TicketStatus) (bool, error)

	// ListByUser returns a user's tickets, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Ticket, error)
}

// PayoutRepository provides access to payouts.
type PayoutRepository interface {
	// Insert creates a payout row.
	Insert(ctx context.Context, db DBTX, p *domain.Payout) error

	// FindByID returns a payout by ID.
	FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Payout, error)

	// FetchDue returns pending payouts ready for dispatch: attempts below
	// max, next_attempt_at at or before now, FIFO by created_at.
	FetchDue(ctx context.Context, db DBTX, now time.Time, limit int) ([]domain.Payout, error)

	// MarkProcessing flips pending -> processing and increments attempts.
	// Returns false when the row was no longer pending (lost race).
	MarkProcessing(ctx context.Context, db DBTX, id uuid.UUID) (bool, error)

	// MarkCompleted records a successful on-chain submission.
	MarkCompleted(ctx context.Context, db DBTX, id uuid.UUID, txHash string) error

	// MarkFailed records a terminal failure.
	MarkFailed(ctx context.Context, db DBTX, id uuid.UUID, lastError string) error

	// ReturnToPending puts a failed attempt back in the queue with a
	// backoff deadline.
	ReturnToPending(ctx context.Context, db DBTX, id uuid.UUID, lastError string, nextAttemptAt time.Time) error

	// DailyCompletedSum returns completed payout volume for the currency
	// since the start of the current UTC day.
	DailyCompletedSum(ctx context.Context, db DBTX, currency domain.Currency) (int64, error)

	// ListInDoubt returns processing payouts older than the cutoff; these
	// are in-doubt after a crash and must be reconciled against the chain.
	ListInDoubt(ctx context.Context, db DBTX, cutoff time.Time) ([]domain.Payout, error)

	// SumByDraw returns the completed payout volume for a draw.
	SumByDraw(ctx context.Context, db DBTX, drawID uuid.UUID) (int64, error)

	// ListByUser returns a user's payouts, newest first.
	ListByUser(ctx context.Context, db DBTX, userID uuid.UUID, limit int) ([]domain.Payout, error)
}

// OutboxRepository provides access to the event_outbox table.
type OutboxRepository interface {
	// Insert writes an outbox event (within the same transaction as the mutation).
	Insert(ctx context.Context, db DBTX, draft domain.OutboxDraft) error

	// FetchUnpublished returns unpublished events for the outbox poller.
	FetchUnpublished(ctx context.Context, db DBTX, limit int) ([]OutboxRow, error)

	// MarkPublished flags events as published.
	MarkPublished(ctx context.Context, db DBTX, ids []int64) error
}

// OutboxRow is an outbox event with its sequence id.
type OutboxRow struct {
	SeqID int64
	domain.OutboxDraft
}
