// Package draw implements the draw life-cycle state machine. Every
// transition runs as one transaction holding a row lock on the draw, which
// makes the per-draw state history strictly linear even with several
// workers running.
package draw

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/chain"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/fair"
	"github.com/tonlotto/platform/internal/repository"
)

// Service exposes the draw state machine operations.
type Service struct {
	pool      *pgxpool.Pool
	draws     repository.DrawRepository
	lotteries repository.LotteryRepository
	tickets   repository.TicketRepository
	funds     repository.FundRepository
	outbox    repository.OutboxRepository
	chain     chain.Chain
	logger    *slog.Logger
}

// NewService creates a draw service.
func NewService(
	pool *pgxpool.Pool,
	draws repository.DrawRepository,
	lotteries repository.LotteryRepository,
	tickets repository.TicketRepository,
	funds repository.FundRepository,
	outbox repository.OutboxRepository,
	ch chain.Chain,
	logger *slog.Logger,
) *Service {
	return &Service{
		pool:      pool,
		draws:     draws,
		lotteries: lotteries,
		tickets:   tickets,
		funds:     funds,
		outbox:    outbox,
		chain:     ch,
		logger:    logger,
	}
}

// CreateDraw opens a new draw for the lottery. The server seed is generated
// and committed here; the hash is public immediately, the seed itself stays
// hidden until the draw executes. Sales open at once and close thirty
// minutes before draw time.
func (s *Service) CreateDraw(ctx context.Context, lottery *domain.Lottery, drawTime time.Time) (*domain.Draw, error) {
	now := time.Now().UTC()
	if !drawTime.After(now.Add(domain.SalesCloseLead)) {
		return nil, domain.ErrValidation("draw time must leave room for the sales window")
	}

	seed, err := fair.GenerateServerSeed()
	if err != nil {
		return nil, err
	}

	var d *domain.Draw
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		number, err := s.draws.NextDrawNumber(ctx, tx, lottery.ID)
		if err != nil {
			return err
		}

		d = &domain.Draw{
			ID:             uuid.New(),
			LotteryID:      lottery.ID,
			DrawNumber:     number,
			Status:         domain.DrawOpen,
			Currency:       lottery.Currency,
			SalesOpenAt:    now,
			SalesCloseAt:   drawTime.Add(-domain.SalesCloseLead),
			DrawTime:       drawTime,
			ServerSeedHash: fair.HashServerSeed(seed),
			ServerSeed:     &seed,
			Nonce:          number,
			WinningNumbers: []int32{},
		}
		if err := s.draws.Create(ctx, tx, d); err != nil {
			return err
		}
		return s.outbox.Insert(ctx, tx, domain.NewDrawStatusEvent(d.ID, "", domain.DrawOpen))
	})
	if err != nil {
		return nil, fmt.Errorf("create draw: %w", err)
	}

	s.logger.Info("draw created",
		"draw_id", d.ID.String(), "lottery_id", lottery.ID.String(),
		"draw_number", d.DrawNumber, "draw_time", drawTime)
	return d, nil
}

// LockDraw closes sales for a draw.
func (s *Service) LockDraw(ctx context.Context, drawID uuid.UUID) error {
	return s.transition(ctx, drawID, domain.DrawLocked)
}

// CancelDraw aborts a draw that has not executed yet.
func (s *Service) CancelDraw(ctx context.Context, drawID uuid.UUID) error {
	return s.transition(ctx, drawID, domain.DrawCancelled)
}

// Transition applies a guarded state change to a draw the caller already
// holds the row lock on, as part of a larger transaction. Settlement uses
// this to advance calculating -> paying atomically with its ledger writes.
func (s *Service) Transition(ctx context.Context, tx pgx.Tx, d *domain.Draw, to domain.DrawStatus) error {
	return s.transitionLocked(ctx, tx, d, to)
}

// CompleteDraw finishes a draw whose payout queue has drained.
func (s *Service) CompleteDraw(ctx context.Context, drawID uuid.UUID) error {
	return s.transition(ctx, drawID, domain.DrawCompleted)
}

// RevertToLocked rolls an execution or calculation failure back to locked
// so the operator or the next scheduler tick can replay it.
func (s *Service) RevertToLocked(ctx context.Context, drawID uuid.UUID, reason string) error {
	s.logger.Warn("reverting draw to locked", "draw_id", drawID.String(), "reason", reason)
	return s.transition(ctx, drawID, domain.DrawLocked)
}

// IsAcceptingPurchases reports whether tickets may still be attached.
func (s *Service) IsAcceptingPurchases(ctx context.Context, drawID uuid.UUID) (bool, error) {
	d, err := s.draws.FindByID(ctx, s.pool, drawID)
	if err != nil {
		return false, err
	}
	if d == nil {
		return false, domain.ErrNotFound("draw", drawID.String())
	}
	return d.AcceptingPurchases(time.Now().UTC()), nil
}

// transition runs a single guarded state change in its own transaction.
func (s *Service) transition(ctx context.Context, drawID uuid.UUID, to domain.DrawStatus) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		d, err := s.draws.LockForUpdate(ctx, tx, drawID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound("draw", drawID.String())
		}
		return s.transitionLocked(ctx, tx, d, to)
	})
}

// transitionLocked applies a state change to an already-locked draw.
func (s *Service) transitionLocked(ctx context.Context, tx pgx.Tx, d *domain.Draw, to domain.DrawStatus) error {
	if !domain.CanTransition(d.Status, to) {
		return domain.ErrWrongState(fmt.Sprintf("draw %s cannot move %s -> %s", d.ID, d.Status, to))
	}
	if err := s.draws.UpdateStatus(ctx, tx, d.ID, to); err != nil {
		return err
	}
	if err := s.outbox.Insert(ctx, tx, domain.NewDrawStatusEvent(d.ID, d.Status, to)); err != nil {
		return err
	}
	from := d.Status
	d.Status = to
	s.logger.Info("draw transition", "draw_id", d.ID.String(), "from", from, "to", to)
	return nil
}
