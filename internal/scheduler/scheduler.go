// Package scheduler drives the draw life-cycle on a timer: it locks draws
// whose sales window closed, executes and settles draws whose draw time
// arrived, and opens the successor draw for each lottery.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/draw"
	"github.com/tonlotto/platform/internal/repository"
	"github.com/tonlotto/platform/internal/settlement"
)

// Scheduler ticks the draw state machine forward.
type Scheduler struct {
	pool       *pgxpool.Pool
	draws      repository.DrawRepository
	tickets    repository.TicketRepository
	lotteries  repository.LotteryRepository
	drawSvc    *draw.Service
	settlement *settlement.Service
	interval   time.Duration
	batchSize  int
	logger     *slog.Logger

	// processMu guards against overlapping passes when one tick runs
	// longer than the interval.
	processMu sync.Mutex
}

// New creates a scheduler.
func New(
	pool *pgxpool.Pool,
	draws repository.DrawRepository,
	tickets repository.TicketRepository,
	lotteries repository.LotteryRepository,
	drawSvc *draw.Service,
	settlementSvc *settlement.Service,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Scheduler {
	return &Scheduler{
		pool:       pool,
		draws:      draws,
		tickets:    tickets,
		lotteries:  lotteries,
		drawSvc:    drawSvc,
		settlement: settlementSvc,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// Run ticks until the context is cancelled. The first pass runs immediately
// so restarts pick up overdue draws without waiting an interval.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval, "batch_size", s.batchSize)
	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling pass. A pass still in flight makes the tick a
// no-op rather than piling up.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.processMu.TryLock() {
		s.logger.Warn("previous scheduling pass still running, skipping tick")
		return
	}
	defer s.processMu.Unlock()

	if err := s.lockDueDraws(ctx); err != nil {
		s.logger.Error("lock pass failed", "error", err)
	}
	if err := s.executeDueDraws(ctx); err != nil {
		s.logger.Error("execute pass failed", "error", err)
	}
	if err := s.settleCalculatingDraws(ctx); err != nil {
		s.logger.Error("settle pass failed", "error", err)
	}
	if err := s.ensureOpenDraws(ctx); err != nil {
		s.logger.Error("open pass failed", "error", err)
	}
}

// lockDueDraws closes sales on open draws whose sales window has ended.
// A draw that sold no tickets is cancelled instead; there is nothing to
// draw for.
func (s *Scheduler) lockDueDraws(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := s.draws.ListByStatusDue(ctx, s.pool, domain.DrawOpen, now.Add(domain.SalesCloseLead), s.batchSize)
	if err != nil {
		return fmt.Errorf("list open draws: %w", err)
	}

	for i := range due {
		d := &due[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}

		sold, err := s.tickets.CountByDraw(ctx, s.pool, d.ID)
		if err != nil {
			s.logger.Error("ticket count failed", "draw_id", d.ID.String(), "error", err)
			continue
		}

		if sold == 0 {
			if err := s.drawSvc.CancelDraw(ctx, d.ID); err != nil {
				s.logger.Error("cancel draw failed", "draw_id", d.ID.String(), "error", err)
			}
			continue
		}
		if err := s.drawSvc.LockDraw(ctx, d.ID); err != nil {
			s.logger.Error("lock draw failed", "draw_id", d.ID.String(), "error", err)
		}
	}
	return nil
}

// executeDueDraws runs the drawing and settlement for locked draws whose
// draw time has arrived. A failed draw stays in (or reverts to) locked and
// the next tick retries it.
func (s *Scheduler) executeDueDraws(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := s.draws.ListByStatusDue(ctx, s.pool, domain.DrawLocked, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list locked draws: %w", err)
	}

	for i := range due {
		d := &due[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.ServerSeed == nil {
			s.logger.Error("draw has no server seed", "draw_id", d.ID.String())
			continue
		}

		executed, err := s.drawSvc.ExecuteDraw(ctx, d.ID, *d.ServerSeed)
		if err != nil {
			s.logger.Error("draw execution failed", "draw_id", d.ID.String(), "error", err)
			continue
		}

		if _, err := s.settlement.Settle(ctx, executed.ID); err != nil {
			s.logger.Error("draw settlement failed", "draw_id", d.ID.String(), "error", err)
			continue
		}
	}
	return nil
}

// settleCalculatingDraws retries settlement for draws stranded in
// calculating by an earlier settlement failure or a crash between the
// drawing commit and the settle call. Settle holds a row lock and skips
// draws that already moved on, so re-running it is safe.
func (s *Scheduler) settleCalculatingDraws(ctx context.Context) error {
	now := time.Now().UTC()
	due, err := s.draws.ListByStatusDue(ctx, s.pool, domain.DrawCalculating, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list calculating draws: %w", err)
	}

	for i := range due {
		d := &due[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if _, err := s.settlement.Settle(ctx, d.ID); err != nil {
			s.logger.Error("draw settlement retry failed", "draw_id", d.ID.String(), "error", err)
		}
	}
	return nil
}

// ensureOpenDraws opens the successor draw for every active lottery that
// has none. Creation is idempotent across ticks because a lottery with an
// open draw is skipped.
func (s *Scheduler) ensureOpenDraws(ctx context.Context) error {
	lotteries, err := s.lotteries.ListActive(ctx, s.pool)
	if err != nil {
		return fmt.Errorf("list active lotteries: %w", err)
	}

	now := time.Now().UTC()
	for i := range lotteries {
		lottery := &lotteries[i]
		if ctx.Err() != nil {
			return ctx.Err()
		}

		open, err := s.draws.FindOpenByLottery(ctx, s.pool, lottery.ID, now)
		if err != nil {
			s.logger.Error("open draw lookup failed", "lottery", lottery.Slug, "error", err)
			continue
		}
		if open != nil {
			continue
		}

		if err := s.createNextDraw(ctx, lottery, now); err != nil {
			s.logger.Error("create next draw failed", "lottery", lottery.Slug, "error", err)
		}
	}
	return nil
}

// createNextDraw opens a draw at the lottery's next cadence slot and claims
// any jackpot carried over from the predecessor.
func (s *Scheduler) createNextDraw(ctx context.Context, lottery *domain.Lottery, now time.Time) error {
	drawTime := NextDrawTime(lottery, now)

	d, err := s.drawSvc.CreateDraw(ctx, lottery, drawTime)
	if err != nil {
		return err
	}

	// The rollover already sits in the jackpot pool; taking it here only
	// resets the counter shown on the lottery and logs the carry.
	var carried int64
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		carried, err = s.lotteries.TakeAccumulatedJackpot(ctx, tx, lottery.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("take accumulated jackpot: %w", err)
	}
	if carried > 0 {
		s.logger.Info("jackpot carried over",
			"lottery", lottery.Slug, "draw_id", d.ID.String(), "amount", carried)
	}
	return nil
}

// NextDrawTime returns the first cadence slot far enough out to fit the
// sales window. Hourly lotteries draw on the hour; daily and weekly ones
// draw at the configured UTC hour, weekly on the same weekday as created.
func NextDrawTime(lottery *domain.Lottery, now time.Time) time.Time {
	earliest := now.Add(domain.SalesCloseLead)

	switch lottery.Cadence {
	case domain.CadenceHourly:
		slot := earliest.Truncate(time.Hour)
		for !slot.After(earliest) {
			slot = slot.Add(time.Hour)
		}
		return slot
	case domain.CadenceWeekly:
		slot := time.Date(now.Year(), now.Month(), now.Day(), lottery.DrawHour, 0, 0, 0, time.UTC)
		for !slot.After(earliest) || slot.Weekday() != lottery.CreatedAt.UTC().Weekday() {
			slot = slot.AddDate(0, 0, 1)
		}
		return slot
	default: // daily
		slot := time.Date(now.Year(), now.Month(), now.Day(), lottery.DrawHour, 0, 0, 0, time.UTC)
		for !slot.After(earliest) {
			slot = slot.AddDate(0, 0, 1)
		}
		return slot
	}
}
