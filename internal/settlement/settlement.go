// Package settlement matches tickets against the winning numbers and turns
// the result into ledger movements and queued payouts. The whole run is one
// database transaction: either every ticket result, fund debit and payout
// row commits, or none do. Re-running after a partial failure is safe
// because settled tickets are skipped.
package settlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/draw"
	"github.com/tonlotto/platform/internal/fund"
	"github.com/tonlotto/platform/internal/payout"
	"github.com/tonlotto/platform/internal/repository"
)

// Service orchestrates draw settlement.
type Service struct {
	pool      *pgxpool.Pool
	draws     repository.DrawRepository
	tickets   repository.TicketRepository
	lotteries repository.LotteryRepository
	engine    *fund.Engine
	queue     *payout.Queue
	drawSvc   *draw.Service
	logger    *slog.Logger
}

// NewService creates a settlement service.
func NewService(
	pool *pgxpool.Pool,
	draws repository.DrawRepository,
	tickets repository.TicketRepository,
	lotteries repository.LotteryRepository,
	engine *fund.Engine,
	queue *payout.Queue,
	drawSvc *draw.Service,
	logger *slog.Logger,
) *Service {
	return &Service{
		pool:      pool,
		draws:     draws,
		tickets:   tickets,
		lotteries: lotteries,
		engine:    engine,
		queue:     queue,
		drawSvc:   drawSvc,
		logger:    logger,
	}
}

// Result summarizes a settlement run.
type Result struct {
	Counts         domain.WinnerCounts
	Calc           domain.PayoutCalculation
	TicketsSettled int
	PayoutsQueued  int
}

// Settle computes winners and payouts for a draw in calculating state and
// advances it to paying (or straight to completed when nothing is owed).
func (s *Service) Settle(ctx context.Context, drawID uuid.UUID) (*Result, error) {
	var result *Result
	err := fund.RunInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		result, err = s.settleInTx(ctx, tx, drawID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("settle draw %s: %w", drawID, err)
	}

	s.logger.Info("draw settled",
		"draw_id", drawID.String(),
		"winners5", result.Counts.Match5, "winners4", result.Counts.Match4,
		"winners3", result.Counts.Match3, "winners2", result.Counts.Match2,
		"winners1", result.Counts.Match1,
		"total_payout", result.Calc.TotalPayout,
		"payouts_queued", result.PayoutsQueued)
	return result, nil
}

func (s *Service) settleInTx(ctx context.Context, tx pgx.Tx, drawID uuid.UUID) (*Result, error) {
	d, err := s.draws.LockForUpdate(ctx, tx, drawID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNotFound("draw", drawID.String())
	}
	if d.Status != domain.DrawCalculating {
		return nil, domain.ErrWrongState(fmt.Sprintf("draw %s is %s, expected calculating", drawID, d.Status))
	}
	if len(d.WinningNumbers) == 0 {
		return nil, domain.ErrIntegrity(fmt.Sprintf("draw %s in calculating without winning numbers", drawID))
	}

	cfg, err := s.lotteries.GetPayoutConfig(ctx, tx, d.LotteryID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound("payout config", d.LotteryID.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lockedFund, err := s.engine.LockFundForUpdate(ctx, tx, d.LotteryID, d.Currency)
	if err != nil {
		return nil, err
	}
	pools := lockedFund.Pools

	tickets, err := s.tickets.ListByDraw(ctx, tx, d.ID)
	if err != nil {
		return nil, err
	}

	counts := countWinners(tickets, d.WinningNumbers)
	calc, err := fund.ComputePayouts(pools, cfg, counts)
	if err != nil {
		return nil, err
	}

	result := &Result{Counts: counts, Calc: *calc}
	drawRef := d.ID

	for i := range tickets {
		t := &tickets[i]
		matched := t.MatchCount(d.WinningNumbers)
		prize := perWinner(calc, matched)

		status := domain.TicketLost
		if prize > 0 {
			status = domain.TicketWon
		}

		settled, err := s.tickets.UpdateResult(ctx, tx, t.ID, matched, prize, status)
		if err != nil {
			return nil, err
		}
		if !settled {
			// already settled by an earlier partial run
			continue
		}
		result.TicketsSettled++

		if prize == 0 {
			continue
		}

		ref := t.ID.String()
		if _, _, err := s.engine.ProcessPayout(ctx, tx, fund.PayoutParams{
			LotteryID:  d.LotteryID,
			Currency:   d.Currency,
			DrawID:     &drawRef,
			Amount:     prize,
			MatchCount: matched,
			Reference:  ref,
		}); err != nil {
			return nil, err
		}

		ticketRef := t.ID
		queued, err := s.queue.Enqueue(ctx, tx, domain.QueuePayoutParams{
			UserID:           t.UserID,
			TicketID:         &ticketRef,
			DrawID:           &drawRef,
			Amount:           prize,
			Currency:         d.Currency,
			RecipientAddress: t.SenderAddress,
		})
		if err != nil {
			return nil, err
		}
		result.PayoutsQueued += len(queued)
	}

	if calc.ToReserve > 0 {
		if _, err := s.engine.TransferToReserve(ctx, tx, d.LotteryID, d.Currency, &drawRef, calc.ToReserve, "zero-winner tier allocations"); err != nil {
			return nil, err
		}
	}

	if calc.ToJackpot > 0 {
		if _, err := s.engine.RolloverJackpot(ctx, tx, d.LotteryID, d.Currency, &drawRef, calc.ToJackpot); err != nil {
			return nil, err
		}
		if err := s.lotteries.AddAccumulatedJackpot(ctx, tx, d.LotteryID, calc.ToJackpot); err != nil {
			return nil, err
		}
	}

	if err := s.absorbResidues(ctx, tx, d, pools, calc, counts); err != nil {
		return nil, err
	}

	if err := s.draws.SetPayouts(ctx, tx, d.ID, domain.DrawPayoutUpdate{
		Counts:        counts,
		JackpotAmount: calc.JackpotPerWinner,
		Match4Amount:  calc.Match4PerWinner,
		Match3Amount:  calc.Match3PerWinner,
		Match2Amount:  calc.Match2PerWinner,
		Match1Amount:  calc.Match1PerWinner,
		TotalPaidOut:  calc.TotalPayout,
	}); err != nil {
		return nil, err
	}

	if err := s.drawSvc.Transition(ctx, tx, d, domain.DrawPaying); err != nil {
		return nil, err
	}
	if calc.TotalPayout == 0 {
		// nothing to dispatch, the queue is trivially drained
		if err := s.drawSvc.Transition(ctx, tx, d, domain.DrawCompleted); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// absorbResidues moves the per-tier division remainders to the platform
// pool: the jackpot residue from the jackpot pool, the winner-tier residues
// from the payout pool.
func (s *Service) absorbResidues(ctx context.Context, tx pgx.Tx, d *domain.Draw, pools domain.Pools, calc *domain.PayoutCalculation, counts domain.WinnerCounts) error {
	var jackpotResidue int64
	if counts.Match5 > 0 {
		jackpotResidue = pools.Jackpot - calc.JackpotPerWinner*int64(counts.Match5)
	}
	payoutResidue := calc.ResidueToPlatform - jackpotResidue

	drawRef := d.ID
	if jackpotResidue > 0 {
		if _, err := s.engine.AbsorbResidue(ctx, tx, d.LotteryID, d.Currency, &drawRef, domain.PoolJackpot, jackpotResidue); err != nil {
			return err
		}
	}
	if payoutResidue > 0 {
		if _, err := s.engine.AbsorbResidue(ctx, tx, d.LotteryID, d.Currency, &drawRef, domain.PoolPayout, payoutResidue); err != nil {
			return err
		}
	}
	return nil
}

// countWinners tallies tickets by exact match count.
func countWinners(tickets []domain.Ticket, winning []int32) domain.WinnerCounts {
	var counts domain.WinnerCounts
	for i := range tickets {
		switch tickets[i].MatchCount(winning) {
		case 5:
			counts.Match5++
		case 4:
			counts.Match4++
		case 3:
			counts.Match3++
		case 2:
			counts.Match2++
		case 1:
			counts.Match1++
		}
	}
	return counts
}

// perWinner returns the prize owed to a ticket with the given match count.
func perWinner(calc *domain.PayoutCalculation, matched int) int64 {
	switch matched {
	case 5:
		return calc.JackpotPerWinner
	case 4:
		return calc.Match4PerWinner
	case 3:
		return calc.Match3PerWinner
	case 2:
		return calc.Match2PerWinner
	case 1:
		return calc.Match1PerWinner
	default:
		return 0
	}
}
