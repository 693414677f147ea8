package draw

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/fair"
)

// ExecuteDraw runs the drawing itself: it verifies the committed server
// seed, obtains the client seed from the chain, generates the winning
// numbers and reveals everything atomically by advancing to calculating.
//
// The draw passes through drawing while the chain round-trip is in flight;
// any failure in that window reverts it to locked so the next scheduler
// tick can replay. A seed that fails its commitment check is an integrity
// violation and the draw is left in locked for the operator.
func (s *Service) ExecuteDraw(ctx context.Context, drawID uuid.UUID, serverSeed string) (*domain.Draw, error) {
	var d *domain.Draw
	var lottery *domain.Lottery

	// Enter drawing under the row lock. The commitment check runs before
	// the transition so a tampered seed never advances the state machine.
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		d, err = s.draws.LockForUpdate(ctx, tx, drawID)
		if err != nil {
			return err
		}
		if d == nil {
			return domain.ErrNotFound("draw", drawID.String())
		}
		if d.Status != domain.DrawLocked {
			return domain.ErrWrongState(fmt.Sprintf("draw %s is %s, expected locked", drawID, d.Status))
		}
		if err := fair.VerifyCommitment(serverSeed, d.ServerSeedHash); err != nil {
			return err
		}

		lottery, err = s.lotteries.FindByID(ctx, tx, d.LotteryID)
		if err != nil {
			return err
		}
		if lottery == nil {
			return domain.ErrNotFound("lottery", d.LotteryID.String())
		}

		return s.transitionLocked(ctx, tx, d, domain.DrawDrawing)
	})
	if err != nil {
		return nil, fmt.Errorf("execute draw: %w", err)
	}

	clientSeed, blockNumber, err := fair.ClientSeed(ctx, s.chain)
	if err != nil {
		s.revertAfterFailure(ctx, drawID, fmt.Sprintf("client seed: %v", err))
		return nil, fmt.Errorf("execute draw: %w", err)
	}

	numbers, err := fair.GenerateNumbers(serverSeed, clientSeed, d.Nonce, lottery.NumbersCount, lottery.NumbersMax)
	if err != nil {
		s.revertAfterFailure(ctx, drawID, fmt.Sprintf("generate numbers: %v", err))
		return nil, fmt.Errorf("execute draw: %w", err)
	}

	// Reveal: seeds, numbers and pool snapshots become visible together.
	err = pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		locked, err := s.draws.LockForUpdate(ctx, tx, drawID)
		if err != nil {
			return err
		}
		if locked == nil || locked.Status != domain.DrawDrawing {
			return domain.ErrWrongState(fmt.Sprintf("draw %s no longer drawing", drawID))
		}

		fund, err := s.funds.Find(ctx, tx, d.LotteryID, d.Currency)
		if err != nil {
			return err
		}
		var pools domain.Pools
		if fund != nil {
			pools = fund.Pools
		}

		res := domain.DrawResultUpdate{
			ServerSeed:          serverSeed,
			ClientSeed:          clientSeed,
			ClientSeedBlock:     blockNumber,
			WinningNumbers:      numbers,
			PrizePoolSnapshot:   pools.Prize,
			JackpotPoolSnapshot: pools.Jackpot,
		}
		if err := s.draws.SetResults(ctx, tx, drawID, res); err != nil {
			return err
		}
		if err := s.transitionLocked(ctx, tx, locked, domain.DrawCalculating); err != nil {
			return err
		}

		d = locked
		d.ServerSeed = &serverSeed
		d.ClientSeed = &clientSeed
		d.ClientSeedBlock = &blockNumber
		d.WinningNumbers = numbers
		d.PrizePoolSnapshot = pools.Prize
		d.JackpotPoolSnapshot = pools.Jackpot
		return s.outbox.Insert(ctx, tx, domain.NewNumbersDrawnEvent(d))
	})
	if err != nil {
		s.revertAfterFailure(ctx, drawID, fmt.Sprintf("reveal: %v", err))
		return nil, fmt.Errorf("execute draw: %w", err)
	}

	s.logger.Info("draw executed",
		"draw_id", drawID.String(), "numbers", numbers, "client_seed_block", blockNumber)
	return d, nil
}

// revertAfterFailure moves a failed execution back to locked. A failure of
// the revert itself is only logged; the draw stays in drawing and the
// operator resolves it.
func (s *Service) revertAfterFailure(ctx context.Context, drawID uuid.UUID, reason string) {
	if err := s.RevertToLocked(ctx, drawID, reason); err != nil {
		s.logger.Error("failed to revert draw", "draw_id", drawID.String(), "error", err)
	}
}
