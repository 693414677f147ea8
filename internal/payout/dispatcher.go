package payout

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/chain"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/draw"
	"github.com/tonlotto/platform/internal/policy"
	"github.com/tonlotto/platform/internal/repository"
)

const (
	// sendTimeout bounds one wallet submission including the seqno wait.
	sendTimeout = 30 * time.Second

	// inDoubtGrace is how long a processing payout may sit before restart
	// recovery treats it as in-doubt.
	inDoubtGrace = 5 * time.Minute

	// jettonForwardTon is the gas forwarded with a jetton transfer.
	jettonForwardTon = 50_000_000
)

// Dispatcher drains the payout queue onto the chain.
type Dispatcher struct {
	pool       *pgxpool.Pool
	payouts    repository.PayoutRepository
	draws      repository.DrawRepository
	outbox     repository.OutboxRepository
	drawSvc    *draw.Service
	chain      chain.Chain
	limits     policy.PayoutLimits
	retryDelay time.Duration
	batchSize  int
	interval   time.Duration
	usdtMaster string
	walletAddr string
	logger     *slog.Logger
}

// NewDispatcher creates a payout dispatcher.
func NewDispatcher(
	pool *pgxpool.Pool,
	payouts repository.PayoutRepository,
	draws repository.DrawRepository,
	outbox repository.OutboxRepository,
	drawSvc *draw.Service,
	ch chain.Chain,
	limits policy.PayoutLimits,
	retryDelay time.Duration,
	batchSize int,
	interval time.Duration,
	usdtMaster string,
	walletAddr string,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		pool:       pool,
		payouts:    payouts,
		draws:      draws,
		outbox:     outbox,
		drawSvc:    drawSvc,
		chain:      ch,
		limits:     limits,
		retryDelay: retryDelay,
		batchSize:  batchSize,
		interval:   interval,
		usdtMaster: usdtMaster,
		walletAddr: walletAddr,
		logger:     logger,
	}
}

// Run recovers in-doubt payouts and then dispatches on a timer until the
// context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	if err := d.RecoverInDoubt(ctx); err != nil {
		d.logger.Error("in-doubt recovery failed", "error", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("payout dispatcher started", "interval", d.interval, "batch_size", d.batchSize)
	for {
		select {
		case <-ctx.Done():
			d.logger.Info("payout dispatcher stopped")
			return
		case <-ticker.C:
			if err := d.DispatchBatch(ctx); err != nil {
				d.logger.Error("dispatch batch failed", "error", err)
			}
		}
	}
}

// DispatchBatch processes one batch of due payouts in FIFO order.
func (d *Dispatcher) DispatchBatch(ctx context.Context) error {
	due, err := d.payouts.FetchDue(ctx, d.pool, time.Now().UTC(), d.batchSize)
	if err != nil {
		return fmt.Errorf("fetch due payouts: %w", err)
	}

	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.dispatchOne(ctx, &due[i])
	}
	return nil
}

// dispatchOne handles a single payout end to end. Errors are recorded on
// the payout row, not returned, so one bad payout never stalls the batch.
func (d *Dispatcher) dispatchOne(ctx context.Context, p *domain.Payout) {
	today, err := d.payouts.DailyCompletedSum(ctx, d.pool, p.Currency)
	if err != nil {
		d.logger.Error("daily sum query failed", "payout_id", p.ID.String(), "error", err)
		return
	}
	if eval := policy.EvaluateDailyLimit(d.limits, p.Currency, p.Amount, today); !eval.Allowed {
		// leave pending, the limit resets at midnight UTC
		d.logger.Warn("payout deferred by daily limit",
			"payout_id", p.ID.String(), "limit", eval.BreachedLimit, "requested", eval.RequestedAmt)
		return
	}

	claimed, err := d.payouts.MarkProcessing(ctx, d.pool, p.ID)
	if err != nil {
		d.logger.Error("mark processing failed", "payout_id", p.ID.String(), "error", err)
		return
	}
	if !claimed {
		// another dispatcher got there first
		return
	}
	attempts := p.Attempts + 1

	txRef, err := d.submit(ctx, p)
	if err != nil {
		d.recordFailure(ctx, p, attempts, err)
		return
	}

	if err := d.payouts.MarkCompleted(ctx, d.pool, p.ID, txRef); err != nil {
		d.logger.Error("mark completed failed", "payout_id", p.ID.String(), "error", err)
		return
	}
	p.Status = domain.PayoutCompleted
	p.TxHash = &txRef
	if err := d.outbox.Insert(ctx, d.pool, domain.NewPayoutEvent(p, domain.EventPayoutCompleted)); err != nil {
		d.logger.Error("payout event insert failed", "payout_id", p.ID.String(), "error", err)
	}

	d.logger.Info("payout completed",
		"payout_id", p.ID.String(), "amount", p.Amount, "currency", p.Currency, "tx", txRef)

	d.maybeCompleteDraw(ctx, p)
}

// submit pushes the transfer through the platform wallet and returns a
// submission reference once the seqno advances. An advisory transaction
// lock on the wallet address serialises submissions across all dispatcher
// replicas; two concurrent sends from the same seqno would cancel each
// other out on chain.
func (d *Dispatcher) submit(ctx context.Context, p *domain.Payout) (string, error) {
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	var res *chain.SendResult
	err := pgx.BeginTxFunc(sendCtx, d.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(sendCtx, `SELECT pg_advisory_xact_lock($1)`, walletLockKey(d.walletAddr)); err != nil {
			return fmt.Errorf("acquire wallet lock: %w", err)
		}

		var sendErr error
		switch p.Currency {
		case domain.CurrencyUSDT:
			res, sendErr = d.chain.SendJetton(sendCtx, d.usdtMaster, p.RecipientAddress, p.Amount, jettonForwardTon, payoutComment(p))
		default:
			res, sendErr = d.chain.SendTon(sendCtx, p.RecipientAddress, p.Amount, payoutComment(p))
		}
		return sendErr
	})
	if err != nil {
		return "", err
	}
	if !res.OK {
		return "", fmt.Errorf("wallet rejected transfer")
	}
	return fmt.Sprintf("seqno:%d", res.Seqno), nil
}

// walletLockKey derives a stable int64 advisory lock key from a wallet
// address. The MSB is masked off so the key stays positive.
func walletLockKey(addr string) int64 {
	h := sha256.Sum256([]byte(addr))
	return int64(binary.BigEndian.Uint64(h[:8]) &^ (1 << 63))
}

// recordFailure returns the payout to pending with backoff, or marks it
// failed once the attempt budget is spent.
func (d *Dispatcher) recordFailure(ctx context.Context, p *domain.Payout, attempts int, cause error) {
	lastError := cause.Error()

	if attempts >= p.MaxAttempts {
		if err := d.payouts.MarkFailed(ctx, d.pool, p.ID, lastError); err != nil {
			d.logger.Error("mark failed failed", "payout_id", p.ID.String(), "error", err)
			return
		}
		p.Status = domain.PayoutFailed
		p.LastError = &lastError
		if err := d.outbox.Insert(ctx, d.pool, domain.NewPayoutEvent(p, domain.EventPayoutFailed)); err != nil {
			d.logger.Error("payout event insert failed", "payout_id", p.ID.String(), "error", err)
		}
		d.logger.Error("payout failed permanently",
			"payout_id", p.ID.String(), "attempts", attempts, "error", lastError)
		return
	}

	// exponential backoff: delay doubles with each attempt
	delay := d.retryDelay << (attempts - 1)
	next := time.Now().UTC().Add(delay)
	if err := d.payouts.ReturnToPending(ctx, d.pool, p.ID, lastError, next); err != nil {
		d.logger.Error("return to pending failed", "payout_id", p.ID.String(), "error", err)
		return
	}
	d.logger.Warn("payout attempt failed, will retry",
		"payout_id", p.ID.String(), "attempts", attempts, "next_attempt", next, "error", lastError)
}

// maybeCompleteDraw finishes the draw once its queue has fully drained.
func (d *Dispatcher) maybeCompleteDraw(ctx context.Context, p *domain.Payout) {
	if p.DrawID == nil {
		return
	}

	dr, err := d.draws.FindByID(ctx, d.pool, *p.DrawID)
	if err != nil || dr == nil || dr.Status != domain.DrawPaying {
		return
	}
	paid, err := d.payouts.SumByDraw(ctx, d.pool, *p.DrawID)
	if err != nil {
		d.logger.Error("sum by draw failed", "draw_id", p.DrawID.String(), "error", err)
		return
	}
	if paid < dr.TotalPaidOut {
		return
	}

	if err := d.drawSvc.CompleteDraw(ctx, *p.DrawID); err != nil {
		d.logger.Error("complete draw failed", "draw_id", p.DrawID.String(), "error", err)
	}
}

// RecoverInDoubt reconciles payouts stuck in processing after a crash. A
// matching on-chain transfer promotes the payout to completed; otherwise it
// goes back to pending for a fresh attempt.
func (d *Dispatcher) RecoverInDoubt(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-inDoubtGrace)
	inDoubt, err := d.payouts.ListInDoubt(ctx, d.pool, cutoff)
	if err != nil {
		return fmt.Errorf("list in-doubt payouts: %w", err)
	}

	for i := range inDoubt {
		p := &inDoubt[i]
		since := cutoff.Add(-inDoubtGrace)
		if p.ProcessedAt != nil {
			since = p.ProcessedAt.Add(-time.Minute)
		}

		tx, err := d.chain.FindRecentTransfer(ctx, p.RecipientAddress, p.Amount, since)
		if err != nil {
			d.logger.Error("in-doubt chain lookup failed", "payout_id", p.ID.String(), "error", err)
			continue
		}

		if tx != nil {
			if err := d.payouts.MarkCompleted(ctx, d.pool, p.ID, tx.Hash); err != nil {
				d.logger.Error("in-doubt mark completed failed", "payout_id", p.ID.String(), "error", err)
				continue
			}
			p.Status = domain.PayoutCompleted
			p.TxHash = &tx.Hash
			if err := d.outbox.Insert(ctx, d.pool, domain.NewPayoutEvent(p, domain.EventPayoutCompleted)); err != nil {
				d.logger.Error("payout event insert failed", "payout_id", p.ID.String(), "error", err)
			}
			d.logger.Info("in-doubt payout reconciled as completed",
				"payout_id", p.ID.String(), "tx", tx.Hash)
			d.maybeCompleteDraw(ctx, p)
			continue
		}

		if err := d.payouts.ReturnToPending(ctx, d.pool, p.ID, "in-doubt after restart", time.Now().UTC()); err != nil {
			d.logger.Error("in-doubt return to pending failed", "payout_id", p.ID.String(), "error", err)
			continue
		}
		d.logger.Warn("in-doubt payout returned to pending", "payout_id", p.ID.String())
	}
	return nil
}

func payoutComment(p *domain.Payout) string {
	if p.SplitIndex != nil && p.SplitTotal != nil {
		return fmt.Sprintf("lottery prize %d/%d", *p.SplitIndex, *p.SplitTotal)
	}
	return "lottery prize"
}
