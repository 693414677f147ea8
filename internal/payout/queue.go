// Package payout implements the on-chain payout queue: splitting large
// prizes, dispatching transfers through the platform wallet, retrying with
// backoff and reconciling in-doubt submissions after a restart.
package payout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/policy"
	"github.com/tonlotto/platform/internal/repository"
)

// Queue creates payout rows. Safe to call inside a larger transaction so
// queued payouts commit atomically with the ledger debit that funds them.
type Queue struct {
	payouts     repository.PayoutRepository
	outbox      repository.OutboxRepository
	limits      policy.PayoutLimits
	maxAttempts int
}

// NewQueue creates a payout queue.
func NewQueue(payouts repository.PayoutRepository, outbox repository.OutboxRepository, limits policy.PayoutLimits, maxAttempts int) *Queue {
	return &Queue{payouts: payouts, outbox: outbox, limits: limits, maxAttempts: maxAttempts}
}

// Enqueue creates pending payouts for a prize. An amount above the
// per-currency single cap is split into ceil(amount/cap) payouts whose sum
// equals the amount exactly; the division remainder is spread one minor
// unit at a time over the first payouts.
func (q *Queue) Enqueue(ctx context.Context, db repository.DBTX, params domain.QueuePayoutParams) ([]domain.Payout, error) {
	if err := domain.ValidatePositiveAmount(params.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateAddress(params.RecipientAddress); err != nil {
		return nil, err
	}

	maxSingle := q.limits.MaxSingle(params.Currency)
	parts := splitAmount(params.Amount, maxSingle)

	payouts := make([]domain.Payout, 0, len(parts))
	for i, part := range parts {
		p := domain.Payout{
			ID:               uuid.New(),
			UserID:           params.UserID,
			TicketID:         params.TicketID,
			DrawID:           params.DrawID,
			Amount:           part,
			Currency:         params.Currency,
			RecipientAddress: params.RecipientAddress,
			Status:           domain.PayoutPending,
			MaxAttempts:      q.maxAttempts,
		}
		if len(parts) > 1 {
			total := params.Amount
			idx := i + 1
			n := len(parts)
			p.TotalAmount = &total
			p.SplitIndex = &idx
			p.SplitTotal = &n
		}

		if err := q.payouts.Insert(ctx, db, &p); err != nil {
			return nil, fmt.Errorf("enqueue payout: %w", err)
		}
		if err := q.outbox.Insert(ctx, db, domain.NewPayoutEvent(&p, domain.EventPayoutQueued)); err != nil {
			return nil, fmt.Errorf("enqueue payout event: %w", err)
		}
		payouts = append(payouts, p)
	}
	return payouts, nil
}

// splitAmount partitions amount into the fewest parts not exceeding
// maxSingle. Parts differ by at most one minor unit and sum exactly.
func splitAmount(amount, maxSingle int64) []int64 {
	if maxSingle <= 0 || amount <= maxSingle {
		return []int64{amount}
	}

	n := amount / maxSingle
	if amount%maxSingle != 0 {
		n++
	}
	base := amount / n
	rem := amount - base*n

	parts := make([]int64, n)
	for i := range parts {
		parts[i] = base
		if int64(i) < rem {
			parts[i]++
		}
	}
	return parts
}
