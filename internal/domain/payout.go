package domain

import (
	"time"

	"github.com/google/uuid"
)

// PayoutStatus is the dispatch state of a payout.
type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

// Payout is a claim of funds owed to a user, dispatched on chain by the
// payout dispatcher. Large prizes are split into several payouts; the split
// descriptors record the original amount and the payout's position in it.
type Payout struct {
	ID               uuid.UUID    `json:"id"`
	UserID           uuid.UUID    `json:"user_id"`
	TicketID         *uuid.UUID   `json:"ticket_id,omitempty"`
	DrawID           *uuid.UUID   `json:"draw_id,omitempty"`
	Amount           int64        `json:"amount"`
	Currency         Currency     `json:"currency"`
	RecipientAddress string       `json:"recipient_address"`
	Status           PayoutStatus `json:"status"`
	Attempts         int          `json:"attempts"`
	MaxAttempts      int          `json:"max_attempts"`
	LastError        *string      `json:"last_error,omitempty"`
	NextAttemptAt    *time.Time   `json:"next_attempt_at,omitempty"`
	ProcessedAt      *time.Time   `json:"processed_at,omitempty"`
	CompletedAt      *time.Time   `json:"completed_at,omitempty"`
	TxHash           *string      `json:"tx_hash,omitempty"`

	TotalAmount *int64 `json:"total_amount,omitempty"`
	SplitIndex  *int   `json:"split_index,omitempty"`
	SplitTotal  *int   `json:"split_total,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueuePayoutParams is the input to the payout queue.
type QueuePayoutParams struct {
	UserID           uuid.UUID
	TicketID         *uuid.UUID
	DrawID           *uuid.UUID
	Amount           int64
	Currency         Currency
	RecipientAddress string
}
