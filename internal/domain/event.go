package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType enumerates all domain event types.
type EventType string

const (
	EventFundTransactionPosted EventType = "lotto.fund.transaction.posted"
	EventDrawStatusChanged     EventType = "lotto.draw.status.changed"
	EventDrawNumbersDrawn      EventType = "lotto.draw.numbers.drawn"
	EventTicketsPurchased      EventType = "lotto.ticket.purchased"
	EventPayoutQueued          EventType = "lotto.payout.queued"
	EventPayoutCompleted       EventType = "lotto.payout.completed"
	EventPayoutFailed          EventType = "lotto.payout.failed"
)

// AggregateType enumerates the aggregate root types for outbox events.
type AggregateType string

const (
	AggregateFund   AggregateType = "fund"
	AggregateDraw   AggregateType = "draw"
	AggregateTicket AggregateType = "ticket"
	AggregatePayout AggregateType = "payout"
)

// OutboxDraft is the payload written to the event_outbox table within the
// same transaction as the domain mutation it describes.
type OutboxDraft struct {
	EventID       uuid.UUID       `json:"eventId"`
	AggregateType AggregateType   `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     EventType       `json:"eventType"`
	PartitionKey  string          `json:"partitionKey"`
	Headers       json.RawMessage `json:"headers"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
}
