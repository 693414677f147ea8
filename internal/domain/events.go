package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NewFundTransactionPostedEvent creates the standard ledger event for a fund entry.
func NewFundTransactionPostedEvent(entry *FundTransaction) OutboxDraft {
	payload, _ := json.Marshal(entry)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateFund,
		AggregateID:   entry.LotteryID.String(),
		EventType:     EventFundTransactionPosted,
		PartitionKey:  entry.LotteryID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewDrawStatusEvent creates a draw life-cycle event.
func NewDrawStatusEvent(drawID uuid.UUID, from, to DrawStatus) OutboxDraft {
	payload, _ := json.Marshal(map[string]string{
		"draw_id": drawID.String(),
		"from":    string(from),
		"to":      string(to),
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateDraw,
		AggregateID:   drawID.String(),
		EventType:     EventDrawStatusChanged,
		PartitionKey:  drawID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewNumbersDrawnEvent publishes the revealed seeds and winning numbers.
// Emitted only when the draw advances to calculating, so seeds, numbers and
// winner counts become visible together.
func NewNumbersDrawnEvent(d *Draw) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"draw_id":          d.ID.String(),
		"draw_number":      d.DrawNumber,
		"server_seed":      d.ServerSeed,
		"server_seed_hash": d.ServerSeedHash,
		"client_seed":      d.ClientSeed,
		"nonce":            d.Nonce,
		"winning_numbers":  d.WinningNumbers,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateDraw,
		AggregateID:   d.ID.String(),
		EventType:     EventDrawNumbersDrawn,
		PartitionKey:  d.ID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewTicketsPurchasedEvent records a completed purchase.
func NewTicketsPurchasedEvent(userID, drawID uuid.UUID, ticketCount int, amount int64, txHash string) OutboxDraft {
	payload, _ := json.Marshal(map[string]interface{}{
		"user_id":      userID.String(),
		"draw_id":      drawID.String(),
		"ticket_count": ticketCount,
		"amount":       amount,
		"tx_hash":      txHash,
	})
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregateTicket,
		AggregateID:   drawID.String(),
		EventType:     EventTicketsPurchased,
		PartitionKey:  userID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}

// NewPayoutEvent creates a payout life-cycle event.
func NewPayoutEvent(p *Payout, evtType EventType) OutboxDraft {
	payload, _ := json.Marshal(p)
	return OutboxDraft{
		EventID:       uuid.New(),
		AggregateType: AggregatePayout,
		AggregateID:   p.ID.String(),
		EventType:     evtType,
		PartitionKey:  p.UserID.String(),
		Headers:       json.RawMessage(`{}`),
		Payload:       payload,
		OccurredAt:    time.Now(),
	}
}
