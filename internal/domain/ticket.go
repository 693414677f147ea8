package domain

import (
	"time"

	"github.com/google/uuid"
)

// TicketStatus is the post-draw result state of a ticket.
type TicketStatus string

const (
	TicketActive    TicketStatus = "active"
	TicketWon       TicketStatus = "won"
	TicketLost      TicketStatus = "lost"
	TicketCancelled TicketStatus = "cancelled"
)

// Ticket is an immutable purchase record with post-draw result fields.
// Numbers are stored sorted ascending and distinct. TxHash is the on-chain
// deposit hash, unique across all tickets; for multi-ticket purchases it is
// stored on the first ticket only so the uniqueness constraint holds.
type Ticket struct {
	ID             uuid.UUID    `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	LotteryID      uuid.UUID    `json:"lottery_id"`
	DrawID         uuid.UUID    `json:"draw_id"`
	Numbers        []int32      `json:"numbers"`
	Price          int64        `json:"price"`
	Status         TicketStatus `json:"status"`
	MatchedNumbers int          `json:"matched_numbers"`
	PrizeAmount    int64        `json:"prize_amount"`
	PrizeClaimed   bool         `json:"prize_claimed"`
	TxHash         *string      `json:"tx_hash,omitempty"`
	// SenderAddress is the wallet the deposit came from; prizes are paid
	// back to it.
	SenderAddress string    `json:"sender_address"`
	CreatedAt     time.Time `json:"created_at"`
}

// MatchCount returns how many of the ticket's numbers appear in winning.
// Both slices are sorted ascending, so a single merge pass suffices.
func (t *Ticket) MatchCount(winning []int32) int {
	matches := 0
	i, j := 0, 0
	for i < len(t.Numbers) && j < len(winning) {
		switch {
		case t.Numbers[i] == winning[j]:
			matches++
			i++
			j++
		case t.Numbers[i] < winning[j]:
			i++
		default:
			j++
		}
	}
	return matches
}

// BulkDiscountThreshold is the ticket count from which the purchase price
// is reduced to 95% (exact integer arithmetic, x95/100).
const BulkDiscountThreshold = 5

// ExpectedPurchaseAmount returns the exact deposit expected for a purchase
// of ticketCount tickets at priceNano each.
func ExpectedPurchaseAmount(priceNano int64, ticketCount int) int64 {
	total := priceNano * int64(ticketCount)
	if ticketCount >= BulkDiscountThreshold {
		total = total * 95 / 100
	}
	return total
}
