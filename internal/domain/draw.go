package domain

import (
	"time"

	"github.com/google/uuid"
)

// DrawStatus is the life-cycle state of a draw.
type DrawStatus string

const (
	DrawOpen        DrawStatus = "open"
	DrawLocked      DrawStatus = "locked"
	DrawDrawing     DrawStatus = "drawing"
	DrawCalculating DrawStatus = "calculating"
	DrawPaying      DrawStatus = "paying"
	DrawCompleted   DrawStatus = "completed"
	DrawCancelled   DrawStatus = "cancelled"
)

// drawTransitions is the legal transition table. Reverse transitions exist
// only from drawing/calculating back to locked, so a failed execution can
// be replayed by the operator.
var drawTransitions = map[DrawStatus][]DrawStatus{
	DrawOpen:        {DrawLocked, DrawCancelled},
	DrawLocked:      {DrawDrawing, DrawCancelled},
	DrawDrawing:     {DrawCalculating, DrawLocked},
	DrawCalculating: {DrawPaying, DrawLocked},
	DrawPaying:      {DrawCompleted},
	DrawCompleted:   {},
	DrawCancelled:   {},
}

// CanTransition reports whether from -> to is a legal draw transition.
func CanTransition(from, to DrawStatus) bool {
	for _, next := range drawTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s DrawStatus) Terminal() bool {
	return s == DrawCompleted || s == DrawCancelled
}

// SalesCloseLead is how long before draw time ticket sales close.
const SalesCloseLead = 30 * time.Minute

// Draw is one instance of a lottery drawing. DrawNumber is strictly
// monotonic within the lottery; gaps appear only through cancellation.
type Draw struct {
	ID         uuid.UUID  `json:"id"`
	LotteryID  uuid.UUID  `json:"lottery_id"`
	DrawNumber int64      `json:"draw_number"`
	Status     DrawStatus `json:"status"`
	Currency   Currency   `json:"currency"`

	SalesOpenAt  time.Time  `json:"sales_open_at"`
	SalesCloseAt time.Time  `json:"sales_close_at"`
	DrawTime     time.Time  `json:"draw_time"`
	LockedAt     *time.Time `json:"locked_at,omitempty"`
	DrawnAt      *time.Time `json:"drawn_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	// ServerSeedHash is committed at creation and never changes.
	// ServerSeed stays opaque to readers until the draw enters drawing.
	ServerSeedHash  string  `json:"server_seed_hash"`
	ServerSeed      *string `json:"server_seed,omitempty"`
	ClientSeed      *string `json:"client_seed,omitempty"`
	ClientSeedBlock *int64  `json:"client_seed_block,omitempty"`
	Nonce           int64   `json:"nonce"`

	WinningNumbers []int32 `json:"winning_numbers"`

	PrizePoolSnapshot   int64 `json:"prize_pool_snapshot"`
	JackpotPoolSnapshot int64 `json:"jackpot_pool_snapshot"`

	Winners5 int `json:"winners5"`
	Winners4 int `json:"winners4"`
	Winners3 int `json:"winners3"`
	Winners2 int `json:"winners2"`
	Winners1 int `json:"winners1"`

	JackpotAmount int64 `json:"jackpot_amount"` // per winner
	Match4Amount  int64 `json:"match4_amount"`
	Match3Amount  int64 `json:"match3_amount"`
	Match2Amount  int64 `json:"match2_amount"`
	Match1Amount  int64 `json:"match1_amount"`

	TotalTickets   int   `json:"total_tickets"`
	TotalCollected int64 `json:"total_collected"`
	TotalPaidOut   int64 `json:"total_paid_out"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptingPurchases reports whether a ticket may still be attached.
func (d *Draw) AcceptingPurchases(now time.Time) bool {
	return d.Status == DrawOpen && now.Before(d.SalesCloseAt)
}

// DrawResultUpdate carries the fields written when a draw advances to
// calculating: seeds, winning numbers and pool snapshots become visible
// simultaneously.
type DrawResultUpdate struct {
	ServerSeed          string
	ClientSeed          string
	ClientSeedBlock     int64
	WinningNumbers      []int32
	PrizePoolSnapshot   int64
	JackpotPoolSnapshot int64
}

// DrawPayoutUpdate carries the winner counts and per-tier amounts written
// after calculation.
type DrawPayoutUpdate struct {
	Counts        WinnerCounts
	JackpotAmount int64
	Match4Amount  int64
	Match3Amount  int64
	Match2Amount  int64
	Match1Amount  int64
	TotalPaidOut  int64
}
