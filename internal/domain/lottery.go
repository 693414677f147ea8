package domain

import (
	"time"

	"github.com/google/uuid"
)

// Currency enumerates the payout currencies the platform supports.
type Currency string

const (
	CurrencyTON  Currency = "TON"
	CurrencyUSDT Currency = "USDT"
)

// MinorUnits returns the number of minor units in one whole token:
// nanotokens for TON, microunits for USDT.
func (c Currency) MinorUnits() int64 {
	if c == CurrencyUSDT {
		return 1_000_000
	}
	return 1_000_000_000
}

// DrawCadence determines how often a lottery draws.
type DrawCadence string

const (
	CadenceHourly DrawCadence = "hourly"
	CadenceDaily  DrawCadence = "daily"
	CadenceWeekly DrawCadence = "weekly"
)

// Lottery is the stable configuration of one lottery game.
// Mutated only by the admin flow and by jackpot rollover.
type Lottery struct {
	ID                 uuid.UUID   `json:"id"`
	Slug               string      `json:"slug"`
	Active             bool        `json:"active"`
	NumbersCount       int         `json:"numbers_count"` // picks per ticket
	NumbersMax         int         `json:"numbers_max"`   // pool size, picks are in [1, NumbersMax]
	TicketPriceNano    int64       `json:"ticket_price_nano"`
	BaseJackpot        int64       `json:"base_jackpot"`
	AccumulatedJackpot int64       `json:"accumulated_jackpot"`
	Currency           Currency    `json:"currency"`
	Cadence            DrawCadence `json:"cadence"`
	DrawHour           int         `json:"draw_hour"` // UTC hour for daily/weekly cadence
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// BasisPoints is the exact fixed-point share unit: 10 000 = 100%.
const BasisPoints = 10_000

// PayoutConfig holds the per-lottery revenue split in basis points.
// Immutable while a draw is in flight.
//
// Invariants: Platform+Prize = 10 000; Jackpot+Payout = 10 000 (within prize);
// Match4+Match3+Match2 = 10 000 (within payout); Reserve+Income = 10 000
// (within platform). Match1Fixed is an absolute minor-unit amount.
type PayoutConfig struct {
	LotteryID   uuid.UUID `json:"lottery_id"`
	PlatformBP  int32     `json:"platform_bp"`
	PrizeBP     int32     `json:"prize_bp"`
	JackpotBP   int32     `json:"jackpot_bp"`
	PayoutBP    int32     `json:"payout_bp"`
	Match4BP    int32     `json:"match4_bp"`
	Match3BP    int32     `json:"match3_bp"`
	Match2BP    int32     `json:"match2_bp"`
	Match1Fixed int64     `json:"match1_fixed"`
	ReserveBP   int32     `json:"reserve_bp"`
	IncomeBP    int32     `json:"income_bp"`
}

// Validate checks that every share pair sums to exactly one.
func (c PayoutConfig) Validate() error {
	if c.PlatformBP+c.PrizeBP != BasisPoints {
		return ErrValidation("platform and prize shares must sum to 1.0")
	}
	if c.JackpotBP+c.PayoutBP != BasisPoints {
		return ErrValidation("jackpot and payout shares must sum to 1.0")
	}
	if c.Match4BP+c.Match3BP+c.Match2BP != BasisPoints {
		return ErrValidation("match tier shares must sum to 1.0")
	}
	if c.ReserveBP+c.IncomeBP != BasisPoints {
		return ErrValidation("reserve and income shares must sum to 1.0")
	}
	if c.Match1Fixed < 0 {
		return ErrValidation("match1 fixed amount must not be negative")
	}
	return nil
}
