package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tonlotto/platform/internal/domain"
)

func TestNextDrawTime_Hourly(t *testing.T) {
	lottery := &domain.Lottery{Cadence: domain.CadenceHourly}

	// 10:00 draw is only 20 minutes out, too close to fit the sales window
	now := time.Date(2026, 8, 25, 9, 40, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC),
		NextDrawTime(lottery, now))

	// 25 minutes past the hour leaves 35 minutes, enough
	now = time.Date(2026, 8, 25, 9, 25, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		NextDrawTime(lottery, now))
}

func TestNextDrawTime_Daily(t *testing.T) {
	lottery := &domain.Lottery{Cadence: domain.CadenceDaily, DrawHour: 20}

	// morning: today's slot
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, 8, 25, 20, 0, 0, 0, time.UTC),
		NextDrawTime(lottery, now))

	// 19:45 leaves only 15 minutes of sales, roll to tomorrow
	now = time.Date(2026, 8, 25, 19, 45, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, 8, 26, 20, 0, 0, 0, time.UTC),
		NextDrawTime(lottery, now))

	// after the slot entirely
	now = time.Date(2026, 8, 25, 22, 0, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, 8, 26, 20, 0, 0, 0, time.UTC),
		NextDrawTime(lottery, now))
}

func TestNextDrawTime_Weekly(t *testing.T) {
	// created on a Friday
	created := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)
	lottery := &domain.Lottery{Cadence: domain.CadenceWeekly, DrawHour: 18, CreatedAt: created}

	// Tuesday: next Friday slot
	now := time.Date(2026, 8, 25, 9, 0, 0, 0, time.UTC)
	got := NextDrawTime(lottery, now)
	assert.Equal(t, time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.Friday, got.Weekday())

	// Friday 17:50, too close: skip a full week
	now = time.Date(2026, 8, 28, 17, 50, 0, 0, time.UTC)
	assert.Equal(t,
		time.Date(2026, 9, 4, 18, 0, 0, 0, time.UTC),
		NextDrawTime(lottery, now))
}

func TestNextDrawTime_AlwaysFitsSalesWindow(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	lotteries := []*domain.Lottery{
		{Cadence: domain.CadenceHourly, CreatedAt: created},
		{Cadence: domain.CadenceDaily, DrawHour: 0, CreatedAt: created},
		{Cadence: domain.CadenceDaily, DrawHour: 23, CreatedAt: created},
		{Cadence: domain.CadenceWeekly, DrawHour: 12, CreatedAt: created},
	}

	now := time.Date(2026, 8, 25, 13, 37, 42, 0, time.UTC)
	for _, l := range lotteries {
		next := NextDrawTime(l, now)
		assert.True(t, next.After(now.Add(domain.SalesCloseLead)),
			"cadence %s: %s too close to %s", l.Cadence, next, now)
	}
}
