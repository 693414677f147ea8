package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitAmount_BelowCap(t *testing.T) {
	assert.Equal(t, []int64{30}, splitAmount(30, 50))
	assert.Equal(t, []int64{50}, splitAmount(50, 50))
}

func TestSplitAmount_NoCapPassesThrough(t *testing.T) {
	assert.Equal(t, []int64{1_000_000}, splitAmount(1_000_000, 0))
}

func TestSplitAmount_EvenSplit(t *testing.T) {
	assert.Equal(t, []int64{50, 50}, splitAmount(100, 50))
}

func TestSplitAmount_RemainderSpreadsOverFirstParts(t *testing.T) {
	// 130 over cap 50 needs 3 parts: 44, 43, 43
	assert.Equal(t, []int64{44, 43, 43}, splitAmount(130, 50))
}

func TestSplitAmount_Properties(t *testing.T) {
	cases := []struct{ amount, cap int64 }{
		{101, 50},
		{999_999_999_999, 50_000_000_000},
		{7, 3},
		{51, 50},
	}
	for _, c := range cases {
		parts := splitAmount(c.amount, c.cap)

		var sum int64
		for _, p := range parts {
			sum += p
			assert.LessOrEqual(t, p, c.cap, "amount=%d cap=%d", c.amount, c.cap)
			assert.Positive(t, p)
		}
		assert.Equal(t, c.amount, sum, "amount=%d cap=%d", c.amount, c.cap)

		// parts differ by at most one minor unit
		min, max := parts[0], parts[0]
		for _, p := range parts {
			if p < min {
				min = p
			}
			if p > max {
				max = p
			}
		}
		assert.LessOrEqual(t, max-min, int64(1))
	}
}
