package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchCount(t *testing.T) {
	winning := []int32{7, 12, 14, 18, 27}

	tests := []struct {
		name    string
		numbers []int32
		want    int
	}{
		{"full match", []int32{7, 12, 14, 18, 27}, 5},
		{"four of five", []int32{7, 12, 14, 18, 30}, 4},
		{"disjoint", []int32{1, 2, 3, 4, 5}, 0},
		{"partial overlap", []int32{5, 7, 20, 27, 33}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &Ticket{Numbers: tt.numbers}
			assert.Equal(t, tt.want, ticket.MatchCount(winning))
		})
	}
}

func TestMatchCount_EmptyInputs(t *testing.T) {
	ticket := &Ticket{Numbers: []int32{1, 2, 3}}
	assert.Equal(t, 0, ticket.MatchCount(nil))

	empty := &Ticket{}
	assert.Equal(t, 0, empty.MatchCount([]int32{1, 2, 3}))
}

func TestExpectedPurchaseAmount(t *testing.T) {
	price := int64(1_000_000_000)

	assert.Equal(t, int64(1_000_000_000), ExpectedPurchaseAmount(price, 1))
	assert.Equal(t, int64(4_000_000_000), ExpectedPurchaseAmount(price, 4))

	// discount kicks in at the threshold
	assert.Equal(t, int64(4_750_000_000), ExpectedPurchaseAmount(price, 5))
	assert.Equal(t, int64(9_500_000_000), ExpectedPurchaseAmount(price, 10))
}

func TestExpectedPurchaseAmount_ExactIntegerDiscount(t *testing.T) {
	// odd price: 7 tickets at 333 = 2331, x95/100 = 2214 (truncated)
	assert.Equal(t, int64(2214), ExpectedPurchaseAmount(333, 7))
}
