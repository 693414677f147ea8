package repository

import (
	"math"
	"math/big"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt64ToNumeric_RoundTrip(t *testing.T) {
	values := []int64{0, 1, -1, 1_000_000_000, math.MaxInt64, math.MinInt64 + 1}
	for _, v := range values {
		got, err := NumericToInt64(Int64ToNumeric(v))
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
	}
}

func TestNumericToInt64_Null(t *testing.T) {
	_, err := NumericToInt64(pgtype.Numeric{})
	assert.Error(t, err)
}

func TestNumericToInt64_PositiveExponent(t *testing.T) {
	// 5 * 10^3 as pg sends trailing-zero values
	n := pgtype.Numeric{Int: big.NewInt(5), Exp: 3, Valid: true}
	got, err := NumericToInt64(n)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), got)
}

func TestNumericToInt64_FractionTruncates(t *testing.T) {
	// 1234.5 arrives as 12345 * 10^-1
	n := pgtype.Numeric{Int: big.NewInt(12345), Exp: -1, Valid: true}
	got, err := NumericToInt64(n)
	require.NoError(t, err)
	assert.Equal(t, int64(1234), got)
}

func TestNumericToInt64_Overflow(t *testing.T) {
	big20 := new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)
	n := pgtype.Numeric{Int: big20, Exp: 0, Valid: true}
	_, err := NumericToInt64(n)
	assert.Error(t, err)
}
