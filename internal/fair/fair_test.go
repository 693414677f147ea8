package fair

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNumbers_KnownVectors(t *testing.T) {
	tests := []struct {
		name       string
		serverSeed string
		clientSeed string
		nonce      int64
		count      int
		max        int
		want       []int32
	}{
		{
			name:       "zeros and ones",
			serverSeed: strings.Repeat("0", 64),
			clientSeed: strings.Repeat("1", 64),
			nonce:      0,
			count:      5,
			max:        36,
			want:       []int32{7, 12, 14, 18, 27},
		},
		{
			name:       "nonce changes everything",
			serverSeed: strings.Repeat("0", 64),
			clientSeed: strings.Repeat("1", 64),
			nonce:      1,
			count:      5,
			max:        36,
			want:       []int32{4, 7, 19, 20, 32},
		},
		{
			name:       "small range",
			serverSeed: strings.Repeat("ab", 32),
			clientSeed: strings.Repeat("cd", 32),
			nonce:      7,
			count:      3,
			max:        5,
			want:       []int32{1, 3, 4},
		},
		{
			name:       "six of fortyfive",
			serverSeed: strings.Repeat("deadbeef", 8),
			clientSeed: strings.Repeat("cafebabe", 8),
			nonce:      42,
			count:      6,
			max:        45,
			want:       []int32{2, 3, 19, 26, 30, 34},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GenerateNumbers(tt.serverSeed, tt.clientSeed, tt.nonce, tt.count, tt.max)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateNumbers_Deterministic(t *testing.T) {
	a, err := GenerateNumbers("seed-a", "seed-b", 99, 5, 36)
	require.NoError(t, err)
	b, err := GenerateNumbers("seed-a", "seed-b", 99, 5, 36)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateNumbers_DistinctSortedInRange(t *testing.T) {
	got, err := GenerateNumbers("server", "client", 0, 10, 20)
	require.NoError(t, err)
	require.Len(t, got, 10)

	seen := make(map[int32]bool)
	for i, n := range got {
		assert.GreaterOrEqual(t, n, int32(1))
		assert.LessOrEqual(t, n, int32(20))
		assert.False(t, seen[n], "duplicate %d", n)
		seen[n] = true
		if i > 0 {
			assert.Greater(t, n, got[i-1])
		}
	}
}

func TestGenerateNumbers_FullRange(t *testing.T) {
	// count == max must terminate and yield every number exactly once
	got, err := GenerateNumbers("s", "c", 3, 36, 36)
	require.NoError(t, err)
	require.Len(t, got, 36)
	for i, n := range got {
		assert.Equal(t, int32(i+1), n)
	}
}

func TestGenerateNumbers_InvalidInputs(t *testing.T) {
	_, err := GenerateNumbers("s", "c", 0, 0, 36)
	assert.Error(t, err)

	_, err = GenerateNumbers("s", "c", 0, 6, 5)
	assert.Error(t, err)
}

func TestVerifyCommitment(t *testing.T) {
	seed, err := GenerateServerSeed()
	require.NoError(t, err)
	require.Len(t, seed, 64)

	hash := HashServerSeed(seed)
	assert.NoError(t, VerifyCommitment(seed, hash))
	assert.Error(t, VerifyCommitment(seed+"x", hash))
	assert.Error(t, VerifyCommitment(seed, HashServerSeed("other")))
}

func TestHashServerSeed_KnownValue(t *testing.T) {
	assert.Equal(t,
		"60e05bd1b195af2f94112fa7197a5c88289058840ce7c6df9693756bc6250f55",
		HashServerSeed(strings.Repeat("0", 64)))
}

func TestGenerateServerSeed_Unique(t *testing.T) {
	a, err := GenerateServerSeed()
	require.NoError(t, err)
	b, err := GenerateServerSeed()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyDraw(t *testing.T) {
	serverSeed := strings.Repeat("0", 64)
	clientSeed := strings.Repeat("1", 64)
	hash := HashServerSeed(serverSeed)
	winning := []int32{7, 12, 14, 18, 27}

	assert.NoError(t, VerifyDraw(serverSeed, hash, clientSeed, 0, winning, 36))

	// tampered winning numbers
	err := VerifyDraw(serverSeed, hash, clientSeed, 0, []int32{7, 12, 14, 18, 28}, 36)
	assert.Error(t, err)

	// wrong nonce reproduces a different draw
	err = VerifyDraw(serverSeed, hash, clientSeed, 1, winning, 36)
	assert.Error(t, err)

	// seed that does not match the commitment
	err = VerifyDraw(strings.Repeat("f", 64), hash, clientSeed, 0, winning, 36)
	assert.Error(t, err)
}
