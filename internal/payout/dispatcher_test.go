package payout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalletLockKey_Deterministic(t *testing.T) {
	addr := "EQPayoutWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	assert.Equal(t, walletLockKey(addr), walletLockKey(addr))
}

func TestWalletLockKey_PositiveAndDistinct(t *testing.T) {
	addrs := []string{
		"EQPayoutWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		"EQOtherWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx",
		"0:0000000000000000000000000000000000000000000000000000000000000001",
	}
	seen := make(map[int64]string)
	for _, addr := range addrs {
		key := walletLockKey(addr)
		assert.GreaterOrEqual(t, key, int64(0), "key for %s", addr)
		if prev, ok := seen[key]; ok {
			t.Fatalf("key collision between %s and %s", prev, addr)
		}
		seen[key] = addr
	}
}
