package chain

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// WalletCache memoizes jetton wallet address resolution. Jetton wallet
// addresses are deterministic per (master, owner) pair, so entries never go
// stale; the LRU bound only caps memory.
type WalletCache struct {
	cache   *lru.Cache[string, string]
	resolve func(ctx context.Context, master, owner string) (string, error)
}

// NewWalletCache creates a wallet cache around the given resolver.
func NewWalletCache(resolve func(ctx context.Context, master, owner string) (string, error)) *WalletCache {
	cache, _ := lru.New[string, string](512)
	return &WalletCache{cache: cache, resolve: resolve}
}

// Get returns the jetton wallet address for (master, owner), resolving and
// caching on miss. Concurrent misses may resolve twice; both writes store
// the same deterministic address.
func (w *WalletCache) Get(ctx context.Context, master, owner string) (string, error) {
	key := master + "|" + owner
	if addr, ok := w.cache.Get(key); ok {
		return addr, nil
	}

	addr, err := w.resolve(ctx, master, owner)
	if err != nil {
		return "", fmt.Errorf("resolve jetton wallet for %s: %w", owner, err)
	}
	w.cache.Add(key, addr)
	return addr, nil
}
