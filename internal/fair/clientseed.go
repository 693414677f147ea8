package fair

import (
	"context"
	"time"

	"github.com/tonlotto/platform/internal/chain"
	"github.com/tonlotto/platform/internal/domain"
)

const (
	clientSeedAttempts = 3
	clientSeedBackoff  = 2 * time.Second
)

// ClientSeed obtains the client seed from the latest chain block. The block
// hash is public and outside the operator's control, which is what makes
// the committed server seed verifiable.
//
// Transient chain errors are retried; after the budget is exhausted the
// caller must leave the draw where it is and try again later.
func ClientSeed(ctx context.Context, c chain.Chain) (seed string, blockNumber int64, err error) {
	var block *chain.Block
	for attempt := 0; attempt < clientSeedAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", 0, ctx.Err()
			case <-time.After(clientSeedBackoff):
			}
		}

		block, err = c.LatestBlock(ctx)
		if err == nil {
			return block.Hash, block.Number, nil
		}
	}
	return "", 0, domain.ErrChainUnavailable("client seed unavailable", err)
}
