package chain

import (
	"context"
	"time"
)

// TxInfo describes a confirmed on-chain transfer.
type TxInfo struct {
	Hash      string
	Sender    string
	Recipient string
	// Amount in nanotokens for TON, token minor units for jettons.
	Amount    int64
	Timestamp time.Time
	LT        uint64
	Confirmed bool
}

// SendResult is the outcome of an outbound wallet submission. Seqno is the
// wallet's transaction counter after the send was accepted.
type SendResult struct {
	OK    bool
	Seqno uint32
}

// Block identifies a masterchain block.
type Block struct {
	Hash   string
	Number int64
}

// Chain is the port the core consumes for all blockchain interaction.
// Implementations must be safe for concurrent use.
type Chain interface {
	// FetchTransaction looks up a deposit by hash and verifies it was sent
	// to expectedRecipient. When sender is non-nil the transfer must also
	// originate from that address.
	FetchTransaction(ctx context.Context, txHash, expectedRecipient string, sender *string) (*TxInfo, error)

	// SendTon submits a TON transfer and blocks until the wallet seqno
	// advances or the context deadline passes.
	SendTon(ctx context.Context, to string, amountNano int64, body string) (*SendResult, error)

	// SendJetton submits a jetton transfer through the platform wallet's
	// jetton wallet, forwarding forwardTon nanotokens for gas.
	SendJetton(ctx context.Context, jettonMaster, to string, units, forwardTon int64, body string) (*SendResult, error)

	// FindRecentTransfer looks for a transfer of exactly amount from the
	// platform wallet to recipient at or after since. Used to reconcile
	// in-doubt submissions after a restart. Returns nil when none found.
	FindRecentTransfer(ctx context.Context, recipient string, amount int64, since time.Time) (*TxInfo, error)

	// GetBalance returns the address balance in nanotokens.
	GetBalance(ctx context.Context, address string) (int64, error)

	// LatestBlock returns the most recent masterchain block.
	LatestBlock(ctx context.Context) (*Block, error)
}
