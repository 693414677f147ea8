//go:build integration

package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tonlotto/platform/internal/chain"
	"github.com/tonlotto/platform/internal/domain"
)

// FakeChain is an in-memory chain.Chain for integration tests. Deposits are
// registered up front with AddDeposit; outbound sends always succeed and are
// recorded for inspection.
type FakeChain struct {
	mu       sync.Mutex
	deposits map[string]*chain.TxInfo
	sends    []FakeSend
	seqno    uint32
	block    int64

	// SendErr, when set, makes SendTon and SendJetton fail with it.
	SendErr error
}

// FakeSend records one outbound transfer submitted through the fake.
type FakeSend struct {
	To           string
	Amount       int64
	Body         string
	JettonMaster string
}

func NewFakeChain() *FakeChain {
	return &FakeChain{
		deposits: make(map[string]*chain.TxInfo),
		seqno:    100,
		block:    42_000_000,
	}
}

// AddDeposit registers a confirmed inbound transfer retrievable by hash.
func (f *FakeChain) AddDeposit(txHash, sender, recipient string, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deposits[txHash] = &chain.TxInfo{
		Hash:      txHash,
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Timestamp: time.Now().UTC(),
		LT:        uint64(len(f.deposits) + 1),
		Confirmed: true,
	}
}

// Sends returns a copy of all outbound transfers submitted so far.
func (f *FakeChain) Sends() []FakeSend {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeSend, len(f.sends))
	copy(out, f.sends)
	return out
}

func (f *FakeChain) FetchTransaction(ctx context.Context, txHash, expectedRecipient string, sender *string) (*chain.TxInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	tx, ok := f.deposits[txHash]
	if !ok {
		return nil, domain.ErrNotFound("transaction", txHash)
	}
	if tx.Recipient != expectedRecipient {
		return nil, domain.ErrValidation(fmt.Sprintf("transaction %s paid to %s", txHash, tx.Recipient))
	}
	if sender != nil && tx.Sender != *sender {
		return nil, domain.ErrValidation(fmt.Sprintf("transaction %s sent by %s", txHash, tx.Sender))
	}
	return tx, nil
}

func (f *FakeChain) SendTon(ctx context.Context, to string, amountNano int64, body string) (*chain.SendResult, error) {
	return f.record(FakeSend{To: to, Amount: amountNano, Body: body})
}

func (f *FakeChain) SendJetton(ctx context.Context, jettonMaster, to string, units, forwardTon int64, body string) (*chain.SendResult, error) {
	return f.record(FakeSend{To: to, Amount: units, Body: body, JettonMaster: jettonMaster})
}

func (f *FakeChain) record(s FakeSend) (*chain.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return nil, f.SendErr
	}
	f.sends = append(f.sends, s)
	f.seqno++
	return &chain.SendResult{OK: true, Seqno: f.seqno}, nil
}

func (f *FakeChain) FindRecentTransfer(ctx context.Context, recipient string, amount int64, since time.Time) (*chain.TxInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sends {
		if s.To == recipient && s.Amount == amount {
			return &chain.TxInfo{
				Hash:      fmt.Sprintf("fake-%s-%d", recipient, amount),
				Recipient: recipient,
				Amount:    amount,
				Timestamp: time.Now().UTC(),
				Confirmed: true,
			}, nil
		}
	}
	return nil, nil
}

func (f *FakeChain) GetBalance(ctx context.Context, address string) (int64, error) {
	return 1_000_000_000_000, nil
}

// LatestBlock returns a fixed block so tests can predict the client seed.
func (f *FakeChain) LatestBlock(ctx context.Context) (*chain.Block, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &chain.Block{
		Hash:   fmt.Sprintf("block-%d", f.block),
		Number: f.block,
	}, nil
}

// BlockHash is the hash LatestBlock reports, the client seed draws will use.
func (f *FakeChain) BlockHash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fmt.Sprintf("block-%d", f.block)
}
