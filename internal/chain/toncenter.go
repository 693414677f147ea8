package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tonlotto/platform/internal/domain"
	"github.com/tonlotto/platform/internal/guard"
)

const seqnoPollInterval = 2 * time.Second

// TonCenterClient implements the Chain port against a toncenter-style
// HTTP/JSON API. Outbound transfers go through the wallet endpoint of the
// same gateway, which signs with the platform wallet key server-side.
type TonCenterClient struct {
	baseURL       string
	apiKey        string
	payoutAddress string
	client        *http.Client
	breaker       *guard.CircuitBreaker
	wallets       *WalletCache
	logger        *slog.Logger
}

// NewTonCenterClient creates a toncenter chain client.
func NewTonCenterClient(baseURL, apiKey, payoutAddress string, logger *slog.Logger) *TonCenterClient {
	c := &TonCenterClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		payoutAddress: payoutAddress,
		client:        &http.Client{Timeout: 10 * time.Second},
		breaker:       guard.NewCircuitBreaker(5, 30*time.Second),
		logger:        logger,
	}
	c.wallets = NewWalletCache(c.resolveJettonWallet)
	return c
}

type envelope struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
	Code   int             `json:"code"`
}

// call performs one GET against the gateway and decodes the toncenter
// response envelope into out. Transient failures trip the circuit breaker.
func (c *TonCenterClient) call(ctx context.Context, method string, params url.Values, out interface{}) error {
	if res := c.breaker.Check(method); !res.Allowed {
		return domain.ErrChainUnavailable(res.Reason, nil)
	}

	u := c.baseURL + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.breaker.RecordFailure(method)
		return domain.ErrChainUnavailable(method+" call failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.breaker.RecordFailure(method)
		return domain.ErrChainUnavailable(fmt.Sprintf("%s returned %d", method, resp.StatusCode), nil)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.breaker.RecordFailure(method)
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !env.OK {
		// a well-formed negative answer is not a gateway outage
		c.breaker.RecordSuccess(method)
		return fmt.Errorf("%s: %s", method, env.Error)
	}

	c.breaker.RecordSuccess(method)
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

func (c *TonCenterClient) FetchTransaction(ctx context.Context, txHash, expectedRecipient string, sender *string) (*TxInfo, error) {
	params := url.Values{}
	params.Set("address", expectedRecipient)
	params.Set("hash", txHash)
	params.Set("limit", "1")

	var txs []struct {
		Utime         int64 `json:"utime"`
		TransactionID struct {
			Hash string `json:"hash"`
			LT   string `json:"lt"`
		} `json:"transaction_id"`
		InMsg struct {
			Source      string `json:"source"`
			Destination string `json:"destination"`
			Value       string `json:"value"`
		} `json:"in_msg"`
	}
	if err := c.call(ctx, "getTransactions", params, &txs); err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, domain.ErrNotFound("transaction", txHash)
	}

	tx := txs[0]
	amount, err := strconv.ParseInt(tx.InMsg.Value, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse transaction value %q: %w", tx.InMsg.Value, err)
	}
	lt, _ := strconv.ParseUint(tx.TransactionID.LT, 10, 64)

	info := &TxInfo{
		Hash:      tx.TransactionID.Hash,
		Sender:    tx.InMsg.Source,
		Recipient: tx.InMsg.Destination,
		Amount:    amount,
		Timestamp: time.Unix(tx.Utime, 0).UTC(),
		LT:        lt,
		Confirmed: true,
	}
	if info.Recipient != expectedRecipient {
		return nil, domain.ErrValidation("transaction recipient mismatch")
	}
	if sender != nil && info.Sender != *sender {
		return nil, domain.ErrValidation("transaction sender mismatch")
	}
	return info, nil
}

// FindRecentTransfer scans the recipient's recent transactions for a
// transfer of exactly amount from the platform wallet.
func (c *TonCenterClient) FindRecentTransfer(ctx context.Context, recipient string, amount int64, since time.Time) (*TxInfo, error) {
	params := url.Values{}
	params.Set("address", recipient)
	params.Set("limit", "20")

	var txs []struct {
		Utime         int64 `json:"utime"`
		TransactionID struct {
			Hash string `json:"hash"`
			LT   string `json:"lt"`
		} `json:"transaction_id"`
		InMsg struct {
			Source      string `json:"source"`
			Destination string `json:"destination"`
			Value       string `json:"value"`
		} `json:"in_msg"`
	}
	if err := c.call(ctx, "getTransactions", params, &txs); err != nil {
		return nil, err
	}

	for _, tx := range txs {
		ts := time.Unix(tx.Utime, 0).UTC()
		if ts.Before(since) {
			continue
		}
		if tx.InMsg.Source != c.payoutAddress {
			continue
		}
		value, err := strconv.ParseInt(tx.InMsg.Value, 10, 64)
		if err != nil || value != amount {
			continue
		}
		lt, _ := strconv.ParseUint(tx.TransactionID.LT, 10, 64)
		return &TxInfo{
			Hash:      tx.TransactionID.Hash,
			Sender:    tx.InMsg.Source,
			Recipient: tx.InMsg.Destination,
			Amount:    value,
			Timestamp: ts,
			LT:        lt,
			Confirmed: true,
		}, nil
	}
	return nil, nil
}

func (c *TonCenterClient) GetBalance(ctx context.Context, address string) (int64, error) {
	params := url.Values{}
	params.Set("address", address)

	var raw string
	if err := c.call(ctx, "getAddressBalance", params, &raw); err != nil {
		return 0, err
	}
	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse balance %q: %w", raw, err)
	}
	return balance, nil
}

func (c *TonCenterClient) LatestBlock(ctx context.Context) (*Block, error) {
	var info struct {
		Last struct {
			Seqno    int64  `json:"seqno"`
			RootHash string `json:"root_hash"`
		} `json:"last"`
	}
	if err := c.call(ctx, "getMasterchainInfo", nil, &info); err != nil {
		return nil, err
	}
	return &Block{Hash: info.Last.RootHash, Number: info.Last.Seqno}, nil
}

func (c *TonCenterClient) SendTon(ctx context.Context, to string, amountNano int64, body string) (*SendResult, error) {
	return c.send(ctx, map[string]interface{}{
		"to":     to,
		"amount": amountNano,
		"body":   body,
	})
}

func (c *TonCenterClient) SendJetton(ctx context.Context, jettonMaster, to string, units, forwardTon int64, body string) (*SendResult, error) {
	jettonWallet, err := c.wallets.Get(ctx, jettonMaster, c.payoutAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve jetton wallet: %w", err)
	}
	return c.send(ctx, map[string]interface{}{
		"jetton_wallet": jettonWallet,
		"to":            to,
		"units":         units,
		"forward_ton":   forwardTon,
		"body":          body,
	})
}

// send submits a transfer through the wallet endpoint and blocks until the
// platform wallet's seqno advances past the pre-send value.
func (c *TonCenterClient) send(ctx context.Context, payload map[string]interface{}) (*SendResult, error) {
	before, err := c.walletSeqno(ctx)
	if err != nil {
		return nil, err
	}

	const method = "walletSend"
	if res := c.breaker.Check(method); !res.Allowed {
		return nil, domain.ErrChainUnavailable(res.Reason, nil)
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/wallet/send", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("create send request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.breaker.RecordFailure(method)
		return nil, domain.ErrChainUnavailable("wallet send failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.breaker.RecordFailure(method)
		return nil, domain.ErrChainUnavailable(fmt.Sprintf("wallet send returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		c.breaker.RecordSuccess(method)
		return nil, fmt.Errorf("wallet send rejected with %d", resp.StatusCode)
	}
	c.breaker.RecordSuccess(method)

	seqno, err := c.waitSeqnoAdvance(ctx, before)
	if err != nil {
		return nil, err
	}
	return &SendResult{OK: true, Seqno: seqno}, nil
}

func (c *TonCenterClient) walletSeqno(ctx context.Context) (uint32, error) {
	params := url.Values{}
	params.Set("address", c.payoutAddress)

	var info struct {
		Seqno uint32 `json:"seqno"`
	}
	if err := c.call(ctx, "getWalletInformation", params, &info); err != nil {
		return 0, err
	}
	return info.Seqno, nil
}

// waitSeqnoAdvance polls until the wallet seqno moves past before. The
// caller bounds the wait through ctx.
func (c *TonCenterClient) waitSeqnoAdvance(ctx context.Context, before uint32) (uint32, error) {
	ticker := time.NewTicker(seqnoPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, domain.ErrChainUnavailable("seqno did not advance before deadline", ctx.Err())
		case <-ticker.C:
			seqno, err := c.walletSeqno(ctx)
			if err != nil {
				c.logger.Warn("seqno poll failed", "error", err)
				continue
			}
			if seqno > before {
				return seqno, nil
			}
		}
	}
}

// resolveJettonWallet asks the gateway for the jetton wallet address owned
// by owner under the given jetton master.
func (c *TonCenterClient) resolveJettonWallet(ctx context.Context, master, owner string) (string, error) {
	params := url.Values{}
	params.Set("master", master)
	params.Set("owner", owner)

	var out struct {
		Address string `json:"address"`
	}
	if err := c.call(ctx, "getJettonWalletAddress", params, &out); err != nil {
		return "", err
	}
	if out.Address == "" {
		return "", domain.ErrNotFound("jetton wallet", owner)
	}
	return out.Address, nil
}
