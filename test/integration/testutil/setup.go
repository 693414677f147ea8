//go:build integration

package testutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/app"
	"github.com/tonlotto/platform/internal/infra"
)

const (
	TestDBHost = "localhost"
	TestDBPort = 5435
	TestDBUser = "tonlotto"
	TestDBPass = "tonlotto"
	TestDBName = "tonlotto_test"

	// Addresses the fake chain recognizes.
	TestDepositAddress = "EQDepositWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	TestPayoutAddress  = "EQPayoutWalletxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
	TestUSDTMaster     = "EQUsdtMasterxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx"
)

// TestEnv holds all resources for an integration test.
type TestEnv struct {
	Server *httptest.Server
	Pool   *pgxpool.Pool
	App    *app.App
	Chain  *FakeChain
	t      *testing.T
}

var (
	sharedPool *pgxpool.Pool
	poolOnce   sync.Once
	poolErr    error
)

func testDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, TestDBName)
}

func bootstrapDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		TestDBUser, TestDBPass, TestDBHost, TestDBPort, "tonlotto")
}

func ensureTestDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bPool, err := pgxpool.New(ctx, bootstrapDSN())
	if err != nil {
		return fmt.Errorf("connect bootstrap db: %w", err)
	}
	defer bPool.Close()

	var exists bool
	err = bPool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", TestDBName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check db exists: %w", err)
	}

	if !exists {
		_, err = bPool.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", TestDBName))
		if err != nil {
			return fmt.Errorf("create test db: %w", err)
		}
	}

	return nil
}

func getSharedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	poolOnce.Do(func() {
		if err := ensureTestDB(); err != nil {
			poolErr = err
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		poolCfg, err := pgxpool.ParseConfig(testDSN())
		if err != nil {
			poolErr = fmt.Errorf("parse pool config: %w", err)
			return
		}
		poolCfg.MaxConns = 10
		poolCfg.MinConns = 1

		sharedPool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			poolErr = fmt.Errorf("create pool: %w", err)
			return
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
		if err := infra.RunMigrations(testDSN(), logger); err != nil {
			poolErr = fmt.Errorf("run migrations: %w", err)
			sharedPool.Close()
			sharedPool = nil
			return
		}
	})

	if poolErr != nil {
		t.Fatalf("failed to initialize test pool: %v", poolErr)
	}
	return sharedPool
}

func testConfig() *infra.Config {
	return &infra.Config{
		APIPort:        3200,
		TonNetwork:     "testnet",
		DepositAddress: TestDepositAddress,
		PayoutAddress:  TestPayoutAddress,
		USDTMaster:     TestUSDTMaster,

		SchedulerInterval: time.Minute,
		SchedulerBatch:    20,

		PayoutMaxAttempts:      3,
		PayoutRetryDelay:       time.Minute,
		PayoutBatchSize:        10,
		PayoutDispatchInterval: 30 * time.Second,

		AllowInsecureDefaults: true,
	}
}

// NewTestEnv wires a full App against the test database with a fake chain
// and serves its router over httptest.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	pool := getSharedPool(t)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	fake := NewFakeChain()
	a := app.NewWithChain(pool, testConfig(), fake, logger)
	server := httptest.NewServer(a.NewRouter())

	env := &TestEnv{
		Server: server,
		Pool:   pool,
		App:    a,
		Chain:  fake,
		t:      t,
	}

	t.Cleanup(func() {
		server.Close()
		env.CleanAll()
	})

	// Clean before test to ensure isolation
	env.CleanAll()

	return env
}

// CleanAll truncates every domain table between tests.
func (e *TestEnv) CleanAll() {
	e.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := e.Pool.Exec(ctx, `
		TRUNCATE event_outbox, payout, ticket, fund_transaction,
			draw, lottery_fund, payout_config, lottery
		RESTART IDENTITY CASCADE`)
	if err != nil {
		e.t.Fatalf("CleanAll: %v", err)
	}
}
