// Package app assembles the platform's dependency graph. Every binary
// builds the same App and picks the pieces it runs.
package app

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tonlotto/platform/internal/chain"
	"github.com/tonlotto/platform/internal/draw"
	"github.com/tonlotto/platform/internal/fund"
	"github.com/tonlotto/platform/internal/handler"
	"github.com/tonlotto/platform/internal/infra"
	"github.com/tonlotto/platform/internal/payout"
	"github.com/tonlotto/platform/internal/policy"
	"github.com/tonlotto/platform/internal/repository"
	"github.com/tonlotto/platform/internal/scheduler"
	"github.com/tonlotto/platform/internal/service"
	"github.com/tonlotto/platform/internal/settlement"
)

// App holds the fully wired dependency graph.
type App struct {
	Pool   *pgxpool.Pool
	Config *infra.Config
	Logger *slog.Logger

	Lotteries repository.LotteryRepository
	Funds     repository.FundRepository
	Draws     repository.DrawRepository
	Tickets   repository.TicketRepository
	Payouts   repository.PayoutRepository
	Outbox    repository.OutboxRepository

	Chain      chain.Chain
	Engine     *fund.Engine
	Queue      *payout.Queue
	DrawSvc    *draw.Service
	Settlement *settlement.Service
	TicketSvc  *service.TicketService
	Scheduler  *scheduler.Scheduler
	Dispatcher *payout.Dispatcher
}

// New wires the application from config.
func New(pool *pgxpool.Pool, cfg *infra.Config, logger *slog.Logger) *App {
	tonClient := chain.NewTonCenterClient(cfg.TonAPIURL(), cfg.TonAPIKey, cfg.PayoutAddress, logger)
	return NewWithChain(pool, cfg, tonClient, logger)
}

// NewWithChain wires the application with a caller-supplied chain port.
// Tests use this to swap the gateway client for a fake.
func NewWithChain(pool *pgxpool.Pool, cfg *infra.Config, ch chain.Chain, logger *slog.Logger) *App {
	lotteryRepo := repository.NewLotteryRepository()
	fundRepo := repository.NewFundRepository()
	drawRepo := repository.NewDrawRepository()
	ticketRepo := repository.NewTicketRepository()
	payoutRepo := repository.NewPayoutRepository()
	outboxRepo := repository.NewOutboxRepository()

	engine := fund.NewEngine(lotteryRepo, fundRepo, outboxRepo)
	limits := payoutLimits(cfg)
	queue := payout.NewQueue(payoutRepo, outboxRepo, limits, cfg.PayoutMaxAttempts)

	drawSvc := draw.NewService(pool, drawRepo, lotteryRepo, ticketRepo, fundRepo, outboxRepo, ch, logger)
	settlementSvc := settlement.NewService(pool, drawRepo, ticketRepo, lotteryRepo, engine, queue, drawSvc, logger)
	ticketSvc := service.NewTicketService(pool, lotteryRepo, drawRepo, ticketRepo, outboxRepo, engine, ch, cfg.DepositAddress, logger)

	sched := scheduler.New(pool, drawRepo, ticketRepo, lotteryRepo, drawSvc, settlementSvc, cfg.SchedulerInterval, cfg.SchedulerBatch, logger)
	dispatcher := payout.NewDispatcher(pool, payoutRepo, drawRepo, outboxRepo, drawSvc, ch, limits,
		cfg.PayoutRetryDelay, cfg.PayoutBatchSize, cfg.PayoutDispatchInterval, cfg.USDTMaster, cfg.PayoutAddress, logger)

	return &App{
		Pool:   pool,
		Config: cfg,
		Logger: logger,

		Lotteries: lotteryRepo,
		Funds:     fundRepo,
		Draws:     drawRepo,
		Tickets:   ticketRepo,
		Payouts:   payoutRepo,
		Outbox:    outboxRepo,

		Chain:      ch,
		Engine:     engine,
		Queue:      queue,
		DrawSvc:    drawSvc,
		Settlement: settlementSvc,
		TicketSvc:  ticketSvc,
		Scheduler:  sched,
		Dispatcher: dispatcher,
	}
}

// payoutLimits converts the whole-token config values to minor units.
func payoutLimits(cfg *infra.Config) policy.PayoutLimits {
	limits := policy.DefaultPayoutLimits()
	if cfg.PayoutMaxSingleTON > 0 {
		limits.MaxSingleTON = cfg.PayoutMaxSingleTON * 1_000_000_000
	}
	if cfg.PayoutMaxSingleUSDT > 0 {
		limits.MaxSingleUSDT = cfg.PayoutMaxSingleUSDT * 1_000_000
	}
	if cfg.PayoutMaxDailyTON > 0 {
		limits.MaxDailyTON = cfg.PayoutMaxDailyTON * 1_000_000_000
	}
	if cfg.PayoutMaxDailyUSDT > 0 {
		limits.MaxDailyUSDT = cfg.PayoutMaxDailyUSDT * 1_000_000
	}
	return limits
}

// NewRouter assembles the chi.Router with all routes and middleware.
func (a *App) NewRouter() chi.Router {
	lotteryHandler := handler.NewLotteryHandler(a.Pool, a.Lotteries, a.Draws)
	drawHandler := handler.NewDrawHandler(a.Pool, a.Draws, a.Lotteries)
	ticketHandler := handler.NewTicketHandler(a.Pool, a.TicketSvc, a.Tickets)
	payoutHandler := handler.NewPayoutHandler(a.Pool, a.Payouts)
	fundHandler := handler.NewFundHandler(a.Pool, a.Lotteries, a.Funds, a.Engine)

	r := chi.NewRouter()

	// Global middleware (order matters)
	r.Use(handler.Recovery(a.Logger))
	r.Use(handler.RequestID)
	r.Use(handler.RequestLogger(a.Logger))
	r.Use(handler.CORS)
	r.Use(handler.JSONContentType)

	r.Get("/health", handler.HealthHandler(a.Pool))

	r.Route("/lotteries", func(r chi.Router) {
		r.Get("/", lotteryHandler.ListLotteries)
		r.Get("/{slug}", lotteryHandler.GetLottery)
		r.Get("/{slug}/draws", drawHandler.ListDraws)
	})

	r.Route("/draws", func(r chi.Router) {
		r.Get("/{id}", drawHandler.GetDraw)
		r.Get("/{id}/verify", drawHandler.VerifyDraw)
	})

	r.Route("/tickets", func(r chi.Router) {
		r.Post("/", ticketHandler.BuyTickets)
		r.Get("/", ticketHandler.MyTickets)
	})

	r.Route("/payouts", func(r chi.Router) {
		r.Get("/", payoutHandler.ListPayouts)
		r.Get("/{id}", payoutHandler.GetPayout)
	})

	// Operator endpoints; exposed on the internal network only.
	r.Route("/admin", func(r chi.Router) {
		r.Route("/funds/{slug}/{currency}", func(r chi.Router) {
			r.Get("/", fundHandler.GetFund)
			r.Get("/replay", fundHandler.ReplayFund)
		})
	})

	return r
}
