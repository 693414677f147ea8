package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/tonlotto/platform/internal/domain"
)

type lotteryRepo struct{}

// NewLotteryRepository returns a pgx-backed LotteryRepository.
func NewLotteryRepository() LotteryRepository {
	return &lotteryRepo{}
}

const lotteryColumns = `id, slug, active, numbers_count, numbers_max, ticket_price_nano,
       base_jackpot, accumulated_jackpot, currency, cadence, draw_hour, created_at, updated_at`

func (r *lotteryRepo) FindBySlug(ctx context.Context, db DBTX, slug string) (*domain.Lottery, error) {
	row := db.QueryRow(ctx, `
		SELECT `+lotteryColumns+`
		FROM lottery WHERE slug = $1 AND active`, slug)
	return scanLottery(row)
}

func (r *lotteryRepo) FindByID(ctx context.Context, db DBTX, id uuid.UUID) (*domain.Lottery, error) {
	row := db.QueryRow(ctx, `
		SELECT `+lotteryColumns+`
		FROM lottery WHERE id = $1`, id)
	return scanLottery(row)
}

func (r *lotteryRepo) ListActive(ctx context.Context, db DBTX) ([]domain.Lottery, error) {
	rows, err := db.Query(ctx, `
		SELECT `+lotteryColumns+`
		FROM lottery WHERE active ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("query lotteries: %w", err)
	}
	defer rows.Close()

	var lotteries []domain.Lottery
	for rows.Next() {
		l, err := scanLotteryRow(rows)
		if err != nil {
			return nil, err
		}
		lotteries = append(lotteries, *l)
	}
	return lotteries, rows.Err()
}

func (r *lotteryRepo) GetPayoutConfig(ctx context.Context, db DBTX, lotteryID uuid.UUID) (*domain.PayoutConfig, error) {
	row := db.QueryRow(ctx, `
		SELECT lottery_id, platform_bp, prize_bp, jackpot_bp, payout_bp,
		       match4_bp, match3_bp, match2_bp, match1_fixed, reserve_bp, income_bp
		FROM payout_config WHERE lottery_id = $1`, lotteryID)

	var c domain.PayoutConfig
	var match1Num pgtype.Numeric
	err := row.Scan(&c.LotteryID, &c.PlatformBP, &c.PrizeBP, &c.JackpotBP, &c.PayoutBP,
		&c.Match4BP, &c.Match3BP, &c.Match2BP, &match1Num, &c.ReserveBP, &c.IncomeBP)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan payout config: %w", err)
	}
	c.Match1Fixed, err = NumericToInt64(match1Num)
	if err != nil {
		return nil, fmt.Errorf("convert match1_fixed: %w", err)
	}
	return &c, nil
}

func (r *lotteryRepo) AddAccumulatedJackpot(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID, delta int64) error {
	_, err := tx.Exec(ctx, `
		UPDATE lottery SET accumulated_jackpot = accumulated_jackpot + $1, updated_at = now()
		WHERE id = $2`, Int64ToNumeric(delta), lotteryID)
	if err != nil {
		return fmt.Errorf("add accumulated jackpot: %w", err)
	}
	return nil
}

func (r *lotteryRepo) TakeAccumulatedJackpot(ctx context.Context, tx pgx.Tx, lotteryID uuid.UUID) (int64, error) {
	row := tx.QueryRow(ctx, `
		SELECT accumulated_jackpot FROM lottery WHERE id = $1 FOR UPDATE`, lotteryID)

	var prevNum pgtype.Numeric
	if err := row.Scan(&prevNum); err != nil {
		return 0, fmt.Errorf("lock accumulated jackpot: %w", err)
	}
	prev, err := NumericToInt64(prevNum)
	if err != nil {
		return 0, fmt.Errorf("convert accumulated jackpot: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE lottery SET accumulated_jackpot = 0, updated_at = now()
		WHERE id = $1`, lotteryID)
	if err != nil {
		return 0, fmt.Errorf("reset accumulated jackpot: %w", err)
	}
	return prev, nil
}

func scanLottery(row pgx.Row) (*domain.Lottery, error) {
	var l domain.Lottery
	var priceNum, baseNum, accNum pgtype.Numeric
	err := row.Scan(&l.ID, &l.Slug, &l.Active, &l.NumbersCount, &l.NumbersMax, &priceNum,
		&baseNum, &accNum, &l.Currency, &l.Cadence, &l.DrawHour, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan lottery: %w", err)
	}
	return convertLotteryNumerics(&l, priceNum, baseNum, accNum)
}

func scanLotteryRow(rows pgx.Rows) (*domain.Lottery, error) {
	var l domain.Lottery
	var priceNum, baseNum, accNum pgtype.Numeric
	err := rows.Scan(&l.ID, &l.Slug, &l.Active, &l.NumbersCount, &l.NumbersMax, &priceNum,
		&baseNum, &accNum, &l.Currency, &l.Cadence, &l.DrawHour, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan lottery row: %w", err)
	}
	return convertLotteryNumerics(&l, priceNum, baseNum, accNum)
}

func convertLotteryNumerics(l *domain.Lottery, priceNum, baseNum, accNum pgtype.Numeric) (*domain.Lottery, error) {
	var err error
	l.TicketPriceNano, err = NumericToInt64(priceNum)
	if err != nil {
		return nil, fmt.Errorf("convert ticket_price_nano: %w", err)
	}
	l.BaseJackpot, err = NumericToInt64(baseNum)
	if err != nil {
		return nil, fmt.Errorf("convert base_jackpot: %w", err)
	}
	l.AccumulatedJackpot, err = NumericToInt64(accNum)
	if err != nil {
		return nil, fmt.Errorf("convert accumulated_jackpot: %w", err)
	}
	return l, nil
}
