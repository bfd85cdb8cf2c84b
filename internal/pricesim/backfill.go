package pricesim

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/models"
)

var (
	reversionGain = decimal.NewFromFloat(0.02)
	clampLow      = decimal.NewFromFloat(0.2)
	clampHigh     = decimal.NewFromFloat(2.0)
	one           = decimal.NewFromInt(1)
)

// SeedHistory generates `days` days of hourly history for the stock, ending
// exactly at target "now", and replaces the stock's stored history with it.
func (u *Updater) SeedHistory(ctx context.Context, stockID int64, target decimal.Decimal, days int) error {
	if _, err := u.store.GetStock(ctx, stockID); err != nil {
		return err
	}
	points := u.backfill(stockID, target, days, time.Now().UTC())
	if err := u.store.SeedHistory(ctx, stockID, points); err != nil {
		return err
	}
	u.logger.Info("seeded price history",
		zap.Int64("stock_id", stockID), zap.Int("points", len(points)))
	return nil
}

// backfill walks hour by hour toward "now": a random start up to ±30% off the
// target, a bounded ±3% step per hour, and a mean-reversion bias pulling the
// path back toward the target. Every intermediate price is clamped into
// [0.2·target, 2.0·target]; the final point is forced to the exact target.
// Produces days*24 + 1 points in ascending timestamp order.
func (u *Updater) backfill(stockID int64, target decimal.Decimal, days int, now time.Time) []models.PricePoint {
	totalHours := days * 24
	points := make([]models.PricePoint, 0, totalHours+1)

	volatility := u.uniform(-0.30, 0.30)
	price := target.Mul(one.Sub(decimal.NewFromFloat(volatility)))

	lo := target.Mul(clampLow)
	hi := target.Mul(clampHigh)

	for hour := totalHours; hour >= 1; hour-- {
		ts := now.Add(-time.Duration(hour) * time.Hour)

		step := decimal.NewFromFloat(u.uniform(-0.03, 0.03))
		bias := target.Sub(price).Div(target).Mul(reversionGain)
		price = price.Mul(one.Add(step).Add(bias))

		if price.LessThan(lo) {
			price = lo
		} else if price.GreaterThan(hi) {
			price = hi
		}
		points = append(points, models.PricePoint{StockID: stockID, Price: price.Round(2), TS: ts})
	}

	points = append(points, models.PricePoint{StockID: stockID, Price: target, TS: now})
	return points
}
