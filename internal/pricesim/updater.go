// Package pricesim drives the simulated market: a periodic sweep that
// perturbs every stock's price, a single-stock on-demand update, and a
// historical backfill generator for newly seeded stocks.
package pricesim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RajarshiPrattipati/Auragold/internal/models"
	"github.com/RajarshiPrattipati/Auragold/internal/store"
)

type Updater struct {
	store        store.Store
	logger       *zap.Logger
	maxChangePct float64         // symmetric band, e.g. 10 means ±10%
	floor        decimal.Decimal // prices never drop below this

	mu  sync.Mutex
	rng *rand.Rand
}

func NewUpdater(st store.Store, logger *zap.Logger, maxChangePct float64, floor decimal.Decimal) *Updater {
	return &Updater{
		store:        st,
		logger:       logger,
		maxChangePct: maxChangePct,
		floor:        floor,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// uniform draws from [lo, hi) under the rng lock.
func (u *Updater) uniform(lo, hi float64) float64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return lo + u.rng.Float64()*(hi-lo)
}

// perturb applies a percentage change to a price, clamps at the floor, and
// rounds to cents. The random draw is converted to decimal before it touches
// the price; no float arithmetic happens on money.
func (u *Updater) perturb(old decimal.Decimal, changePct float64) decimal.Decimal {
	mult := decimal.NewFromFloat(1 + changePct/100)
	next := old.Mul(mult)
	if next.LessThan(u.floor) {
		next = u.floor
	}
	return next.Round(2)
}

// Sweep updates every stock once, appending one price point per stock. A
// failure on one stock is logged and does not stop the rest of the sweep;
// only a failure to list the stocks aborts it (retried on the next tick).
func (u *Updater) Sweep(ctx context.Context) error {
	stocks, err := u.store.ListStocks(ctx)
	if err != nil {
		return err
	}
	if len(stocks) == 0 {
		u.logger.Debug("price sweep: no stocks")
		return nil
	}

	updated := 0
	for _, s := range stocks {
		if err := u.updateStock(ctx, s); err != nil {
			u.logger.Error("price update failed",
				zap.String("symbol", s.Symbol), zap.Error(err))
			continue
		}
		updated++
	}
	u.logger.Info("price sweep complete",
		zap.Int("updated", updated), zap.Int("total", len(stocks)))
	return nil
}

// UpdateOne applies the same perturbation rule to a single stock.
func (u *Updater) UpdateOne(ctx context.Context, stockID int64) error {
	s, err := u.store.GetStock(ctx, stockID)
	if err != nil {
		return err
	}
	return u.updateStock(ctx, s)
}

func (u *Updater) updateStock(ctx context.Context, s models.Stock) error {
	changePct := u.uniform(-u.maxChangePct, u.maxChangePct)
	next := u.perturb(s.CurrentPrice, changePct)
	if err := u.store.UpdateStockPrice(ctx, s.ID, next, time.Now().UTC()); err != nil {
		return err
	}
	u.logger.Debug("price updated",
		zap.String("symbol", s.Symbol),
		zap.String("old", s.CurrentPrice.StringFixed(2)),
		zap.String("new", next.StringFixed(2)),
		zap.Float64("change_pct", changePct),
	)
	return nil
}
