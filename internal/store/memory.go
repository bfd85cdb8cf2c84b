package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RajarshiPrattipati/Auragold/internal/cache"
	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
)

// memAccount bundles one account's mutable state behind its own mutex, so
// orders against different accounts never contend.
type memAccount struct {
	mu       sync.Mutex
	acct     models.Account
	holdings map[int64]decimal.Decimal // stockID -> quantity
	orders   []models.OrderRecord
}

// Memory is an in-process Store with the same semantics as Postgres. It backs
// the test suite and the zero-dependency demo mode.
type Memory struct {
	mu       sync.RWMutex // stocks, history, id counters
	stocks   map[int64]*models.Stock
	history  map[int64][]models.PricePoint
	accounts *cache.MapCache[int64, *memAccount]

	nextStockID   int64
	nextAccountID int64
}

func NewMemory() *Memory {
	return &Memory{
		stocks:   make(map[int64]*models.Stock),
		history:  make(map[int64][]models.PricePoint),
		accounts: cache.NewMapCache[int64, *memAccount](),
	}
}

func (m *Memory) CreateStock(_ context.Context, symbol, name string, price decimal.Decimal) (models.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.stocks {
		if s.Symbol == symbol {
			return models.Stock{}, ErrSymbolExists
		}
	}
	m.nextStockID++
	now := time.Now().UTC()
	s := &models.Stock{
		ID:           m.nextStockID,
		Symbol:       symbol,
		Name:         name,
		CurrentPrice: price,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.stocks[s.ID] = s
	return *s, nil
}

func (m *Memory) GetStock(_ context.Context, id int64) (models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stocks[id]
	if !ok {
		return models.Stock{}, ErrStockNotFound
	}
	return *s, nil
}

func (m *Memory) ListStocks(_ context.Context) ([]models.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Stock, 0, len(m.stocks))
	for _, s := range m.stocks {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) UpdateStockPrice(_ context.Context, id int64, price decimal.Decimal, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stocks[id]
	if !ok {
		return ErrStockNotFound
	}
	s.CurrentPrice = price
	s.UpdatedAt = at
	m.history[id] = append(m.history[id], models.PricePoint{StockID: id, Price: price, TS: at})
	return nil
}

func (m *Memory) PriceHistory(_ context.Context, stockID int64, since time.Time) ([]models.PricePoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.stocks[stockID]; !ok {
		return nil, ErrStockNotFound
	}
	out := make([]models.PricePoint, 0)
	for _, pp := range m.history[stockID] {
		if !pp.TS.Before(since) {
			out = append(out, pp)
		}
	}
	return out, nil
}

func (m *Memory) SeedHistory(_ context.Context, stockID int64, points []models.PricePoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stocks[stockID]; !ok {
		return ErrStockNotFound
	}
	h := make([]models.PricePoint, len(points))
	copy(h, points)
	m.history[stockID] = h
	return nil
}

func (m *Memory) CreateAccount(_ context.Context, balance decimal.Decimal) (models.Account, error) {
	m.mu.Lock()
	m.nextAccountID++
	id := m.nextAccountID
	m.mu.Unlock()

	now := time.Now().UTC()
	a := &memAccount{
		acct:     models.Account{ID: id, Balance: balance, CreatedAt: now, UpdatedAt: now},
		holdings: make(map[int64]decimal.Decimal),
	}
	m.accounts.Set(id, a)
	return a.acct, nil
}

func (m *Memory) GetAccount(_ context.Context, id int64) (models.Account, error) {
	a, ok := m.accounts.Get(id)
	if !ok {
		return models.Account{}, ErrAccountNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acct, nil
}

func (m *Memory) ApplyOrderEffect(ctx context.Context, eff OrderEffect) (models.OrderRecord, decimal.Decimal, error) {
	var zero decimal.Decimal
	a, ok := m.accounts.Get(eff.AccountID)
	if !ok {
		return models.OrderRecord{}, zero, ErrAccountNotFound
	}
	if _, err := m.GetStock(ctx, eff.StockID); err != nil {
		return models.OrderRecord{}, zero, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch eff.Side {
	case domain.SideBuy:
		if a.acct.Balance.LessThan(eff.Amount) {
			return models.OrderRecord{}, zero, &InsufficientFundsError{Available: a.acct.Balance, Required: eff.Amount}
		}
		a.acct.Balance = a.acct.Balance.Sub(eff.Amount)
		a.holdings[eff.StockID] = a.holdings[eff.StockID].Add(eff.Quantity)

	case domain.SideSell:
		held := a.holdings[eff.StockID]
		if held.LessThan(eff.Quantity) {
			return models.OrderRecord{}, zero, &InsufficientHoldingsError{Available: held, Required: eff.Quantity}
		}
		remaining := held.Sub(eff.Quantity)
		if remaining.IsZero() {
			delete(a.holdings, eff.StockID)
		} else {
			a.holdings[eff.StockID] = remaining
		}
		a.acct.Balance = a.acct.Balance.Add(eff.Amount)

	default:
		return models.OrderRecord{}, zero, fmt.Errorf("invalid side %q", eff.Side)
	}

	now := time.Now().UTC()
	a.acct.UpdatedAt = now
	rec := newOrderRecord(eff, now)
	a.orders = append(a.orders, rec)
	return rec, a.acct.Balance, nil
}

func (m *Memory) AccountHoldings(ctx context.Context, accountID int64) ([]models.Holding, error) {
	a, ok := m.accounts.Get(accountID)
	if !ok {
		return nil, ErrAccountNotFound
	}
	a.mu.Lock()
	type pos struct {
		stockID int64
		qty     decimal.Decimal
	}
	positions := make([]pos, 0, len(a.holdings))
	for id, q := range a.holdings {
		if q.IsPositive() {
			positions = append(positions, pos{stockID: id, qty: q})
		}
	}
	updated := a.acct.UpdatedAt
	a.mu.Unlock()

	out := make([]models.Holding, 0, len(positions))
	for _, p := range positions {
		s, err := m.GetStock(ctx, p.stockID)
		if err != nil {
			return nil, err
		}
		out = append(out, models.Holding{
			AccountID:    accountID,
			StockID:      p.stockID,
			Symbol:       s.Symbol,
			Name:         s.Name,
			Quantity:     p.qty,
			CurrentPrice: s.CurrentPrice,
			UpdatedAt:    updated,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (m *Memory) AccountOrders(_ context.Context, accountID int64) ([]models.OrderRecord, error) {
	a, ok := m.accounts.Get(accountID)
	if !ok {
		return nil, ErrAccountNotFound
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.OrderRecord, len(a.orders))
	copy(out, a.orders)
	return out, nil
}
