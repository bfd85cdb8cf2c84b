// Package store owns all durable state: stocks and their price history,
// account balances, holdings, and the append-only order log.
//
// ApplyOrderEffect is the single atomic unit the order processor builds on:
// balance check, balance/holding mutation, and order-record append happen
// together under a per-account serialization scope, or not at all.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RajarshiPrattipati/Auragold/internal/domain"
	"github.com/RajarshiPrattipati/Auragold/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrStockNotFound   = errors.New("stock not found")
	ErrSymbolExists    = errors.New("stock symbol already exists")
	// ErrConflict marks contention the serialization scope could not resolve.
	// Callers may retry.
	ErrConflict = errors.New("concurrent update conflict")
)

// InsufficientFundsError rejects a BUY whose cash amount exceeds the
// account's balance.
type InsufficientFundsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: available $%s, required $%s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// InsufficientHoldingsError rejects a SELL whose quantity exceeds the
// account's position.
type InsufficientHoldingsError struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientHoldingsError) Error() string {
	return fmt.Sprintf("insufficient stock quantity: available %s, required %s",
		e.Available.String(), e.Required.String())
}

// OrderEffect is a fully priced order ready to be applied: the processor has
// already frozen the price and done the rounding arithmetic.
type OrderEffect struct {
	AccountID int64
	StockID   int64
	Side      domain.Side
	Amount    decimal.Decimal // cash moved, 2dp
	Quantity  decimal.Decimal // shares moved, 6dp
	Price     decimal.Decimal // price per unit at execution
}

type Store interface {
	// Stocks / price store.
	CreateStock(ctx context.Context, symbol, name string, price decimal.Decimal) (models.Stock, error)
	GetStock(ctx context.Context, id int64) (models.Stock, error)
	ListStocks(ctx context.Context) ([]models.Stock, error)
	// UpdateStockPrice writes the new price and appends a PricePoint as one
	// atomic unit.
	UpdateStockPrice(ctx context.Context, id int64, price decimal.Decimal, at time.Time) error
	// PriceHistory returns points with ts >= since, ascending.
	PriceHistory(ctx context.Context, stockID int64, since time.Time) ([]models.PricePoint, error)
	// SeedHistory replaces the stock's history with the given points.
	SeedHistory(ctx context.Context, stockID int64, points []models.PricePoint) error

	// Accounts.
	CreateAccount(ctx context.Context, balance decimal.Decimal) (models.Account, error)
	GetAccount(ctx context.Context, id int64) (models.Account, error)

	// ApplyOrderEffect applies eff atomically and appends exactly one order
	// record, returning the record and the new cash balance. On any error
	// nothing is changed.
	ApplyOrderEffect(ctx context.Context, eff OrderEffect) (models.OrderRecord, decimal.Decimal, error)

	// Valuation reads.
	AccountHoldings(ctx context.Context, accountID int64) ([]models.Holding, error)
	AccountOrders(ctx context.Context, accountID int64) ([]models.OrderRecord, error)
}
